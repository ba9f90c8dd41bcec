package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"eventshred/internal/audit"
	"eventshred/internal/platform/config"
	"eventshred/internal/platform/httpserver"
	"eventshred/internal/platform/lock"
	"eventshred/internal/platform/logger"
	"eventshred/internal/shred"
	"eventshred/internal/shred/handler"
	"eventshred/internal/shred/metrics"
	"eventshred/internal/shred/service"
	"eventshred/internal/shred/store"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	var (
		stores     store.Stores
		runner     service.TxRunner
		auditStore audit.Store
	)
	if cfg.DevMode {
		memory := store.NewInMemory()
		stores = memory.Stores()
		runner = newShredMemoryTx(stores)
		auditStore = audit.NewInMemoryStore()
		log.Warn("dev mode: in-memory stores, data does not survive restarts")
	} else {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Error("open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			log.Error("ping database", "error", err)
			os.Exit(1)
		}

		postgres := store.NewPostgres(db)
		if err := postgres.EnsureSchema(ctx); err != nil {
			log.Error("ensure schema", "error", err)
			os.Exit(1)
		}
		pgAudit := audit.NewPostgresStore(db)
		if err := pgAudit.EnsureSchema(ctx); err != nil {
			log.Error("ensure audit schema", "error", err)
			os.Exit(1)
		}

		stores = postgres.Stores()
		runner = newShredPostgresTx(db, stores)
		auditStore = pgAudit
	}

	var locker lock.Locker = lock.NewInMemoryLocker()
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		locker = lock.NewRedisLocker(client, cfg.LockTTL)
	}

	svc := service.New(
		log,
		shred.BuiltinRegistry(),
		stores,
		runner,
		locker,
		metrics.New(),
		audit.NewPublisher(auditStore),
	)

	router := chi.NewRouter()
	router.Handle("/metrics", promhttp.Handler())
	handler.New(svc, log).Register(router)

	srv := httpserver.New(cfg.Addr, router)
	log.Info("starting eventshred", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
