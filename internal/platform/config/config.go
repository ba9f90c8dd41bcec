package config

import (
	"os"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr        string
	DatabaseURL string
	// RedisAddr enables the distributed shred lock. Empty means the
	// in-process lock, which is only safe for single-instance deployments.
	RedisAddr string
	LockTTL   time.Duration
	// DevMode runs against in-memory stores instead of PostgreSQL.
	DevMode bool
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("EVENTSHRED_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	dbURL := os.Getenv("EVENTSHRED_DATABASE_URL")
	if dbURL == "" {
		dbURL = "postgres://localhost/eventshred?sslmode=disable"
	}

	lockTTL := 10 * time.Minute
	if raw := os.Getenv("EVENTSHRED_LOCK_TTL"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil {
			lockTTL = parsed
		}
	}

	return Server{
		Addr:        addr,
		DatabaseURL: dbURL,
		RedisAddr:   os.Getenv("EVENTSHRED_REDIS_ADDR"),
		LockTTL:     lockTTL,
		DevMode:     os.Getenv("EVENTSHRED_DEV_MODE") == "true",
	}
}
