package main

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"eventshred/internal/shred/store"
	txcontext "eventshred/pkg/platform/tx"
)

// Shredding a large event rewrites many log entries; the default timeout is
// generous but still bounds a run that lost its database.
const defaultShredTxTimeout = 5 * time.Minute

// shredPostgresTx runs one shredder's destructive update as a single
// database transaction. The transaction travels in the context so every
// store call inside fn lands on it.
type shredPostgresTx struct {
	db      *sql.DB
	stores  store.Stores
	timeout time.Duration
}

func newShredPostgresTx(db *sql.DB, stores store.Stores) *shredPostgresTx {
	return &shredPostgresTx{db: db, stores: stores}
}

func (t *shredPostgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context, stores store.Stores) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("transaction aborted: %w", err)
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultShredTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin shred transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, tx), t.stores); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit shred transaction: %w", err)
	}
	return nil
}

// shredMemoryTx is the dev-mode boundary: a coarse lock instead of real
// rollback semantics.
type shredMemoryTx struct {
	mu     sync.Mutex
	stores store.Stores
}

func newShredMemoryTx(stores store.Stores) *shredMemoryTx {
	return &shredMemoryTx{stores: stores}
}

func (t *shredMemoryTx) RunInTx(ctx context.Context, fn func(ctx context.Context, stores store.Stores) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx, t.stores)
}
