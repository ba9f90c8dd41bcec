package service

import (
	"context"

	"eventshred/internal/shred/store"
)

// TxRunner provides the all-or-nothing boundary for one shredder's
// destructive update. A failure partway leaves either the fully-prior or
// fully-posterior state, never a partial mix of masked and unmasked entries.
// Implementations wrap a database transaction or, in-memory, a coarse lock.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, stores store.Stores) error) error
}
