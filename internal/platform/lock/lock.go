package lock

import (
	"context"
	"errors"
	"sync"
)

// ErrLocked is returned when another run already holds the key.
var ErrLocked = errors.New("shred already in progress for this event")

// Locker serializes shred runs per event. Two shredders rewriting the same
// log entry concurrently would clobber each other's redactions, so the
// service takes a lock for the whole run.
type Locker interface {
	// Acquire takes the lock for key and returns a release func. It does
	// not block: a held lock yields ErrLocked.
	Acquire(ctx context.Context, key string) (func(), error)
}

// InMemoryLocker serializes within a single process.
type InMemoryLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func NewInMemoryLocker() *InMemoryLocker {
	return &InMemoryLocker{held: make(map[string]bool)}
}

func (l *InMemoryLocker) Acquire(_ context.Context, key string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return nil, ErrLocked
	}
	l.held[key] = true
	release := func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, key)
	}
	return release, nil
}
