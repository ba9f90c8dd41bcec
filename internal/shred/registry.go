package shred

import (
	"fmt"
	"sort"
	"sync"

	"eventshred/internal/domain"
	"eventshred/internal/shred/store"
)

// Factory builds a shredder bound to one event and one store bundle. The
// shredding service calls it twice per run with different bundles: once with
// plain stores for the export, once with tx-scoped stores for ShredData.
type Factory func(event domain.Event, stores store.Stores) Shredder

// Registry maps stable identifiers to shredder factories. Hosts iterate it;
// they never need to inspect concrete types.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under its identifier. Identifier collisions are a
// wiring mistake, caught at startup.
func (r *Registry) Register(identifier string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[identifier]; exists {
		panic(fmt.Sprintf("shred: duplicate shredder identifier %q", identifier))
	}
	r.factories[identifier] = f
}

// Get returns the factory for an identifier.
func (r *Registry) Get(identifier string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[identifier]
	return f, ok
}

// Identifiers returns all registered identifiers, sorted for stable
// iteration.
func (r *Registry) Identifiers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// BuiltinRegistry returns a registry with the four built-in shredders.
func BuiltinRegistry() *Registry {
	r := NewRegistry()
	r.Register(EmailIdentifier, func(event domain.Event, stores store.Stores) Shredder {
		return NewEmailShredder(event, stores)
	})
	r.Register(AttendeeNameIdentifier, func(event domain.Event, stores store.Stores) Shredder {
		return NewAttendeeNameShredder(event, stores)
	})
	r.Register(InvoiceAddressIdentifier, func(event domain.Event, stores store.Stores) Shredder {
		return NewInvoiceAddressShredder(event, stores)
	})
	r.Register(QuestionAnswerIdentifier, func(event domain.Event, stores store.Stores) Shredder {
		return NewQuestionAnswerShredder(event, stores)
	})
	return r
}
