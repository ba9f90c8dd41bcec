package store

import (
	"context"

	"eventshred/internal/domain"
)

// Stores are interface-driven to keep the shredding logic testable and to
// allow swapping in-memory and SQL persistence without rewiring business
// code. Every method is scoped to one event; the shredders never reach
// outside the record set they are told about.

type EventStore interface {
	FindBySlug(ctx context.Context, slug string) (domain.Event, error)
}

type OrderStore interface {
	// EmailsByOrder returns order code -> contact email for every order
	// that still has one.
	EmailsByOrder(ctx context.Context, eventSlug string) (map[string]string, error)
	ClearEmails(ctx context.Context, eventSlug string) error
}

type PositionStore interface {
	// ListKeys returns the "{order-code}-{position-id}" key of every
	// position under the event.
	ListKeys(ctx context.Context, eventSlug string) ([]string, error)
	// AttendeeEmails and AttendeeNames return position key -> value for
	// positions that still carry one.
	AttendeeEmails(ctx context.Context, eventSlug string) (map[string]string, error)
	AttendeeNames(ctx context.Context, eventSlug string) (map[string]string, error)
	ClearAttendeeEmails(ctx context.Context, eventSlug string) error
	ClearAttendeeNames(ctx context.Context, eventSlug string) error
}

type InvoiceAddressStore interface {
	ByOrder(ctx context.Context, eventSlug string) (map[string]domain.InvoiceAddress, error)
	// DeleteForEvent removes the rows entirely; addresses are not nulled
	// field by field.
	DeleteForEvent(ctx context.Context, eventSlug string) error
}

type AnswerStore interface {
	// ByPosition returns position key -> answers for positions that have
	// any.
	ByPosition(ctx context.Context, eventSlug string) (map[string][]domain.QuestionAnswer, error)
	DeleteForEvent(ctx context.Context, eventSlug string) error
}

type LogEntryStore interface {
	// ListByAction returns the event's entries whose action type equals
	// action, or contains it when contains is set. Shredded entries are
	// included; re-masking them is a no-op.
	ListByAction(ctx context.Context, eventSlug string, action string, contains bool) ([]domain.LogEntry, error)
	// MarkShredded persists the rewritten payload and the shredded flag
	// together, never independently.
	MarkShredded(ctx context.Context, id int64, data []byte) error
}

// Stores bundles everything a shredder touches. The transaction runner hands
// a tx-scoped bundle to ShredData; reads outside a transaction use the plain
// bundle.
type Stores struct {
	Events    EventStore
	Orders    OrderStore
	Positions PositionStore
	Addresses InvoiceAddressStore
	Answers   AnswerStore
	Logs      LogEntryStore
}
