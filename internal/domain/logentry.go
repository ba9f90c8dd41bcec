package domain

import "encoding/json"

// Action types the shop's logging subsystem attaches to entries. The
// shredders know which of these historically embedded PII; a new log shape
// carrying one of these data categories must be added to the matching
// shredder's schema.
const (
	// ActionOrderModified is logged on every order edit. Its payload carries
	// a "data" list with one row per changed position and, for invoice
	// changes, an "invoice_data" mapping.
	ActionOrderModified = "order.modified"

	// ActionContactChanged is logged when the order contact address changes.
	// Its payload carries "old_email" and "new_email".
	ActionContactChanged = "order.contact.changed"

	// ActionEmailFamily matches, by substring, the order.email.* entries
	// (sent, resent, failed, ...). Their payloads carry "recipient" and
	// "message".
	ActionEmailFamily = "order.email"
)

// LogEntry is an append-only audit record of a past shop action. The payload
// references records only by denormalized snapshot values, which is why
// shredding must rewrite the payload text instead of cascading through
// foreign keys.
//
// Once Shredded is true, Data contains no recoverable PII in the fields the
// owning shredder is responsible for.
type LogEntry struct {
	ID         int64
	EventSlug  string
	ActionType string
	Data       json.RawMessage
	Shredded   bool
}
