package audit

import (
	"time"

	"github.com/google/uuid"
)

// Actions recorded by this service. This is the service's own operational
// trail of which shredders ran for which event; it is distinct from the shop
// log entries the shredders redact.
const (
	ActionExportGenerated = "shred.export.generated"
	ActionShredCompleted  = "shred.completed"
)

// Event is one append-only audit record.
type Event struct {
	ID        uuid.UUID
	EventSlug string
	Shredder  string
	Action    string
	Timestamp time.Time
}
