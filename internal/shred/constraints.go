package shred

import (
	"time"

	"eventshred/internal/domain"
)

// minOfflineAge is how long an event must be over before its data may be
// shredded. Refunds, chargebacks and invoice corrections still need the
// records inside this window.
const minOfflineAge = 60 * 24 * time.Hour

// IneligibleError says why an event cannot be shredded. The reason is meant
// for end users; the host must surface it and must not proceed to ShredData.
type IneligibleError struct {
	Reason string
}

func (e *IneligibleError) Error() string {
	return e.Reason
}

// ShredConstraints reports why shredding must not run for the event, or nil
// when it may. The check is advisory: callers consult it before offering
// shredding and re-check immediately before acting to close the race
// between check and action.
func ShredConstraints(event domain.Event, now time.Time) error {
	if event.End().After(now.Add(-minOfflineAge)) {
		return &IneligibleError{Reason: "the event needs to be over for at least 60 days before its data can be shredded"}
	}
	if event.Live {
		return &IneligibleError{Reason: "the ticket shop needs to be offline before its data can be shredded"}
	}
	return nil
}
