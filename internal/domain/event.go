package domain

import "time"

// Event is the scoping unit for all records and log entries subject to one
// shredding operation. It is owned by the shop system; this service only
// reads it.
type Event struct {
	Slug     string
	Name     string
	DateFrom time.Time
	DateTo   *time.Time
	Live     bool
}

// End returns the later of the event's start and end time. Events without a
// declared end date are treated as ending when they start.
func (e Event) End() time.Time {
	if e.DateTo != nil && e.DateTo.After(e.DateFrom) {
		return *e.DateTo
	}
	return e.DateFrom
}
