package shred

import (
	"context"
	"fmt"

	"eventshred/internal/domain"
	"eventshred/internal/shred/store"
)

const AttendeeNameIdentifier = "attendee_names"

// AttendeeNameShredder removes all attendee names from order positions, and
// redacts logged changes to them.
type AttendeeNameShredder struct {
	event  domain.Event
	stores store.Stores
}

func NewAttendeeNameShredder(event domain.Event, stores store.Stores) *AttendeeNameShredder {
	return &AttendeeNameShredder{event: event, stores: stores}
}

func (s *AttendeeNameShredder) Identifier() string  { return AttendeeNameIdentifier }
func (s *AttendeeNameShredder) VerboseName() string { return "Attendee names" }

func (s *AttendeeNameShredder) Description() string {
	return "This will remove all attendee names from order positions, as well as logged changes to them."
}

func (s *AttendeeNameShredder) schema() Schema {
	return Schema{
		{Action: domain.ActionOrderModified, Apply: MaskRowKeys("attendee_name")},
	}
}

func (s *AttendeeNameShredder) GenerateFiles(ctx context.Context) ([]ExportFile, error) {
	names, err := s.stores.Positions.AttendeeNames(ctx, s.event.Slug)
	if err != nil {
		return nil, fmt.Errorf("list attendee names: %w", err)
	}
	file, err := jsonExport("attendee-names.json", names)
	if err != nil {
		return nil, err
	}
	return []ExportFile{file}, nil
}

func (s *AttendeeNameShredder) ShredData(ctx context.Context) error {
	if err := s.stores.Positions.ClearAttendeeNames(ctx, s.event.Slug); err != nil {
		return fmt.Errorf("clear attendee names: %w", err)
	}
	return redactLogs(ctx, s.stores.Logs, s.event.Slug, s.schema())
}
