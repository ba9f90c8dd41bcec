package shred

import (
	"context"
	"fmt"

	"eventshred/internal/domain"
	"eventshred/internal/shred/store"
)

const EmailIdentifier = "order_emails"

// EmailShredder removes all e-mail addresses from orders and attendees, and
// redacts logged e-mail contents.
type EmailShredder struct {
	event  domain.Event
	stores store.Stores
}

func NewEmailShredder(event domain.Event, stores store.Stores) *EmailShredder {
	return &EmailShredder{event: event, stores: stores}
}

func (s *EmailShredder) Identifier() string  { return EmailIdentifier }
func (s *EmailShredder) VerboseName() string { return "E-mails" }

func (s *EmailShredder) Description() string {
	return "This will remove all e-mail addresses from orders and attendees, as well as logged e-mail contents."
}

func (s *EmailShredder) schema() Schema {
	return Schema{
		{Action: domain.ActionEmailFamily, Contains: true, Apply: MaskKeys("recipient", "message")},
		{Action: domain.ActionContactChanged, Apply: MaskKeys("old_email", "new_email")},
		// Order edits log one row per changed position; only the e-mail
		// field belongs to this shredder, the rest of the row does not.
		{Action: domain.ActionOrderModified, Apply: MaskRowKeys("attendee_email")},
	}
}

func (s *EmailShredder) GenerateFiles(ctx context.Context) ([]ExportFile, error) {
	byOrder, err := s.stores.Orders.EmailsByOrder(ctx, s.event.Slug)
	if err != nil {
		return nil, fmt.Errorf("list order emails: %w", err)
	}
	byAttendee, err := s.stores.Positions.AttendeeEmails(ctx, s.event.Slug)
	if err != nil {
		return nil, fmt.Errorf("list attendee emails: %w", err)
	}
	orderFile, err := jsonExport("emails-by-order.json", byOrder)
	if err != nil {
		return nil, err
	}
	attendeeFile, err := jsonExport("emails-by-attendee.json", byAttendee)
	if err != nil {
		return nil, err
	}
	return []ExportFile{orderFile, attendeeFile}, nil
}

func (s *EmailShredder) ShredData(ctx context.Context) error {
	if err := s.stores.Positions.ClearAttendeeEmails(ctx, s.event.Slug); err != nil {
		return fmt.Errorf("clear attendee emails: %w", err)
	}
	if err := s.stores.Orders.ClearEmails(ctx, s.event.Slug); err != nil {
		return fmt.Errorf("clear order emails: %w", err)
	}
	return redactLogs(ctx, s.stores.Logs, s.event.Slug, s.schema())
}
