package shred

import (
	"context"
	"fmt"

	"eventshred/internal/domain"
	"eventshred/internal/shred/store"
)

const InvoiceAddressIdentifier = "invoice_addresses"

// InvoiceAddressShredder deletes all invoice addresses from orders, and
// redacts logged changes to them.
type InvoiceAddressShredder struct {
	event  domain.Event
	stores store.Stores
}

func NewInvoiceAddressShredder(event domain.Event, stores store.Stores) *InvoiceAddressShredder {
	return &InvoiceAddressShredder{event: event, stores: stores}
}

func (s *InvoiceAddressShredder) Identifier() string  { return InvoiceAddressIdentifier }
func (s *InvoiceAddressShredder) VerboseName() string { return "Invoice addresses" }

func (s *InvoiceAddressShredder) Description() string {
	return "This will remove all invoice addresses from orders, as well as logged changes to them."
}

func (s *InvoiceAddressShredder) schema() Schema {
	// Only fields that still hold a value are masked; empty fields carry
	// nothing to redact.
	return Schema{
		{Action: domain.ActionOrderModified, Apply: MaskTruthyIn("invoice_data")},
	}
}

func (s *InvoiceAddressShredder) GenerateFiles(ctx context.Context) ([]ExportFile, error) {
	addresses, err := s.stores.Addresses.ByOrder(ctx, s.event.Slug)
	if err != nil {
		return nil, fmt.Errorf("list invoice addresses: %w", err)
	}
	file, err := jsonExport("invoice-addresses.json", addresses)
	if err != nil {
		return nil, err
	}
	return []ExportFile{file}, nil
}

func (s *InvoiceAddressShredder) ShredData(ctx context.Context) error {
	if err := s.stores.Addresses.DeleteForEvent(ctx, s.event.Slug); err != nil {
		return fmt.Errorf("delete invoice addresses: %w", err)
	}
	return redactLogs(ctx, s.stores.Logs, s.event.Slug, s.schema())
}
