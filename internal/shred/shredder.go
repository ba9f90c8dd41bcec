package shred

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"eventshred/internal/shred/store"
)

var entriesShredded = promauto.NewCounter(prometheus.CounterOpts{
	Name: "eventshred_log_entries_shredded_total",
	Help: "Log entries whose payload was rewritten with the shredded flag set",
})

// ExportFile is one pre-deletion export artifact: UTF-8 JSON, pretty-printed,
// keyed by order code or position key.
type ExportFile struct {
	Name        string
	ContentType string
	Content     []byte
}

// Shredder is one irreversible-removal strategy, bound to exactly one event
// for its lifetime. Instances are stateless beyond that binding and are
// discarded after use.
type Shredder interface {
	// Identifier is the stable lowercase machine key, used to persist and
	// audit which shredders ran. Collisions across implementations are a
	// configuration error.
	Identifier() string
	// VerboseName is a short human-readable display name.
	VerboseName() string
	// Description says what gets removed. May contain HTML.
	Description() string
	// GenerateFiles exports the data that is about to be destroyed. It is
	// read-only and safe to call without subsequently shredding.
	GenerateFiles(ctx context.Context) ([]ExportFile, error)
	// ShredData destroys the data. The caller must run it inside a single
	// all-or-nothing transaction; any error aborts the whole run.
	ShredData(ctx context.Context) error
}

// jsonExport pretty-prints v as one export file.
func jsonExport(name string, v any) (ExportFile, error) {
	content, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return ExportFile{}, fmt.Errorf("marshal %s: %w", name, err)
	}
	return ExportFile{Name: name, ContentType: "application/json", Content: content}, nil
}

// redactLogs applies a shredder's schema to the event's log entries. Entries
// with an empty payload carry nothing to redact and are skipped; a payload
// that fails to parse aborts the run so the enclosing transaction rolls back
// rather than leaving live PII behind an unshredded entry.
func redactLogs(ctx context.Context, logs store.LogEntryStore, eventSlug string, schema Schema) error {
	for _, rule := range schema {
		entries, err := logs.ListByAction(ctx, eventSlug, rule.Action, rule.Contains)
		if err != nil {
			return fmt.Errorf("list %q log entries: %w", rule.Action, err)
		}
		for _, entry := range entries {
			if len(entry.Data) == 0 {
				continue
			}
			var payload map[string]any
			if err := json.Unmarshal(entry.Data, &payload); err != nil {
				return fmt.Errorf("log entry %d: decode payload: %w", entry.ID, err)
			}
			masked, handled := rule.Apply(payload)
			if !handled {
				continue
			}
			data, err := json.Marshal(masked)
			if err != nil {
				return fmt.Errorf("log entry %d: encode payload: %w", entry.ID, err)
			}
			if err := logs.MarkShredded(ctx, entry.ID, data); err != nil {
				return fmt.Errorf("log entry %d: persist: %w", entry.ID, err)
			}
			entriesShredded.Inc()
		}
	}
	return nil
}
