package audit

import (
	"context"
	"database/sql"
	"fmt"

	txcontext "eventshred/pkg/platform/tx"
)

// PostgresStore persists the shred audit trail. Writes honor a transaction
// carried in context, so the "shred completed" record commits or rolls back
// together with the shredding itself.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the audit table. Unlike the shop tables, this one is
// owned by this service.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS shred_audit (
			id         UUID PRIMARY KEY,
			event_slug TEXT NOT NULL,
			shredder   TEXT NOT NULL,
			action     TEXT NOT NULL,
			ts         TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("ensure audit schema: %w", err)
	}
	return nil
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	_, err := s.execer(ctx).ExecContext(ctx,
		`INSERT INTO shred_audit (id, event_slug, shredder, action, ts)
		 VALUES ($1, $2, $3, $4, $5)`,
		event.ID, event.EventSlug, event.Shredder, event.Action, event.Timestamp)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByEvent(ctx context.Context, eventSlug string) ([]Event, error) {
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT id, event_slug, shredder, action, ts
		 FROM shred_audit WHERE event_slug = $1 ORDER BY ts`, eventSlug)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var event Event
		if err := rows.Scan(&event.ID, &event.EventSlug, &event.Shredder, &event.Action, &event.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
