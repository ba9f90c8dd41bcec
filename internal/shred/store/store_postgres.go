package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"eventshred/internal/domain"
	"eventshred/pkg/platform/sentinel"
	txcontext "eventshred/pkg/platform/tx"
)

// Postgres backs every store interface with PostgreSQL over database/sql.
// Each store honors a transaction carried in the context, so the same code
// runs inside the shredding transaction and outside it for exports.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Stores returns the bundle view over this instance.
func (p *Postgres) Stores() Stores {
	return Stores{
		Events:    pgEvents{p.db},
		Orders:    pgOrders{p.db},
		Positions: pgPositions{p.db},
		Addresses: pgAddresses{p.db},
		Answers:   pgAnswers{p.db},
		Logs:      pgLogs{p.db},
	}
}

// EnsureSchema creates the tables this service reads and shreds. The shop
// system owns these in production; dev mode and the integration tests run
// against an empty database.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS events (
			slug      TEXT PRIMARY KEY,
			name      TEXT NOT NULL,
			date_from TIMESTAMPTZ NOT NULL,
			date_to   TIMESTAMPTZ,
			live      BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			code       TEXT PRIMARY KEY,
			event_slug TEXT NOT NULL REFERENCES events (slug),
			email      TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS order_positions (
			order_code     TEXT NOT NULL REFERENCES orders (code),
			position_id    INTEGER NOT NULL,
			attendee_name  TEXT,
			attendee_email TEXT,
			PRIMARY KEY (order_code, position_id)
		)`,
		`CREATE TABLE IF NOT EXISTS invoice_addresses (
			order_code TEXT PRIMARY KEY REFERENCES orders (code),
			company    TEXT NOT NULL DEFAULT '',
			name       TEXT NOT NULL DEFAULT '',
			street     TEXT NOT NULL DEFAULT '',
			zipcode    TEXT NOT NULL DEFAULT '',
			city       TEXT NOT NULL DEFAULT '',
			country    TEXT NOT NULL DEFAULT '',
			vat_id     TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS question_answers (
			id          BIGSERIAL PRIMARY KEY,
			order_code  TEXT NOT NULL REFERENCES orders (code),
			position_id INTEGER NOT NULL,
			question    TEXT NOT NULL,
			answer      TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS log_entries (
			id          BIGSERIAL PRIMARY KEY,
			event_slug  TEXT NOT NULL REFERENCES events (slug),
			action_type TEXT NOT NULL,
			data        TEXT NOT NULL DEFAULT '',
			shredded    BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE INDEX IF NOT EXISTS log_entries_event_action_idx
			ON log_entries (event_slug, action_type)`,
	}
	for _, stmt := range statements {
		if _, err := p.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// dbExecutor is satisfied by *sql.DB and *sql.Tx.
type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func execer(ctx context.Context, db *sql.DB) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return db
}

type pgEvents struct{ db *sql.DB }

func (s pgEvents) FindBySlug(ctx context.Context, slug string) (domain.Event, error) {
	row := execer(ctx, s.db).QueryRowContext(ctx,
		`SELECT slug, name, date_from, date_to, live FROM events WHERE slug = $1`, slug)
	var event domain.Event
	err := row.Scan(&event.Slug, &event.Name, &event.DateFrom, &event.DateTo, &event.Live)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Event{}, fmt.Errorf("event %q: %w", slug, sentinel.ErrNotFound)
	}
	if err != nil {
		return domain.Event{}, fmt.Errorf("query event: %w", err)
	}
	return event, nil
}

type pgOrders struct{ db *sql.DB }

func (s pgOrders) EmailsByOrder(ctx context.Context, eventSlug string) (map[string]string, error) {
	rows, err := execer(ctx, s.db).QueryContext(ctx,
		`SELECT code, email FROM orders WHERE event_slug = $1 AND email IS NOT NULL`, eventSlug)
	if err != nil {
		return nil, fmt.Errorf("query order emails: %w", err)
	}
	defer rows.Close()

	emails := make(map[string]string)
	for rows.Next() {
		var code, email string
		if err := rows.Scan(&code, &email); err != nil {
			return nil, fmt.Errorf("scan order email: %w", err)
		}
		emails[code] = email
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order emails: %w", err)
	}
	return emails, nil
}

func (s pgOrders) ClearEmails(ctx context.Context, eventSlug string) error {
	_, err := execer(ctx, s.db).ExecContext(ctx,
		`UPDATE orders SET email = NULL WHERE event_slug = $1 AND email IS NOT NULL`, eventSlug)
	if err != nil {
		return fmt.Errorf("clear order emails: %w", err)
	}
	return nil
}

type pgPositions struct{ db *sql.DB }

func (s pgPositions) ListKeys(ctx context.Context, eventSlug string) ([]string, error) {
	rows, err := execer(ctx, s.db).QueryContext(ctx,
		`SELECT p.order_code, p.position_id
		 FROM order_positions p
		 JOIN orders o ON o.code = p.order_code
		 WHERE o.event_slug = $1
		 ORDER BY p.order_code, p.position_id`, eventSlug)
	if err != nil {
		return nil, fmt.Errorf("query positions: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var code string
		var positionID int
		if err := rows.Scan(&code, &positionID); err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		keys = append(keys, domain.PositionKey(code, positionID))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate positions: %w", err)
	}
	return keys, nil
}

func (s pgPositions) attendeeField(ctx context.Context, eventSlug, column string) (map[string]string, error) {
	query := fmt.Sprintf(
		`SELECT p.order_code, p.position_id, p.%s
		 FROM order_positions p
		 JOIN orders o ON o.code = p.order_code
		 WHERE o.event_slug = $1 AND p.%s IS NOT NULL`, column, column)
	rows, err := execer(ctx, s.db).QueryContext(ctx, query, eventSlug)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", column, err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var code, value string
		var positionID int
		if err := rows.Scan(&code, &positionID, &value); err != nil {
			return nil, fmt.Errorf("scan %s: %w", column, err)
		}
		values[domain.PositionKey(code, positionID)] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", column, err)
	}
	return values, nil
}

func (s pgPositions) clearAttendeeField(ctx context.Context, eventSlug, column string) error {
	query := fmt.Sprintf(
		`UPDATE order_positions SET %s = NULL
		 WHERE %s IS NOT NULL
		   AND order_code IN (SELECT code FROM orders WHERE event_slug = $1)`, column, column)
	if _, err := execer(ctx, s.db).ExecContext(ctx, query, eventSlug); err != nil {
		return fmt.Errorf("clear %s: %w", column, err)
	}
	return nil
}

func (s pgPositions) AttendeeEmails(ctx context.Context, eventSlug string) (map[string]string, error) {
	return s.attendeeField(ctx, eventSlug, "attendee_email")
}

func (s pgPositions) AttendeeNames(ctx context.Context, eventSlug string) (map[string]string, error) {
	return s.attendeeField(ctx, eventSlug, "attendee_name")
}

func (s pgPositions) ClearAttendeeEmails(ctx context.Context, eventSlug string) error {
	return s.clearAttendeeField(ctx, eventSlug, "attendee_email")
}

func (s pgPositions) ClearAttendeeNames(ctx context.Context, eventSlug string) error {
	return s.clearAttendeeField(ctx, eventSlug, "attendee_name")
}

type pgAddresses struct{ db *sql.DB }

func (s pgAddresses) ByOrder(ctx context.Context, eventSlug string) (map[string]domain.InvoiceAddress, error) {
	rows, err := execer(ctx, s.db).QueryContext(ctx,
		`SELECT a.order_code, a.company, a.name, a.street, a.zipcode, a.city, a.country, a.vat_id
		 FROM invoice_addresses a
		 JOIN orders o ON o.code = a.order_code
		 WHERE o.event_slug = $1`, eventSlug)
	if err != nil {
		return nil, fmt.Errorf("query invoice addresses: %w", err)
	}
	defer rows.Close()

	addresses := make(map[string]domain.InvoiceAddress)
	for rows.Next() {
		var a domain.InvoiceAddress
		err := rows.Scan(&a.OrderCode, &a.Company, &a.Name, &a.Street, &a.ZipCode, &a.City, &a.Country, &a.VATID)
		if err != nil {
			return nil, fmt.Errorf("scan invoice address: %w", err)
		}
		addresses[a.OrderCode] = a
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invoice addresses: %w", err)
	}
	return addresses, nil
}

func (s pgAddresses) DeleteForEvent(ctx context.Context, eventSlug string) error {
	_, err := execer(ctx, s.db).ExecContext(ctx,
		`DELETE FROM invoice_addresses
		 WHERE order_code IN (SELECT code FROM orders WHERE event_slug = $1)`, eventSlug)
	if err != nil {
		return fmt.Errorf("delete invoice addresses: %w", err)
	}
	return nil
}

type pgAnswers struct{ db *sql.DB }

func (s pgAnswers) ByPosition(ctx context.Context, eventSlug string) (map[string][]domain.QuestionAnswer, error) {
	rows, err := execer(ctx, s.db).QueryContext(ctx,
		`SELECT q.order_code, q.position_id, q.question, q.answer
		 FROM question_answers q
		 JOIN orders o ON o.code = q.order_code
		 WHERE o.event_slug = $1
		 ORDER BY q.id`, eventSlug)
	if err != nil {
		return nil, fmt.Errorf("query answers: %w", err)
	}
	defer rows.Close()

	answers := make(map[string][]domain.QuestionAnswer)
	for rows.Next() {
		var a domain.QuestionAnswer
		if err := rows.Scan(&a.OrderCode, &a.PositionID, &a.Question, &a.Answer); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		key := domain.PositionKey(a.OrderCode, a.PositionID)
		answers[key] = append(answers[key], a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate answers: %w", err)
	}
	return answers, nil
}

func (s pgAnswers) DeleteForEvent(ctx context.Context, eventSlug string) error {
	_, err := execer(ctx, s.db).ExecContext(ctx,
		`DELETE FROM question_answers
		 WHERE order_code IN (SELECT code FROM orders WHERE event_slug = $1)`, eventSlug)
	if err != nil {
		return fmt.Errorf("delete answers: %w", err)
	}
	return nil
}

type pgLogs struct{ db *sql.DB }

func (s pgLogs) ListByAction(ctx context.Context, eventSlug string, action string, contains bool) ([]domain.LogEntry, error) {
	query := `SELECT id, event_slug, action_type, data, shredded
		 FROM log_entries WHERE event_slug = $1 AND action_type = $2 ORDER BY id`
	arg := action
	if contains {
		query = `SELECT id, event_slug, action_type, data, shredded
		 FROM log_entries WHERE event_slug = $1 AND action_type LIKE $2 ORDER BY id`
		arg = "%" + action + "%"
	}
	rows, err := execer(ctx, s.db).QueryContext(ctx, query, eventSlug, arg)
	if err != nil {
		return nil, fmt.Errorf("query log entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.LogEntry
	for rows.Next() {
		var entry domain.LogEntry
		var data string
		if err := rows.Scan(&entry.ID, &entry.EventSlug, &entry.ActionType, &data, &entry.Shredded); err != nil {
			return nil, fmt.Errorf("scan log entry: %w", err)
		}
		entry.Data = []byte(data)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate log entries: %w", err)
	}
	return entries, nil
}

func (s pgLogs) MarkShredded(ctx context.Context, id int64, data []byte) error {
	result, err := execer(ctx, s.db).ExecContext(ctx,
		`UPDATE log_entries SET data = $2, shredded = TRUE WHERE id = $1`, id, string(data))
	if err != nil {
		return fmt.Errorf("mark log entry shredded: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark log entry shredded: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("log entry %d: %w", id, sentinel.ErrNotFound)
	}
	return nil
}
