//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"eventshred/internal/shred/store"
	"eventshred/pkg/platform/sentinel"
	txcontext "eventshred/pkg/platform/tx"
	"eventshred/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	stores   store.Stores
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	pg := store.NewPostgres(s.postgres.DB)
	s.Require().NoError(pg.EnsureSchema(context.Background()))
	s.stores = pg.Stores()
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	err := s.postgres.TruncateTables(ctx,
		"log_entries", "question_answers", "invoice_addresses", "order_positions", "orders", "events")
	s.Require().NoError(err)
	s.seed(ctx)
}

func (s *PostgresStoreSuite) seed(ctx context.Context) {
	db := s.postgres.DB
	end := time.Now().Add(-90 * 24 * time.Hour)

	_, err := db.ExecContext(ctx,
		`INSERT INTO events (slug, name, date_from, date_to, live) VALUES
			('demo', 'DemoCon', $1, $2, FALSE),
			('other', 'OtherCon', $1, $2, FALSE)`,
		end.Add(-48*time.Hour), end)
	s.Require().NoError(err)

	_, err = db.ExecContext(ctx,
		`INSERT INTO orders (code, event_slug, email) VALUES
			('ABC12', 'demo', 'jane@example.org'),
			('DEF34', 'demo', NULL),
			('ZZZ99', 'other', 'zed@example.org')`)
	s.Require().NoError(err)

	_, err = db.ExecContext(ctx,
		`INSERT INTO order_positions (order_code, position_id, attendee_name, attendee_email) VALUES
			('ABC12', 1, 'Jane Doe', 'j@x.com'),
			('ABC12', 2, NULL, NULL),
			('ZZZ99', 1, 'Zed', NULL)`)
	s.Require().NoError(err)

	_, err = db.ExecContext(ctx,
		`INSERT INTO invoice_addresses (order_code, company, name, city) VALUES
			('ABC12', 'Acme', 'Jane Doe', 'Berlin'),
			('ZZZ99', '', 'Zed', 'Paris')`)
	s.Require().NoError(err)

	_, err = db.ExecContext(ctx,
		`INSERT INTO question_answers (order_code, position_id, question, answer) VALUES
			('ABC12', 1, 'Shirt size', 'XL'),
			('ZZZ99', 1, 'Shirt size', 'S')`)
	s.Require().NoError(err)

	_, err = db.ExecContext(ctx,
		`INSERT INTO log_entries (event_slug, action_type, data) VALUES
			('demo', 'order.modified', '{"data":[{"attendee_name":"Jane Doe"}]}'),
			('demo', 'order.email.sent', '{"recipient":"jane@example.org"}'),
			('other', 'order.modified', '{"data":[]}')`)
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) TestFindBySlug() {
	ctx := context.Background()

	event, err := s.stores.Events.FindBySlug(ctx, "demo")
	s.Require().NoError(err)
	s.Equal("DemoCon", event.Name)
	s.False(event.Live)
	s.Require().NotNil(event.DateTo)

	_, err = s.stores.Events.FindBySlug(ctx, "missing")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestOrderEmailsScopedToEvent() {
	ctx := context.Background()

	emails, err := s.stores.Orders.EmailsByOrder(ctx, "demo")
	s.Require().NoError(err)
	s.Equal(map[string]string{"ABC12": "jane@example.org"}, emails)

	s.Require().NoError(s.stores.Orders.ClearEmails(ctx, "demo"))

	emails, err = s.stores.Orders.EmailsByOrder(ctx, "demo")
	s.Require().NoError(err)
	s.Empty(emails)

	// The other event is untouched.
	emails, err = s.stores.Orders.EmailsByOrder(ctx, "other")
	s.Require().NoError(err)
	s.Len(emails, 1)
}

func (s *PostgresStoreSuite) TestPositions() {
	ctx := context.Background()

	keys, err := s.stores.Positions.ListKeys(ctx, "demo")
	s.Require().NoError(err)
	s.Equal([]string{"ABC12-1", "ABC12-2"}, keys)

	names, err := s.stores.Positions.AttendeeNames(ctx, "demo")
	s.Require().NoError(err)
	s.Equal(map[string]string{"ABC12-1": "Jane Doe"}, names)

	s.Require().NoError(s.stores.Positions.ClearAttendeeNames(ctx, "demo"))

	names, err = s.stores.Positions.AttendeeNames(ctx, "demo")
	s.Require().NoError(err)
	s.Empty(names)

	emails, err := s.stores.Positions.AttendeeEmails(ctx, "demo")
	s.Require().NoError(err)
	s.Equal(map[string]string{"ABC12-1": "j@x.com"}, emails)
}

func (s *PostgresStoreSuite) TestAddressesAndAnswers() {
	ctx := context.Background()

	addresses, err := s.stores.Addresses.ByOrder(ctx, "demo")
	s.Require().NoError(err)
	s.Require().Len(addresses, 1)
	s.Equal("Acme", addresses["ABC12"].Company)

	s.Require().NoError(s.stores.Addresses.DeleteForEvent(ctx, "demo"))

	addresses, err = s.stores.Addresses.ByOrder(ctx, "demo")
	s.Require().NoError(err)
	s.Empty(addresses)

	// Answers survive an address delete.
	answers, err := s.stores.Answers.ByPosition(ctx, "demo")
	s.Require().NoError(err)
	s.Require().Len(answers["ABC12-1"], 1)
	s.Equal("XL", answers["ABC12-1"][0].Answer)

	s.Require().NoError(s.stores.Answers.DeleteForEvent(ctx, "demo"))

	answers, err = s.stores.Answers.ByPosition(ctx, "demo")
	s.Require().NoError(err)
	s.Empty(answers)

	answers, err = s.stores.Answers.ByPosition(ctx, "other")
	s.Require().NoError(err)
	s.Len(answers["ZZZ99-1"], 1)
}

func (s *PostgresStoreSuite) TestLogEntries() {
	ctx := context.Background()

	exact, err := s.stores.Logs.ListByAction(ctx, "demo", "order.modified", false)
	s.Require().NoError(err)
	s.Require().Len(exact, 1)
	s.Equal("order.modified", exact[0].ActionType)

	bySubstring, err := s.stores.Logs.ListByAction(ctx, "demo", "order.email", true)
	s.Require().NoError(err)
	s.Require().Len(bySubstring, 1)
	s.False(bySubstring[0].Shredded)

	s.Require().NoError(s.stores.Logs.MarkShredded(ctx, bySubstring[0].ID, []byte(`{"recipient":"█"}`)))

	bySubstring, err = s.stores.Logs.ListByAction(ctx, "demo", "order.email", true)
	s.Require().NoError(err)
	s.Require().Len(bySubstring, 1)
	s.True(bySubstring[0].Shredded)
	s.JSONEq(`{"recipient":"█"}`, string(bySubstring[0].Data))

	err = s.stores.Logs.MarkShredded(ctx, 999999, []byte(`{}`))
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestTransactionRollback() {
	ctx := context.Background()

	tx, err := s.postgres.DB.BeginTx(ctx, nil)
	s.Require().NoError(err)
	txCtx := txcontext.WithTx(ctx, tx)

	s.Require().NoError(s.stores.Orders.ClearEmails(txCtx, "demo"))

	emails, err := s.stores.Orders.EmailsByOrder(txCtx, "demo")
	s.Require().NoError(err)
	s.Empty(emails)

	s.Require().NoError(tx.Rollback())

	emails, err = s.stores.Orders.EmailsByOrder(ctx, "demo")
	s.Require().NoError(err)
	s.Len(emails, 1)
}
