package shred

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventshred/internal/domain"
	"eventshred/internal/shred/store"
)

func strptr(s string) *string {
	return &s
}

// seedShop builds the record set of one closed event plus an unrelated event
// that must never be touched.
func seedShop(t *testing.T) (*store.InMemory, domain.Event) {
	t.Helper()
	memory := store.NewInMemory()

	event := domain.Event{Slug: "demo", Name: "DemoCon"}
	memory.PutEvent(event)
	memory.PutEvent(domain.Event{Slug: "other", Name: "OtherCon"})

	memory.PutOrder(domain.Order{Code: "ABC12", EventSlug: "demo", Email: strptr("jane@example.org")})
	memory.PutOrder(domain.Order{Code: "DEF34", EventSlug: "demo"})
	memory.PutOrder(domain.Order{Code: "ZZZ99", EventSlug: "other", Email: strptr("zoe@example.org")})

	memory.PutPosition(domain.OrderPosition{
		OrderCode: "ABC12", PositionID: 1,
		AttendeeName: strptr("Jane Doe"), AttendeeEmail: strptr("j@x.com"),
	})
	memory.PutPosition(domain.OrderPosition{OrderCode: "ABC12", PositionID: 2})
	memory.PutPosition(domain.OrderPosition{
		OrderCode: "DEF34", PositionID: 1,
		AttendeeName: strptr("Max Power"), AttendeeEmail: strptr("max@x.com"),
	})

	memory.PutAddress(domain.InvoiceAddress{
		OrderCode: "ABC12", Company: "Acme", Name: "Jane Doe",
		Street: "Main St 1", ZipCode: "12345", City: "Springfield", Country: "DE",
	})

	memory.PutAnswer(domain.QuestionAnswer{
		OrderCode: "ABC12", PositionID: 1, Question: "Dietary needs", Answer: "vegetarian",
	})
	memory.PutAnswer(domain.QuestionAnswer{
		OrderCode: "ABC12", PositionID: 1, Question: "Shirt size", Answer: "XL",
	})
	memory.PutAnswer(domain.QuestionAnswer{
		OrderCode: "DEF34", PositionID: 1, Question: "Dietary needs", Answer: "none",
	})

	memory.PutLogEntry(domain.LogEntry{
		EventSlug: "demo", ActionType: "order.email.sent",
		Data: []byte(`{"recipient":"jane@example.org","message":"Your ticket is attached.","subject":"Order ABC12"}`),
	})
	memory.PutLogEntry(domain.LogEntry{
		EventSlug: "demo", ActionType: domain.ActionContactChanged,
		Data: []byte(`{"old_email":"jane@example.org","new_email":"jane.doe@example.org"}`),
	})
	memory.PutLogEntry(domain.LogEntry{
		EventSlug: "demo", ActionType: domain.ActionOrderModified,
		Data: []byte(`{"data":[{"attendee_name":"Jane Doe","attendee_email":"j@x.com","question_7":"vegetarian"}],"invoice_data":{"company":"Acme","vat_id":""}}`),
	})
	// Entries with an empty payload carry nothing to redact.
	memory.PutLogEntry(domain.LogEntry{EventSlug: "demo", ActionType: domain.ActionOrderModified})
	memory.PutLogEntry(domain.LogEntry{
		EventSlug: "demo", ActionType: "order.paid",
		Data: []byte(`{"amount":100,"provider":"banktransfer"}`),
	})
	memory.PutLogEntry(domain.LogEntry{
		EventSlug: "other", ActionType: domain.ActionOrderModified,
		Data: []byte(`{"data":[{"attendee_name":"Zoe"}]}`),
	})

	return memory, event
}

func modifiedEntry(t *testing.T, memory *store.InMemory, slug string) (domain.LogEntry, map[string]any) {
	t.Helper()
	entries, err := memory.ListByAction(context.Background(), slug, domain.ActionOrderModified, false)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(entries[0].Data, &payload))
	return entries[0], payload
}

func firstRow(t *testing.T, payload map[string]any) map[string]any {
	t.Helper()
	rows, ok := payload["data"].([]any)
	require.True(t, ok)
	require.NotEmpty(t, rows)
	row, ok := rows[0].(map[string]any)
	require.True(t, ok)
	return row
}

func TestEmailShredderExportCompleteness(t *testing.T) {
	memory, event := seedShop(t)
	ctx := context.Background()

	files, err := NewEmailShredder(event, memory.Stores()).GenerateFiles(ctx)
	require.NoError(t, err)
	require.Len(t, files, 2)

	assert.Equal(t, "emails-by-order.json", files[0].Name)
	assert.Equal(t, "application/json", files[0].ContentType)
	var byOrder map[string]string
	require.NoError(t, json.Unmarshal(files[0].Content, &byOrder))
	assert.Equal(t, map[string]string{"ABC12": "jane@example.org"}, byOrder)
	// Pretty-printed with 4-space indentation.
	assert.Contains(t, string(files[0].Content), "\n    \"ABC12\"")

	assert.Equal(t, "emails-by-attendee.json", files[1].Name)
	var byAttendee map[string]string
	require.NoError(t, json.Unmarshal(files[1].Content, &byAttendee))
	assert.Equal(t, map[string]string{"ABC12-1": "j@x.com", "DEF34-1": "max@x.com"}, byAttendee)
}

func TestGenerateFilesDoesNotMutate(t *testing.T) {
	memory, event := seedShop(t)
	ctx := context.Background()

	for _, identifier := range BuiltinRegistry().Identifiers() {
		factory, _ := BuiltinRegistry().Get(identifier)
		_, err := factory(event, memory.Stores()).GenerateFiles(ctx)
		require.NoError(t, err)
	}

	emails, err := memory.EmailsByOrder(ctx, "demo")
	require.NoError(t, err)
	assert.Len(t, emails, 1)
	entries, err := memory.ListByAction(ctx, "demo", domain.ActionOrderModified, false)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.False(t, entry.Shredded)
	}
}

func TestEmailShredderDestructiveness(t *testing.T) {
	memory, event := seedShop(t)
	ctx := context.Background()

	require.NoError(t, NewEmailShredder(event, memory.Stores()).ShredData(ctx))

	emails, err := memory.EmailsByOrder(ctx, "demo")
	require.NoError(t, err)
	assert.Empty(t, emails)
	attendeeEmails, err := memory.AttendeeEmails(ctx, "demo")
	require.NoError(t, err)
	assert.Empty(t, attendeeEmails)

	sent, err := memory.ListByAction(ctx, "demo", "order.email", true)
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.True(t, sent[0].Shredded)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(sent[0].Data, &payload))
	assert.Equal(t, Marker, payload["recipient"])
	assert.Equal(t, Marker, payload["message"])
	assert.Equal(t, "Order ABC12", payload["subject"])

	changed, err := memory.ListByAction(ctx, "demo", domain.ActionContactChanged, false)
	require.NoError(t, err)
	require.Len(t, changed, 1)
	assert.True(t, changed[0].Shredded)
	require.NoError(t, json.Unmarshal(changed[0].Data, &payload))
	assert.Equal(t, Marker, payload["old_email"])
	assert.Equal(t, Marker, payload["new_email"])

	entry, modified := modifiedEntry(t, memory, "demo")
	assert.True(t, entry.Shredded)
	row := firstRow(t, modified)
	assert.Equal(t, Marker, row["attendee_email"])
	assert.Equal(t, "Jane Doe", row["attendee_name"])
	assert.Equal(t, "vegetarian", row["question_7"])

	// Names survive an e-mail shred.
	names, err := memory.AttendeeNames(ctx, "demo")
	require.NoError(t, err)
	assert.Len(t, names, 2)
}

func TestAttendeeNameShredder(t *testing.T) {
	memory, event := seedShop(t)
	ctx := context.Background()

	sh := NewAttendeeNameShredder(event, memory.Stores())
	files, err := sh.GenerateFiles(ctx)
	require.NoError(t, err)
	require.Len(t, files, 1)
	var names map[string]string
	require.NoError(t, json.Unmarshal(files[0].Content, &names))
	assert.Equal(t, map[string]string{"ABC12-1": "Jane Doe", "DEF34-1": "Max Power"}, names)

	require.NoError(t, sh.ShredData(ctx))

	remaining, err := memory.AttendeeNames(ctx, "demo")
	require.NoError(t, err)
	assert.Empty(t, remaining)

	_, modified := modifiedEntry(t, memory, "demo")
	row := firstRow(t, modified)
	assert.Equal(t, Marker, row["attendee_name"])
	assert.Equal(t, "j@x.com", row["attendee_email"])
	assert.Equal(t, "vegetarian", row["question_7"])

	// E-mails survive a name shred.
	emails, err := memory.AttendeeEmails(ctx, "demo")
	require.NoError(t, err)
	assert.Len(t, emails, 2)
}

func TestInvoiceAddressShredder(t *testing.T) {
	memory, event := seedShop(t)
	ctx := context.Background()

	sh := NewInvoiceAddressShredder(event, memory.Stores())
	files, err := sh.GenerateFiles(ctx)
	require.NoError(t, err)
	require.Len(t, files, 1)
	var addresses map[string]domain.InvoiceAddress
	require.NoError(t, json.Unmarshal(files[0].Content, &addresses))
	require.Contains(t, addresses, "ABC12")
	assert.Equal(t, "Acme", addresses["ABC12"].Company)

	require.NoError(t, sh.ShredData(ctx))

	remaining, err := memory.Stores().Addresses.ByOrder(ctx, "demo")
	require.NoError(t, err)
	assert.Empty(t, remaining)

	entry, modified := modifiedEntry(t, memory, "demo")
	assert.True(t, entry.Shredded)
	invoice, ok := modified["invoice_data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, Marker, invoice["company"])
	assert.Equal(t, "", invoice["vat_id"])

	// Rows in the same entry belong to other shredders.
	row := firstRow(t, modified)
	assert.Equal(t, "Jane Doe", row["attendee_name"])
	assert.Equal(t, "vegetarian", row["question_7"])

	// Answers survive an address shred.
	answers, err := memory.Stores().Answers.ByPosition(ctx, "demo")
	require.NoError(t, err)
	assert.Len(t, answers, 2)
}

func TestQuestionAnswerShredder(t *testing.T) {
	memory, event := seedShop(t)
	ctx := context.Background()

	sh := NewQuestionAnswerShredder(event, memory.Stores())
	files, err := sh.GenerateFiles(ctx)
	require.NoError(t, err)
	require.Len(t, files, 1)
	var export map[string][]domain.QuestionAnswer
	require.NoError(t, json.Unmarshal(files[0].Content, &export))
	// Every position appears, including the one without answers.
	require.Len(t, export, 3)
	assert.Len(t, export["ABC12-1"], 2)
	assert.Empty(t, export["ABC12-2"])
	assert.Equal(t, "none", export["DEF34-1"][0].Answer)

	require.NoError(t, sh.ShredData(ctx))

	remaining, err := memory.Stores().Answers.ByPosition(ctx, "demo")
	require.NoError(t, err)
	assert.Empty(t, remaining)

	_, modified := modifiedEntry(t, memory, "demo")
	row := firstRow(t, modified)
	assert.Equal(t, "Jane Doe", row["attendee_name"])
	assert.Equal(t, "j@x.com", row["attendee_email"])
	assert.Equal(t, Marker, row["question_7"])

	// Addresses survive an answer shred.
	addresses, err := memory.Stores().Addresses.ByOrder(ctx, "demo")
	require.NoError(t, err)
	assert.Len(t, addresses, 1)
}

func TestShreddersNeverTouchOtherEvents(t *testing.T) {
	memory, event := seedShop(t)
	ctx := context.Background()

	for _, identifier := range BuiltinRegistry().Identifiers() {
		factory, _ := BuiltinRegistry().Get(identifier)
		require.NoError(t, factory(event, memory.Stores()).ShredData(ctx))
	}

	emails, err := memory.EmailsByOrder(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"ZZZ99": "zoe@example.org"}, emails)

	entries, err := memory.ListByAction(ctx, "other", domain.ActionOrderModified, false)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Shredded)
	assert.Contains(t, string(entries[0].Data), "Zoe")
}

func TestShredDataIsIdempotent(t *testing.T) {
	memory, event := seedShop(t)
	ctx := context.Background()

	sh := NewEmailShredder(event, memory.Stores())
	require.NoError(t, sh.ShredData(ctx))
	_, first := modifiedEntry(t, memory, "demo")

	require.NoError(t, sh.ShredData(ctx))
	_, second := modifiedEntry(t, memory, "demo")

	assert.Equal(t, first, second)
}

func TestShredderOrderDoesNotMatter(t *testing.T) {
	ctx := context.Background()
	orders := [][]string{
		{"order_emails", "attendee_names", "invoice_addresses", "question_answers"},
		{"question_answers", "invoice_addresses", "attendee_names", "order_emails"},
	}

	var payloads []map[string]any
	for _, order := range orders {
		memory, event := seedShop(t)
		for _, identifier := range order {
			factory, ok := BuiltinRegistry().Get(identifier)
			require.True(t, ok)
			require.NoError(t, factory(event, memory.Stores()).ShredData(ctx))
		}
		_, payload := modifiedEntry(t, memory, "demo")
		payloads = append(payloads, payload)
	}

	assert.Equal(t, payloads[0], payloads[1])

	// After all four ran, nothing recoverable remains in the shared entry.
	row := firstRow(t, payloads[0])
	for field, value := range row {
		assert.Equal(t, Marker, value, "field %s must be masked", field)
	}
}

func TestMalformedPayloadAbortsTheRun(t *testing.T) {
	memory, event := seedShop(t)
	ctx := context.Background()

	memory.PutLogEntry(domain.LogEntry{
		EventSlug: "demo", ActionType: domain.ActionOrderModified,
		Data: []byte(`{"data": [`),
	})

	err := NewAttendeeNameShredder(event, memory.Stores()).ShredData(ctx)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "decode payload"))
}
