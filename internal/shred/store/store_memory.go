package store

import (
	"context"
	"slices"
	"strings"
	"sync"

	"eventshred/internal/domain"
	"eventshred/pkg/platform/sentinel"
)

// InMemory backs every store interface with mutex-guarded maps. It serves
// unit tests and dev mode; it does not provide transactional rollback, so
// failure-path tests assert on state, not on atomicity.
type InMemory struct {
	mu        sync.RWMutex
	events    map[string]domain.Event
	orders    []domain.Order
	positions []domain.OrderPosition
	addresses []domain.InvoiceAddress
	answers   []domain.QuestionAnswer
	logs      []domain.LogEntry
	nextLogID int64
}

func NewInMemory() *InMemory {
	return &InMemory{events: make(map[string]domain.Event), nextLogID: 1}
}

// Stores returns the bundle view over this instance. Addresses and answers
// get their own view types because both interfaces name their destructive
// operation DeleteForEvent.
func (m *InMemory) Stores() Stores {
	return Stores{
		Events:    m,
		Orders:    m,
		Positions: m,
		Addresses: memAddresses{m},
		Answers:   memAnswers{m},
		Logs:      m,
	}
}

type memAddresses struct{ *InMemory }

func (s memAddresses) ByOrder(_ context.Context, eventSlug string) (map[string]domain.InvoiceAddress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	codes := s.orderCodes(eventSlug)
	addresses := make(map[string]domain.InvoiceAddress)
	for _, a := range s.addresses {
		if codes[a.OrderCode] {
			addresses[a.OrderCode] = a
		}
	}
	return addresses, nil
}

func (s memAddresses) DeleteForEvent(_ context.Context, eventSlug string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	codes := s.orderCodes(eventSlug)
	s.InMemory.addresses = slices.DeleteFunc(s.InMemory.addresses, func(a domain.InvoiceAddress) bool {
		return codes[a.OrderCode]
	})
	return nil
}

type memAnswers struct{ *InMemory }

func (s memAnswers) ByPosition(_ context.Context, eventSlug string) (map[string][]domain.QuestionAnswer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	codes := s.orderCodes(eventSlug)
	answers := make(map[string][]domain.QuestionAnswer)
	for _, a := range s.answers {
		if codes[a.OrderCode] {
			key := domain.PositionKey(a.OrderCode, a.PositionID)
			answers[key] = append(answers[key], a)
		}
	}
	return answers, nil
}

func (s memAnswers) DeleteForEvent(_ context.Context, eventSlug string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	codes := s.orderCodes(eventSlug)
	s.InMemory.answers = slices.DeleteFunc(s.InMemory.answers, func(a domain.QuestionAnswer) bool {
		return codes[a.OrderCode]
	})
	return nil
}

// Seed helpers. Tests and dev mode populate the record set through these.

func (m *InMemory) PutEvent(event domain.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[event.Slug] = event
}

func (m *InMemory) PutOrder(order domain.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders = append(m.orders, order)
}

func (m *InMemory) PutPosition(position domain.OrderPosition) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positions = append(m.positions, position)
}

func (m *InMemory) PutAddress(address domain.InvoiceAddress) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addresses = append(m.addresses, address)
}

func (m *InMemory) PutAnswer(answer domain.QuestionAnswer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answers = append(m.answers, answer)
}

// PutLogEntry assigns the entry an ID and returns it.
func (m *InMemory) PutLogEntry(entry domain.LogEntry) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.ID = m.nextLogID
	m.nextLogID++
	m.logs = append(m.logs, entry)
	return entry.ID
}

func (m *InMemory) FindBySlug(_ context.Context, slug string) (domain.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	event, ok := m.events[slug]
	if !ok {
		return domain.Event{}, sentinel.ErrNotFound
	}
	return event, nil
}

func (m *InMemory) EmailsByOrder(_ context.Context, eventSlug string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	emails := make(map[string]string)
	for _, o := range m.orders {
		if o.EventSlug == eventSlug && o.Email != nil {
			emails[o.Code] = *o.Email
		}
	}
	return emails, nil
}

func (m *InMemory) ClearEmails(_ context.Context, eventSlug string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.orders {
		if m.orders[i].EventSlug == eventSlug {
			m.orders[i].Email = nil
		}
	}
	return nil
}

func (m *InMemory) orderCodes(eventSlug string) map[string]bool {
	codes := make(map[string]bool)
	for _, o := range m.orders {
		if o.EventSlug == eventSlug {
			codes[o.Code] = true
		}
	}
	return codes
}

func (m *InMemory) ListKeys(_ context.Context, eventSlug string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	codes := m.orderCodes(eventSlug)
	var keys []string
	for _, p := range m.positions {
		if codes[p.OrderCode] {
			keys = append(keys, p.Key())
		}
	}
	slices.Sort(keys)
	return keys, nil
}

func (m *InMemory) AttendeeEmails(_ context.Context, eventSlug string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	codes := m.orderCodes(eventSlug)
	emails := make(map[string]string)
	for _, p := range m.positions {
		if codes[p.OrderCode] && p.AttendeeEmail != nil {
			emails[p.Key()] = *p.AttendeeEmail
		}
	}
	return emails, nil
}

func (m *InMemory) AttendeeNames(_ context.Context, eventSlug string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	codes := m.orderCodes(eventSlug)
	names := make(map[string]string)
	for _, p := range m.positions {
		if codes[p.OrderCode] && p.AttendeeName != nil {
			names[p.Key()] = *p.AttendeeName
		}
	}
	return names, nil
}

func (m *InMemory) ClearAttendeeEmails(_ context.Context, eventSlug string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	codes := m.orderCodes(eventSlug)
	for i := range m.positions {
		if codes[m.positions[i].OrderCode] {
			m.positions[i].AttendeeEmail = nil
		}
	}
	return nil
}

func (m *InMemory) ClearAttendeeNames(_ context.Context, eventSlug string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	codes := m.orderCodes(eventSlug)
	for i := range m.positions {
		if codes[m.positions[i].OrderCode] {
			m.positions[i].AttendeeName = nil
		}
	}
	return nil
}

func (m *InMemory) ListByAction(_ context.Context, eventSlug string, action string, contains bool) ([]domain.LogEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var entries []domain.LogEntry
	for _, entry := range m.logs {
		if entry.EventSlug != eventSlug {
			continue
		}
		if contains {
			if !strings.Contains(entry.ActionType, action) {
				continue
			}
		} else if entry.ActionType != action {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (m *InMemory) MarkShredded(_ context.Context, id int64, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.logs {
		if m.logs[i].ID == id {
			m.logs[i].Data = append([]byte(nil), data...)
			m.logs[i].Shredded = true
			return nil
		}
	}
	return sentinel.ErrNotFound
}
