package domain

import "fmt"

// Order is a purchase in the shop, identified by its human-readable code.
// Email is nil once shredded.
type Order struct {
	Code      string
	EventSlug string
	Email     *string
}

// OrderPosition is a single ticket within an order. Attendee fields are nil
// once shredded.
type OrderPosition struct {
	OrderCode     string
	PositionID    int
	AttendeeName  *string
	AttendeeEmail *string
}

// Key returns the stable human-identifiable export key for a position.
func (p OrderPosition) Key() string {
	return fmt.Sprintf("%s-%d", p.OrderCode, p.PositionID)
}

// PositionKey builds the same key from its parts, for stores that join
// orders and positions without materializing an OrderPosition.
func PositionKey(orderCode string, positionID int) string {
	return fmt.Sprintf("%s-%d", orderCode, positionID)
}

// InvoiceAddress holds the billing address attached to an order. The JSON
// tags are the shop's serialization schema and are what the pre-deletion
// export emits.
type InvoiceAddress struct {
	OrderCode string `json:"-"`
	Company   string `json:"company"`
	Name      string `json:"name"`
	Street    string `json:"street"`
	ZipCode   string `json:"zipcode"`
	City      string `json:"city"`
	Country   string `json:"country"`
	VATID     string `json:"vat_id"`
}

// QuestionAnswer is a free-text answer an attendee gave to a checkout
// question, attached to one order position.
type QuestionAnswer struct {
	OrderCode  string `json:"-"`
	PositionID int    `json:"-"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
}
