// Package events names the storefront's domain events and their payloads.
// Listeners are wired in Register.
package events

import (
	"github.com/shopspring/decimal"

	"github.com/perennia/storefront/app/models"
)

const (
	OrderCreated       = "order.created"
	OrderPaid          = "order.paid"
	OrderStatusChanged = "order.status_changed"
	ContactReceived    = "contact.received"
)

// OrderEvent is the payload of every order.* event. Its JSON form is what
// the admin live feed receives.
type OrderEvent struct {
	Type          string          `json:"type"`
	OrderID       string          `json:"order_id"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"payment_status"`
	TotalUSD      decimal.Decimal `json:"total_usd"`
	UserEmail     string          `json:"-"`
}

func NewOrderEvent(typ string, o models.Order) OrderEvent {
	return OrderEvent{
		Type:          typ,
		OrderID:       o.ID,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		TotalUSD:      o.TotalUSD,
		UserEmail:     o.UserEmail,
	}
}

// ContactEvent announces a new contact-form message.
type ContactEvent struct {
	MessageID string
	Name      string
	Email     string
	Subject   string
}
