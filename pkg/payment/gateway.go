// Package payment talks to the hosted checkout provider. The storefront only
// needs three things from it: open a checkout session for an order, read a
// session back, and trust the provider's webhook calls.
package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrNotConfigured        = errors.New("payment: gateway not configured")
	ErrSessionNotFound      = errors.New("payment: checkout session not found")
	ErrInvalidSignature     = errors.New("payment: invalid webhook signature")
	ErrInvalidPayload       = errors.New("payment: invalid webhook payload")
	ErrGatewayRequestFailed = errors.New("payment: gateway request failed")
	ErrInvalidRequest       = errors.New("payment: invalid checkout request")
)

// Session states reported by the provider.
const (
	SessionOpen     = "open"
	SessionComplete = "complete"
	SessionExpired  = "expired"

	PaymentPaid   = "paid"
	PaymentUnpaid = "unpaid"
)

// Webhook event types the storefront reacts to.
const (
	EventCheckoutCompleted     = "checkout.session.completed"
	EventAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
	EventCheckoutExpired       = "checkout.session.expired"
	EventAsyncPaymentFailed    = "checkout.session.async_payment_failed"
)

// CheckoutRequest describes one hosted checkout for a single order.
type CheckoutRequest struct {
	// Amount is in major units (dollars); the adapter converts to cents.
	Amount   decimal.Decimal
	Currency string
	// Description is the line shown on the hosted page.
	Description string
	SuccessURL  string
	CancelURL   string
	Metadata    map[string]string
	// IdempotencyKey makes retried creates safe.
	IdempotencyKey string
}

// Validate checks the request before it leaves the process.
func (r *CheckoutRequest) Validate() error {
	if !r.Amount.IsPositive() {
		return errors.Join(ErrInvalidRequest, errors.New("amount must be positive"))
	}
	if r.Currency == "" {
		return errors.Join(ErrInvalidRequest, errors.New("currency is required"))
	}
	if r.SuccessURL == "" || r.CancelURL == "" {
		return errors.Join(ErrInvalidRequest, errors.New("success and cancel URLs are required"))
	}
	return nil
}

// CheckoutSession is the provider's view of a checkout.
type CheckoutSession struct {
	ID            string
	URL           string
	Status        string
	PaymentStatus string
	// AmountTotal is in minor units (cents), as the provider reports it.
	AmountTotal int64
	Currency    string
	Metadata    map[string]string
}

// Paid reports whether the provider has captured the payment.
func (s *CheckoutSession) Paid() bool { return s.PaymentStatus == PaymentPaid }

// Event is a verified webhook notification.
type Event struct {
	ID      string
	Type    string
	Session CheckoutSession
}

// SettlesPayment reports whether the event announces a completed payment.
func (e *Event) SettlesPayment() bool {
	switch e.Type {
	case EventCheckoutCompleted, EventAsyncPaymentSucceeded:
		return e.Session.Paid()
	}
	return false
}

// Gateway is the port the checkout service depends on.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req *CheckoutRequest) (*CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error)
	ParseWebhook(payload []byte, signatureHeader string) (*Event, error)
}
