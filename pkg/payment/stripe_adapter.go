package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	gohttp "net/http"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"github.com/stripe/stripe-go/v81/webhook"
)

// StripeAdapter implements Gateway with the Stripe SDK.
type StripeAdapter struct {
	config StripeConfig
	api    *client.API
}

// NewStripeAdapter validates cfg and returns an adapter.
func NewStripeAdapter(cfg StripeConfig) (*StripeAdapter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(cfg.APIBase),
		HTTPClient:        &gohttp.Client{Timeout: cfg.Timeout},
		MaxNetworkRetries: stripe.Int64(int64(cfg.Retries - 1)),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelError},
	})
	api := client.New(cfg.APIKey, &stripe.Backends{API: backend, Connect: backend, Uploads: backend})
	return &StripeAdapter{config: cfg, api: api}, nil
}

func toSession(s *stripe.CheckoutSession) *CheckoutSession {
	return &CheckoutSession{
		ID:            s.ID,
		URL:           s.URL,
		Status:        string(s.Status),
		PaymentStatus: string(s.PaymentStatus),
		AmountTotal:   s.AmountTotal,
		Currency:      string(s.Currency),
		Metadata:      s.Metadata,
	}
}

// CreateCheckoutSession opens a one-line hosted checkout in payment mode.
func (a *StripeAdapter) CreateCheckoutSession(ctx context.Context, req *CheckoutRequest) (*CheckoutSession, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	s, err := a.api.CheckoutSessions.New(checkoutParams(ctx, req))
	if err != nil {
		return nil, a.apiError(err, "create session")
	}
	return toSession(s), nil
}

// GetCheckoutSession retrieves a session by id.
func (a *StripeAdapter) GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	if sessionID == "" {
		return nil, ErrSessionNotFound
	}

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	s, err := a.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, a.apiError(err, "get session")
	}
	return toSession(s), nil
}

func (a *StripeAdapter) apiError(err error, op string) error {
	var se *stripe.Error
	if !errors.As(err, &se) {
		return fmt.Errorf("stripe: %s: %w", op, err)
	}
	if se.HTTPStatusCode == gohttp.StatusNotFound || se.Code == stripe.ErrorCodeResourceMissing {
		return ErrSessionNotFound
	}
	return fmt.Errorf("%w: status %d: %s", ErrGatewayRequestFailed, se.HTTPStatusCode, se.Msg)
}

// ParseWebhook verifies the Stripe-Signature header (when a signing secret is
// configured) and decodes the event.
func (a *StripeAdapter) ParseWebhook(payload []byte, signatureHeader string) (*Event, error) {
	var (
		evt stripe.Event
		err error
	)
	if a.config.WebhookSecret != "" {
		evt, err = webhook.ConstructEventWithOptions(payload, signatureHeader, a.config.WebhookSecret,
			webhook.ConstructEventOptions{Tolerance: a.config.Tolerance, IgnoreAPIVersionMismatch: true})
		if err != nil {
			return nil, webhookError(err)
		}
	} else if err := json.Unmarshal(payload, &evt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return toEvent(&evt)
}

func webhookError(err error) error {
	switch {
	case errors.Is(err, webhook.ErrNotSigned),
		errors.Is(err, webhook.ErrInvalidHeader),
		errors.Is(err, webhook.ErrNoValidSignature),
		errors.Is(err, webhook.ErrTooOld):
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
}

// toEvent keeps the checkout session carried by checkout.session.* events;
// other event types come back with an empty Session.
func toEvent(evt *stripe.Event) (*Event, error) {
	if evt.Type == "" {
		return nil, fmt.Errorf("%w: missing event type", ErrInvalidPayload)
	}

	out := &Event{ID: evt.ID, Type: string(evt.Type)}
	if strings.HasPrefix(out.Type, "checkout.session.") && evt.Data != nil && len(evt.Data.Raw) > 0 {
		var s stripe.CheckoutSession
		if err := json.Unmarshal(evt.Data.Raw, &s); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		out.Session = *toSession(&s)
	}
	return out, nil
}

// SignsWebhooks reports whether incoming webhooks are signature checked.
func (a *StripeAdapter) SignsWebhooks() bool { return a.config.WebhookSecret != "" }

func checkoutParams(ctx context.Context, req *CheckoutRequest) *stripe.CheckoutSessionParams {
	name := req.Description
	if name == "" {
		name = "Order"
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(req.Currency),
				UnitAmount: stripe.Int64(toMinorUnits(req.Amount)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(name),
				},
			},
		}},
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	return params
}

var hundred = decimal.NewFromInt(100)

func toMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// FromMinorUnits converts a provider amount in cents back to dollars.
func FromMinorUnits(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

var _ Gateway = (*StripeAdapter)(nil)
