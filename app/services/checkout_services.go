package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/perennia/storefront/app/events"
	"github.com/perennia/storefront/app/models"
	"github.com/perennia/storefront/app/repositories"
	"github.com/perennia/storefront/pkg/event"
	"github.com/perennia/storefront/pkg/logger"
	"github.com/perennia/storefront/pkg/metrics"
	"github.com/perennia/storefront/pkg/middleware"
	"github.com/perennia/storefront/pkg/orm"
	"github.com/perennia/storefront/pkg/payment"
	"github.com/perennia/storefront/pkg/rbac"
	"github.com/perennia/storefront/pkg/workerpool"
)

// Outcomes of WaitForPayment.
const (
	WaitSuccess = "success"
	WaitExpired = "expired"
	WaitTimeout = "timeout"
)

const (
	checkoutCurrency   = "usd"
	reconcileWindow    = 24 * time.Hour
	reconcileBatch     = 200
	reconcileWorkers   = 4
	defaultPollTries   = 5
	defaultPollBetween = 2 * time.Second
)

type CheckoutInput struct {
	OrderID   string `json:"order_id"   validate:"required"`
	OriginURL string `json:"origin_url" validate:"required,url"`
}

type CheckoutResult struct {
	URL       string `json:"url"`
	SessionID string `json:"session_id"`
}

// PaymentState is a checkout session's status as the storefront reports it.
// AmountTotal is in cents.
type PaymentState struct {
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	AmountTotal   int64  `json:"amount_total"`
	Currency      string `json:"currency"`
}

// PollOptions bounds WaitForPayment.
type PollOptions struct {
	Attempts int
	Interval time.Duration
}

type CheckoutService struct {
	orders   *repositories.OrderRepository
	payments *repositories.PaymentRepository
	gateway  payment.Gateway
	poll     PollOptions
}

// NewCheckoutService wires checkout to gateway. A nil gateway means payments
// are not configured: session calls fail with 500 and webhooks are ignored.
func NewCheckoutService(orders *repositories.OrderRepository, payments *repositories.PaymentRepository, gateway payment.Gateway, poll PollOptions) *CheckoutService {
	if poll.Attempts <= 0 {
		poll.Attempts = defaultPollTries
	}
	if poll.Interval <= 0 {
		poll.Interval = defaultPollBetween
	}
	return &CheckoutService{orders: orders, payments: payments, gateway: gateway, poll: poll}
}

func errNotConfigured() *Error { return Internal("Payment not configured") }

// CreateSession opens a hosted checkout for the caller's unpaid order and
// records it as an initiated transaction. Only the buyer may pay; admins get
// no exception. The order id is the gateway idempotency key, so a repeated
// call can hand back a session that is already recorded.
func (s *CheckoutService) CreateSession(ctx context.Context, who middleware.Identity, in CheckoutInput) (CheckoutResult, error) {
	order, err := s.orders.FindByID(ctx, in.OrderID)
	if err != nil {
		return CheckoutResult{}, notFoundAs(err, "Order not found", "create checkout session")
	}
	if order.UserID != who.UserID {
		return CheckoutResult{}, Forbidden("Access denied")
	}
	if order.PaymentStatus == models.PaymentPaid {
		return CheckoutResult{}, BadRequest("Order already paid")
	}
	if s.gateway == nil {
		return CheckoutResult{}, errNotConfigured()
	}

	origin := strings.TrimRight(in.OriginURL, "/")
	sess, err := s.gateway.CreateCheckoutSession(ctx, &payment.CheckoutRequest{
		Amount:      order.TotalUSD,
		Currency:    checkoutCurrency,
		Description: "Perennia order " + order.ID,
		SuccessURL:  origin + "/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:   origin + "/checkout/cancel?order_id=" + order.ID,
		Metadata: map[string]string{
			"order_id":   order.ID,
			"user_id":    who.UserID,
			"user_email": who.Email,
		},
		IdempotencyKey: order.ID,
	})
	if err != nil {
		return CheckoutResult{}, s.gatewayError(err, "create checkout session")
	}

	switch _, err := s.payments.FindBySession(ctx, sess.ID); {
	case err == nil:
		return CheckoutResult{URL: sess.URL, SessionID: sess.ID}, nil
	case !errors.Is(err, orm.ErrNotFound):
		return CheckoutResult{}, fmt.Errorf("services: load payment transaction: %w", err)
	}

	txn := models.PaymentTransaction{
		SessionID:     sess.ID,
		OrderID:       order.ID,
		UserID:        who.UserID,
		UserEmail:     who.Email,
		Amount:        order.TotalUSD,
		Currency:      checkoutCurrency,
		PaymentStatus: models.PaymentInitiated,
	}
	if err := s.payments.Create(ctx, &txn); err != nil {
		return CheckoutResult{}, fmt.Errorf("services: record payment transaction: %w", err)
	}
	metrics.RecordPayment(models.PaymentInitiated)

	return CheckoutResult{URL: sess.URL, SessionID: sess.ID}, nil
}

// Status fetches the session from the gateway and settles the order when it
// has been paid. Sessions with no recorded transaction are reported but
// never settle anything.
func (s *CheckoutService) Status(ctx context.Context, sessionID string) (PaymentState, error) {
	if s.gateway == nil {
		return PaymentState{}, errNotConfigured()
	}

	txn, err := s.payments.FindBySession(ctx, sessionID)
	recorded := err == nil
	switch {
	case errors.Is(err, orm.ErrNotFound):
	case err != nil:
		return PaymentState{}, fmt.Errorf("services: load payment transaction: %w", err)
	case !rbac.CanAccess(ctx, txn.UserID):
		return PaymentState{}, Forbidden("Access denied")
	}

	sess, err := s.gateway.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return PaymentState{}, s.gatewayError(err, "get checkout session")
	}
	if recorded {
		if err := s.sync(ctx, txn.OrderID, sess); err != nil {
			return PaymentState{}, err
		}
	}

	return PaymentState{
		Status:        sess.Status,
		PaymentStatus: sess.PaymentStatus,
		AmountTotal:   sess.AmountTotal,
		Currency:      sess.Currency,
	}, nil
}

// WaitForPayment polls Status until the session is paid or expired, or the
// attempts run out. onStatus, when set, sees every successful poll. Failed
// polls count as attempts; access and configuration errors end the wait.
func (s *CheckoutService) WaitForPayment(ctx context.Context, sessionID string, onStatus func(PaymentState)) (string, error) {
	for attempt := 1; attempt <= s.poll.Attempts; attempt++ {
		state, err := s.Status(ctx, sessionID)
		var se *Error
		switch {
		case errors.As(err, &se):
			return "", err
		case err != nil:
			logger.WithCtx(ctx).Warn("payment poll failed", "session_id", sessionID, "attempt", attempt, "error", err)
		default:
			if onStatus != nil {
				onStatus(state)
			}
			if state.PaymentStatus == payment.PaymentPaid {
				return WaitSuccess, nil
			}
			if state.Status == payment.SessionExpired {
				return WaitExpired, nil
			}
		}

		if attempt == s.poll.Attempts {
			break
		}
		t := time.NewTimer(s.poll.Interval)
		select {
		case <-ctx.Done():
			t.Stop()
			return "", ctx.Err()
		case <-t.C:
		}
	}
	return WaitTimeout, nil
}

// Webhook handles a gateway event. Only a bad signature is an error; anything
// that goes wrong after that is logged so the gateway does not retry.
func (s *CheckoutService) Webhook(ctx context.Context, payload []byte, signature string) error {
	log := logger.WithCtx(ctx)
	if s.gateway == nil {
		log.Warn("webhook received but payments are not configured")
		metrics.RecordWebhook("unknown", "ignored")
		return nil
	}

	evt, err := s.gateway.ParseWebhook(payload, signature)
	if errors.Is(err, payment.ErrInvalidSignature) {
		metrics.RecordWebhook("unknown", "rejected")
		return BadRequest("Invalid signature")
	}
	if err != nil {
		log.Error("webhook payload unreadable", "error", err)
		metrics.RecordWebhook("unknown", "error")
		return nil
	}

	sess := &evt.Session
	if sess.ID == "" {
		metrics.RecordWebhook(evt.Type, "ignored")
		return nil
	}

	orderID := sess.Metadata["order_id"]
	if txn, err := s.payments.FindBySession(ctx, sess.ID); err == nil {
		orderID = txn.OrderID
	}

	if !evt.SettlesPayment() {
		if _, err := s.payments.SetStatus(ctx, sess.ID, sessionPaymentStatus(sess)); err != nil {
			log.Error("webhook status update failed", "session_id", sess.ID, "error", err)
		}
		metrics.RecordWebhook(evt.Type, "recorded")
		return nil
	}

	if err := s.sync(ctx, orderID, sess); err != nil {
		log.Error("webhook settlement failed", "event", evt.Type, "session_id", sess.ID, "error", err)
		metrics.RecordWebhook(evt.Type, "error")
		return nil
	}
	metrics.RecordWebhook(evt.Type, "settled")
	return nil
}

// Reconcile re-syncs recent transactions that never reached a final state.
// It returns how many sessions were checked.
func (s *CheckoutService) Reconcile(ctx context.Context) (int, error) {
	if s.gateway == nil {
		return 0, nil
	}

	txns, err := s.payments.Unsettled(ctx, time.Now().UTC().Add(-reconcileWindow),
		[]string{models.PaymentInitiated, models.PaymentUnpaid}, reconcileBatch)
	if err != nil {
		return 0, fmt.Errorf("services: load unsettled payments: %w", err)
	}

	pool := workerpool.New(reconcileWorkers)
	log := logger.WithCtx(ctx)
	for _, txn := range txns {
		txn := txn
		err := pool.SubmitWait(func() {
			sess, err := s.gateway.GetCheckoutSession(ctx, txn.SessionID)
			if err != nil {
				log.Warn("reconcile lookup failed", "session_id", txn.SessionID, "error", err)
				return
			}
			if err := s.sync(ctx, txn.OrderID, sess); err != nil {
				log.Warn("reconcile sync failed", "session_id", txn.SessionID, "error", err)
			}
		})
		if err != nil {
			break
		}
	}
	pool.Shutdown()

	log.Info("payments reconciled", "checked", len(txns))
	return len(txns), nil
}

// ExpireAbandoned closes out transactions that Reconcile no longer looks
// at: anything still initiated or unpaid once the reconcile window has
// passed is marked expired.
func (s *CheckoutService) ExpireAbandoned(ctx context.Context) (int64, error) {
	n, err := s.payments.ExpireOlder(ctx, time.Now().UTC().Add(-reconcileWindow),
		[]string{models.PaymentInitiated, models.PaymentUnpaid})
	if err != nil {
		return 0, fmt.Errorf("services: expire abandoned payments: %w", err)
	}
	if n > 0 {
		logger.WithCtx(ctx).Info("abandoned payments expired", "count", n)
	}
	return n, nil
}

// sync records the session's payment status and settles orderID when it is
// paid. order.paid fires only on the call that made the transition.
func (s *CheckoutService) sync(ctx context.Context, orderID string, sess *payment.CheckoutSession) error {
	if _, err := s.payments.SetStatus(ctx, sess.ID, sessionPaymentStatus(sess)); err != nil {
		return fmt.Errorf("services: update payment transaction: %w", err)
	}
	if !sess.Paid() || orderID == "" {
		return nil
	}

	changed, err := s.orders.MarkPaid(ctx, orderID)
	if err != nil {
		return fmt.Errorf("services: mark order paid: %w", err)
	}
	if !changed {
		return nil
	}

	metrics.RecordPayment(models.PaymentPaid)
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("services: reload paid order: %w", err)
	}
	event.Fire(ctx, events.OrderPaid, events.NewOrderEvent(events.OrderPaid, order))
	logger.WithCtx(ctx).Info("order paid", "order_id", orderID, "session_id", sess.ID)
	return nil
}

// sessionPaymentStatus maps an expired session onto the transaction's
// expired state; otherwise the gateway's payment status is kept.
func sessionPaymentStatus(sess *payment.CheckoutSession) string {
	if sess.Status == payment.SessionExpired && !sess.Paid() {
		return models.PaymentExpired
	}
	if sess.PaymentStatus == "" {
		return models.PaymentUnpaid
	}
	return sess.PaymentStatus
}

func (s *CheckoutService) gatewayError(err error, op string) error {
	switch {
	case errors.Is(err, payment.ErrSessionNotFound):
		return NotFound("Checkout session not found")
	case errors.Is(err, payment.ErrNotConfigured):
		return errNotConfigured()
	}
	return fmt.Errorf("services: %s: %w", op, err)
}
