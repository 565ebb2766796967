package services_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/perennia/storefront/app/events"
	"github.com/perennia/storefront/app/models"
	"github.com/perennia/storefront/app/repositories"
	"github.com/perennia/storefront/app/services"
	"github.com/perennia/storefront/pkg/event"
	"github.com/perennia/storefront/pkg/middleware"
	"github.com/perennia/storefront/pkg/payment"
)

type fakeGateway struct {
	mu       sync.Mutex
	sessions map[string]*payment.CheckoutSession
	requests []*payment.CheckoutRequest
	lookups  int
	event    *payment.Event
	parseErr error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{sessions: map[string]*payment.CheckoutSession{}}
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, req *payment.CheckoutRequest) (*payment.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	id := "cs_test_" + req.Metadata["order_id"]
	s := &payment.CheckoutSession{
		ID:            id,
		URL:           "https://checkout.example.com/" + id,
		Status:        payment.SessionOpen,
		PaymentStatus: payment.PaymentUnpaid,
		AmountTotal:   req.Amount.Shift(2).IntPart(),
		Currency:      req.Currency,
		Metadata:      req.Metadata,
	}
	g.sessions[id] = s
	return s, nil
}

func (g *fakeGateway) GetCheckoutSession(_ context.Context, id string) (*payment.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lookups++
	s, ok := g.sessions[id]
	if !ok {
		return nil, payment.ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (g *fakeGateway) ParseWebhook([]byte, string) (*payment.Event, error) {
	if g.parseErr != nil {
		return nil, g.parseErr
	}
	return g.event, nil
}

func (g *fakeGateway) settle(id, status, paymentStatus string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sessions[id].Status = status
	g.sessions[id].PaymentStatus = paymentStatus
}

type checkoutFixture struct {
	db       *gorm.DB
	svc      *services.CheckoutService
	gateway  *fakeGateway
	orders   *repositories.OrderRepository
	payments *repositories.PaymentRepository
	order    models.Order
	paid     *int
}

func newCheckout(t *testing.T, gateway payment.Gateway) checkoutFixture {
	db := setup(t)
	orders := repositories.NewOrderRepository(db)
	payments := repositories.NewPaymentRepository(db)
	p := seedProduct(t, db, "sunset", 80, 40, 5)

	order, err := services.NewOrderService(orders, nil).Create(as("buyer", false), customer("buyer"), services.OrderInput{
		Items:           []services.OrderItemInput{{ProductID: p.ID, Quantity: 1}},
		ShippingAddress: "1 Bay Street",
		City:            "Bridgetown",
		Phone:           "246-555-0100",
	})
	require.NoError(t, err)

	paid := 0
	event.Listen(events.OrderPaid, func(context.Context, interface{}) { paid++ })

	fx := checkoutFixture{
		db:       db,
		svc:      services.NewCheckoutService(orders, payments, gateway, services.PollOptions{Attempts: 3, Interval: time.Millisecond}),
		orders:   orders,
		payments: payments,
		order:    order,
		paid:     &paid,
	}
	if g, ok := gateway.(*fakeGateway); ok {
		fx.gateway = g
	}
	return fx
}

func (fx checkoutFixture) open(t *testing.T) string {
	t.Helper()
	res, err := fx.svc.CreateSession(as("buyer", false), customer("buyer"), services.CheckoutInput{
		OrderID:   fx.order.ID,
		OriginURL: "https://perennia.example/",
	})
	require.NoError(t, err)
	return res.SessionID
}

func TestCreateSessionRecordsInitiatedTransaction(t *testing.T) {
	fx := newCheckout(t, newFakeGateway())

	res, err := fx.svc.CreateSession(as("buyer", false), customer("buyer"), services.CheckoutInput{
		OrderID:   fx.order.ID,
		OriginURL: "https://perennia.example/",
	})
	require.NoError(t, err)
	assert.Contains(t, res.URL, res.SessionID)

	require.Len(t, fx.gateway.requests, 1)
	req := fx.gateway.requests[0]
	assert.Equal(t, "usd", req.Currency)
	assert.True(t, req.Amount.Equal(fx.order.TotalUSD))
	assert.Equal(t, "https://perennia.example/checkout/success?session_id={CHECKOUT_SESSION_ID}", req.SuccessURL)
	assert.Equal(t, "https://perennia.example/checkout/cancel?order_id="+fx.order.ID, req.CancelURL)
	assert.Equal(t, fx.order.ID, req.Metadata["order_id"])
	assert.Equal(t, "buyer", req.Metadata["user_id"])

	txn, err := fx.payments.FindBySession(context.Background(), res.SessionID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentInitiated, txn.PaymentStatus)
	assert.Equal(t, fx.order.ID, txn.OrderID)
}

func TestCreateSessionRejections(t *testing.T) {
	fx := newCheckout(t, newFakeGateway())
	in := services.CheckoutInput{OrderID: fx.order.ID, OriginURL: "https://perennia.example"}

	_, err := fx.svc.CreateSession(as("stranger", false), customer("stranger"), in)
	assert.Equal(t, http.StatusForbidden, services.StatusOf(err))

	admin := middleware.Identity{UserID: "admin", Email: "admin@example.com", IsAdmin: true}
	_, err = fx.svc.CreateSession(as("admin", true), admin, in)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, services.StatusOf(err), "admins cannot pay for someone else's order")
	assert.Equal(t, "Access denied", err.Error())
	assert.Empty(t, fx.gateway.requests)

	_, err = fx.svc.CreateSession(as("buyer", false), customer("buyer"), services.CheckoutInput{OrderID: "missing", OriginURL: in.OriginURL})
	assert.Equal(t, http.StatusNotFound, services.StatusOf(err))

	_, err = fx.orders.MarkPaid(context.Background(), fx.order.ID)
	require.NoError(t, err)
	_, err = fx.svc.CreateSession(as("buyer", false), customer("buyer"), in)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, services.StatusOf(err))
	assert.Equal(t, "Order already paid", err.Error())
}

func TestCreateSessionIsIdempotentPerOrder(t *testing.T) {
	fx := newCheckout(t, newFakeGateway())

	first := fx.open(t)
	second := fx.open(t)
	assert.Equal(t, first, second)

	require.Len(t, fx.gateway.requests, 2)
	for _, req := range fx.gateway.requests {
		assert.Equal(t, fx.order.ID, req.IdempotencyKey)
	}

	var n int64
	require.NoError(t, fx.db.Model(&models.PaymentTransaction{}).Where("order_id = ?", fx.order.ID).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestCheckoutWithoutGateway(t *testing.T) {
	fx := newCheckout(t, nil)

	_, err := fx.svc.CreateSession(as("buyer", false), customer("buyer"), services.CheckoutInput{
		OrderID:   fx.order.ID,
		OriginURL: "https://perennia.example",
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, services.StatusOf(err))
	assert.Equal(t, "Payment not configured", err.Error())

	assert.NoError(t, fx.svc.Webhook(context.Background(), []byte(`{}`), ""))

	n, err := fx.svc.Reconcile(context.Background())
	assert.NoError(t, err)
	assert.Zero(t, n)
}

func TestStatusSettlesOrderOnce(t *testing.T) {
	fx := newCheckout(t, newFakeGateway())
	sessionID := fx.open(t)

	state, err := fx.svc.Status(as("buyer", false), sessionID)
	require.NoError(t, err)
	assert.Equal(t, payment.PaymentUnpaid, state.PaymentStatus)
	assert.Equal(t, 0, *fx.paid)

	fx.gateway.settle(sessionID, payment.SessionComplete, payment.PaymentPaid)
	for i := 0; i < 2; i++ {
		state, err = fx.svc.Status(as("buyer", false), sessionID)
		require.NoError(t, err)
		assert.Equal(t, payment.PaymentPaid, state.PaymentStatus)
		assert.Equal(t, int64(4000), state.AmountTotal)
	}
	assert.Equal(t, 1, *fx.paid, "order.paid fires only on the transition")

	order, err := fx.orders.FindByID(context.Background(), fx.order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, order.PaymentStatus)
	assert.Equal(t, models.OrderProcessing, order.Status)

	txn, err := fx.payments.FindBySession(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, txn.PaymentStatus)
}

func TestStatusAccessAndUnknownSession(t *testing.T) {
	fx := newCheckout(t, newFakeGateway())
	sessionID := fx.open(t)

	_, err := fx.svc.Status(as("stranger", false), sessionID)
	assert.Equal(t, http.StatusForbidden, services.StatusOf(err))

	_, err = fx.svc.Status(as("admin", true), sessionID)
	assert.NoError(t, err)

	_, err = fx.svc.Status(as("buyer", false), "cs_unknown")
	assert.Equal(t, http.StatusNotFound, services.StatusOf(err))
}

func TestStatusWithoutTransactionSettlesNothing(t *testing.T) {
	fx := newCheckout(t, newFakeGateway())
	fx.gateway.sessions["cs_foreign"] = &payment.CheckoutSession{
		ID:            "cs_foreign",
		Status:        payment.SessionComplete,
		PaymentStatus: payment.PaymentPaid,
		Metadata:      map[string]string{"order_id": fx.order.ID},
	}

	state, err := fx.svc.Status(as("stranger", false), "cs_foreign")
	require.NoError(t, err)
	assert.Equal(t, payment.PaymentPaid, state.PaymentStatus)
	assert.Equal(t, 0, *fx.paid)

	order, err := fx.orders.FindByID(context.Background(), fx.order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, order.PaymentStatus)
}

func TestWaitForPaymentOutcomes(t *testing.T) {
	fx := newCheckout(t, newFakeGateway())
	sessionID := fx.open(t)

	var polls int
	outcome, err := fx.svc.WaitForPayment(as("buyer", false), sessionID, func(services.PaymentState) { polls++ })
	require.NoError(t, err)
	assert.Equal(t, services.WaitTimeout, outcome)
	assert.Equal(t, 3, polls)

	fx.gateway.settle(sessionID, payment.SessionExpired, payment.PaymentUnpaid)
	outcome, err = fx.svc.WaitForPayment(as("buyer", false), sessionID, nil)
	require.NoError(t, err)
	assert.Equal(t, services.WaitExpired, outcome)

	txn, err := fx.payments.FindBySession(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentExpired, txn.PaymentStatus)

	fx.gateway.settle(sessionID, payment.SessionComplete, payment.PaymentPaid)
	outcome, err = fx.svc.WaitForPayment(as("buyer", false), sessionID, nil)
	require.NoError(t, err)
	assert.Equal(t, services.WaitSuccess, outcome)

	_, err = fx.svc.WaitForPayment(as("stranger", false), sessionID, nil)
	assert.Equal(t, http.StatusForbidden, services.StatusOf(err))
}

func TestWaitForPaymentStopsWithContext(t *testing.T) {
	db := setup(t)
	gw := newFakeGateway()
	svc := services.NewCheckoutService(repositories.NewOrderRepository(db), repositories.NewPaymentRepository(db), gw,
		services.PollOptions{Attempts: 10, Interval: time.Hour})
	gw.sessions["cs_open"] = &payment.CheckoutSession{ID: "cs_open", Status: payment.SessionOpen, PaymentStatus: payment.PaymentUnpaid}

	ctx, cancel := context.WithCancel(context.Background())
	_, err := svc.WaitForPayment(ctx, "cs_open", func(services.PaymentState) { cancel() })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWebhookSettlesPaidSession(t *testing.T) {
	fx := newCheckout(t, newFakeGateway())
	sessionID := fx.open(t)

	fx.gateway.settle(sessionID, payment.SessionComplete, payment.PaymentPaid)
	sess, err := fx.gateway.GetCheckoutSession(context.Background(), sessionID)
	require.NoError(t, err)
	fx.gateway.event = &payment.Event{ID: "evt_1", Type: payment.EventCheckoutCompleted, Session: *sess}

	require.NoError(t, fx.svc.Webhook(context.Background(), []byte(`{}`), "t=1,v1=x"))
	require.NoError(t, fx.svc.Webhook(context.Background(), []byte(`{}`), "t=1,v1=x"))
	assert.Equal(t, 1, *fx.paid)

	order, err := fx.orders.FindByID(context.Background(), fx.order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, order.PaymentStatus)
}

func TestWebhookRecordsExpiry(t *testing.T) {
	fx := newCheckout(t, newFakeGateway())
	sessionID := fx.open(t)

	fx.gateway.event = &payment.Event{Type: payment.EventCheckoutExpired, Session: payment.CheckoutSession{
		ID: sessionID, Status: payment.SessionExpired, PaymentStatus: payment.PaymentUnpaid,
	}}
	require.NoError(t, fx.svc.Webhook(context.Background(), []byte(`{}`), "sig"))

	txn, err := fx.payments.FindBySession(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentExpired, txn.PaymentStatus)
	assert.Equal(t, 0, *fx.paid)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	gw := newFakeGateway()
	gw.parseErr = payment.ErrInvalidSignature
	fx := newCheckout(t, gw)

	err := fx.svc.Webhook(context.Background(), []byte(`{}`), "bogus")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, services.StatusOf(err))

	gw.parseErr = payment.ErrInvalidPayload
	assert.NoError(t, fx.svc.Webhook(context.Background(), []byte(`nope`), ""), "unreadable payloads are acknowledged")
}

func TestReconcileSettlesStaleSessions(t *testing.T) {
	fx := newCheckout(t, newFakeGateway())
	sessionID := fx.open(t)
	fx.gateway.settle(sessionID, payment.SessionComplete, payment.PaymentPaid)

	n, err := fx.svc.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, *fx.paid)

	n, err = fx.svc.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n, "settled transactions are not checked again")
}

func TestExpireAbandonedClosesOldSessions(t *testing.T) {
	fx := newCheckout(t, newFakeGateway())
	sessionID := fx.open(t)

	n, err := fx.svc.ExpireAbandoned(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n, "fresh sessions are left to reconciliation")

	require.NoError(t, fx.db.Model(&models.PaymentTransaction{}).
		Where("session_id = ?", sessionID).
		Update("created_at", time.Now().UTC().Add(-25*time.Hour)).Error)

	n, err = fx.svc.ExpireAbandoned(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	txn, err := fx.payments.FindBySession(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentExpired, txn.PaymentStatus)

	checked, err := fx.svc.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Zero(t, checked)
}
