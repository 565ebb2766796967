package jobs_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perennia/storefront/app/jobs"
	"github.com/perennia/storefront/app/models"
	"github.com/perennia/storefront/app/repositories"
	apphttp "github.com/perennia/storefront/pkg/http"
	"github.com/perennia/storefront/pkg/mail"
	"github.com/perennia/storefront/pkg/notification"
	"github.com/perennia/storefront/pkg/queue"
	"github.com/perennia/storefront/pkg/testkit"
)

const adminEmail = "owner@perennia.example"

// start registers the jobs against a fresh database and runs one worker
// until the test ends. Sent mail lands in the returned recorder.
func start(t *testing.T) (*repositories.OrderRepository, *mail.Recorder) {
	t.Helper()
	orders := repositories.NewOrderRepository(testkit.DB(t))
	jobs.Register(orders, adminEmail)

	rec := &mail.Recorder{}
	t.Cleanup(mail.SetSender(rec))

	queue.SetDriver(queue.NewMemoryDriver())
	ctx, cancel := context.WithCancel(context.Background())
	wg := queue.StartWorkers(ctx, 1)
	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})
	return orders, rec
}

func placeOrder(t *testing.T, orders *repositories.OrderRepository) models.Order {
	t.Helper()
	o := models.Order{
		UserID:          "u1",
		UserEmail:       "buyer@example.com",
		TotalBBD:        decimal.NewFromInt(180),
		TotalUSD:        decimal.NewFromInt(90),
		ShippingAddress: "1 Bay Street",
		City:            "Bridgetown",
		Country:         "Barbados",
		Phone:           "246-555-0100",
		Status:          models.OrderPending,
		PaymentStatus:   models.PaymentPending,
		PaymentMethod:   models.MethodStripe,
		Items: []models.OrderItem{{
			ProductID:   "p1",
			ProductName: "Oud Candle",
			Quantity:    2,
			PriceBBD:    decimal.NewFromInt(90),
			PriceUSD:    decimal.NewFromInt(45),
		}},
	}
	require.NoError(t, orders.Create(orders.DB(), &o))
	return o
}

func waitForMail(t *testing.T, rec *mail.Recorder, n int) []mail.Message {
	t.Helper()
	require.Eventually(t, func() bool { return len(rec.Sent()) >= n }, 2*time.Second, 10*time.Millisecond)
	return rec.Sent()
}

func TestOrderConfirmationMailsCustomer(t *testing.T) {
	orders, rec := start(t)
	o := placeOrder(t, orders)

	require.NoError(t, queue.Dispatch(context.Background(), jobs.NewOrderConfirmationJob(o.ID)))

	sent := waitForMail(t, rec, 1)
	msg := sent[0]
	assert.Equal(t, []string{"buyer@example.com"}, msg.To)
	assert.Equal(t, "Your Perennia order "+o.ID[:8], msg.Subject)
	assert.True(t, msg.HTML)
	assert.Contains(t, msg.Body, "Oud Candle × 2")
	assert.Contains(t, msg.Body, "Bridgetown")
}

func TestAdminOrderAlert(t *testing.T) {
	orders, rec := start(t)
	o := placeOrder(t, orders)

	require.NoError(t, queue.Dispatch(context.Background(), jobs.NewAdminOrderAlertJob(o.ID)))

	msg := waitForMail(t, rec, 1)[0]
	assert.Equal(t, []string{adminEmail}, msg.To)
	assert.True(t, strings.HasPrefix(msg.Subject, "New order "))
	assert.False(t, msg.HTML)
	assert.Contains(t, msg.Body, "buyer@example.com ordered 2 item(s)")
	assert.Contains(t, msg.Body, "paying by stripe")
}

func TestAdminOrderAlertPostsToSlack(t *testing.T) {
	orders, rec := start(t)
	o := placeOrder(t, orders)

	mt := testkit.NewMockTransport().On(http.MethodPost, "https://hooks.slack.example/", http.StatusOK, `ok`)
	t.Cleanup(apphttp.UseTransport(mt))
	notification.SetSlackWebhook("https://hooks.slack.example/T000/B000")
	t.Cleanup(func() { notification.SetSlackWebhook("") })

	require.NoError(t, queue.Dispatch(context.Background(), jobs.NewAdminOrderAlertJob(o.ID)))

	waitForMail(t, rec, 1)
	require.Eventually(t, func() bool { return mt.Calls() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, mt.LastBody(), "New Perennia order "+o.ID[:8])
	assert.Contains(t, mt.LastBody(), "Bridgetown, Barbados")
	assert.Empty(t, mt.Unused())
}

func TestContactAlert(t *testing.T) {
	_, rec := start(t)

	require.NoError(t, queue.Dispatch(context.Background(), &jobs.ContactAlertJob{
		MessageID: "m1",
		Name:      "Grace",
		Email:     "grace@example.com",
		Subject:   "Custom tray",
	}))

	msg := waitForMail(t, rec, 1)[0]
	assert.Equal(t, []string{adminEmail}, msg.To)
	assert.Equal(t, "Contact form: Custom tray", msg.Subject)
	assert.Contains(t, msg.Body, "Grace <grace@example.com>")
}

func TestMissingOrderIsSkipped(t *testing.T) {
	orders, rec := start(t)
	failedBefore := len(queue.FailedJobs())

	require.NoError(t, queue.Dispatch(context.Background(), jobs.NewOrderConfirmationJob("gone")))
	o := placeOrder(t, orders)
	require.NoError(t, queue.Dispatch(context.Background(), jobs.NewOrderConfirmationJob(o.ID)))

	sent := waitForMail(t, rec, 1)
	assert.Len(t, sent, 1)
	assert.Equal(t, []string{"buyer@example.com"}, sent[0].To)
	assert.Len(t, queue.FailedJobs(), failedBefore, "a vanished order is not a failure")
}
