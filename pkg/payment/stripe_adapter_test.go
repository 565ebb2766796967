package payment

import (
	"context"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81/webhook"
)

func newTestAdapter(t *testing.T, h http.HandlerFunc) *StripeAdapter {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	a, err := NewStripeAdapter(StripeConfig{
		APIKey:        "sk_test_123",
		WebhookSecret: "whsec_test",
		APIBase:       srv.URL,
		Retries:       1,
	})
	require.NoError(t, err)
	return a
}

func TestStripeConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  StripeConfig
		wantErr error
	}{
		{name: "valid config", config: StripeConfig{APIKey: "sk_test"}},
		{name: "missing key", config: StripeConfig{}, wantErr: ErrStripeMissingAPIKey},
		{name: "bad base", config: StripeConfig{APIKey: "sk_test", APIBase: "ftp://x"}, wantErr: ErrStripeInvalidAPIBase},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "https://api.stripe.com", tt.config.APIBase)
			assert.Equal(t, DefaultTolerance, tt.config.Tolerance)
		})
	}
}

func TestCreateCheckoutSession(t *testing.T) {
	var form url.Values
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))
		assert.Equal(t, "order-1", r.Header.Get("Idempotency-Key"))
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		raw, _ := io.ReadAll(r.Body)
		form, _ = url.ParseQuery(string(raw))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"cs_test_1","url":"https://checkout.stripe.com/c/cs_test_1","status":"open","payment_status":"unpaid","amount_total":6450,"currency":"usd"}`)
	})

	s, err := a.CreateCheckoutSession(context.Background(), &CheckoutRequest{
		Amount:         decimal.RequireFromString("64.50"),
		Currency:       "usd",
		Description:    "Perennia order",
		SuccessURL:     "https://shop.test/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:      "https://shop.test/checkout/cancel?order_id=order-1",
		Metadata:       map[string]string{"order_id": "order-1", "user_id": "u1"},
		IdempotencyKey: "order-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", s.ID)
	assert.Equal(t, "https://checkout.stripe.com/c/cs_test_1", s.URL)
	assert.False(t, s.Paid())

	assert.Equal(t, "payment", form.Get("mode"))
	assert.Equal(t, "6450", form.Get("line_items[0][price_data][unit_amount]"))
	assert.Equal(t, "usd", form.Get("line_items[0][price_data][currency]"))
	assert.Equal(t, "order-1", form.Get("metadata[order_id]"))
	assert.Equal(t, "https://shop.test/checkout/success?session_id={CHECKOUT_SESSION_ID}", form.Get("success_url"))
}

func TestCreateCheckoutSession_RejectsBadRequest(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})
	_, err := a.CreateCheckoutSession(context.Background(), &CheckoutRequest{Currency: "usd"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestGetCheckoutSession(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/checkout/sessions/cs_paid":
			io.WriteString(w, `{"id":"cs_paid","status":"complete","payment_status":"paid","amount_total":12000,"currency":"usd","metadata":{"order_id":"o1"}}`)
		case "/v1/checkout/sessions/cs_boom":
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"error":{"type":"invalid_request_error","message":"bad things"}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"error":{"code":"resource_missing","message":"No such checkout.session"}}`)
		}
	})

	s, err := a.GetCheckoutSession(context.Background(), "cs_paid")
	require.NoError(t, err)
	assert.True(t, s.Paid())
	assert.Equal(t, int64(12000), s.AmountTotal)
	assert.Equal(t, "o1", s.Metadata["order_id"])

	_, err = a.GetCheckoutSession(context.Background(), "cs_missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = a.GetCheckoutSession(context.Background(), "cs_boom")
	assert.ErrorIs(t, err, ErrGatewayRequestFailed)
	assert.Contains(t, err.Error(), "bad things")
}

func signed(payload []byte, secret string, at time.Time) string {
	return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: at,
	}).Header
}

func TestParseWebhook(t *testing.T) {
	a := newTestAdapter(t, func(http.ResponseWriter, *http.Request) {})
	now := time.Now()

	payload := []byte(`{"id":"evt_1","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_1","object":"checkout.session","status":"complete","payment_status":"paid","amount_total":6000,"currency":"usd","metadata":{"order_id":"o1"}}}}`)

	t.Run("valid signature", func(t *testing.T) {
		ev, err := a.ParseWebhook(payload, signed(payload, "whsec_test", now.Add(-time.Minute)))
		require.NoError(t, err)
		assert.Equal(t, EventCheckoutCompleted, ev.Type)
		assert.Equal(t, "cs_1", ev.Session.ID)
		assert.Equal(t, "o1", ev.Session.Metadata["order_id"])
		assert.True(t, ev.SettlesPayment())
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := a.ParseWebhook(payload, signed(payload, "whsec_other", now))
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("stale timestamp", func(t *testing.T) {
		_, err := a.ParseWebhook(payload, signed(payload, "whsec_test", now.Add(-6*time.Minute)))
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("tampered payload", func(t *testing.T) {
		header := signed(payload, "whsec_test", now)
		_, err := a.ParseWebhook(append([]byte(" "), payload...), header)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("missing header", func(t *testing.T) {
		_, err := a.ParseWebhook(payload, "")
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("second v1 matches", func(t *testing.T) {
		sig := hex.EncodeToString(webhook.ComputeSignature(now, payload, "whsec_test"))
		header := "t=" + strconv.FormatInt(now.Unix(), 10) + ",v1=deadbeef,v1=" + sig
		_, err := a.ParseWebhook(payload, header)
		assert.NoError(t, err)
	})

	t.Run("signed garbage", func(t *testing.T) {
		body := []byte(`not json`)
		_, err := a.ParseWebhook(body, signed(body, "whsec_test", now))
		assert.ErrorIs(t, err, ErrInvalidPayload)
	})
}

func TestParseWebhook_Unsigned(t *testing.T) {
	a := newTestAdapter(t, func(http.ResponseWriter, *http.Request) {})
	a.config.WebhookSecret = ""
	assert.False(t, a.SignsWebhooks())

	ev, err := a.ParseWebhook([]byte(`{"id":"evt_2","type":"checkout.session.expired","data":{"object":{"id":"cs_2","status":"expired","payment_status":"unpaid"}}}`), "")
	require.NoError(t, err)
	assert.False(t, ev.SettlesPayment())

	_, err = a.ParseWebhook([]byte(`not json`), "")
	assert.True(t, errors.Is(err, ErrInvalidPayload))
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(3250), toMinorUnits(decimal.RequireFromString("32.5")))
	assert.Equal(t, int64(1), toMinorUnits(decimal.RequireFromString("0.005")))
	assert.True(t, FromMinorUnits(6450).Equal(decimal.RequireFromString("64.50")))
}
