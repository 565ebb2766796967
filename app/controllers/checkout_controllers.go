package controllers

import (
	"io"
	"net/http"

	"github.com/perennia/storefront/app/services"
	"github.com/perennia/storefront/pkg/ctx"
	"github.com/perennia/storefront/pkg/middleware"
	"github.com/perennia/storefront/pkg/sse"
)

const maxWebhookBytes = 64 << 10

type CheckoutController struct {
	checkout *services.CheckoutService
}

func NewCheckoutController(checkout *services.CheckoutService) *CheckoutController {
	return &CheckoutController{checkout: checkout}
}

// CreateSession handles POST /api/checkout/create-session.
func (c *CheckoutController) CreateSession(x *ctx.Context) {
	var in services.CheckoutInput
	if !x.BindJSON(&in) {
		return
	}
	who, _ := middleware.IdentityFromCtx(x.Context())
	res, err := c.checkout.CreateSession(x.Context(), who, in)
	if err != nil {
		x.Fail(err)
		return
	}
	x.JSON(http.StatusOK, res)
}

func (c *CheckoutController) Status(x *ctx.Context) {
	state, err := c.checkout.Status(x.Context(), x.Param("session_id"))
	if err != nil {
		x.Fail(err)
		return
	}
	x.JSON(http.StatusOK, state)
}

// Stream follows the session over SSE: a "status" event per poll and a
// final "result" event. The stream opens on the first successful poll, so
// access errors still get a normal JSON response.
func (c *CheckoutController) Stream(x *ctx.Context) {
	var (
		stream *sse.Stream
		opened bool
	)
	open := func() bool {
		if !opened {
			opened = true
			stream = sse.New(x.W, x.R)
		}
		return stream != nil
	}

	outcome, err := c.checkout.WaitForPayment(x.Context(), x.Param("session_id"), func(state services.PaymentState) {
		if open() {
			stream.Send("status", state)
		}
	})

	switch {
	case err != nil && !opened:
		x.Fail(err)
	case err != nil:
		if stream != nil {
			stream.Send("error", map[string]string{"detail": err.Error()})
		}
	default:
		if open() {
			stream.Send("result", map[string]string{"outcome": outcome})
		}
	}
}

// Webhook handles POST /api/webhook/stripe. Only a bad signature is
// answered with an error.
func (c *CheckoutController) Webhook(x *ctx.Context) {
	payload, err := io.ReadAll(io.LimitReader(x.R.Body, maxWebhookBytes))
	if err != nil {
		x.Error(http.StatusBadRequest, "Invalid payload")
		return
	}
	if err := c.checkout.Webhook(x.Context(), payload, x.Header("Stripe-Signature")); err != nil {
		x.Fail(err)
		return
	}
	x.JSON(http.StatusOK, map[string]bool{"received": true})
}
