package controllers

import (
	"net/http"

	"github.com/perennia/storefront/app/models"
	"github.com/perennia/storefront/app/services"
	"github.com/perennia/storefront/pkg/ctx"
	"github.com/perennia/storefront/pkg/currency"
	"github.com/perennia/storefront/pkg/logger"
	"github.com/perennia/storefront/pkg/session"
)

type CartController struct {
	cart *services.CartService
}

func NewCartController(cart *services.CartService) *CartController {
	return &CartController{cart: cart}
}

// displayCurrency reads ?currency= first, then X-Currency.
func displayCurrency(x *ctx.Context) currency.Currency {
	return currency.Parse(x.DefaultQuery("currency", x.Header("X-Currency")))
}

// respond saves the session and writes the priced cart.
func (c *CartController) respond(x *ctx.Context, sess *session.Session, cart models.Cart) {
	if err := sess.Save(x.Context(), x.W); err != nil {
		logger.WithCtx(x.Context()).Warn("cart session not saved", "error", err)
	}
	priced, err := c.cart.Price(x.Context(), cart.Items, displayCurrency(x))
	if err != nil {
		x.Fail(err)
		return
	}
	x.JSON(http.StatusOK, priced)
}

func (c *CartController) Show(x *ctx.Context) {
	sess := session.FromCtx(x.R)
	c.respond(x, sess, c.cart.Load(sess))
}

func (c *CartController) Add(x *ctx.Context) {
	var in services.CartItemInput
	if !x.BindJSON(&in) {
		return
	}
	sess := session.FromCtx(x.R)
	cart, err := c.cart.Add(x.Context(), sess, in)
	if err != nil {
		x.Fail(err)
		return
	}
	c.respond(x, sess, cart)
}

func (c *CartController) Update(x *ctx.Context) {
	var in services.CartQuantityInput
	if !x.BindJSON(&in) {
		return
	}
	sess := session.FromCtx(x.R)
	cart, err := c.cart.SetQuantity(sess, x.Param("product_id"), in.Quantity)
	if err != nil {
		x.Fail(err)
		return
	}
	c.respond(x, sess, cart)
}

func (c *CartController) Remove(x *ctx.Context) {
	sess := session.FromCtx(x.R)
	cart, err := c.cart.Remove(sess, x.Param("product_id"))
	if err != nil {
		x.Fail(err)
		return
	}
	c.respond(x, sess, cart)
}

func (c *CartController) Clear(x *ctx.Context) {
	sess := session.FromCtx(x.R)
	c.cart.Clear(sess)
	c.respond(x, sess, models.Cart{})
}

// Quote prices an arbitrary line list without touching the session.
func (c *CartController) Quote(x *ctx.Context) {
	var in services.QuoteInput
	if !x.BindJSON(&in) {
		return
	}
	priced, err := c.cart.Price(x.Context(), in.Items, displayCurrency(x))
	if err != nil {
		x.Fail(err)
		return
	}
	x.JSON(http.StatusOK, priced)
}
