package controllers

import (
	"net/http"

	"github.com/perennia/storefront/app/services"
	"github.com/perennia/storefront/pkg/ctx"
	"github.com/perennia/storefront/pkg/middleware"
)

type OrderController struct {
	orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{orders: orders}
}

func (c *OrderController) Store(x *ctx.Context) {
	var in services.OrderInput
	if !x.BindJSON(&in) {
		return
	}
	who, _ := middleware.IdentityFromCtx(x.Context())
	order, err := c.orders.Create(x.Context(), who, in)
	if err != nil {
		x.Fail(err)
		return
	}
	x.JSON(http.StatusOK, order)
}

// Mine handles GET /api/orders.
func (c *OrderController) Mine(x *ctx.Context) {
	orders, err := c.orders.Mine(x.Context(), middleware.UserIDFromCtx(x.Context()))
	if err != nil {
		x.Fail(err)
		return
	}
	x.JSON(http.StatusOK, orders)
}

func (c *OrderController) Show(x *ctx.Context) {
	order, err := c.orders.Get(x.Context(), x.Param("id"))
	if err != nil {
		x.Fail(err)
		return
	}
	x.JSON(http.StatusOK, order)
}

// Index handles GET /api/admin/orders.
func (c *OrderController) Index(x *ctx.Context) {
	orders, err := c.orders.All(x.Context())
	if err != nil {
		x.Fail(err)
		return
	}
	x.JSON(http.StatusOK, orders)
}

// UpdateStatus takes the status from ?status= or from a {status} body.
func (c *OrderController) UpdateStatus(x *ctx.Context) {
	status := x.Query("status")
	if status == "" {
		var in services.StatusInput
		if !x.BindJSON(&in) {
			return
		}
		status = in.Status
	}
	if err := c.orders.UpdateStatus(x.Context(), x.Param("id"), status); err != nil {
		x.Fail(err)
		return
	}
	x.Message("Status updated")
}
