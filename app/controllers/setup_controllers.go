package controllers

import (
	"net/http"

	"github.com/perennia/storefront/app/services"
	"github.com/perennia/storefront/pkg/ctx"
)

// AdminCredentials is the account POST /api/admin/setup creates.
type AdminCredentials struct {
	Email    string
	Password string
}

type SetupController struct {
	setup *services.SetupService
	admin AdminCredentials
}

func NewSetupController(setup *services.SetupService, admin AdminCredentials) *SetupController {
	return &SetupController{setup: setup, admin: admin}
}

func (c *SetupController) Root(x *ctx.Context) {
	x.Message("Perennia API - Handcrafted Luxury")
}

func (c *SetupController) Seed(x *ctx.Context) {
	res, err := c.setup.Seed(x.Context())
	if err != nil {
		x.Fail(err)
		return
	}
	x.JSON(http.StatusOK, res)
}

func (c *SetupController) CreateAdmin(x *ctx.Context) {
	res, err := c.setup.CreateAdmin(x.Context(), c.admin.Email, c.admin.Password)
	if err != nil {
		x.Fail(err)
		return
	}
	x.JSON(http.StatusOK, res)
}
