package controllers

import (
	"net/http"

	"github.com/perennia/storefront/app/services"
	"github.com/perennia/storefront/pkg/ctx"
	"github.com/perennia/storefront/pkg/middleware"
)

type AuthController struct {
	service *services.AuthService
}

func NewAuthController(service *services.AuthService) *AuthController {
	return &AuthController{service: service}
}

// Register handles POST /api/auth/register.
func (c *AuthController) Register(x *ctx.Context) {
	var in services.RegisterInput
	if !x.BindJSON(&in) {
		return
	}
	res, err := c.service.Register(x.Context(), in)
	if err != nil {
		x.Fail(err)
		return
	}
	x.JSON(http.StatusOK, res)
}

// Login handles POST /api/auth/login.
func (c *AuthController) Login(x *ctx.Context) {
	var in services.LoginInput
	if !x.BindJSON(&in) {
		return
	}
	res, err := c.service.Login(x.Context(), in)
	if err != nil {
		x.Fail(err)
		return
	}
	x.JSON(http.StatusOK, res)
}

func (c *AuthController) Me(x *ctx.Context) {
	user, err := c.service.Me(x.Context(), middleware.UserIDFromCtx(x.Context()))
	if err != nil {
		x.Fail(err)
		return
	}
	x.JSON(http.StatusOK, user)
}
