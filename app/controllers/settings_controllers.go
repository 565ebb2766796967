package controllers

import (
	"net/http"

	"github.com/perennia/storefront/app/models"
	"github.com/perennia/storefront/app/services"
	"github.com/perennia/storefront/pkg/ctx"
)

type SettingsController struct {
	settings *services.SettingsService
}

func NewSettingsController(settings *services.SettingsService) *SettingsController {
	return &SettingsController{settings: settings}
}

func (c *SettingsController) Show(x *ctx.Context) {
	s, err := c.settings.Get(x.Context())
	if err != nil {
		x.Fail(err)
		return
	}
	x.JSON(http.StatusOK, s)
}

func (c *SettingsController) Update(x *ctx.Context) {
	var u models.SiteSettingsUpdate
	if !x.BindPatch(&u, "No data to update") {
		return
	}
	s, err := c.settings.Update(x.Context(), u)
	if err != nil {
		x.Fail(err)
		return
	}
	x.JSON(http.StatusOK, s)
}
