package controllers

import (
	"net/http"

	"github.com/perennia/storefront/app/services"
	"github.com/perennia/storefront/pkg/ctx"
)

type ContactController struct {
	contacts *services.ContactService
}

func NewContactController(contacts *services.ContactService) *ContactController {
	return &ContactController{contacts: contacts}
}

func (c *ContactController) Submit(x *ctx.Context) {
	var in services.ContactInput
	if !x.BindJSON(&in) {
		return
	}
	if _, err := c.contacts.Submit(x.Context(), in); err != nil {
		x.Fail(err)
		return
	}
	x.Message("Message sent successfully")
}

func (c *ContactController) Index(x *ctx.Context) {
	msgs, err := c.contacts.List(x.Context())
	if err != nil {
		x.Fail(err)
		return
	}
	x.JSON(http.StatusOK, msgs)
}

func (c *ContactController) MarkRead(x *ctx.Context) {
	if err := c.contacts.MarkRead(x.Context(), x.Param("id")); err != nil {
		x.Fail(err)
		return
	}
	x.Message("Message marked as read")
}

func (c *ContactController) Unread(x *ctx.Context) {
	n, err := c.contacts.Unread(x.Context())
	if err != nil {
		x.Fail(err)
		return
	}
	x.JSON(http.StatusOK, map[string]int64{"unread": n})
}
