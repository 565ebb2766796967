package controllers

import (
	"net/http"

	"github.com/perennia/storefront/pkg/middleware"
	"github.com/perennia/storefront/pkg/response"
	"github.com/perennia/storefront/pkg/ws"
)

// FeedController upgrades admins onto the live order feed. Browsers cannot
// set headers on an upgrade, so the token may come as ?token=.
type FeedController struct {
	hub    *ws.Hub
	lookup middleware.UserLookup
}

func NewFeedController(hub *ws.Hub, lookup middleware.UserLookup) *FeedController {
	return &FeedController{hub: hub, lookup: lookup}
}

func (c *FeedController) Connect(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = middleware.BearerToken(r)
	}
	if token == "" {
		response.Unauthorized(w, "Not authenticated")
		return
	}
	id, detail := middleware.ResolveToken(r.Context(), token, c.lookup)
	if detail != "" {
		response.Unauthorized(w, detail)
		return
	}
	if !id.IsAdmin {
		response.Forbidden(w, "Admin access required")
		return
	}
	ws.Upgrade(w, r, c.hub)
}
