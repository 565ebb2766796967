package rbac_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/perennia/storefront/pkg/middleware"
	"github.com/perennia/storefront/pkg/rbac"
)

func TestRequireAdmin(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	h := rbac.RequireAdmin(ok)

	serve := func(id *middleware.Identity) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)
		if id != nil {
			req = req.WithContext(middleware.WithIdentity(req.Context(), *id))
		}
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusUnauthorized, serve(nil).Code)

	rec := serve(&middleware.Identity{UserID: "u1"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"detail":"Admin access required"}`, rec.Body.String())

	assert.Equal(t, http.StatusOK, serve(&middleware.Identity{UserID: "a1", IsAdmin: true}).Code)
}

func TestCanAccess(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.False(t, rbac.CanAccess(req.Context(), "u1"))

	owner := middleware.WithIdentity(req.Context(), middleware.Identity{UserID: "u1"})
	assert.True(t, rbac.CanAccess(owner, "u1"))
	assert.False(t, rbac.CanAccess(owner, "u2"))

	admin := middleware.WithIdentity(req.Context(), middleware.Identity{UserID: "a1", IsAdmin: true})
	assert.True(t, rbac.CanAccess(admin, "u2"))
}
