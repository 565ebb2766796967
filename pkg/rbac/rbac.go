// Package rbac holds the storefront's access rules: admin-only routes and
// owner-or-admin resources.
package rbac

import (
	"context"
	"net/http"

	"github.com/perennia/storefront/pkg/middleware"
	"github.com/perennia/storefront/pkg/response"
)

// RequireAdmin allows only admins through. Authenticate must run first; a
// request without an identity is answered 401.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := middleware.IdentityFromCtx(r.Context())
		if !ok {
			response.Unauthorized(w, "Not authenticated")
			return
		}
		if !id.IsAdmin {
			response.Forbidden(w, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CanAccess reports whether the caller in ctx may read a resource owned by
// ownerID.
func CanAccess(ctx context.Context, ownerID string) bool {
	id, ok := middleware.IdentityFromCtx(ctx)
	if !ok {
		return false
	}
	return id.IsAdmin || id.UserID == ownerID
}
