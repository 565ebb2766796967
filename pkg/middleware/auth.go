package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/perennia/storefront/pkg/auth"
	"github.com/perennia/storefront/pkg/logger"
	"github.com/perennia/storefront/pkg/response"
)

// Identity is the authenticated caller attached to the request context.
type Identity struct {
	UserID  string
	Email   string
	IsAdmin bool
}

// ErrUserNotFound is returned by a UserLookup when the token's user is gone.
var ErrUserNotFound = errors.New("middleware: user not found")

// UserLookup resolves the user a token was issued for. Admin status is read
// from the stored user, not from the token.
type UserLookup func(ctx context.Context, userID string) (Identity, error)

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromCtx returns the caller stored by Authenticate or OptionalAuth.
func IdentityFromCtx(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// UserIDFromCtx returns the caller's user ID, or "" for anonymous requests.
func UserIDFromCtx(ctx context.Context) string {
	id, _ := IdentityFromCtx(ctx)
	return id.UserID
}

// Authenticate rejects requests without a valid bearer token.
func Authenticate(lookup UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, detail := resolve(r, lookup)
			if detail != "" {
				response.Unauthorized(w, detail)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// OptionalAuth attaches the caller when the token checks out and serves the
// request anonymously otherwise.
func OptionalAuth(lookup UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id, detail := resolve(r, lookup); detail == "" {
				r = r.WithContext(WithIdentity(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// resolve returns the caller or the 401 detail explaining why there is none.
func resolve(r *http.Request, lookup UserLookup) (Identity, string) {
	token := BearerToken(r)
	if token == "" {
		return Identity{}, "Not authenticated"
	}
	return ResolveToken(r.Context(), token, lookup)
}

// ResolveToken validates a raw token and loads its user. The WebSocket feed
// uses it directly since browsers cannot set headers on an upgrade.
func ResolveToken(ctx context.Context, token string, lookup UserLookup) (Identity, string) {
	claims, err := auth.ValidateToken(token)
	switch {
	case errors.Is(err, auth.ErrExpired):
		return Identity{}, "Token expired"
	case err != nil:
		return Identity{}, "Invalid token"
	}

	id, err := lookup(ctx, claims.UserID)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			logger.WithCtx(ctx).Error("auth: user lookup failed", "user_id", claims.UserID, "error", err)
		}
		return Identity{}, "User not found"
	}
	return id, ""
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}
