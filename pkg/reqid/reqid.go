// Package reqid assigns every HTTP request an ID, stores it in the request
// context and echoes it in the X-Request-ID response header. An ID sent by an
// upstream proxy is reused.
package reqid

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

type ctxKey struct{}

// Header is the HTTP header name used to propagate the request ID.
const Header = "X-Request-ID"

// maxLen caps client-supplied IDs so they cannot bloat log lines.
const maxLen = 128

// New returns a random 32-character hex ID.
func New() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func WithValue(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromCtx returns the request ID from ctx, or "".
func FromCtx(ctx context.Context) string {
	if id, ok := ctx.Value(ctxKey{}).(string); ok {
		return id
	}
	return ""
}

func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(Header))
			if id == "" || len(id) > maxLen {
				id = New()
			}
			w.Header().Set(Header, id)
			next.ServeHTTP(w, r.WithContext(WithValue(r.Context(), id)))
		})
	}
}
