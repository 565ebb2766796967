package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perennia/storefront/pkg/auth"
	"github.com/perennia/storefront/pkg/middleware"
)

func lookup(users map[string]middleware.Identity) middleware.UserLookup {
	return func(_ context.Context, id string) (middleware.Identity, error) {
		u, ok := users[id]
		if !ok {
			return middleware.Identity{}, middleware.ErrUserNotFound
		}
		return u, nil
	}
}

var echoUser = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(middleware.UserIDFromCtx(r.Context()))) //nolint:errcheck
})

func TestAuthenticate(t *testing.T) {
	users := map[string]middleware.Identity{"u1": {UserID: "u1", Email: "jane@example.com"}}
	h := middleware.Authenticate(lookup(users))(echoUser)

	good, err := auth.GenerateToken("u1", false)
	require.NoError(t, err)
	ghost, err := auth.GenerateToken("gone", false)
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"missing", "", http.StatusUnauthorized, `{"detail":"Not authenticated"}`},
		{"garbage", "Bearer abc", http.StatusUnauthorized, `{"detail":"Invalid token"}`},
		{"deleted user", "Bearer " + ghost, http.StatusUnauthorized, `{"detail":"User not found"}`},
		{"ok", "Bearer " + good, http.StatusOK, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
			if tc.body != "" {
				assert.JSONEq(t, tc.body, rec.Body.String())
			} else {
				assert.Equal(t, "u1", rec.Body.String())
			}
		})
	}
}

func TestOptionalAuthFallsBackToAnonymous(t *testing.T) {
	h := middleware.OptionalAuth(lookup(nil))(echoUser)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer nonsense")
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestRateLimit(t *testing.T) {
	l := middleware.NewLimiter(2, time.Minute)
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.9:5555"
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests {
			assert.JSONEq(t, `{"detail":"Too Many Requests"}`, rec.Body.String())
		}
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
	assert.True(t, l.Allow("10.0.0.10"))
}

func TestRecovery(t *testing.T) {
	h := middleware.Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"detail":"Internal Server Error"}`, rec.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	opts := middleware.CORSOptions{
		AllowedOrigins: []string{"https://perennia.bb"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Authorization"},
	}
	h := middleware.CORS(opts)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("preflight must not reach the handler")
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/products", nil)
	req.Header.Set("Origin", "https://perennia.bb")
	req.Header.Set("Access-Control-Request-Method", "POST")
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://perennia.bb", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST", rec.Header().Get("Access-Control-Allow-Methods"))
}
