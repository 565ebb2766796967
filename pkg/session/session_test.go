package session_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perennia/storefront/pkg/cache"
	"github.com/perennia/storefront/pkg/session"
)

func TestSessionPersistsAcrossRequests(t *testing.T) {
	cache.Use(cache.NewMemoryStore())
	opts := session.DefaultOptions()

	visits := session.Middleware(opts)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := session.FromCtx(r)
		var n int
		sess.Get("visits", &n)
		require.NoError(t, sess.Set("visits", n+1))
		require.NoError(t, sess.Save(r.Context(), w))
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	visits.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "perennia_cart", cookies[0].Name)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	visits.ServeHTTP(rec, req)

	var got int
	read := session.Middleware(opts)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session.FromCtx(r).Get("visits", &got)
	}))
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	read.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, 2, got)
}

func TestUnchangedSessionWritesNoCookie(t *testing.T) {
	cache.Use(cache.NewMemoryStore())
	h := session.Middleware(session.DefaultOptions())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, session.FromCtx(r).Save(r.Context(), w))
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Empty(t, rec.Result().Cookies())
}
