// Package session provides cookie-keyed HTTP sessions stored in pkg/cache
// (Redis, or memory when Redis is unavailable).
//
//	r.Use(session.Middleware(session.DefaultOptions()))
//
//	sess := session.FromCtx(r)
//	var cart models.Cart
//	sess.Get("cart", &cart)
//	sess.Set("cart", cart)
//	sess.Save(r.Context(), w)
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/perennia/storefront/config"
	"github.com/perennia/storefront/pkg/cache"
)

// ─── Options ──────────────────────────────────────────────────────────────────

type Options struct {
	CookieName string
	TTL        time.Duration
	HTTPOnly   bool
	Secure     bool
	SameSite   http.SameSite
	Path       string
}

// DefaultOptions suits the storefront cart: a 30-day cookie, secure in
// production.
func DefaultOptions() Options {
	return Options{
		CookieName: "perennia_cart",
		TTL:        30 * 24 * time.Hour,
		HTTPOnly:   true,
		Secure:     config.IsProduction(),
		SameSite:   http.SameSiteLaxMode,
		Path:       "/",
	}
}

// ─── Session ──────────────────────────────────────────────────────────────────

type ctxKey struct{}

type Session struct {
	id      string
	data    map[string]json.RawMessage
	opts    Options
	changed bool
}

// newID returns a random 32-byte hex session ID.
func newID() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("session: read random: %v", err))
	}
	return hex.EncodeToString(b)
}

func storeKey(id string) string { return "perennia:session:" + id }

func load(ctx context.Context, id string) map[string]json.RawMessage {
	var data map[string]json.RawMessage
	if cache.Get(ctx, storeKey(id), &data) && data != nil {
		return data
	}
	return map[string]json.RawMessage{}
}

// Set stores value under key. Values must marshal to JSON.
func (s *Session) Set(key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("session: marshal %s: %w", key, err)
	}
	s.data[key] = raw
	s.changed = true
	return nil
}

// Get decodes the value under key into dest and reports whether it existed.
func (s *Session) Get(key string, dest interface{}) bool {
	raw, ok := s.data[key]
	if !ok {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

func (s *Session) Delete(key string) {
	delete(s.data, key)
	s.changed = true
}

func (s *Session) ID() string { return s.id }

// Save persists the session and writes the cookie. Unchanged sessions are
// not written.
func (s *Session) Save(ctx context.Context, w http.ResponseWriter) error {
	if !s.changed {
		return nil
	}

	if err := cache.Set(ctx, storeKey(s.id), s.data, s.opts.TTL); err != nil {
		return fmt.Errorf("session: save: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    s.id,
		Path:     s.opts.Path,
		MaxAge:   int(s.opts.TTL.Seconds()),
		HttpOnly: s.opts.HTTPOnly,
		Secure:   s.opts.Secure,
		SameSite: s.opts.SameSite,
	})

	s.changed = false
	return nil
}

// ─── Middleware ───────────────────────────────────────────────────────────────

// Middleware loads (or creates) the session and injects it into the request
// context.
func Middleware(opts Options) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := &Session{opts: opts}

			if cookie, err := r.Cookie(opts.CookieName); err == nil && cookie.Value != "" {
				sess.id = cookie.Value
				sess.data = load(r.Context(), sess.id)
			} else {
				sess.id = newID()
				sess.data = map[string]json.RawMessage{}
			}

			ctx := context.WithValue(r.Context(), ctxKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// FromCtx returns the request's session, or a fresh unsaved one.
func FromCtx(r *http.Request) *Session {
	if s, ok := r.Context().Value(ctxKey{}).(*Session); ok {
		return s
	}
	return &Session{id: newID(), data: map[string]json.RawMessage{}, opts: DefaultOptions()}
}
