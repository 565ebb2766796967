// Package ctx provides a request context for storefront handlers.
//
// Instead of accepting (http.ResponseWriter, *http.Request), a handler
// receives a single *Context with helpers for params, binding and responses:
//
//	func ShowProduct(c *ctx.Context) {
//	    p, err := catalog.Get(c.Context(), c.Param("id"))
//	    if err != nil {
//	        c.Fail(err)
//	        return
//	    }
//	    c.JSON(http.StatusOK, p)
//	}
//
//	router.Get("/products/{id}", "products.show", ctx.Wrap(ShowProduct))
package ctx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/perennia/storefront/pkg/bind"
	"github.com/perennia/storefront/pkg/logger"
	"github.com/perennia/storefront/pkg/response"
	"github.com/perennia/storefront/pkg/validate"
)

// HandlerFunc is the context-aware handler signature.
type HandlerFunc func(c *Context)

// Wrap converts a HandlerFunc to a standard http.HandlerFunc.
func Wrap(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := acquire(w, r)
		defer release(c)
		h(c)
	}
}

// StatusError is implemented by errors that know the HTTP status they map to.
type StatusError interface {
	error
	HTTPStatus() int
}

// ─── Context ──────────────────────────────────────────────────────────────────

type Context struct {
	W     http.ResponseWriter
	R     *http.Request
	mu    sync.RWMutex
	store map[string]any
}

var pool = sync.Pool{
	New: func() any { return &Context{store: make(map[string]any)} },
}

func acquire(w http.ResponseWriter, r *http.Request) *Context {
	c := pool.Get().(*Context)
	c.W = w
	c.R = r
	for k := range c.store {
		delete(c.store, k)
	}
	return c
}

func release(c *Context) {
	c.W = nil
	c.R = nil
	pool.Put(c)
}

// ─── Request helpers ──────────────────────────────────────────────────────────

// Param returns a URL path parameter ("/products/{id}" → c.Param("id")).
func (c *Context) Param(key string) string {
	return chi.URLParam(c.R, key)
}

func (c *Context) Query(key string) string {
	return c.R.URL.Query().Get(key)
}

// DefaultQuery returns a query-string value, or def if it is empty.
func (c *Context) DefaultQuery(key, def string) string {
	if v := c.Query(key); v != "" {
		return v
	}
	return def
}

func (c *Context) Header(key string) string {
	return c.R.Header.Get(key)
}

// Body reads the raw request body. It can only be read once.
func (c *Context) Body() ([]byte, error) {
	return io.ReadAll(c.R.Body)
}

func (c *Context) Method() string { return c.R.Method }
func (c *Context) Path() string   { return c.R.URL.Path }

// ClientIP returns the real client IP, respecting X-Forwarded-For.
func (c *Context) ClientIP() string {
	if fwd := c.R.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.SplitN(fwd, ",", 2)[0])
	}
	if real := c.R.Header.Get("X-Real-Ip"); real != "" {
		return real
	}
	ip := c.R.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}

func (c *Context) Context() context.Context { return c.R.Context() }

// ─── Per-request store ────────────────────────────────────────────────────────

func (c *Context) Set(key string, val any) {
	c.mu.Lock()
	c.store[key] = val
	c.mu.Unlock()
}

func (c *Context) Get(key string) (any, bool) {
	c.mu.RLock()
	v, ok := c.store[key]
	c.mu.RUnlock()
	return v, ok
}

// GetString returns a string value from the store, or "" if absent/wrong type.
func (c *Context) GetString(key string) string {
	v, _ := c.Get(key)
	s, _ := v.(string)
	return s
}

// ─── Binding / Validation ─────────────────────────────────────────────────────

// BindJSON decodes the JSON body into dest and runs validation.
// On validation failure it sends a 422 and returns false; on a decode error
// it sends a 400. Returns true only when dest is ready to use.
//
//	var input LoginInput
//	if !c.BindJSON(&input) {
//	    return // response already sent
//	}
func (c *Context) BindJSON(dest any) bool {
	errs, err := bind.JSON(c.R, dest)
	if err != nil {
		c.Error(http.StatusBadRequest, err.Error())
		return false
	}
	if validate.HasErrors(errs) {
		c.ValidationError(errs)
		return false
	}
	return true
}

// BindPatch decodes a partial-update body. An empty or all-null object is
// answered with 400 emptyDetail.
func (c *Context) BindPatch(dest any, emptyDetail string) bool {
	raw, err := io.ReadAll(http.MaxBytesReader(c.W, c.R.Body, 4<<20))
	if err != nil {
		c.Error(http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	body := bytes.TrimSpace(raw)
	if len(body) == 0 {
		c.Error(http.StatusBadRequest, emptyDetail)
		return false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		c.Error(http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	if !hasValues(fields) {
		c.Error(http.StatusBadRequest, emptyDetail)
		return false
	}
	if err := json.Unmarshal(body, dest); err != nil {
		if fields, ok := bind.FieldErrors(err); ok {
			c.ValidationError(fields)
			return false
		}
		c.Error(http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	if errs := validate.Struct(dest); validate.HasErrors(errs) {
		c.ValidationError(errs)
		return false
	}
	return true
}

// ─── Response helpers ─────────────────────────────────────────────────────────

func (c *Context) JSON(code int, v any) {
	response.JSON(c.W, code, v)
}

// Message writes {"message": msg} with 200.
func (c *Context) Message(msg string) {
	c.JSON(http.StatusOK, map[string]string{"message": msg})
}

// Error writes {"detail": detail} with the given status.
func (c *Context) Error(code int, detail string) {
	c.JSON(code, response.Problem{Detail: detail})
}

// ValidationError sends a 422 with field-level errors.
func (c *Context) ValidationError(errs map[string]string) {
	c.JSON(http.StatusUnprocessableEntity, response.Problem{Detail: "Validation failed", Errors: errs})
}

// Fail maps err to a response. Errors carrying a status are reported as-is,
// anything else is logged and hidden behind a 500.
func (c *Context) Fail(err error) {
	var se StatusError
	if errors.As(err, &se) {
		c.Error(se.HTTPStatus(), se.Error())
		return
	}
	logger.WithCtx(c.Context()).Error("request failed",
		"method", c.R.Method,
		"path", c.R.URL.Path,
		"error", err,
	)
	c.Error(http.StatusInternalServerError, "Internal Server Error")
}

func (c *Context) Unauthorized(detail ...string) { c.Error(http.StatusUnauthorized, first(detail, "Not authenticated")) }
func (c *Context) Forbidden(detail ...string)    { c.Error(http.StatusForbidden, first(detail, "Forbidden")) }
func (c *Context) NotFound(detail ...string)     { c.Error(http.StatusNotFound, first(detail, "Not Found")) }

// String writes a plain-text response.
func (c *Context) String(code int, format string, args ...any) {
	c.W.Header().Set("Content-Type", "text/plain; charset=utf-8")
	c.W.WriteHeader(code)
	fmt.Fprintf(c.W, format, args...)
}

func first(v []string, def string) string {
	if len(v) > 0 && v[0] != "" {
		return v[0]
	}
	return def
}

func hasValues(fields map[string]json.RawMessage) bool {
	for _, v := range fields {
		if string(v) != "null" {
			return true
		}
	}
	return false
}
