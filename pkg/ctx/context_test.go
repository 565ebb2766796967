package ctx_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appctx "github.com/perennia/storefront/pkg/ctx"
)

func serve(method, body string, h appctx.HandlerFunc) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	appctx.Wrap(h)(rec, req)
	return rec
}

func TestWrapAndJSON(t *testing.T) {
	rec := serve(http.MethodGet, "", func(c *appctx.Context) {
		c.JSON(http.StatusOK, map[string]any{"ok": true})
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
}

func TestSetAndGet(t *testing.T) {
	serve(http.MethodGet, "", func(c *appctx.Context) {
		c.Set("user_id", "u-1")
		assert.Equal(t, "u-1", c.GetString("user_id"))
		assert.Equal(t, "", c.GetString("missing"))
	})
}

func TestBindJSONValid(t *testing.T) {
	rec := serve(http.MethodPost, `{"name":"John","email":"john@example.com"}`, func(c *appctx.Context) {
		var input struct {
			Name  string `json:"name"  validate:"required"`
			Email string `json:"email" validate:"required,email"`
		}
		require.True(t, c.BindJSON(&input))
		assert.Equal(t, "John", input.Name)
		c.Message("ok")
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBindJSONInvalid(t *testing.T) {
	rec := serve(http.MethodPost, `{"name":""}`, func(c *appctx.Context) {
		var input struct {
			Name string `json:"name" validate:"required"`
		}
		assert.False(t, c.BindJSON(&input))
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"detail":"Validation failed"`)
	assert.Contains(t, rec.Body.String(), `"name"`)
}

func TestBindJSONMalformed(t *testing.T) {
	rec := serve(http.MethodPost, `{"name":`, func(c *appctx.Context) {
		var input struct{ Name string }
		assert.False(t, c.BindJSON(&input))
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBindJSONWrongFieldTypeIsValidationError(t *testing.T) {
	rec := serve(http.MethodPost, `{"rating":4.5}`, func(c *appctx.Context) {
		var input struct {
			Rating int `json:"rating" validate:"required,gte=1,lte=5"`
		}
		assert.False(t, c.BindJSON(&input))
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"rating":"The rating field must be of type integer."`)
}

func TestBindPatchRejectsEmpty(t *testing.T) {
	for _, body := range []string{"", "{}", `{"name":null}`} {
		rec := serve(http.MethodPut, body, func(c *appctx.Context) {
			var input struct {
				Name *string `json:"name"`
			}
			assert.False(t, c.BindPatch(&input, "No data to update"))
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %q", body)
		assert.JSONEq(t, `{"detail":"No data to update"}`, rec.Body.String())
	}

	rec := serve(http.MethodPut, `{"name":"Lavender"}`, func(c *appctx.Context) {
		var input struct {
			Name *string `json:"name"`
		}
		require.True(t, c.BindPatch(&input, "No data to update"))
		require.NotNil(t, input.Name)
		assert.Equal(t, "Lavender", *input.Name)
	})
	assert.Equal(t, 0, rec.Body.Len())
}

type statusErr struct{}

func (statusErr) Error() string   { return "Order not found" }
func (statusErr) HTTPStatus() int { return http.StatusNotFound }

func TestFail(t *testing.T) {
	rec := serve(http.MethodGet, "", func(c *appctx.Context) { c.Fail(statusErr{}) })
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"detail":"Order not found"}`, rec.Body.String())

	rec = serve(http.MethodGet, "", func(c *appctx.Context) { c.Fail(errors.New("db down")) })
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"detail":"Internal Server Error"}`, rec.Body.String())
}

func TestClientIP(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "1.2.3.4, 10.0.0.1")
	appctx.Wrap(func(c *appctx.Context) {
		assert.Equal(t, "1.2.3.4", c.ClientIP())
	})(rec, req)
}

func TestDefaultQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/cart?currency=usd&empty=", nil)
	appctx.Wrap(func(c *appctx.Context) {
		assert.Equal(t, "usd", c.DefaultQuery("currency", "bbd"))
		assert.Equal(t, "bbd", c.DefaultQuery("empty", "bbd"))
		assert.Equal(t, "bbd", c.DefaultQuery("missing", "bbd"))
	})(httptest.NewRecorder(), req)
}
