package http_test

import (
	"context"
	"encoding/json"
	gohttp "net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apphttp "github.com/perennia/storefront/pkg/http"
)

func TestJSONBodyAndHeaders(t *testing.T) {
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer hook-token", r.Header.Get("Authorization"))
		assert.Equal(t, "perennia", r.Header.Get("X-Source"))
		var in struct{ Text string }
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "New order", in.Text)
		w.Write([]byte(`{"ok":true}`)) //nolint:errcheck
	}))
	defer srv.Close()

	resp, err := apphttp.Post(srv.URL).
		Bearer("hook-token").
		Headers(map[string]string{"X-Source": "perennia"}).
		Body(map[string]string{"text": "New order"}).
		Send()
	require.NoError(t, err)
	assert.True(t, resp.OK())

	var out struct{ OK bool }
	require.NoError(t, resp.JSON(&out))
	assert.True(t, out.OK)
}

func TestRetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(gohttp.StatusBadGateway)
			return
		}
		w.Write([]byte(`ok`)) //nolint:errcheck
	}))
	defer srv.Close()

	resp, err := apphttp.Get(srv.URL).Retry(3, time.Millisecond).Send()
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text())
	assert.Equal(t, int32(3), hits.Load())
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		hits.Add(1)
		w.WriteHeader(gohttp.StatusBadRequest)
	}))
	defer srv.Close()

	resp, err := apphttp.Get(srv.URL).Retry(3, time.Millisecond).Send()
	require.NoError(t, err)
	assert.Equal(t, gohttp.StatusBadRequest, resp.StatusCode)
	assert.Error(t, resp.Throw())
	assert.Equal(t, int32(1), hits.Load())
}

func TestCancelledContextStopsRetries(t *testing.T) {
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		w.WriteHeader(gohttp.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := apphttp.Get(srv.URL).Retry(5, time.Second).WithContext(ctx).Send()
	assert.Error(t, err)
}

type staticTransport struct{ status int }

func (s staticTransport) RoundTrip(r *gohttp.Request) (*gohttp.Response, error) {
	rec := httptest.NewRecorder()
	rec.WriteHeader(s.status)
	return rec.Result(), nil
}

func TestUseTransport(t *testing.T) {
	restore := apphttp.UseTransport(staticTransport{status: gohttp.StatusTeapot})
	resp, err := apphttp.Get("http://example.invalid/").Send()
	restore()

	require.NoError(t, err)
	assert.Equal(t, gohttp.StatusTeapot, resp.StatusCode)
}
