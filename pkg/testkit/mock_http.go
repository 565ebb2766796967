package testkit

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// ─── MockTransport ────────────────────────────────────────────────────────────

// MockTransport is an http.RoundTripper that answers outgoing requests from
// registered stubs instead of the network. Install it on pkg/http:
//
//	mt := testkit.NewMockTransport()
//	mt.On(http.MethodPost, "https://hooks.slack.com/", 200, `ok`)
//	restore := apphttp.UseTransport(mt)
//	defer restore()
type MockTransport struct {
	mu       sync.Mutex
	stubs    []*stub
	requests []*http.Request
	bodies   []string
}

type stub struct {
	method string
	prefix string
	status int
	body   string
	calls  int
}

func NewMockTransport() *MockTransport { return &MockTransport{} }

// On answers method requests whose URL starts with prefix. An empty method
// matches any method.
func (mt *MockTransport) On(method, prefix string, status int, body string) *MockTransport {
	mt.mu.Lock()
	mt.stubs = append(mt.stubs, &stub{method: method, prefix: prefix, status: status, body: body})
	mt.mu.Unlock()
	return mt
}

// RoundTrip records req and returns the first matching stub's response.
func (mt *MockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var body string
	if req.Body != nil {
		b, _ := io.ReadAll(req.Body)
		body = string(b)
	}

	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.requests = append(mt.requests, req)
	mt.bodies = append(mt.bodies, body)

	for _, s := range mt.stubs {
		if s.method != "" && s.method != req.Method {
			continue
		}
		if !strings.HasPrefix(req.URL.String(), s.prefix) {
			continue
		}
		s.calls++
		return &http.Response{
			StatusCode: s.status,
			Status:     fmt.Sprintf("%d %s", s.status, http.StatusText(s.status)),
			Header:     http.Header{"Content-Type": []string{"application/json"}},
			Body:       io.NopCloser(strings.NewReader(s.body)),
			Request:    req,
		}, nil
	}
	return nil, fmt.Errorf("testkit: unexpected outgoing %s %s: no matching stub", req.Method, req.URL)
}

// Calls returns how many requests were sent, matched or not.
func (mt *MockTransport) Calls() int {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	return len(mt.requests)
}

// LastBody returns the body of the most recent request, or "".
func (mt *MockTransport) LastBody() string {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	if len(mt.bodies) == 0 {
		return ""
	}
	return mt.bodies[len(mt.bodies)-1]
}

// LastRequest returns the most recent request, or nil.
func (mt *MockTransport) LastRequest() *http.Request {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	if len(mt.requests) == 0 {
		return nil
	}
	return mt.requests[len(mt.requests)-1]
}

// Unused lists stubs that never matched.
func (mt *MockTransport) Unused() []string {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	var out []string
	for _, s := range mt.stubs {
		if s.calls == 0 {
			out = append(out, s.method+" "+s.prefix)
		}
	}
	return out
}
