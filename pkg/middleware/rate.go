// Package middleware provides the storefront's HTTP middleware.
package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/perennia/storefront/pkg/response"
)

// bucket tracks a fixed-window request count for one IP.
type bucket struct {
	mu      sync.Mutex
	count   int
	resetAt time.Time
}

func (b *bucket) allow(max int, window time.Duration) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	if now.After(b.resetAt) {
		b.count = 0
		b.resetAt = now.Add(window)
	}

	b.count++
	return b.count <= max
}

// Limiter holds per-IP buckets for one window size.
type Limiter struct {
	max    int
	window time.Duration

	mu      sync.Mutex
	buckets map[string]*bucket
}

func NewLimiter(max int, window time.Duration) *Limiter {
	return &Limiter{max: max, window: window, buckets: map[string]*bucket{}}
}

// Allow reports whether ip may make another request now.
func (l *Limiter) Allow(ip string) bool {
	l.mu.Lock()
	b, ok := l.buckets[ip]
	if !ok {
		b = &bucket{resetAt: time.Now().Add(l.window)}
		l.buckets[ip] = b
	}
	l.mu.Unlock()
	return b.allow(l.max, l.window)
}

// Sweep drops buckets whose window has passed.
func (l *Limiter) Sweep() {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()
	for ip, b := range l.buckets {
		b.mu.Lock()
		expired := now.After(b.resetAt)
		b.mu.Unlock()
		if expired {
			delete(l.buckets, ip)
		}
	}
}

// Middleware answers 429 {"detail":"Too Many Requests"} once an IP is over
// its limit.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(clientIP(r)) {
			w.Header().Set("Retry-After", "60")
			response.Error(w, http.StatusTooManyRequests, "Too Many Requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RateLimit limits each IP to max requests per window and sweeps idle
// buckets every minute.
//
//	r.Use(middleware.RateLimit(200, time.Minute))
func RateLimit(max int, window time.Duration) func(http.Handler) http.Handler {
	l := NewLimiter(max, window)
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			l.Sweep()
		}
	}()
	return l.Middleware
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.SplitN(fwd, ",", 2)[0])
	}
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
