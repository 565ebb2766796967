// Package event is the in-process event bus. Services fire domain events
// (order.created, order.paid, …) and listeners registered at boot react:
// broadcast to the admin feed, queue a mail, bump a metric.
package event

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/perennia/storefront/pkg/logger"
)

// Handler receives an event payload.
type Handler func(ctx context.Context, payload interface{})

var (
	mu       sync.RWMutex
	handlers = map[string][]Handler{}
	inflight sync.WaitGroup
)

// Listen registers a handler for the given event name.
func Listen(event string, handler Handler) {
	mu.Lock()
	defer mu.Unlock()
	handlers[event] = append(handlers[event], handler)
}

func listeners(event string) []Handler {
	mu.RLock()
	defer mu.RUnlock()
	hs := make([]Handler, len(handlers[event]))
	copy(hs, handlers[event])
	return hs
}

// Fire dispatches an event synchronously to all registered listeners. A
// panicking listener is logged and does not stop the others.
func Fire(ctx context.Context, event string, payload interface{}) {
	for _, h := range listeners(event) {
		call(ctx, event, h, payload)
	}
}

// FireAsync dispatches the event to all listeners concurrently and returns
// immediately. Listeners get a context that outlives the request.
func FireAsync(ctx context.Context, event string, payload interface{}) {
	detached := context.WithoutCancel(ctx)
	for _, h := range listeners(event) {
		inflight.Add(1)
		go func(h Handler) {
			defer inflight.Done()
			call(detached, event, h, payload)
		}(h)
	}
}

// Wait blocks until every FireAsync listener has returned.
func Wait() { inflight.Wait() }

func call(ctx context.Context, event string, h Handler, payload interface{}) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithCtx(ctx).Error("event: listener panicked",
				"event", event, "panic", r, "stack", string(debug.Stack()))
		}
	}()
	h(ctx, payload)
}

// Flush removes all listeners (useful in tests).
func Flush() {
	mu.Lock()
	defer mu.Unlock()
	handlers = map[string][]Handler{}
}
