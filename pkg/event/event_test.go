package event_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/perennia/storefront/pkg/event"
)

func TestFireCallsListenersInOrder(t *testing.T) {
	t.Cleanup(event.Flush)

	var got []string
	event.Listen("order.created", func(_ context.Context, p interface{}) { got = append(got, "first:"+p.(string)) })
	event.Listen("order.created", func(_ context.Context, p interface{}) { got = append(got, "second:"+p.(string)) })
	event.Listen("order.paid", func(context.Context, interface{}) { got = append(got, "wrong") })

	event.Fire(context.Background(), "order.created", "o1")
	assert.Equal(t, []string{"first:o1", "second:o1"}, got)
}

func TestPanickingListenerDoesNotStopOthers(t *testing.T) {
	t.Cleanup(event.Flush)

	var ran bool
	event.Listen("boom", func(context.Context, interface{}) { panic("listener bug") })
	event.Listen("boom", func(context.Context, interface{}) { ran = true })

	assert.NotPanics(t, func() { event.Fire(context.Background(), "boom", nil) })
	assert.True(t, ran)
}

func TestFireAsyncOutlivesCancelledContext(t *testing.T) {
	t.Cleanup(event.Flush)

	var calls atomic.Int32
	var ctxErr atomic.Value
	event.Listen("order.paid", func(ctx context.Context, _ interface{}) {
		calls.Add(1)
		if ctx.Err() != nil {
			ctxErr.Store(ctx.Err())
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	event.FireAsync(ctx, "order.paid", nil)
	event.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.Nil(t, ctxErr.Load())
}
