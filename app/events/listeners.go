package events

import (
	"context"

	"github.com/perennia/storefront/app/jobs"
	"github.com/perennia/storefront/pkg/event"
	"github.com/perennia/storefront/pkg/logger"
	"github.com/perennia/storefront/pkg/queue"
)

// Feed receives order events for the admin live view.
type Feed interface {
	Publish(v interface{})
}

// Register wires the storefront's listeners. feed may be nil.
func Register(feed Feed) {
	broadcast := func(_ context.Context, payload interface{}) {
		if e, ok := payload.(OrderEvent); ok && feed != nil {
			feed.Publish(e)
		}
	}
	event.Listen(OrderCreated, broadcast)
	event.Listen(OrderPaid, broadcast)
	event.Listen(OrderStatusChanged, broadcast)

	event.Listen(OrderCreated, func(ctx context.Context, payload interface{}) {
		if e, ok := payload.(OrderEvent); ok {
			dispatch(ctx, jobs.NewAdminOrderAlertJob(e.OrderID))
		}
	})
	event.Listen(OrderPaid, func(ctx context.Context, payload interface{}) {
		if e, ok := payload.(OrderEvent); ok {
			dispatch(ctx, jobs.NewOrderConfirmationJob(e.OrderID))
		}
	})
	event.Listen(ContactReceived, func(ctx context.Context, payload interface{}) {
		if e, ok := payload.(ContactEvent); ok {
			dispatch(ctx, &jobs.ContactAlertJob{
				MessageID: e.MessageID,
				Name:      e.Name,
				Email:     e.Email,
				Subject:   e.Subject,
			})
		}
	})
}

// dispatch queues job; a full or failing queue never fails the request that
// fired the event.
func dispatch(ctx context.Context, job queue.Job) {
	if err := queue.Dispatch(ctx, job); err != nil {
		logger.WithCtx(ctx).Error("queue dispatch failed", "error", err)
	}
}
