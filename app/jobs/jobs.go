// Package jobs holds the storefront's queued work: the customer's order
// confirmation and the admin's order and contact alerts.
package jobs

import (
	"github.com/perennia/storefront/app/repositories"
	"github.com/perennia/storefront/pkg/queue"
)

const (
	OrderConfirmationName = "order.confirmation"
	AdminOrderAlertName   = "order.admin_alert"
	ContactAlertName      = "contact.admin_alert"
)

// Register makes every job decodable by the workers. orders is handed to
// the jobs that need to reload an order; adminEmail receives alerts.
func Register(orders *repositories.OrderRepository, adminEmail string) {
	queue.Register(OrderConfirmationName, func() queue.Job {
		return &OrderConfirmationJob{orders: orders}
	})
	queue.Register(AdminOrderAlertName, func() queue.Job {
		return &AdminOrderAlertJob{orders: orders, adminEmail: adminEmail}
	})
	queue.Register(ContactAlertName, func() queue.Job {
		return &ContactAlertJob{adminEmail: adminEmail}
	})
}
