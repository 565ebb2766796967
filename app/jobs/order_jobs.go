package jobs

import (
	"context"
	"errors"
	"fmt"
	"html/template"

	"github.com/perennia/storefront/app/models"
	"github.com/perennia/storefront/app/repositories"
	"github.com/perennia/storefront/pkg/currency"
	"github.com/perennia/storefront/pkg/logger"
	"github.com/perennia/storefront/pkg/notification"
	"github.com/perennia/storefront/pkg/orm"
)

var confirmationTmpl = template.Must(template.New("order_confirmation").Parse(`<h1>Thank you for your order</h1>
<p>Order <strong>{{.ID}}</strong> is paid and being prepared.</p>
<table>
{{range .Lines}}<tr><td>{{.Name}} × {{.Quantity}}</td><td>{{.BBD}}</td><td>{{.USD}}</td></tr>
{{end}}</table>
<p>Total: <strong>{{.TotalBBD}}</strong> ({{.TotalUSD}})</p>
<p>Shipping to {{.Address}}, {{.City}}, {{.Country}}</p>
<p>Perennia · Handcrafted Luxury from Barbados</p>`))

type confirmationLine struct {
	Name     string
	Quantity int
	BBD      string
	USD      string
}

type confirmationView struct {
	ID       string
	Lines    []confirmationLine
	TotalBBD string
	TotalUSD string
	Address  string
	City     string
	Country  string
}

func newConfirmationView(o models.Order) confirmationView {
	v := confirmationView{
		ID:       o.ID,
		TotalBBD: currency.BBD.Format(o.TotalBBD),
		TotalUSD: currency.USD.Format(o.TotalUSD),
		Address:  o.ShippingAddress,
		City:     o.City,
		Country:  o.Country,
	}
	for _, it := range o.Items {
		v.Lines = append(v.Lines, confirmationLine{
			Name:     it.ProductName,
			Quantity: it.Quantity,
			BBD:      currency.BBD.Format(it.PriceBBD),
			USD:      currency.USD.Format(it.PriceUSD),
		})
	}
	return v
}

// loadOrder reloads id. A deleted order is not retried.
func loadOrder(ctx context.Context, orders *repositories.OrderRepository, id string) (models.Order, bool, error) {
	o, err := orders.FindByID(ctx, id)
	if errors.Is(err, orm.ErrNotFound) {
		logger.WithCtx(ctx).Warn("job skipped, order gone", "order_id", id)
		return o, false, nil
	}
	if err != nil {
		return o, false, fmt.Errorf("jobs: load order %s: %w", id, err)
	}
	return o, true, nil
}

// ─── Customer confirmation ────────────────────────────────────────────────────

// OrderConfirmationJob mails the customer once their order is paid.
type OrderConfirmationJob struct {
	OrderID string `json:"order_id"`

	orders *repositories.OrderRepository
}

func NewOrderConfirmationJob(orderID string) *OrderConfirmationJob {
	return &OrderConfirmationJob{OrderID: orderID}
}

func (OrderConfirmationJob) JobName() string { return OrderConfirmationName }

func (j *OrderConfirmationJob) Handle(ctx context.Context) error {
	o, ok, err := loadOrder(ctx, j.orders, j.OrderID)
	if !ok {
		return err
	}
	if errs := notification.Send(ctx, o.UserEmail, orderConfirmation{order: o}); len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

type orderConfirmation struct{ order models.Order }

func (orderConfirmation) Via() []string { return []string{notification.Mail} }

func (n orderConfirmation) ToMail() notification.MailData {
	var html string
	if b, err := render(confirmationTmpl, newConfirmationView(n.order)); err == nil {
		html = b
	}
	return notification.MailData{
		Subject: "Your Perennia order " + shortID(n.order.ID),
		HTML:    html,
		Text: fmt.Sprintf("Thank you for your order %s. Total %s (%s).",
			n.order.ID, currency.BBD.Format(n.order.TotalBBD), currency.USD.Format(n.order.TotalUSD)),
	}
}

// ─── Admin alert ──────────────────────────────────────────────────────────────

// AdminOrderAlertJob tells the shop owner about a new order.
type AdminOrderAlertJob struct {
	OrderID string `json:"order_id"`

	orders     *repositories.OrderRepository
	adminEmail string
}

func NewAdminOrderAlertJob(orderID string) *AdminOrderAlertJob {
	return &AdminOrderAlertJob{OrderID: orderID}
}

func (AdminOrderAlertJob) JobName() string { return AdminOrderAlertName }

func (j *AdminOrderAlertJob) Handle(ctx context.Context) error {
	o, ok, err := loadOrder(ctx, j.orders, j.OrderID)
	if !ok {
		return err
	}
	if errs := notification.Send(ctx, j.adminEmail, adminOrderAlert{order: o}); len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

type adminOrderAlert struct{ order models.Order }

func (adminOrderAlert) Via() []string { return []string{notification.Mail, notification.Slack} }

func (n adminOrderAlert) summary() string {
	items := 0
	for _, it := range n.order.Items {
		items += it.Quantity
	}
	return fmt.Sprintf("%s ordered %d item(s), %s / %s, paying by %s.",
		n.order.UserEmail, items,
		currency.BBD.Format(n.order.TotalBBD), currency.USD.Format(n.order.TotalUSD),
		n.order.PaymentMethod)
}

func (n adminOrderAlert) ToMail() notification.MailData {
	return notification.MailData{
		Subject: "New order " + shortID(n.order.ID),
		Text:    n.summary(),
	}
}

func (n adminOrderAlert) ToSlack() notification.SlackData {
	return notification.SlackData{
		Text: "New Perennia order " + shortID(n.order.ID),
		Attachments: []notification.SlackAttachment{{
			Color: "good",
			Title: n.order.City + ", " + n.order.Country,
			Text:  n.summary(),
		}},
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
