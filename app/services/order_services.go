package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/perennia/storefront/app/events"
	"github.com/perennia/storefront/app/models"
	"github.com/perennia/storefront/app/repositories"
	"github.com/perennia/storefront/pkg/collection"
	"github.com/perennia/storefront/pkg/event"
	"github.com/perennia/storefront/pkg/metrics"
	"github.com/perennia/storefront/pkg/middleware"
	"github.com/perennia/storefront/pkg/orm"
	"github.com/perennia/storefront/pkg/rbac"
)

const (
	userOrderLimit  = 100
	adminOrderLimit = 500
)

type OrderItemInput struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity"   validate:"required,gte=1"`
}

// OrderInput is the checkout form.
type OrderInput struct {
	Items           []OrderItemInput `json:"items"            validate:"required,min=1,max=100,dive"`
	ShippingAddress string           `json:"shipping_address" validate:"required,max=500"`
	City            string           `json:"city"             validate:"required,max=120"`
	PostalCode      *string          `json:"postal_code"      validate:"nullable,max=20"`
	Country         string           `json:"country"          validate:"nullable,max=120"`
	Phone           string           `json:"phone"            validate:"required,max=30"`
	Notes           *string          `json:"notes"            validate:"nullable,max=2000"`
	PaymentMethod   string           `json:"payment_method"   validate:"nullable,in=stripe,form"`
}

type StatusInput struct {
	Status string `json:"status"`
}

type OrderService struct {
	orders  *repositories.OrderRepository
	catalog *CatalogService
}

// NewOrderService wires the order flow. catalog may be nil; when set its
// cached listings are dropped after stock changes.
func NewOrderService(orders *repositories.OrderRepository, catalog *CatalogService) *OrderService {
	return &OrderService{orders: orders, catalog: catalog}
}

// Create validates stock, decrements it and stores the order in a single
// transaction; on any failure nothing is written.
func (s *OrderService) Create(ctx context.Context, who middleware.Identity, in OrderInput) (models.Order, error) {
	order := models.Order{
		UserID:          who.UserID,
		UserEmail:       who.Email,
		ShippingAddress: strings.TrimSpace(in.ShippingAddress),
		City:            strings.TrimSpace(in.City),
		Country:         strings.TrimSpace(in.Country),
		Phone:           strings.TrimSpace(in.Phone),
		Notes:           in.Notes,
		PaymentMethod:   in.PaymentMethod,
		Status:          models.OrderPending,
		PaymentStatus:   models.PaymentPending,
	}
	if in.PostalCode != nil {
		order.PostalCode = strings.TrimSpace(*in.PostalCode)
	}
	if order.Country == "" {
		order.Country = "Barbados"
	}
	if order.PaymentMethod == "" {
		order.PaymentMethod = models.MethodStripe
	}

	err := orm.Transaction(ctx, s.orders.DB(), func(tx *gorm.DB) error {
		products := repositories.NewProductRepository(tx)
		totalBBD, totalUSD := decimal.Zero, decimal.Zero

		for _, item := range in.Items {
			p, err := products.FindByID(ctx, item.ProductID)
			if err != nil {
				return notFoundAs(err, fmt.Sprintf("Product %s not found", item.ProductID), "create order")
			}
			if p.Stock < item.Quantity {
				return BadRequest("Insufficient stock for " + p.Name)
			}
			ok, err := products.DecrementStock(tx, p.ID, item.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return BadRequest("Insufficient stock for " + p.Name)
			}

			qty := decimal.NewFromInt(int64(item.Quantity))
			totalBBD = totalBBD.Add(p.PriceBBD.Mul(qty))
			totalUSD = totalUSD.Add(p.PriceUSD.Mul(qty))
			order.Items = append(order.Items, models.OrderItem{
				ProductID:   p.ID,
				ProductName: p.Name,
				Quantity:    item.Quantity,
				PriceBBD:    p.PriceBBD,
				PriceUSD:    p.PriceUSD,
				Image:       p.FirstImage(),
			})
		}

		order.TotalBBD = models.Money(totalBBD)
		order.TotalUSD = models.Money(totalUSD)
		return s.orders.Create(tx, &order)
	})
	if err != nil {
		var se *Error
		if errors.As(err, &se) {
			return models.Order{}, se
		}
		return models.Order{}, fmt.Errorf("services: create order: %w", err)
	}

	if s.catalog != nil {
		s.catalog.Invalidate(ctx)
	}
	metrics.RecordOrder(order.PaymentMethod)
	event.Fire(ctx, events.OrderCreated, events.NewOrderEvent(events.OrderCreated, order))
	return order, nil
}

// Mine returns the caller's orders, newest first.
func (s *OrderService) Mine(ctx context.Context, userID string) ([]models.Order, error) {
	orders, err := s.orders.ForUser(ctx, userID, userOrderLimit)
	if err != nil {
		return nil, fmt.Errorf("services: list orders: %w", err)
	}
	return orders, nil
}

// All returns every order for the admin, newest first.
func (s *OrderService) All(ctx context.Context) ([]models.Order, error) {
	orders, err := s.orders.All(ctx, adminOrderLimit)
	if err != nil {
		return nil, fmt.Errorf("services: list all orders: %w", err)
	}
	return orders, nil
}

// Get returns an order to its owner or an admin.
func (s *OrderService) Get(ctx context.Context, id string) (models.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return order, notFoundAs(err, "Order not found", "get order")
	}
	if !rbac.CanAccess(ctx, order.UserID) {
		return models.Order{}, Forbidden("Access denied")
	}
	return order, nil
}

// ValidStatus reports whether status is one an admin may set.
func ValidStatus(status string) bool {
	return collection.Contains(models.OrderStatuses, status)
}

// UpdateStatus sets an order's status. Values must match exactly.
func (s *OrderService) UpdateStatus(ctx context.Context, id, status string) error {
	if !ValidStatus(status) {
		return BadRequest("Invalid status")
	}
	if err := s.orders.UpdateStatus(ctx, id, status); err != nil {
		return notFoundAs(err, "Order not found", "update order status")
	}

	if order, err := s.orders.FindByID(ctx, id); err == nil {
		event.Fire(ctx, events.OrderStatusChanged, events.NewOrderEvent(events.OrderStatusChanged, order))
	}
	return nil
}
