package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/perennia/storefront/app/models"
	"github.com/perennia/storefront/pkg/orm"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// DB exposes the handle so services can open a transaction spanning
// several repositories.
func (r *OrderRepository) DB() *gorm.DB { return r.db }

// Create inserts the order and its items using tx.
func (r *OrderRepository) Create(tx *gorm.DB, order *models.Order) error {
	return tx.Create(order).Error
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (models.Order, error) {
	var o models.Order
	err := orm.Use(r.db).WithContext(ctx).
		Model(&models.Order{}).
		Preload("Items", orderItems).
		Where("id = ?", id).
		First(&o)
	return o, err
}

// ForUser returns the user's orders, newest first.
func (r *OrderRepository) ForUser(ctx context.Context, userID string, limit int) ([]models.Order, error) {
	return r.list(ctx, limit, "user_id = ?", userID)
}

// All returns every order, newest first.
func (r *OrderRepository) All(ctx context.Context, limit int) ([]models.Order, error) {
	return r.list(ctx, limit, "1 = 1")
}

func (r *OrderRepository) list(ctx context.Context, limit int, where string, args ...interface{}) ([]models.Order, error) {
	orders := []models.Order{}
	err := orm.Use(r.db).WithContext(ctx).
		Model(&models.Order{}).
		Preload("Items", orderItems).
		Where(where, args...).
		Latest("created_at").
		Limit(limit).
		Get(&orders)
	return orders, err
}

func orderItems(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }

// UpdateStatus sets the fulfilment status, returning orm.ErrNotFound for an
// unknown order.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id, status string) error {
	return orm.Transaction(ctx, r.db, func(tx *gorm.DB) error {
		exists, err := orm.Use(tx).Model(&models.Order{}).Where("id = ?", id).Exists()
		if err != nil {
			return err
		}
		if !exists {
			return orm.ErrNotFound
		}
		return tx.Model(&models.Order{}).Where("id = ?", id).
			Updates(map[string]interface{}{"status": status, "updated_at": time.Now().UTC()}).Error
	})
}

// MarkPaid flips the order to paid/processing. It reports true only for the
// call that made the transition, so callers can act exactly once.
func (r *OrderRepository) MarkPaid(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND payment_status <> ?", id, models.PaymentPaid).
		Updates(map[string]interface{}{
			"payment_status": models.PaymentPaid,
			"status":         models.OrderProcessing,
			"updated_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
