package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/perennia/storefront/app/models"
	"github.com/perennia/storefront/pkg/orm"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, tx *models.PaymentTransaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

func (r *PaymentRepository) FindBySession(ctx context.Context, sessionID string) (models.PaymentTransaction, error) {
	var t models.PaymentTransaction
	err := orm.Use(r.db).WithContext(ctx).
		Model(&models.PaymentTransaction{}).
		Where("session_id = ?", sessionID).
		First(&t)
	return t, err
}

// SetStatus records the provider's payment status for a session. A
// transaction that is already paid is never changed; the return value
// reports whether a row was updated.
func (r *PaymentRepository) SetStatus(ctx context.Context, sessionID, status string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.PaymentTransaction{}).
		Where("session_id = ? AND payment_status <> ?", sessionID, models.PaymentPaid).
		Updates(map[string]interface{}{"payment_status": status, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ExpireOlder marks transactions created before cutoff whose status is one
// of statuses as expired, returning how many changed.
func (r *PaymentRepository) ExpireOlder(ctx context.Context, cutoff time.Time, statuses []string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.PaymentTransaction{}).
		Where("payment_status IN ? AND created_at < ?", statuses, cutoff).
		Updates(map[string]interface{}{"payment_status": models.PaymentExpired, "updated_at": time.Now().UTC()})
	return res.RowsAffected, res.Error
}

// Unsettled returns transactions created after since whose status is one of
// statuses, oldest first.
func (r *PaymentRepository) Unsettled(ctx context.Context, since time.Time, statuses []string, limit int) ([]models.PaymentTransaction, error) {
	out := []models.PaymentTransaction{}
	err := orm.Use(r.db).WithContext(ctx).
		Model(&models.PaymentTransaction{}).
		Where("payment_status IN ? AND created_at >= ?", statuses, since).
		Order("created_at ASC").
		Limit(limit).
		Get(&out)
	return out, err
}
