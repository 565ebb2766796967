package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/perennia/storefront/app/models"
	"github.com/perennia/storefront/pkg/orm"
)

type ContactRepository struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

func (r *ContactRepository) Create(ctx context.Context, m *models.ContactMessage) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// Latest returns messages newest first.
func (r *ContactRepository) Latest(ctx context.Context, limit int) ([]models.ContactMessage, error) {
	out := []models.ContactMessage{}
	err := orm.Use(r.db).WithContext(ctx).
		Model(&models.ContactMessage{}).
		Latest("created_at").
		Limit(limit).
		Get(&out)
	return out, err
}

// MarkRead flags message id as read. Returns orm.ErrNotFound when absent.
func (r *ContactRepository) MarkRead(ctx context.Context, id string) error {
	var m models.ContactMessage
	if err := orm.Use(r.db).WithContext(ctx).Model(&models.ContactMessage{}).Where("id = ?", id).First(&m); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(&models.ContactMessage{}).Where("id = ?", id).Update("read", true).Error
}

func (r *ContactRepository) UnreadCount(ctx context.Context) (int64, error) {
	return orm.Use(r.db).WithContext(ctx).Model(&models.ContactMessage{}).Where(map[string]interface{}{"read": false}).Count()
}
