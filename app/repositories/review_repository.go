package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/perennia/storefront/app/models"
	"github.com/perennia/storefront/pkg/orm"
)

type ReviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// ForProduct returns a product's reviews, newest first.
func (r *ReviewRepository) ForProduct(ctx context.Context, productID string, limit int) ([]models.Review, error) {
	reviews := []models.Review{}
	err := orm.Use(r.db).WithContext(ctx).
		Model(&models.Review{}).
		Where("product_id = ?", productID).
		Latest("created_at").
		Limit(limit).
		Get(&reviews)
	return reviews, err
}

func (r *ReviewRepository) Exists(ctx context.Context, productID, userID string) (bool, error) {
	return orm.Use(r.db).WithContext(ctx).
		Model(&models.Review{}).
		Where("product_id = ? AND user_id = ?", productID, userID).
		Exists()
}

func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}
