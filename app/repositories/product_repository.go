package repositories

import (
	"context"
	"fmt"
	"math"

	"gorm.io/gorm"

	"github.com/perennia/storefront/app/models"
	"github.com/perennia/storefront/pkg/collection"
	"github.com/perennia/storefront/pkg/orm"
)

// ProductFilter narrows a catalogue listing. Zero values mean "any".
type ProductFilter struct {
	Category string
	Featured *bool
	Limit    int
}

// Rating is the aggregate of a product's reviews.
type Rating struct {
	Average float64
	Count   int
}

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// List returns products newest first.
func (r *ProductRepository) List(ctx context.Context, f ProductFilter) ([]models.Product, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	products := []models.Product{}
	err := orm.Use(r.db).WithContext(ctx).
		Model(&models.Product{}).
		WhereIf(f.Category != "", "category = ?", f.Category).
		WhereIf(f.Featured != nil, "featured = ?", f.Featured != nil && *f.Featured).
		Latest("created_at").
		Limit(limit).
		Get(&products)
	return products, err
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (models.Product, error) {
	var p models.Product
	err := orm.Use(r.db).WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).First(&p)
	return p, err
}

// FindByIDs returns the products that exist among ids, keyed by id.
func (r *ProductRepository) FindByIDs(ctx context.Context, ids []string) (map[string]models.Product, error) {
	if len(ids) == 0 {
		return map[string]models.Product{}, nil
	}

	var products []models.Product
	if err := orm.Use(r.db).WithContext(ctx).Model(&models.Product{}).Where("id IN ?", collection.Unique(ids)).Get(&products); err != nil {
		return nil, err
	}
	return collection.KeyBy(products, func(p models.Product) string { return p.ID }), nil
}

func (r *ProductRepository) Count(ctx context.Context) (int64, error) {
	return orm.Use(r.db).WithContext(ctx).Model(&models.Product{}).Count()
}

func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// CreateMany inserts products in one batch.
func (r *ProductRepository) CreateMany(ctx context.Context, products []models.Product) error {
	if len(products) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&products).Error
}

// Update applies cols to product id. It returns orm.ErrNotFound when the
// product does not exist.
func (r *ProductRepository) Update(ctx context.Context, id string, cols map[string]interface{}) error {
	return orm.Transaction(ctx, r.db, func(tx *gorm.DB) error {
		exists, err := orm.Use(tx).Model(&models.Product{}).Where("id = ?", id).Exists()
		if err != nil {
			return err
		}
		if !exists {
			return orm.ErrNotFound
		}
		return tx.Model(&models.Product{}).Where("id = ?", id).Updates(cols).Error
	})
}

// Delete removes product id, returning orm.ErrNotFound if nothing was deleted.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return orm.ErrNotFound
	}
	return nil
}

// DecrementStock takes qty units of product id inside tx. It reports false
// when fewer than qty remain, leaving the row untouched.
func (r *ProductRepository) DecrementStock(tx *gorm.DB, id string, qty int) (bool, error) {
	res := tx.Model(&models.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return false, fmt.Errorf("repositories: decrement stock: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// ratings aggregates reviews for the given products. Products without
// reviews are absent from the result.
func (r *ProductRepository) ratings(ctx context.Context, ids []string) (map[string]Rating, error) {
	out := make(map[string]Rating, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []struct {
		ProductID   string
		AvgRating   float64
		ReviewCount int
	}
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Select("product_id, AVG(rating) AS avg_rating, COUNT(*) AS review_count").
		Where("product_id IN ?", ids).
		Group("product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		out[row.ProductID] = Rating{Average: math.Round(row.AvgRating*10) / 10, Count: row.ReviewCount}
	}
	return out, nil
}

// WithRatings fills AverageRating and ReviewCount on every product.
func (r *ProductRepository) WithRatings(ctx context.Context, products []models.Product) error {
	ids := make([]string, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	ratings, err := r.ratings(ctx, ids)
	if err != nil {
		return err
	}
	for i := range products {
		rt := ratings[products[i].ID]
		products[i].AverageRating = rt.Average
		products[i].ReviewCount = rt.Count
	}
	return nil
}
