package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/perennia/storefront/app/models"
	"github.com/perennia/storefront/app/repositories"
	"github.com/perennia/storefront/pkg/cache"
)

const (
	productCachePrefix = "perennia:products:"
	productCacheTTL    = 60 * time.Second
	productListLimit   = 100
)

// ProductInput is the admin's create form.
type ProductInput struct {
	Name        string           `json:"name"        validate:"required,max=255"`
	Description string           `json:"description" validate:"max=10000"`
	PriceBBD    *decimal.Decimal `json:"price_bbd"   validate:"required,gte=0"`
	PriceUSD    *decimal.Decimal `json:"price_usd"   validate:"required,gte=0"`
	Category    string           `json:"category"    validate:"required,in=resin,soaps,candles"`
	Images      []string         `json:"images"      validate:"max=20"`
	Stock       int              `json:"stock"       validate:"gte=0"`
	Featured    bool             `json:"featured"`
}

// CatalogService serves products with their review aggregates.
type CatalogService struct {
	products *repositories.ProductRepository
}

func NewCatalogService(products *repositories.ProductRepository) *CatalogService {
	return &CatalogService{products: products}
}

// ListFilter is what GET /api/products accepts.
type ListFilter struct {
	Category string
	Featured *bool
}

// ParseListFilter reads category and featured from query values. An
// unparseable featured flag is ignored.
func ParseListFilter(category, featured string) ListFilter {
	f := ListFilter{Category: strings.ToLower(strings.TrimSpace(category))}
	if b, err := strconv.ParseBool(featured); err == nil {
		f.Featured = &b
	}
	return f
}

func (f ListFilter) cacheKey() string {
	featured := "any"
	if f.Featured != nil {
		featured = strconv.FormatBool(*f.Featured)
	}
	return productCachePrefix + "list:" + f.Category + ":" + featured
}

// List returns products newest first with ratings, cached per filter.
func (s *CatalogService) List(ctx context.Context, f ListFilter) ([]models.Product, error) {
	products, err := cache.Remember(ctx, f.cacheKey(), productCacheTTL, func() ([]models.Product, error) {
		list, err := s.products.List(ctx, repositories.ProductFilter{
			Category: f.Category,
			Featured: f.Featured,
			Limit:    productListLimit,
		})
		if err != nil {
			return nil, err
		}
		if err := s.products.WithRatings(ctx, list); err != nil {
			return nil, err
		}
		return list, nil
	})
	if err != nil {
		return nil, fmt.Errorf("services: list products: %w", err)
	}
	return products, nil
}

// Get returns one product with its ratings.
func (s *CatalogService) Get(ctx context.Context, id string) (models.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return p, notFoundAs(err, "Product not found", "get product")
	}
	list := []models.Product{p}
	if err := s.products.WithRatings(ctx, list); err != nil {
		return p, fmt.Errorf("services: get product: %w", err)
	}
	return list[0], nil
}

func (s *CatalogService) Create(ctx context.Context, in ProductInput) (models.Product, error) {
	if in.PriceBBD == nil || in.PriceUSD == nil {
		return models.Product{}, BadRequest("Both prices are required")
	}
	images := in.Images
	if images == nil {
		images = []string{}
	}
	p := models.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		PriceBBD:    models.Money(*in.PriceBBD),
		PriceUSD:    models.Money(*in.PriceUSD),
		Category:    in.Category,
		Images:      images,
		Stock:       in.Stock,
		Featured:    in.Featured,
	}
	if err := s.products.Create(ctx, &p); err != nil {
		return p, fmt.Errorf("services: create product: %w", err)
	}
	s.Invalidate(ctx)
	return p, nil
}

// Update applies the supplied fields only.
func (s *CatalogService) Update(ctx context.Context, id string, u models.ProductUpdate) (models.Product, error) {
	cols := u.Columns()
	if len(cols) == 0 {
		return models.Product{}, BadRequest("No data to update")
	}
	if err := s.products.Update(ctx, id, cols); err != nil {
		return models.Product{}, notFoundAs(err, "Product not found", "update product")
	}
	s.Invalidate(ctx)
	return s.Get(ctx, id)
}

func (s *CatalogService) Delete(ctx context.Context, id string) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return notFoundAs(err, "Product not found", "delete product")
	}
	s.Invalidate(ctx)
	return nil
}

// Invalidate drops every cached listing.
func (s *CatalogService) Invalidate(ctx context.Context) {
	_ = cache.Forget(ctx, productCachePrefix)
}
