package services_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/perennia/storefront/app/models"
	"github.com/perennia/storefront/app/repositories"
	"github.com/perennia/storefront/pkg/cache"
	"github.com/perennia/storefront/pkg/event"
	"github.com/perennia/storefront/pkg/middleware"
	"github.com/perennia/storefront/pkg/testkit"
)

func setup(t *testing.T) *gorm.DB {
	t.Helper()
	cache.Use(cache.NewMemoryStore())
	event.Flush()
	t.Cleanup(event.Flush)
	return testkit.DB(t)
}

func as(userID string, admin bool) context.Context {
	return middleware.WithIdentity(context.Background(), middleware.Identity{
		UserID:  userID,
		Email:   userID + "@example.com",
		IsAdmin: admin,
	})
}

func customer(userID string) middleware.Identity {
	return middleware.Identity{UserID: userID, Email: userID + "@example.com"}
}

func seedProduct(t *testing.T, db *gorm.DB, name string, bbd, usd int64, stock int) models.Product {
	t.Helper()
	p := models.Product{
		Name:     name,
		PriceBBD: decimal.NewFromInt(bbd),
		PriceUSD: decimal.NewFromInt(usd),
		Category: models.CategoryCandles,
		Images:   []string{"https://img.example.com/" + name + ".jpg"},
		Stock:    stock,
	}
	require.NoError(t, repositories.NewProductRepository(db).Create(context.Background(), &p))
	return p
}

func stockOf(t *testing.T, db *gorm.DB, id string) int {
	t.Helper()
	p, err := repositories.NewProductRepository(db).FindByID(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}
