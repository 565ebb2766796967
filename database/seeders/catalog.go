package seeders

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/perennia/storefront/app/models"
	"github.com/perennia/storefront/app/repositories"
)

func init() {
	Register("catalog", func(ctx context.Context, db *gorm.DB) error {
		_, err := SeedCatalog(ctx, db)
		return err
	})
}

const (
	imgCoasters = "https://images.unsplash.com/photo-1718635310388-880694939769?crop=entropy&cs=srgb&fm=jpg&ixid=M3w3NDQ2Mzl8MHwxfHNlYXJjaHwyfHxyZXNpbiUyMGFydCUyMGRlY29yJTIwZ29sZCUyMHR1cnF1b2lzZXxlbnwwfHx8fDE3Njg5NDMzNDZ8MA&ixlib=rb-4.1.0&q=85"
	imgTray     = "https://images.unsplash.com/photo-1663739314425-4b0d05a8a068?crop=entropy&cs=srgb&fm=jpg&ixid=M3w3NDQ2Mzl8MHwxfHNlYXJjaHw0fHxyZXNpbiUyMGFydCUyMGRlY29yJTIwZ29sZCUyMHR1cnF1b2lzZXxlbnwwfHx8fDE3Njg5NDMzNDZ8MA&ixlib=rb-4.1.0&q=85"
	imgLavender = "https://images.unsplash.com/photo-1622116500760-1753e5973ec7?crop=entropy&cs=srgb&fm=jpg&ixid=M3w4NTYxODh8MHwxfHNlYXJjaHw0fHxsdXh1cnklMjBoYW5kbWFkZSUyMHNvYXAlMjBkYXJrJTIwYmFja2dyb3VuZHxlbnwwfHx8fDE3Njg5NDMzNDJ8MA&ixlib=rb-4.1.0&q=85"
	imgCharcoal = "https://images.pexels.com/photos/6621470/pexels-photo-6621470.jpeg"
	imgLotion   = "https://images.unsplash.com/photo-1620567645328-99d8d4b6d4e5?crop=entropy&cs=srgb&fm=jpg&ixid=M3w4NTYxODh8MHwxfHNlYXJjaHwzfHxsdXh1cnklMjBoYW5kbWFkZSUyMHNvYXAlMjBkYXJrJTIwYmFja2dyb3VuZHxlbnwwfHx8fDE3Njg5NDMzNDJ8MA&ixlib=rb-4.1.0&q=85"
	imgSunset   = "https://images.unsplash.com/photo-1668086682339-f14262879c18?crop=entropy&cs=srgb&fm=jpg&ixid=M3w4NTYxOTF8MHwxfHNlYXJjaHwxfHxhcnRpc2FuJTIwc2NlbnRlZCUyMGNhbmRsZSUyMGRhcmslMjBtb29kJTIwZ29sZHxlbnwwfHx8fDE3Njg5NDMzNDR8MA&ixlib=rb-4.1.0&q=85"
	imgOud      = "https://images.unsplash.com/photo-1651795426376-0e6adfd01f00?crop=entropy&cs=srgb&fm=jpg&ixid=M3w4NTYxOTF8MHwxfHNlYXJjaHwzfHxhcnRpc2FuJTIwc2NlbnRlZCUyMGNhbmRsZSUyMGRhcmslMjBtb29kJTIwZ29sZHxlbnwwfHx8fDE3Njg5NDMzNDR8MA&ixlib=rb-4.1.0&q=85"
	imgVanilla  = "https://images.unsplash.com/photo-1641837225643-f999493f6375?crop=entropy&cs=srgb&fm=jpg&ixid=M3w4NTYxOTF8MHwxfHNlYXJjaHw0fHxhcnRpc2FuJTIwc2NlbnRlZCUyMGNhbmRsZSUyMGRhcmslMjBtb29kJTIwZ29sZHxlbnwwfHx8fDE3Njg5NDMzNDR8MA&ixlib=rb-4.1.0&q=85"
)

func product(name, description, category string, bbd, usd int64, image string, stock int, featured bool) models.Product {
	return models.Product{
		Name:        name,
		Description: description,
		PriceBBD:    decimal.NewFromInt(bbd),
		PriceUSD:    decimal.NewFromInt(usd),
		Category:    category,
		Images:      []string{image},
		Stock:       stock,
		Featured:    featured,
	}
}

// Catalog returns the launch catalogue: three products in each category.
func Catalog() []models.Product {
	return []models.Product{
		product("Ocean Wave Coaster Set",
			"Hand-poured resin coasters capturing the essence of Caribbean waves. Each piece is unique with swirling turquoise and white tones.",
			models.CategoryResin, 120, 60, imgCoasters, 15, true),
		product("Gold Leaf Trinket Tray",
			"Elegant resin tray adorned with genuine gold leaf flakes. Perfect for jewelry or decorative display.",
			models.CategoryResin, 180, 90, imgTray, 10, true),
		product("Midnight Purple Clock",
			"A stunning wall clock featuring deep purple resin with gold flecks. Functional art for your space.",
			models.CategoryResin, 250, 125, imgCoasters, 5, false),
		product("Lavender Dreams Bar",
			"Gentle lavender-infused soap made with organic oils. Calming scent for relaxation.",
			models.CategorySoaps, 24, 12, imgLavender, 50, true),
		product("Charcoal Detox Scrub",
			"Deep cleansing activated charcoal body scrub with coconut oil. Exfoliates and purifies.",
			models.CategorySoaps, 36, 18, imgCharcoal, 30, false),
		product("Shea Butter Body Lotion",
			"Rich moisturizing lotion with pure shea butter and vanilla essence. Nourishes dry skin.",
			models.CategorySoaps, 48, 24, imgLotion, 25, true),
		product("Caribbean Sunset Candle",
			"Hand-poured soy candle with notes of hibiscus, mango, and warm amber. 40+ hours burn time.",
			models.CategoryCandles, 64, 32, imgSunset, 20, true),
		product("Midnight Oud Collection",
			"Luxurious black vessel candle with deep oud and sandalwood fragrance. Perfect for evening ambiance.",
			models.CategoryCandles, 96, 48, imgOud, 15, false),
		product("Vanilla Bean Trio",
			"Set of three mini candles in warm vanilla scent. Perfect gift set or home warming collection.",
			models.CategoryCandles, 72, 36, imgVanilla, 18, true),
	}
}

// SeedCatalog inserts the catalogue when the products table is empty and
// returns the number of rows written. A non-empty table is left alone.
func SeedCatalog(ctx context.Context, db *gorm.DB) (int, error) {
	products := repositories.NewProductRepository(db)
	n, err := products.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("seeders: count products: %w", err)
	}
	if n > 0 {
		return 0, nil
	}

	catalog := Catalog()
	if err := products.CreateMany(ctx, catalog); err != nil {
		return 0, fmt.Errorf("seeders: insert catalog: %w", err)
	}
	return len(catalog), nil
}
