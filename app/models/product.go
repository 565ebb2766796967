package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/perennia/storefront/pkg/currency"
)

// Product categories.
const (
	CategoryResin   = "resin"
	CategorySoaps   = "soaps"
	CategoryCandles = "candles"
)

// Product is a catalogue item. AverageRating and ReviewCount are computed
// from reviews on read and never stored.
type Product struct {
	ID          string          `gorm:"primaryKey;size:36"               json:"id"`
	Name        string          `gorm:"size:255;not null"                json:"name"`
	Description string          `gorm:"type:text"                        json:"description"`
	PriceBBD    decimal.Decimal `gorm:"type:decimal(10,2);not null"      json:"price_bbd"`
	PriceUSD    decimal.Decimal `gorm:"type:decimal(10,2);not null"      json:"price_usd"`
	Category    string          `gorm:"size:20;not null;index"           json:"category"`
	Images      []string        `gorm:"type:text;serializer:json"        json:"images"`
	Stock       int             `gorm:"not null;default:0"               json:"stock"`
	Featured    bool            `gorm:"not null;default:false;index"     json:"featured"`
	CreatedAt   time.Time       `gorm:"index"                            json:"created_at"`
	UpdatedAt   time.Time       `json:"-"`

	AverageRating float64 `gorm:"-" json:"average_rating"`
	ReviewCount   int     `gorm:"-" json:"review_count"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = NewID()
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	return nil
}

// FirstImage returns the lead image, or "".
func (p *Product) FirstImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// ProductUpdate is a partial update; nil fields are left alone.
type ProductUpdate struct {
	Name        *string          `json:"name"        validate:"nullable,min=1,max=255"`
	Description *string          `json:"description" validate:"nullable"`
	PriceBBD    *decimal.Decimal `json:"price_bbd"   validate:"nullable,gte=0"`
	PriceUSD    *decimal.Decimal `json:"price_usd"   validate:"nullable,gte=0"`
	Category    *string          `json:"category"    validate:"nullable,in=resin,soaps,candles"`
	Images      *[]string        `json:"images"`
	Stock       *int             `json:"stock"       validate:"nullable,gte=0"`
	Featured    *bool            `json:"featured"`
}

// Columns returns the column → value map for the supplied fields. JSON
// columns are pre-encoded since map updates bypass field serializers.
func (u ProductUpdate) Columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if u.Name != nil {
		cols["name"] = *u.Name
	}
	if u.Description != nil {
		cols["description"] = *u.Description
	}
	if u.PriceBBD != nil {
		cols["price_bbd"] = Money(*u.PriceBBD)
	}
	if u.PriceUSD != nil {
		cols["price_usd"] = Money(*u.PriceUSD)
	}
	if u.Category != nil {
		cols["category"] = *u.Category
	}
	if u.Images != nil {
		cols["images"] = jsonText(*u.Images)
	}
	if u.Stock != nil {
		cols["stock"] = *u.Stock
	}
	if u.Featured != nil {
		cols["featured"] = *u.Featured
	}
	return cols
}

// Price returns the product's price in c.
func (p *Product) Price(c currency.Currency) decimal.Decimal {
	return c.Pick(p.PriceBBD, p.PriceUSD)
}
