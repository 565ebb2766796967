// Package graph is the read-only GraphQL view of the catalogue and the
// storefront's branding.
package graph

import (
	"context"

	"github.com/graphql-go/graphql"
	"github.com/shopspring/decimal"

	"github.com/perennia/storefront/app/models"
	"github.com/perennia/storefront/app/services"
	gql "github.com/perennia/storefront/pkg/graphql"
)

// Catalog is what the product fields resolve against.
type Catalog interface {
	List(ctx context.Context, f services.ListFilter) ([]models.Product, error)
	Get(ctx context.Context, id string) (models.Product, error)
}

// Settings resolves the settings field.
type Settings interface {
	Get(ctx context.Context) (models.SiteSettings, error)
}

// money resolves a decimal field as a Float.
func money(get func(models.Product) decimal.Decimal) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		prod, ok := p.Source.(models.Product)
		if !ok {
			return nil, nil
		}
		f, _ := get(prod).Float64()
		return f, nil
	}
}

var productType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Product",
	Fields: graphql.Fields{
		"id":          &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"name":        &graphql.Field{Type: graphql.String},
		"description": &graphql.Field{Type: graphql.String},
		"category":    &graphql.Field{Type: graphql.String},
		"images":      &graphql.Field{Type: graphql.NewList(graphql.String)},
		"stock":       &graphql.Field{Type: graphql.Int},
		"featured":    &graphql.Field{Type: graphql.Boolean},
		"price_bbd": &graphql.Field{
			Type:    graphql.Float,
			Resolve: money(func(p models.Product) decimal.Decimal { return p.PriceBBD }),
		},
		"price_usd": &graphql.Field{
			Type:    graphql.Float,
			Resolve: money(func(p models.Product) decimal.Decimal { return p.PriceUSD }),
		},
		"average_rating": &graphql.Field{Type: graphql.Float},
		"review_count":   &graphql.Field{Type: graphql.Int},
	},
})

var themeType = graphql.NewObject(graphql.ObjectConfig{
	Name: "ThemeColors",
	Fields: graphql.Fields{
		"primary":        &graphql.Field{Type: graphql.String},
		"secondary":      &graphql.Field{Type: graphql.String},
		"accent":         &graphql.Field{Type: graphql.String},
		"background":     &graphql.Field{Type: graphql.String},
		"surface":        &graphql.Field{Type: graphql.String},
		"text_primary":   &graphql.Field{Type: graphql.String},
		"text_secondary": &graphql.Field{Type: graphql.String},
	},
})

var settingsType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Settings",
	Fields: graphql.Fields{
		"business_name": &graphql.Field{Type: graphql.String},
		"tagline":       &graphql.Field{Type: graphql.String},
		"theme_colors":  &graphql.Field{Type: themeType},
	},
})

// NewSchema builds the schema over catalog and settings.
func NewSchema(catalog Catalog, settings Settings) (graphql.Schema, error) {
	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"products": &graphql.Field{
				Type: graphql.NewList(productType),
				Args: graphql.FieldConfigArgument{
					"category": &graphql.ArgumentConfig{Type: graphql.String},
					"featured": &graphql.ArgumentConfig{Type: graphql.Boolean},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					var f services.ListFilter
					if c, ok := p.Args["category"].(string); ok {
						f.Category = c
					}
					if b, ok := p.Args["featured"].(bool); ok {
						f.Featured = &b
					}
					return catalog.List(p.Context, f)
				},
			},
			"product": &graphql.Field{
				Type: productType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id, _ := p.Args["id"].(string)
					return catalog.Get(p.Context, id)
				},
			},
			"settings": &graphql.Field{
				Type: settingsType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return settings.Get(p.Context)
				},
			},
		},
	})
	return gql.NewSchema(query)
}
