package models_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perennia/storefront/app/models"
)

func TestReviewerName(t *testing.T) {
	assert.Equal(t, "Jane D.", (&models.User{FirstName: "Jane", LastName: "Doe"}).ReviewerName())
	assert.Equal(t, "Jane", (&models.User{FirstName: "Jane"}).ReviewerName())
	assert.Equal(t, "Zoë É.", (&models.User{FirstName: "Zoë", LastName: "Étienne"}).ReviewerName())
}

func TestMoneySerialisesAsNumber(t *testing.T) {
	p := models.Product{PriceBBD: decimal.RequireFromString("120.00"), PriceUSD: decimal.RequireFromString("64.50")}
	raw, err := json.Marshal(p)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, 120.0, out["price_bbd"])
	assert.Equal(t, 64.5, out["price_usd"])
}

func TestSettingsApplyMergesNestedSections(t *testing.T) {
	s := models.DefaultSiteSettings()
	gold, name, solid := "#FFD700", "Perennia BB", "solid"
	insta := "https://instagram.com/perennia"

	s.Apply(models.SiteSettingsUpdate{
		BusinessName:   &name,
		ThemeColors:    &models.ThemeColorsUpdate{Primary: &gold},
		LayoutSettings: &models.LayoutSettingsUpdate{NavbarStyle: &solid},
		SocialLinks:    &models.SocialLinksUpdate{Instagram: &insta},
	})

	assert.Equal(t, "Perennia BB", s.BusinessName)
	assert.Equal(t, "#FFD700", s.ThemeColors.Primary)
	assert.Equal(t, "#40E0D0", s.ThemeColors.Secondary, "untouched colours survive")
	assert.Equal(t, "solid", s.LayoutSettings.NavbarStyle)
	assert.True(t, s.LayoutSettings.ShowHero)
	assert.Equal(t, insta, s.SocialLinks.Instagram)
	assert.Equal(t, "Handcrafted Luxury from Barbados", s.Tagline)
}

func TestProductUpdateColumns(t *testing.T) {
	price := decimal.RequireFromString("19.999")
	stock := 0
	cols := models.ProductUpdate{PriceUSD: &price, Stock: &stock}.Columns()

	assert.Len(t, cols, 2)
	assert.Equal(t, "20", cols["price_usd"].(decimal.Decimal).String())
	assert.Equal(t, 0, cols["stock"])
}
