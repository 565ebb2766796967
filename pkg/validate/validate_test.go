package validate_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/perennia/storefront/pkg/validate"
)

type registerInput struct {
	Email     string  `json:"email"      validate:"required,email"`
	Password  string  `json:"password"   validate:"required,min=6"`
	FirstName string  `json:"first_name" validate:"required,max=100"`
	Phone     *string `json:"phone"      validate:"nullable,max=30"`
}

func TestValidInput(t *testing.T) {
	errs := validate.Struct(registerInput{
		Email:     "jane@example.com",
		Password:  "secret123",
		FirstName: "Jane",
	})
	assert.False(t, validate.HasErrors(errs), "unexpected errors: %v", errs)
}

func TestRequiredFails(t *testing.T) {
	errs := validate.Struct(&registerInput{})
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "password")
	assert.Contains(t, errs, "first_name")
	assert.NotContains(t, errs, "phone")
}

func TestPointerFieldsAreDereferenced(t *testing.T) {
	long := "+1 (246) 123-4567 ext 99999999999999"
	errs := validate.Struct(registerInput{
		Email: "jane@example.com", Password: "secret123", FirstName: "Jane", Phone: &long,
	})
	assert.Contains(t, errs, "phone")

	type styleInput struct {
		Navbar *string `json:"navbar_style" validate:"nullable,in=glass,solid,transparent"`
	}
	bad, good := "neon", "solid"
	assert.Contains(t, validate.Struct(styleInput{Navbar: &bad}), "navbar_style")
	assert.Empty(t, validate.Struct(styleInput{Navbar: &good}))
	assert.Empty(t, validate.Struct(styleInput{}))
}

func TestNumericBoundsAndDecimal(t *testing.T) {
	type in struct {
		Rating int             `json:"rating" validate:"required,gte=1,lte=5"`
		Price  decimal.Decimal `json:"price"  validate:"gte=0"`
	}
	assert.Contains(t, validate.Struct(in{Rating: 6}), "rating")
	assert.Contains(t, validate.Struct(in{Rating: 0}), "rating")
	assert.Contains(t, validate.Struct(in{Rating: 3, Price: decimal.NewFromInt(-1)}), "price")
	assert.Empty(t, validate.Struct(in{Rating: 5, Price: decimal.RequireFromString("12.50")}))
}

func TestHexColor(t *testing.T) {
	type in struct {
		Primary string `json:"primary" validate:"required,hex_color"`
	}
	assert.Empty(t, validate.Struct(in{Primary: "#D4AF37"}))
	assert.Empty(t, validate.Struct(in{Primary: "#fff"}))
	assert.Contains(t, validate.Struct(in{Primary: "D4AF37"}), "primary")
	assert.Contains(t, validate.Struct(in{Primary: "#GGGGGG"}), "primary")
}

func TestDiveIntoSlicesAndStructs(t *testing.T) {
	type line struct {
		ProductID string `json:"product_id" validate:"required"`
		Quantity  int    `json:"quantity"   validate:"required,gte=1"`
	}
	type colors struct {
		Primary *string `json:"primary" validate:"nullable,hex_color"`
	}
	type in struct {
		Items []line  `json:"items"        validate:"required,min=1,dive"`
		Theme *colors `json:"theme_colors" validate:"nullable,dive"`
	}

	errs := validate.Struct(in{Items: []line{{ProductID: "a", Quantity: 1}, {ProductID: "b", Quantity: -2}}})
	assert.Contains(t, errs, "items[1].quantity")
	assert.NotContains(t, errs, "items[0].quantity")

	errs = validate.Struct(in{})
	assert.Contains(t, errs, "items")

	bad := "gold"
	errs = validate.Struct(in{Items: []line{{ProductID: "a", Quantity: 1}}, Theme: &colors{Primary: &bad}})
	assert.Equal(t, map[string]string{"theme_colors.primary": "The theme_colors.primary must be a hex colour like #D4AF37."}, errs)
}

func TestInRuleWithSimilarPrefixes(t *testing.T) {
	type in struct {
		Card string `json:"product_card_style" validate:"required,in=default,minimal,detailed,max=20"`
	}
	assert.Empty(t, validate.Struct(in{Card: "minimal"}))
	assert.Empty(t, validate.Struct(in{Card: "detailed"}))
	assert.Contains(t, validate.Struct(in{Card: "fancy"}), "product_card_style")
}

func TestURLRule(t *testing.T) {
	type in struct {
		Origin string `json:"origin_url" validate:"required,url"`
	}
	assert.Empty(t, validate.Struct(in{Origin: "https://perennia.bb"}))
	assert.Contains(t, validate.Struct(in{Origin: "perennia.bb"}), "origin_url")
}
