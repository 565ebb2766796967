// Package currency covers the two display currencies of the storefront.
package currency

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Currency string

const (
	BBD Currency = "BBD"
	USD Currency = "USD"
)

// Default is used whenever no valid currency was asked for.
const Default = BBD

// Parse is case-insensitive; anything unknown becomes Default.
func Parse(s string) Currency {
	switch Currency(strings.ToUpper(strings.TrimSpace(s))) {
	case USD:
		return USD
	case BBD:
		return BBD
	}
	return Default
}

// Toggle switches between BBD and USD.
func (c Currency) Toggle() Currency {
	if c == USD {
		return BBD
	}
	return USD
}

// Format renders amount as "$12.00 BBD".
func (c Currency) Format(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(2) + " " + string(c)
}

// Pick returns the amount that applies to c.
func (c Currency) Pick(bbd, usd decimal.Decimal) decimal.Decimal {
	if c == USD {
		return usd
	}
	return bbd
}

func (c Currency) String() string { return string(c) }
