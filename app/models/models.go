// Package models holds the storefront's GORM records. Every record is keyed
// by a UUIDv4 string assigned on create; money columns are decimals with two
// places and serialise as plain JSON numbers.
package models

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func init() {
	// 120.00 is emitted as 120, not "120".
	decimal.MarshalJSONWithoutQuotes = true
}

// NewID returns a fresh UUIDv4 string.
func NewID() string { return uuid.NewString() }

// Money rounds d to cents.
func Money(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

func jsonText(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}
