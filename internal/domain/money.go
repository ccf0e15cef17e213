package domain

import (
	"github.com/shopspring/decimal"
)

func init() {
	// Amounts travel as JSON numbers (29.99, not "29.99") both on the API
	// and inside stored documents, so stores can range-filter on them.
	decimal.MarshalJSONWithoutQuotes = true
}

// Money rounds d to cents.
func Money(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// MustMoney parses a literal amount; it panics on malformed input and is
// meant for constants and fixtures.
func MustMoney(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
