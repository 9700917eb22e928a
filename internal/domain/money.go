package domain

import "github.com/shopspring/decimal"

func init() {
	// Prices travel as JSON numbers, matching what storefront scripts expect.
	decimal.MarshalJSONWithoutQuotes = true
}

// RoundPrice rounds an amount to cents
func RoundPrice(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
