package models

import "github.com/shopspring/decimal"

func init() {
	// The client reads prices and totals as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// MoneyTolerance is the largest client/server total difference that is not reported as a mismatch.
var MoneyTolerance = decimal.New(1, -2)

// RoundMoney rounds an amount to whole cents.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
