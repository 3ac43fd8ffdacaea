package pricing

import "github.com/shopspring/decimal"

const (
	// StorageScale is the fractional precision persisted for monetary values.
	StorageScale = 6

	// DisplayScale is the fractional precision rendered to users.
	DisplayScale = 2
)

// RoundStorage rounds a monetary value to the persisted precision.
func RoundStorage(d decimal.Decimal) decimal.Decimal {
	return d.Round(StorageScale)
}

// RoundDisplay rounds a monetary value to the displayed precision.
func RoundDisplay(d decimal.Decimal) decimal.Decimal {
	return d.Round(DisplayScale)
}
