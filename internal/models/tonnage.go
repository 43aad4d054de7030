package models

import "github.com/shopspring/decimal"

// TonnageScale is the number of fraction digits persisted for tonnage.
const TonnageScale = 2

// MaxTonnage is the first value that no longer fits NUMERIC(14,2).
var MaxTonnage = decimal.New(1, 12)

// RoundTonnage rounds to the persisted scale.
func RoundTonnage(d decimal.Decimal) decimal.Decimal {
	return d.Round(TonnageScale)
}

// TonnageFits reports whether the magnitude fits the persisted precision.
func TonnageFits(d decimal.Decimal) bool {
	return d.Abs().LessThan(MaxTonnage)
}

// FormatTonnage renders a tonnage with exactly two fraction digits.
func FormatTonnage(d decimal.Decimal) string {
	return d.StringFixed(TonnageScale)
}
