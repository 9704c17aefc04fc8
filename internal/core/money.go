package core

import "github.com/shopspring/decimal"

// MoneyEpsilon is the tolerance used when classifying allocation totals.
// Line amounts are rounded independently, so a fully-allocated receipt can
// sum to a value a fraction of a cent away from its line total.
var MoneyEpsilon = decimal.RequireFromString("0.005")

// RoundMoney rounds a monetary value to 2 decimals, half up.
// decimal.Round rounds half away from zero, which is identical to half-up
// for the non-negative amounts handled here (e.g. 3 × 0.105 → 0.32).
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// LineAmount computes the persisted amount for a quantity/unit-cost pair.
func LineAmount(qty, unitCost decimal.Decimal) decimal.Decimal {
	return RoundMoney(qty.Mul(unitCost))
}
