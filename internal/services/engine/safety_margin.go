// Package engine implements the campaign eligibility and offer computation.
package engine

import (
	"github.com/shopspring/decimal"

	"campaign-filter-engine/internal/models"
)

var hundred = decimal.NewFromInt(100)

// ApplySafetyMargin applies the haircut to every value, keeping order and
// nulls. Fixed-amount haircuts never go below zero.
func ApplySafetyMargin(values []decimal.NullDecimal, sm models.SafetyMargin) []decimal.NullDecimal {
	out := make([]decimal.NullDecimal, len(values))
	for i, v := range values {
		out[i] = adjustMargin(v, sm)
	}
	return out
}

func adjustMargin(v decimal.NullDecimal, sm models.SafetyMargin) decimal.NullDecimal {
	if !v.Valid {
		return v
	}

	switch sm.Mode {
	case models.SafetyMarginPercentage:
		factor := decimal.NewFromInt(1).Sub(sm.Value.Div(hundred))
		return decimal.NewNullDecimal(v.Decimal.Mul(factor))
	case models.SafetyMarginFixed:
		adjusted := v.Decimal.Sub(sm.Value)
		if adjusted.IsNegative() {
			adjusted = decimal.Zero
		}
		return decimal.NewNullDecimal(adjusted)
	default:
		return v
	}
}
