// Package pricing computes the advisory price quote shown by the estimator.
// The computation is pure: no side effects, no external calls, and no error
// paths. Quotes are never stored on an order.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/printgenie/orderflow/internal/models"
)

// Size is the print size selected on the estimator.
type Size string

const (
	SizeStandard Size = "standard"
	SizeLarge    Size = "large"
	SizeCustom   Size = "custom"
)

// sizeMultiplier is a fixed lookup independent of the catalog.
// Unknown sizes contribute the neutral multiplier 1.
func sizeMultiplier(size Size) decimal.Decimal {
	switch size {
	case SizeLarge:
		return decimal.RequireFromString("1.8")
	case SizeCustom:
		return decimal.RequireFromString("2.5")
	default:
		return decimal.NewFromInt(1)
	}
}

// Estimate returns basePrice(product) * quantity * multiplier(finish) *
// sizeMultiplier(size), rounded to two decimal places.
//
// An unresolved product contributes a base price of 0 and an unresolved
// finish a multiplier of 1; the engine degrades rather than fails because
// this path is advisory only.
func Estimate(cfg *models.ShopConfiguration, productID, finishID string, quantity int, size Size) decimal.Decimal {
	base := decimal.Zero
	for _, p := range cfg.Products {
		if p.ID == productID {
			base = decimal.NewFromFloat(p.BasePrice)
			break
		}
	}

	finishMult := decimal.NewFromInt(1)
	for _, f := range cfg.Finishes {
		if f.ID == finishID {
			finishMult = decimal.NewFromFloat(f.Multiplier)
			break
		}
	}

	total := base.
		Mul(decimal.NewFromInt(int64(quantity))).
		Mul(finishMult).
		Mul(sizeMultiplier(size))
	return total.Round(2)
}
