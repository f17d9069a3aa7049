package masterdata

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
)

// QuantityScale is the number of decimal places a stored quantity keeps.
const QuantityScale = 8

// Converter turns quantities between units using the conversion table.
type Converter struct {
	repo Repository
}

func NewConverter(repo Repository) *Converter {
	return &Converter{repo: repo}
}

// resolve finds the stored factor for the pair. inverse is true when only
// the reverse pair is stored, in which case quantities are divided by it.
func (c *Converter) resolve(ctx context.Context, fromUOM, toUOM string) (factor decimal.Decimal, inverse bool, err error) {
	if fromUOM == toUOM {
		return decimal.NewFromInt(1), false, nil
	}

	factor, ok, err := c.repo.ConversionFactor(ctx, fromUOM, toUOM)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("lookup conversion %s->%s: %w", fromUOM, toUOM, err)
	}
	if ok && factor.IsPositive() {
		return factor, false, nil
	}

	reverse, ok, err := c.repo.ConversionFactor(ctx, toUOM, fromUOM)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("lookup conversion %s->%s: %w", toUOM, fromUOM, err)
	}
	if ok && reverse.IsPositive() {
		return reverse, true, nil
	}
	return decimal.Zero, false, apperr.Validation("no unit conversion from %s to %s", fromUOM, toUOM)
}

// Factor resolves the multiplier for a unit pair. Identical units convert
// 1:1; a pair missing in both directions is a validation error.
func (c *Converter) Factor(ctx context.Context, fromUOM, toUOM string) (decimal.Decimal, error) {
	factor, inverse, err := c.resolve(ctx, fromUOM, toUOM)
	if err != nil {
		return decimal.Zero, err
	}
	if inverse {
		return decimal.NewFromInt(1).DivRound(factor, QuantityScale), nil
	}
	return factor, nil
}

// Convert is qty expressed in toUOM, rounded to QuantityScale. Reverse
// pairs divide instead of multiplying by a rounded inverse.
func (c *Converter) Convert(ctx context.Context, qty decimal.Decimal, fromUOM, toUOM string) (decimal.Decimal, error) {
	factor, inverse, err := c.resolve(ctx, fromUOM, toUOM)
	if err != nil {
		return decimal.Zero, err
	}
	if inverse {
		return qty.DivRound(factor, QuantityScale), nil
	}
	return qty.Mul(factor).Round(QuantityScale), nil
}
