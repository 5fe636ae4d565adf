package pricing

import (
	"github.com/shopspring/decimal"

	"pricing-sync-service/internal/models"
)

// Conversion is the full breakdown of one base-to-platform price
// derivation. Callers persist FinalPrice; the intermediate values feed
// logging and batch diagnostics.
type Conversion struct {
	WorkingPrice        decimal.Decimal `json:"workingPrice"`
	Margin              decimal.Decimal `json:"margin"`
	MarginAmount        decimal.Decimal `json:"marginAmount"`
	PriceBeforeRounding decimal.Decimal `json:"priceBeforeRounding"`
	FinalPrice          decimal.Decimal `json:"finalPrice"`
	RoundingMode        RoundingMode    `json:"roundingMode"`

	// FactorSubstituted is set when a weight-divided item arrived with a
	// non-positive division factor. The row proceeds with factor 1 and the
	// caller records a data-quality error.
	FactorSubstituted bool `json:"factorSubstituted"`
}

// ModeForPlatform returns the rounding mode a platform's prices use.
// Marketplace prices round upward so rounding never eats the margin;
// storefront rounding is cosmetic only.
func ModeForPlatform(platform models.Platform) RoundingMode {
	if platform == models.PlatformMarketplace {
		return RoundCeiling
	}
	return RoundNearest
}

func safeFactor(class models.WrapClass, factor decimal.Decimal) (decimal.Decimal, bool) {
	if class != models.WrapClassWeightDivided {
		return one, false
	}
	if factor.LessThanOrEqual(decimal.Zero) {
		return one, true
	}
	return factor, false
}

// ConvertPrice derives the final platform selling price from a base
// (per-parent-unit) price. Weight-divided items are divided by their
// factor first, then the platform margin is applied and the result is
// snapped to a psychological ending.
func ConvertPrice(platform models.Platform, itemCode string, basePrice decimal.Decimal, class models.WrapClass, factor decimal.Decimal, override *decimal.Decimal) Conversion {
	divisor, substituted := safeFactor(class, factor)
	working := basePrice.DivRound(divisor, 6)

	margin := ResolveMargin(platform, itemCode, override)
	marginAmount := working.Mul(margin).DivRound(decimal.NewFromInt(100), 2)
	beforeRounding := working.Add(marginAmount)

	mode := ModeForPlatform(platform)
	return Conversion{
		WorkingPrice:        working,
		Margin:              margin,
		MarginAmount:        marginAmount,
		PriceBeforeRounding: beforeRounding,
		FinalPrice:          Round(beforeRounding, mode),
		RoundingMode:        mode,
		FactorSubstituted:   substituted,
	}
}

// ConvertCost derives the per-variant cost from the shared base cost.
// Costs keep three decimal places so later per-unit division does not
// lose precision.
func ConvertCost(baseCost decimal.Decimal, class models.WrapClass, factor decimal.Decimal) (decimal.Decimal, bool) {
	divisor, substituted := safeFactor(class, factor)
	return baseCost.DivRound(divisor, 3), substituted
}

// BaseUnitPrice reconstructs the per-parent-unit price from a platform
// price, multiplying weight-divided prices back by their factor. Used by
// the reconciliation feed, which reports in base units.
func BaseUnitPrice(platformPrice decimal.Decimal, class models.WrapClass, factor decimal.Decimal) decimal.Decimal {
	if class == models.WrapClassWeightDivided && factor.GreaterThan(decimal.Zero) {
		return platformPrice.Mul(factor).Round(2)
	}
	return platformPrice.Round(2)
}
