package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"pricing-sync-service/internal/models"
)

func TestConvertPriceStorefrontParentAndChild(t *testing.T) {
	// Parent carries the base price verbatim.
	parent := ConvertPrice(models.PlatformStorefront, "9900422", d("40.00"), models.WrapClassWeightDivided, d("1"), nil)
	assert.Equal(t, "40.00", parent.FinalPrice.StringFixed(2))
	assert.True(t, parent.Margin.IsZero())

	// A 250 g pack of a per-kg parent divides by its own factor.
	child := ConvertPrice(models.PlatformStorefront, "9900422", d("40.00"), models.WrapClassWeightDivided, d("4"), nil)
	assert.Equal(t, "10.00", child.FinalPrice.StringFixed(2))
}

func TestConvertPriceMarketplaceFixedUnit(t *testing.T) {
	conv := ConvertPrice(models.PlatformMarketplace, "10001234", d("100.00"), models.WrapClassFixedUnit, d("1"), nil)
	assert.True(t, conv.Margin.Equal(d("15.00")))
	assert.Equal(t, "115.00", conv.PriceBeforeRounding.StringFixed(2))
	// Ceiling rounding turns an exact whole-number price into the previous
	// unit's .99 ending.
	assert.Equal(t, "114.99", conv.FinalPrice.StringFixed(2))
	assert.Equal(t, RoundCeiling, conv.RoundingMode)
}

func TestConvertPriceMarketplaceWeightDivided(t *testing.T) {
	conv := ConvertPrice(models.PlatformMarketplace, "9900001", d("100.00"), models.WrapClassWeightDivided, d("2"), nil)
	assert.True(t, conv.Margin.Equal(d("17.00")))
	assert.Equal(t, "50.00", conv.WorkingPrice.StringFixed(2))
	assert.Equal(t, "58.50", conv.PriceBeforeRounding.StringFixed(2))
	assert.Equal(t, "58.75", conv.FinalPrice.StringFixed(2))
}

func TestConvertPriceSubstitutesInvalidFactor(t *testing.T) {
	conv := ConvertPrice(models.PlatformStorefront, "9900422", d("40.00"), models.WrapClassWeightDivided, decimal.Zero, nil)
	assert.True(t, conv.FactorSubstituted)
	assert.Equal(t, "40.00", conv.FinalPrice.StringFixed(2))

	conv = ConvertPrice(models.PlatformStorefront, "9900422", d("40.00"), models.WrapClassWeightDivided, d("-2"), nil)
	assert.True(t, conv.FactorSubstituted)
	assert.Equal(t, "40.00", conv.FinalPrice.StringFixed(2))
}

func TestConvertPriceFixedUnitIgnoresFactor(t *testing.T) {
	conv := ConvertPrice(models.PlatformStorefront, "10001234", d("12.30"), models.WrapClassFixedUnit, d("4"), nil)
	assert.False(t, conv.FactorSubstituted)
	assert.Equal(t, "12.25", conv.FinalPrice.StringFixed(2))
}

func TestConvertCost(t *testing.T) {
	cost, substituted := ConvertCost(d("10.000"), models.WrapClassWeightDivided, d("3"))
	assert.False(t, substituted)
	assert.Equal(t, "3.333", cost.StringFixed(3))

	cost, substituted = ConvertCost(d("10.000"), models.WrapClassFixedUnit, d("3"))
	assert.False(t, substituted)
	assert.Equal(t, "10.000", cost.StringFixed(3))

	cost, substituted = ConvertCost(d("10.000"), models.WrapClassWeightDivided, decimal.Zero)
	assert.True(t, substituted)
	assert.Equal(t, "10.000", cost.StringFixed(3))
}

func TestBaseUnitPrice(t *testing.T) {
	assert.Equal(t, "40.00", BaseUnitPrice(d("10.00"), models.WrapClassWeightDivided, d("4")).StringFixed(2))
	assert.Equal(t, "10.00", BaseUnitPrice(d("10.00"), models.WrapClassFixedUnit, d("4")).StringFixed(2))
	// Invalid factors fall through to the platform price.
	assert.Equal(t, "10.00", BaseUnitPrice(d("10.00"), models.WrapClassWeightDivided, decimal.Zero).StringFixed(2))
}
