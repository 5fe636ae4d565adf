package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"pricing-sync-service/internal/models"
)

func TestResolveMarginOverrideWins(t *testing.T) {
	override := d("22.50")
	got := ResolveMargin(models.PlatformMarketplace, "9900422", &override)
	assert.True(t, got.Equal(d("22.50")))

	// Zero is a real override, not an absent value.
	zero := decimal.Zero
	got = ResolveMargin(models.PlatformMarketplace, "9900422", &zero)
	assert.True(t, got.IsZero())
}

func TestResolveMarginStorefrontAlwaysZero(t *testing.T) {
	assert.True(t, ResolveMargin(models.PlatformStorefront, "9900422", nil).IsZero())
	assert.True(t, ResolveMargin(models.PlatformStorefront, "10001234", nil).IsZero())
}

func TestResolveMarginMarketplaceByCodeClass(t *testing.T) {
	assert.True(t, ResolveMargin(models.PlatformMarketplace, "9900001", nil).Equal(d("17.00")))
	assert.True(t, ResolveMargin(models.PlatformMarketplace, "10001234", nil).Equal(d("15.00")))
	assert.True(t, ResolveMargin(models.PlatformMarketplace, "  9900422  ", nil).Equal(d("17.00")))
}

func TestIsWeightCode(t *testing.T) {
	assert.True(t, IsWeightCode("9900422"))
	assert.False(t, IsWeightCode("10099001"))
	assert.False(t, IsWeightCode(""))
}
