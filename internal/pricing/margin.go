package pricing

import (
	"strings"

	"github.com/shopspring/decimal"

	"pricing-sync-service/internal/models"
)

// WeightCodePrefix marks weight-divided item codes. Codes in this range
// take the higher marketplace margin.
const WeightCodePrefix = "9900"

// Default marketplace margins by code class, in percent.
var (
	MarginWeightDivided = decimal.RequireFromString("17.00")
	MarginRegular       = decimal.RequireFromString("15.00")
)

// IsWeightCode reports whether an item code falls in the weight-divided
// numeric range.
func IsWeightCode(itemCode string) bool {
	return strings.HasPrefix(strings.TrimSpace(itemCode), WeightCodePrefix)
}

// ResolveMargin returns the effective margin percentage for an item.
// Precedence: explicit per-item override (zero is a real override), then
// the platform rule. The storefront channel never carries a margin; the
// marketplace channel defaults by code class.
func ResolveMargin(platform models.Platform, itemCode string, override *decimal.Decimal) decimal.Decimal {
	if override != nil {
		return *override
	}
	if platform != models.PlatformMarketplace {
		return decimal.Zero
	}
	if IsWeightCode(itemCode) {
		return MarginWeightDivided
	}
	return MarginRegular
}
