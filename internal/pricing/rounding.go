// Package pricing contains the pure price derivation logic: psychological
// rounding, margin resolution, platform price conversion and the change
// fingerprint used to skip untouched rows in bulk imports. Nothing here
// performs I/O; every function is deterministic for a given input.
package pricing

import (
	"github.com/shopspring/decimal"
)

// RoundingMode selects how a price snaps to the ending targets
type RoundingMode string

const (
	RoundNearest RoundingMode = "nearest"
	RoundFloor   RoundingMode = "floor"
	RoundCeiling RoundingMode = "ceiling"
)

// roundingTargets are the allowed fractional endings, in ascending order.
// Nearest-mode ties resolve to the earlier entry.
var roundingTargets = []decimal.Decimal{
	decimal.RequireFromString("0.00"),
	decimal.RequireFromString("0.25"),
	decimal.RequireFromString("0.49"),
	decimal.RequireFromString("0.75"),
	decimal.RequireFromString("0.99"),
}

var (
	one       = decimal.NewFromInt(1)
	pointNine = decimal.RequireFromString("0.99")
)

// Round snaps price to one of the ending targets under the given mode.
// Negative inputs are treated as zero. The result always carries exactly
// two decimal places.
func Round(price decimal.Decimal, mode RoundingMode) decimal.Decimal {
	if price.IsNegative() {
		price = decimal.Zero
	}
	switch mode {
	case RoundFloor:
		return roundDown(price)
	case RoundCeiling:
		return roundUp(price)
	default:
		return roundNearest(price)
	}
}

func splitPrice(price decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	whole := price.Floor()
	return whole, price.Sub(whole)
}

func roundNearest(price decimal.Decimal) decimal.Decimal {
	whole, frac := splitPrice(price)
	best := roundingTargets[0]
	bestDistance := frac.Sub(best).Abs()
	for _, target := range roundingTargets[1:] {
		distance := frac.Sub(target).Abs()
		if distance.LessThan(bestDistance) {
			bestDistance = distance
			best = target
		}
	}
	return whole.Add(best).Round(2)
}

func roundDown(price decimal.Decimal) decimal.Decimal {
	whole, frac := splitPrice(price)
	chosen := roundingTargets[0]
	for _, target := range roundingTargets {
		if target.LessThanOrEqual(frac) {
			chosen = target
		}
	}
	return whole.Add(chosen).Round(2)
}

func roundUp(price decimal.Decimal) decimal.Decimal {
	whole, frac := splitPrice(price)
	// Fractions above the largest target stay within the current unit.
	chosen := pointNine
	for i := len(roundingTargets) - 1; i >= 0; i-- {
		if roundingTargets[i].GreaterThanOrEqual(frac) {
			chosen = roundingTargets[i]
		}
	}
	// A ceiling-rounded price never ends in .00: substitute the previous
	// whole unit's .99 ending.
	if chosen.IsZero() && whole.GreaterThan(decimal.Zero) {
		return whole.Sub(one).Add(pointNine).Round(2)
	}
	return whole.Add(chosen).Round(2)
}
