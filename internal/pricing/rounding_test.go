package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRoundNearest(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"10.10", "10.00"},
		{"10.13", "10.25"},
		{"10.30", "10.25"},
		{"10.40", "10.49"},
		{"10.60", "10.49"},
		{"10.70", "10.75"},
		{"10.90", "10.99"},
		{"10.995", "10.99"},
		{"10.00", "10.00"},
		{"10.25", "10.25"},
		{"0.10", "0.00"},
	}
	for _, tt := range tests {
		got := Round(d(tt.in), RoundNearest)
		assert.Equal(t, tt.want, got.StringFixed(2), "nearest(%s)", tt.in)
	}
}

func TestRoundNearestTiesResolveAscending(t *testing.T) {
	// Equidistant fractions take the earlier target in ascending order.
	assert.Equal(t, "10.00", Round(d("10.125"), RoundNearest).StringFixed(2))
	assert.Equal(t, "10.25", Round(d("10.37"), RoundNearest).StringFixed(2))
	assert.Equal(t, "10.49", Round(d("10.62"), RoundNearest).StringFixed(2))
	assert.Equal(t, "10.75", Round(d("10.87"), RoundNearest).StringFixed(2))
}

func TestRoundFloor(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"10.99", "10.99"},
		{"10.98", "10.75"},
		{"10.74", "10.49"},
		{"10.48", "10.25"},
		{"10.24", "10.00"},
		{"10.00", "10.00"},
		// Below the smallest non-zero target the price clamps to .00, it
		// does not drop into the previous whole unit.
		{"10.10", "10.00"},
	}
	for _, tt := range tests {
		got := Round(d(tt.in), RoundFloor)
		assert.Equal(t, tt.want, got.StringFixed(2), "floor(%s)", tt.in)
	}
}

func TestRoundCeiling(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"10.01", "10.25"},
		{"10.25", "10.25"},
		{"10.26", "10.49"},
		{"10.50", "10.75"},
		{"10.76", "10.99"},
		{"10.99", "10.99"},
		// Above the largest target the price stays within its unit.
		{"10.995", "10.99"},
	}
	for _, tt := range tests {
		got := Round(d(tt.in), RoundCeiling)
		assert.Equal(t, tt.want, got.StringFixed(2), "ceiling(%s)", tt.in)
	}
}

func TestRoundCeilingNeverEndsInZero(t *testing.T) {
	// Whole-number prices substitute the previous unit's .99 ending.
	assert.Equal(t, "24.99", Round(d("25.00"), RoundCeiling).StringFixed(2))
	assert.Equal(t, "114.99", Round(d("115.00"), RoundCeiling).StringFixed(2))
	// Zero has no previous unit to fall back to.
	assert.Equal(t, "0.00", Round(d("0.00"), RoundCeiling).StringFixed(2))
}

func TestRoundNegativeInputClampsToZero(t *testing.T) {
	for _, mode := range []RoundingMode{RoundNearest, RoundFloor, RoundCeiling} {
		assert.True(t, Round(d("-3.75"), mode).IsZero(), "mode %s", mode)
	}
}

func TestRoundIdempotent(t *testing.T) {
	inputs := []string{"10.13", "10.37", "10.50", "10.87", "25.00", "0.10", "99.995"}
	for _, mode := range []RoundingMode{RoundNearest, RoundFloor, RoundCeiling} {
		for _, in := range inputs {
			once := Round(d(in), mode)
			twice := Round(once, mode)
			require.True(t, once.Equal(twice), "mode %s input %s: %s != %s", mode, in, once, twice)
		}
	}
}
