package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func decPtr(s string) *decimal.Decimal {
	v := decimal.RequireFromString(s)
	return &v
}

func TestFingerprintStableUnderFormatting(t *testing.T) {
	a := Fingerprint(decPtr("99.99"), decPtr("75.5"), intPtr(100))
	b := Fingerprint(decPtr("99.990"), decPtr("75.500"), intPtr(100))
	assert.Equal(t, a, b)
	assert.Len(t, a, 32)
}

func TestFingerprintAbsentDistinctFromZero(t *testing.T) {
	zeroed := Fingerprint(decPtr("0"), decPtr("0"), intPtr(0))
	absent := Fingerprint(nil, nil, nil)
	assert.NotEqual(t, zeroed, absent)

	// Each field position distinguishes absent from zero independently.
	assert.NotEqual(t,
		Fingerprint(nil, decPtr("1"), intPtr(1)),
		Fingerprint(decPtr("0"), decPtr("1"), intPtr(1)))
	assert.NotEqual(t,
		Fingerprint(decPtr("1"), nil, intPtr(1)),
		Fingerprint(decPtr("1"), decPtr("0"), intPtr(1)))
	assert.NotEqual(t,
		Fingerprint(decPtr("1"), decPtr("1"), nil),
		Fingerprint(decPtr("1"), decPtr("1"), intPtr(0)))
}

func TestFingerprintSensitiveToEachField(t *testing.T) {
	base := Fingerprint(decPtr("10.00"), decPtr("7.500"), intPtr(5))
	assert.NotEqual(t, base, Fingerprint(decPtr("10.01"), decPtr("7.500"), intPtr(5)))
	assert.NotEqual(t, base, Fingerprint(decPtr("10.00"), decPtr("7.501"), intPtr(5)))
	assert.NotEqual(t, base, Fingerprint(decPtr("10.00"), decPtr("7.500"), intPtr(6)))
}

func TestHasChanged(t *testing.T) {
	digest := Fingerprint(decPtr("10.00"), decPtr("7.500"), intPtr(5))
	assert.False(t, HasChanged(digest, digest))
	assert.True(t, HasChanged(digest, Fingerprint(decPtr("10.00"), decPtr("7.500"), intPtr(6))))
	// No stored digest counts as changed so first writes always apply.
	assert.True(t, HasChanged("", digest))
}
