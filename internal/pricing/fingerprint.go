package pricing

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// FingerprintFields is the declared field set the change fingerprint
// covers, in digest order. Every field downstream import logic reads must
// appear here; extending the import payload without extending this list
// breaks change detection silently.
var FingerprintFields = []string{"mrp", "cost", "stock"}

// absentToken encodes a missing value. It must stay distinct from any
// formatted number so an explicit zero and an absent field never collide.
const absentToken = "-"

// Fingerprint computes the change-detection digest over the canonical
// (mrp, cost, stock) triple. Values are normalized before hashing, so two
// formattings of the same number produce the same digest: mrp quantizes
// to two decimal places, cost to three, stock to an integer.
func Fingerprint(mrp, cost *decimal.Decimal, stock *int) string {
	parts := []string{
		normalizeDecimal(mrp, 2),
		normalizeDecimal(cost, 3),
		normalizeStock(stock),
	}
	sum := md5.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// HasChanged reports whether an incoming digest differs from the stored
// one. A binding with no stored digest always counts as changed so the
// first touch applies and records its fingerprint.
func HasChanged(stored, incoming string) bool {
	if stored == "" {
		return true
	}
	return stored != incoming
}

func normalizeDecimal(value *decimal.Decimal, places int32) string {
	if value == nil {
		return absentToken
	}
	return value.Round(places).StringFixed(places)
}

func normalizeStock(value *int) string {
	if value == nil {
		return absentToken
	}
	return strconv.Itoa(*value)
}
