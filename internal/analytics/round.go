package analytics

import (
	"math"

	"github.com/shopspring/decimal"
)

// Round2 rounds a monetary amount to cents, half away from zero on the
// shortest decimal form of v (19.999*3 -> 60, 1.005 -> 1.01). Overflowed sums
// saturate so the result always encodes as JSON.
func Round2(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case math.IsInf(v, 1):
		return math.MaxFloat64
	case math.IsInf(v, -1):
		return -math.MaxFloat64
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
