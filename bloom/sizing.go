package bloom

import "math"

// OptimalNumBits returns the bit count at which a filter over n items meets
// the false positive tolerance p, assuming the optimal hash count:
//
//	ceil(-n * ln(p) / ln(2)^2)
//
// Rounding is always up, so capacity is never under-provisioned. The result
// is floored at 1 so that degenerate inputs (p close to 1, tiny n) still
// produce an addressable filter.
func OptimalNumBits(n int, p float64) int {
	m := math.Ceil(-float64(n) * math.Log(p) / (math.Ln2 * math.Ln2))
	if m < 1 {
		return 1
	}

	return int(m)
}

// OptimalNumHashes returns the hash count that minimizes the false positive
// rate of an m-bit filter over n items, ceil(m/n * ln(2)), floored at 1.
func OptimalNumHashes(m, n int) int {
	k := math.Ceil(float64(m) / float64(n) * math.Ln2)
	if k < 1 {
		return 1
	}

	return int(k)
}
