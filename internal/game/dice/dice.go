// Package dice provides the randomness abstraction behind controller
// decisions: weighted choices, coin flips and spreads.
package dice

import "math"

// Source is the randomness provider for decisions.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// floatResolution is the number of distinct values Float can return.
const floatResolution = 1 << 24

// Float returns a uniform value in [0, 1) drawn from src.
func Float(src Source) float64 {
	return float64(src.Intn(floatResolution)) / floatResolution
}

// Chance reports true with probability p.
func Chance(src Source, p float64) bool {
	return Float(src) < p
}

// Spread returns v scaled by a uniform factor in [1-frac, 1+frac).
//
// Precondition: 0 <= frac < 1.
func Spread(src Source, v, frac float64) float64 {
	return v * (1 - frac + 2*frac*Float(src))
}

// Weighted picks an index with probability proportional to its weight.
// Non-positive and non-finite weights are never picked.
//
// Postcondition: Returns -1 when no weight is positive.
func Weighted(src Source, weights []float64) int {
	var total float64
	for _, w := range weights {
		if w > 0 && !math.IsInf(w, 1) {
			total += w
		}
	}
	if total <= 0 {
		return -1
	}
	target := Float(src) * total
	last := -1
	for i, w := range weights {
		if w <= 0 || math.IsInf(w, 1) {
			continue
		}
		last = i
		if target < w {
			return i
		}
		target -= w
	}
	return last
}
