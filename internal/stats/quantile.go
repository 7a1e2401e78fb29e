// Package stats holds the numeric routines: quantiles, Tukey outlier
// handling and effect sizes.
package stats

import (
	"math"
	"sort"
)

// Quantile returns the q-th quantile of sorted values by linear
// interpolation between closest ranks. Empty input yields 0.
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// Median returns the median of vals without modifying them.
func Median(vals []float64) float64 {
	return Quantile(sortedCopy(vals), 0.5)
}

func sortedCopy(vals []float64) []float64 {
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	return cp
}
