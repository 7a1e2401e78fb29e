package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/JimiHenning/vanguard-ab-test/internal/dataset"
)

// CohenH is the effect size between two proportions:
// 2 * (asin(sqrt(p1)) - asin(sqrt(p2))). Both must lie in [0, 1].
func CohenH(p1, p2 float64) (float64, error) {
	for _, p := range []float64{p1, p2} {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return 0, fmt.Errorf("%w: proportion %v outside [0, 1]", dataset.ErrInvalidConfiguration, p)
		}
	}
	return 2 * (math.Asin(math.Sqrt(p1)) - math.Asin(math.Sqrt(p2))), nil
}

// CohenD is the standardized mean difference (control - test) over the
// pooled sample standard deviation. Two groups of identical constant values
// give 0; any other zero-spread input is ErrDivisionByZero.
func CohenD(control, test []float64) (float64, error) {
	n1, n2 := len(control), len(test)
	if n1 == 0 || n2 == 0 || n1+n2 <= 2 {
		return 0, fmt.Errorf("%w: cohen's d needs both groups non-empty and more than 2 values, got %d and %d",
			dataset.ErrDivisionByZero, n1, n2)
	}
	m1, v1 := meanVariance(control)
	m2, v2 := meanVariance(test)
	pooled := math.Sqrt((float64(n1-1)*v1 + float64(n2-1)*v2) / float64(n1+n2-2))
	diff := m1 - m2
	if pooled == 0 {
		if diff == 0 {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: pooled standard deviation is zero", dataset.ErrDivisionByZero)
	}
	return diff / pooled, nil
}

// meanVariance returns the mean and unbiased variance; a single value has
// no spread.
func meanVariance(xs []float64) (float64, float64) {
	if len(xs) == 1 {
		return xs[0], 0
	}
	return stat.MeanVariance(xs, nil)
}

// Magnitude labels |effect| with Cohen's conventional thresholds.
func Magnitude(effect float64) string {
	switch a := math.Abs(effect); {
	case a < 0.2:
		return "negligible"
	case a < 0.5:
		return "small"
	case a < 0.8:
		return "medium"
	}
	return "large"
}
