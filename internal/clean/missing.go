package clean

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat"

	"github.com/JimiHenning/vanguard-ab-test/internal/dataset"
)

// Labels recognised by FillCategoricalByRatio.
const (
	LabelMale   = "M"
	LabelFemale = "F"
)

// DropAllNullRows removes rows in which every cell is null.
func DropAllNullRows(ds *dataset.Dataset) *dataset.Dataset {
	return ds.Filter(func(_ int, row []dataset.Value) bool {
		for _, v := range row {
			if !v.IsNull() {
				return true
			}
		}
		return false
	})
}

// FillWithMean fills the nulls of each column with the mean of its non-null
// values, truncated toward zero. A column without numeric values fails with
// ErrDivisionByZero.
func FillWithMean(ds *dataset.Dataset, columns ...string) (*dataset.Dataset, error) {
	if err := ds.Require(columns...); err != nil {
		return nil, err
	}
	fills := make([]int64, len(columns))
	for k, name := range columns {
		xs, err := ds.Floats(name)
		if err != nil {
			return nil, err
		}
		if len(xs) == 0 {
			return nil, &dataset.ColumnError{Column: name, Err: fmt.Errorf("%w: no values to average", dataset.ErrDivisionByZero)}
		}
		fills[k] = int64(math.Trunc(stat.Mean(xs, nil)))
	}
	out := ds.Clone()
	for k, name := range columns {
		j, _ := out.Index(name)
		c, _ := out.Column(name)
		fill := dataset.Int(fills[k])
		if c.Type == dataset.TypeFloat {
			fill = dataset.Float(float64(fills[k]))
		}
		for i := 0; i < out.Len(); i++ {
			if !out.At(i, j).IsNull() {
				continue
			}
			if err := out.Set(i, j, fill); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// FillCategoricalByRatio fills the nulls of each "M"/"F" column so the
// filled cells keep the existing M:F ratio. The M share is rounded half to
// even and the remainder goes to "F"; rng shuffles which null gets which
// label. Only these two labels are supported.
func FillCategoricalByRatio(ds *dataset.Dataset, rng *rand.Rand, columns ...string) (*dataset.Dataset, error) {
	if rng == nil {
		return nil, fmt.Errorf("%w: ratio fill needs a random source", dataset.ErrInvalidConfiguration)
	}
	if err := ds.Require(columns...); err != nil {
		return nil, err
	}
	plans := make([][]string, len(columns))
	for k, name := range columns {
		vals, _ := ds.Values(name)
		var males, females, nulls int
		for i, v := range vals {
			if v.IsNull() {
				nulls++
				continue
			}
			s, _ := v.AsText()
			switch s {
			case LabelMale:
				males++
			case LabelFemale:
				females++
			default:
				return nil, &dataset.ColumnError{Column: name, Err: fmt.Errorf("%w: row %d holds %q, only %q and %q are supported",
					dataset.ErrInvalidConfiguration, i, v.String(), LabelMale, LabelFemale)}
			}
		}
		if males+females == 0 {
			return nil, &dataset.ColumnError{Column: name, Err: fmt.Errorf("%w: no %s/%s values to take a ratio from",
				dataset.ErrDivisionByZero, LabelMale, LabelFemale)}
		}
		m := int(math.RoundToEven(float64(nulls) * float64(males) / float64(males+females)))
		labels := make([]string, 0, nulls)
		for i := 0; i < nulls; i++ {
			if i < m {
				labels = append(labels, LabelMale)
			} else {
				labels = append(labels, LabelFemale)
			}
		}
		rng.Shuffle(len(labels), func(a, b int) { labels[a], labels[b] = labels[b], labels[a] })
		plans[k] = labels
	}
	out := ds.Clone()
	for k, name := range columns {
		j, _ := out.Index(name)
		next := 0
		for i := 0; i < out.Len(); i++ {
			if !out.At(i, j).IsNull() {
				continue
			}
			if err := out.Set(i, j, dataset.Text(plans[k][next])); err != nil {
				return nil, err
			}
			next++
		}
	}
	return out, nil
}
