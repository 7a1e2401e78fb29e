package stats

import (
	"fmt"
	"math"
	"strings"

	"github.com/JimiHenning/vanguard-ab-test/internal/dataset"
)

// tukeyK is the fence multiplier applied to the IQR.
const tukeyK = 1.5

// Mode selects what TukeyOutliers does with the outliers it finds.
type Mode string

const (
	ModeShow    Mode = "show"
	ModeReplace Mode = "replace"
	ModeDelete  Mode = "delete"
)

// ParseMode maps a config string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeShow, ModeReplace, ModeDelete:
		return m, nil
	}
	return "", fmt.Errorf("%w: unknown outlier mode %q (use show|replace|delete)", dataset.ErrInvalidConfiguration, s)
}

// Bounds are the Tukey fences of a column.
type Bounds struct {
	Q1, Q3, IQR  float64
	Lower, Upper float64
	Median       float64
}

// Outside reports whether x lies strictly outside the fences.
func (b Bounds) Outside(x float64) bool { return x < b.Lower || x > b.Upper }

// Outlier is one value outside the fences.
type Outlier struct {
	Row   int
	Value float64
}

// OutlierResult is the outcome of TukeyOutliers. Outliers is always filled;
// Dataset is set for ModeReplace and ModeDelete.
type OutlierResult struct {
	Column   string
	Mode     Mode
	Bounds   Bounds
	Outliers []Outlier
	Dataset  *dataset.Dataset
}

// TukeyBounds computes the fences of vals. Empty input fails with ErrDivisionByZero.
func TukeyBounds(vals []float64) (Bounds, error) {
	if len(vals) == 0 {
		return Bounds{}, fmt.Errorf("%w: no values for quartiles", dataset.ErrDivisionByZero)
	}
	s := sortedCopy(vals)
	q1, q3 := Quantile(s, 0.25), Quantile(s, 0.75)
	iqr := q3 - q1
	return Bounds{
		Q1:     q1,
		Q3:     q3,
		IQR:    iqr,
		Lower:  q1 - tukeyK*iqr,
		Upper:  q3 + tukeyK*iqr,
		Median: Quantile(s, 0.5),
	}, nil
}

// TukeyOutliers finds the values of column outside [Q1-1.5*IQR, Q3+1.5*IQR].
// ModeShow only reports them; ModeReplace returns a copy with each outlier
// set to the column median; ModeDelete returns a copy without outlier rows.
// Nulls are ignored and never outliers.
func TukeyOutliers(ds *dataset.Dataset, column string, mode Mode) (*OutlierResult, error) {
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}
	j, err := ds.Index(column)
	if err != nil {
		return nil, err
	}
	vals, err := ds.Floats(column)
	if err != nil {
		return nil, err
	}
	b, err := TukeyBounds(vals)
	if err != nil {
		return nil, &dataset.ColumnError{Column: column, Err: err}
	}

	res := &OutlierResult{Column: column, Mode: mode, Bounds: b}
	flagged := make(map[int]bool)
	for i := 0; i < ds.Len(); i++ {
		x, ok := ds.At(i, j).AsFloat()
		if ok && b.Outside(x) {
			res.Outliers = append(res.Outliers, Outlier{Row: i, Value: x})
			flagged[i] = true
		}
	}

	switch mode {
	case ModeReplace:
		out, err := replaceWithMedian(ds, j, flagged, b.Median)
		if err != nil {
			return nil, err
		}
		res.Dataset = out
	case ModeDelete:
		res.Dataset = ds.Filter(func(i int, _ []dataset.Value) bool { return !flagged[i] })
	}
	return res, nil
}

// replaceWithMedian keeps an integer column integer when the median is
// whole; otherwise the column becomes float.
func replaceWithMedian(ds *dataset.Dataset, j int, flagged map[int]bool, median float64) (*dataset.Dataset, error) {
	out := ds.Clone()
	col := out.Columns()[j]
	whole := median == math.Trunc(median)
	fill := dataset.Float(median)
	if whole && col.Type == dataset.TypeInteger {
		fill = dataset.Int(int64(median))
	}
	if !col.Type.Accepts(fill.Kind()) {
		vals, _ := out.Values(col.Name)
		for i, v := range vals {
			if f, ok := v.AsFloat(); ok {
				vals[i] = dataset.Float(f)
			}
		}
		if err := out.ReplaceColumn(j, dataset.TypeFloat, vals); err != nil {
			return nil, err
		}
	}
	for i := range flagged {
		if err := out.Set(i, j, fill); err != nil {
			return nil, err
		}
	}
	return out, nil
}
