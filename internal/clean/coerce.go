package clean

import (
	"math"

	"github.com/JimiHenning/vanguard-ab-test/internal/dataset"
)

// CoerceToInteger parses each named column as numbers, rounds half to even
// and stores the result as a nullable integer column. Unparseable cells
// become null. All columns are checked before any is converted.
func CoerceToInteger(ds *dataset.Dataset, columns ...string) (*dataset.Dataset, error) {
	if err := ds.Require(columns...); err != nil {
		return nil, err
	}
	out := ds.Clone()
	for _, name := range columns {
		j, _ := out.Index(name)
		vals := make([]dataset.Value, out.Len())
		for i := range vals {
			vals[i] = toInteger(out.At(i, j))
		}
		if err := out.ReplaceColumn(j, dataset.TypeInteger, vals); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func toInteger(v dataset.Value) dataset.Value {
	var f float64
	switch v.Kind() {
	case dataset.KindInt:
		return v
	case dataset.KindFloat:
		f, _ = v.AsFloat()
	case dataset.KindBool:
		if b, _ := v.AsBool(); b {
			return dataset.Int(1)
		}
		return dataset.Int(0)
	case dataset.KindText:
		s, _ := v.AsText()
		x, ok := dataset.ParseNumber(s)
		if !ok {
			return dataset.Null()
		}
		f = x
	default:
		return dataset.Null()
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) >= math.MaxInt64 {
		return dataset.Null()
	}
	return dataset.Int(int64(math.RoundToEven(f)))
}
