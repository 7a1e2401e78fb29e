package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind is the runtime kind of a single cell.
type Kind int

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindText
	KindTime
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	case KindTime:
		return "time"
	case KindBool:
		return "bool"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is one cell. The zero Value is null.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	t    time.Time
}

// Null returns the null cell.
func Null() Value { return Value{} }

// Int returns an integer cell.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float returns a float cell; NaN is stored as null.
func Float(f float64) Value {
	if math.IsNaN(f) {
		return Value{}
	}
	return Value{kind: KindFloat, f: f}
}

// Text returns a text cell. The string is kept as given.
func Text(s string) Value { return Value{kind: KindText, s: s} }

// Time returns a timestamp cell.
func Time(t time.Time) Value { return Value{kind: KindTime, t: t} }

// Bool returns a boolean cell.
func Bool(b bool) Value {
	if b {
		return Value{kind: KindBool, i: 1}
	}
	return Value{kind: KindBool}
}

func (v Value) Kind() Kind      { return v.kind }
func (v Value) IsNull() bool    { return v.kind == KindNull }
func (v Value) IsNumeric() bool { return v.kind == KindInt || v.kind == KindFloat }

// AsFloat returns the numeric value of an Int or Float cell.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	}
	return 0, false
}

// AsInt returns the value of an Int cell.
func (v Value) AsInt() (int64, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return v.i, true
}

// AsText returns the value of a Text cell.
func (v Value) AsText() (string, bool) {
	if v.kind != KindText {
		return "", false
	}
	return v.s, true
}

// AsTime returns the value of a Time cell.
func (v Value) AsTime() (time.Time, bool) {
	if v.kind != KindTime {
		return time.Time{}, false
	}
	return v.t, true
}

// AsBool returns the value of a Bool cell.
func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.i == 1, true
}

// Equal reports whether two cells hold the same value. Int and Float compare
// numerically; nulls are never equal to anything, including other nulls.
func (v Value) Equal(o Value) bool {
	if v.IsNumeric() && o.IsNumeric() {
		a, _ := v.AsFloat()
		b, _ := o.AsFloat()
		return a == b
	}
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindText:
		return v.s == o.s
	case KindTime:
		return v.t.Equal(o.t)
	case KindBool:
		return v.i == o.i
	}
	return false
}

// Compare orders two cells. Nulls sort after everything else; numbers
// compare numerically; otherwise cells of different kinds order by kind.
func (v Value) Compare(o Value) int {
	switch {
	case v.IsNull() && o.IsNull():
		return 0
	case v.IsNull():
		return 1
	case o.IsNull():
		return -1
	}
	if v.IsNumeric() && o.IsNumeric() {
		a, _ := v.AsFloat()
		b, _ := o.AsFloat()
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
		return 0
	}
	if v.kind != o.kind {
		if v.kind < o.kind {
			return -1
		}
		return 1
	}
	switch v.kind {
	case KindText:
		return strings.Compare(v.s, o.s)
	case KindTime:
		return v.t.Compare(o.t)
	case KindBool:
		switch {
		case v.i < o.i:
			return -1
		case v.i > o.i:
			return 1
		}
	}
	return 0
}

// Key is a stable identity used for grouping and duplicate detection.
// Numeric cells with equal values share a key regardless of kind.
func (v Value) Key() string {
	switch v.kind {
	case KindNull:
		return "\x00n"
	case KindInt:
		return "n" + strconv.FormatInt(v.i, 10)
	case KindFloat:
		if v.f == math.Trunc(v.f) && math.Abs(v.f) < 1<<53 {
			return "n" + strconv.FormatInt(int64(v.f), 10)
		}
		return "n" + strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindText:
		return "s" + v.s
	case KindTime:
		return "t" + v.t.UTC().Format(time.RFC3339Nano)
	case KindBool:
		return "b" + strconv.FormatInt(v.i, 10)
	}
	return ""
}

// String renders the cell for display and CSV output. Null renders empty.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindText:
		return v.s
	case KindTime:
		return FormatTime(v.t)
	case KindBool:
		return strconv.FormatBool(v.i == 1)
	}
	return ""
}
