// Package funnel computes visit-level funnel metrics: completion rate, time
// spent per step and backward-step errors. Visits are the rows sharing one
// id; within a visit, rows are ordered by a stable sort on the timestamp.
package funnel

import (
	"fmt"
	"math"

	"github.com/JimiHenning/vanguard-ab-test/internal/dataset"
)

// Names of the derived columns.
const (
	TimeSpentColumn = "time_spent_seconds"
	StepOrderColumn = "step_order"
	IsErrorColumn   = "is_error"
)

// Options names the columns and funnel settings the metrics read.
type Options struct {
	IDColumn       string
	StepColumn     string
	DateTimeColumn string
	CompletionStep string
	// InsertPosition is the zero-based column position of time_spent_seconds.
	InsertPosition int
	Steps          StepMapping
}

// DefaultOptions matches the column names of the web-data export.
func DefaultOptions() Options {
	return Options{
		IDColumn:       "visit_id",
		StepColumn:     "process_step",
		DateTimeColumn: "date_time",
		CompletionStep: "confirm",
		InsertPosition: 5,
		Steps:          DefaultSteps(),
	}
}

// ErrorReport is the result of ErrorRate.
type ErrorReport struct {
	// Dataset is sorted by (id, timestamp) and carries step_order and is_error.
	Dataset *dataset.Dataset
	Errors  int
	// Rate is Errors over all rows, as a percentage rounded to 2 decimals.
	Rate float64
}

// CompletionRate returns the share of distinct visits that reached the
// completion step, as a percentage rounded to 2 decimals. No visits yields 0.
// Rows with a null id do not count as visits.
func CompletionRate(ds *dataset.Dataset, opt Options) (float64, error) {
	if err := ds.Require(opt.IDColumn, opt.StepColumn); err != nil {
		return 0, err
	}
	ids, _ := ds.Values(opt.IDColumn)
	steps, _ := ds.Values(opt.StepColumn)
	target := dataset.Text(opt.CompletionStep)
	all := map[string]struct{}{}
	done := map[string]struct{}{}
	for i, id := range ids {
		if id.IsNull() {
			continue
		}
		k := id.Key()
		all[k] = struct{}{}
		if steps[i].Equal(target) {
			done[k] = struct{}{}
		}
	}
	return percent(len(done), len(all)), nil
}

// TimeSpentPerStep sorts the rows by (id, timestamp) and inserts
// time_spent_seconds at opt.InsertPosition: the seconds until the next row
// of the same visit, or null on a visit's last row. Text timestamps are
// parsed; an existing time_spent_seconds column is replaced.
func TimeSpentPerStep(ds *dataset.Dataset, opt Options) (*dataset.Dataset, error) {
	sorted, err := prepare(ds, opt.IDColumn, opt.DateTimeColumn)
	if err != nil {
		return nil, err
	}
	sorted.DropColumn(TimeSpentColumn)
	idj, _ := sorted.Index(opt.IDColumn)
	tj, _ := sorted.Index(opt.DateTimeColumn)
	spent := make([]dataset.Value, sorted.Len())
	for i := 0; i+1 < sorted.Len(); i++ {
		if !sameVisit(sorted.At(i, idj), sorted.At(i+1, idj)) {
			continue
		}
		cur, ok1 := sorted.At(i, tj).AsTime()
		next, ok2 := sorted.At(i+1, tj).AsTime()
		if ok1 && ok2 {
			spent[i] = dataset.Float(next.Sub(cur).Seconds())
		}
	}
	if err := sorted.InsertColumn(opt.InsertPosition, dataset.Column{Name: TimeSpentColumn, Type: dataset.TypeFloat}, spent); err != nil {
		return nil, err
	}
	return sorted, nil
}

// ErrorRate flags every row whose step order is strictly lower than the
// previous row of the same visit. A visit's first row is never an error.
// Every step value must be present in opt.Steps.
func ErrorRate(ds *dataset.Dataset, opt Options) (*ErrorReport, error) {
	if err := opt.Steps.Validate(); err != nil {
		return nil, err
	}
	if err := ds.Require(opt.IDColumn, opt.DateTimeColumn, opt.StepColumn); err != nil {
		return nil, err
	}
	steps, _ := ds.Values(opt.StepColumn)
	orders := make([]dataset.Value, len(steps))
	for i, v := range steps {
		o, err := opt.Steps.orderOf(v)
		if err != nil {
			return nil, &dataset.ColumnError{Column: opt.StepColumn, Err: fmt.Errorf("row %d: %w", i, err)}
		}
		orders[i] = dataset.Int(int64(o))
	}

	timed, err := coerceTimestamps(ds, opt.DateTimeColumn)
	if err != nil {
		return nil, err
	}
	timed.DropColumn(StepOrderColumn)
	timed.DropColumn(IsErrorColumn)
	if err := timed.AddColumn(dataset.Column{Name: StepOrderColumn, Type: dataset.TypeInteger}, orders); err != nil {
		return nil, err
	}
	sorted, err := timed.SortStable(opt.IDColumn, opt.DateTimeColumn)
	if err != nil {
		return nil, err
	}

	idj, _ := sorted.Index(opt.IDColumn)
	oj, _ := sorted.Index(StepOrderColumn)
	flags := make([]dataset.Value, sorted.Len())
	errs := 0
	for i := range flags {
		isErr := false
		if i > 0 && sameVisit(sorted.At(i-1, idj), sorted.At(i, idj)) {
			prev, _ := sorted.At(i-1, oj).AsInt()
			cur, _ := sorted.At(i, oj).AsInt()
			isErr = cur < prev
		}
		if isErr {
			errs++
		}
		flags[i] = dataset.Bool(isErr)
	}
	if err := sorted.AddColumn(dataset.Column{Name: IsErrorColumn, Type: dataset.TypeBool}, flags); err != nil {
		return nil, err
	}
	return &ErrorReport{Dataset: sorted, Errors: errs, Rate: percent(errs, sorted.Len())}, nil
}

// prepare coerces the timestamp column and sorts by (id, timestamp).
func prepare(ds *dataset.Dataset, idCol, timeCol string) (*dataset.Dataset, error) {
	if err := ds.Require(idCol, timeCol); err != nil {
		return nil, err
	}
	timed, err := coerceTimestamps(ds, timeCol)
	if err != nil {
		return nil, err
	}
	return timed.SortStable(idCol, timeCol)
}

// coerceTimestamps returns a copy of ds whose column name is a timestamp
// column. Text cells must parse, all with one slash-date order; other
// non-time kinds are rejected.
func coerceTimestamps(ds *dataset.Dataset, name string) (*dataset.Dataset, error) {
	j, err := ds.Index(name)
	if err != nil {
		return nil, err
	}
	vals, _ := ds.Values(name)
	texts := make([]string, len(vals))
	for i, v := range vals {
		switch v.Kind() {
		case dataset.KindNull, dataset.KindTime:
		case dataset.KindText:
			texts[i], _ = v.AsText()
		default:
			return nil, dataset.Mismatch(name, "row %d holds %s, want timestamp", i, v.Kind())
		}
	}
	parsed, ok, consistent := dataset.ParseTimes(texts, dataset.DateOrderAuto)
	if !consistent {
		return nil, dataset.Mismatch(name, "slash dates mix day-first and month-first order")
	}
	for i, v := range vals {
		if v.Kind() != dataset.KindText {
			continue
		}
		if !ok[i] {
			return nil, dataset.Mismatch(name, "row %d: cannot parse %q as a timestamp", i, texts[i])
		}
		vals[i] = dataset.Time(parsed[i])
	}
	out := ds.Clone()
	if err := out.ReplaceColumn(j, dataset.TypeTimestamp, vals); err != nil {
		return nil, err
	}
	return out, nil
}

func sameVisit(a, b dataset.Value) bool {
	return !a.IsNull() && !b.IsNull() && a.Key() == b.Key()
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return round2(float64(part) / float64(total) * 100)
}

func round2(x float64) float64 { return math.Round(x*100) / 100 }
