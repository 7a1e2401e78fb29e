package funnel

import (
	"gonum.org/v1/gonum/stat"

	"github.com/JimiHenning/vanguard-ab-test/internal/dataset"
)

// StepStat aggregates the events of one step name.
type StepStat struct {
	Name   string `json:"name"`
	Order  int    `json:"order"`
	Events int    `json:"events"`
	// Timed counts events with a successor in the same visit.
	Timed       int     `json:"timed"`
	MeanSeconds float64 `json:"mean_seconds"`
}

// Summary bundles the funnel metrics of one dataset.
type Summary struct {
	Rows           int        `json:"rows"`
	Visits         int        `json:"visits"`
	CompletionRate float64    `json:"completion_rate"`
	Errors         int        `json:"errors"`
	ErrorRate      float64    `json:"error_rate"`
	Steps          []StepStat `json:"steps"`
}

// Summarize runs every funnel metric over ds. Steps are listed in funnel order.
func Summarize(ds *dataset.Dataset, opt Options) (*Summary, error) {
	rate, err := CompletionRate(ds, opt)
	if err != nil {
		return nil, err
	}
	er, err := ErrorRate(ds, opt)
	if err != nil {
		return nil, err
	}
	timeOpt := opt
	timeOpt.InsertPosition = er.Dataset.Width()
	timed, err := TimeSpentPerStep(er.Dataset, timeOpt)
	if err != nil {
		return nil, err
	}

	visits := map[string]struct{}{}
	ids, _ := timed.Values(opt.IDColumn)
	for _, id := range ids {
		if !id.IsNull() {
			visits[id.Key()] = struct{}{}
		}
	}

	steps, _ := timed.Values(opt.StepColumn)
	spent, _ := timed.Values(TimeSpentColumn)
	events := map[string]int{}
	secs := map[string][]float64{}
	for i, v := range steps {
		name, _ := v.AsText()
		events[name]++
		if s, ok := spent[i].AsFloat(); ok {
			secs[name] = append(secs[name], s)
		}
	}

	sum := &Summary{
		Rows:           ds.Len(),
		Visits:         len(visits),
		CompletionRate: rate,
		Errors:         er.Errors,
		ErrorRate:      er.Rate,
	}
	for _, name := range opt.Steps.Ordered() {
		st := StepStat{Name: name, Order: opt.Steps[name], Events: events[name], Timed: len(secs[name])}
		if st.Timed > 0 {
			st.MeanSeconds = stat.Mean(secs[name], nil)
		}
		sum.Steps = append(sum.Steps, st)
	}
	return sum, nil
}
