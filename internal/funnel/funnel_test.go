package funnel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JimiHenning/vanguard-ab-test/internal/dataset"
)

type event struct {
	visit, at, step string
}

func events(t *testing.T, evs ...event) *dataset.Dataset {
	t.Helper()
	d := dataset.New(
		dataset.Column{Name: "client_id", Type: dataset.TypeInteger},
		dataset.Column{Name: "visitor_id", Type: dataset.TypeText},
		dataset.Column{Name: "visit_id", Type: dataset.TypeText},
		dataset.Column{Name: "process_step", Type: dataset.TypeText},
		dataset.Column{Name: "date_time", Type: dataset.TypeText},
	)
	for i, e := range evs {
		visit := dataset.Text(e.visit)
		if e.visit == "" {
			visit = dataset.Null()
		}
		require.NoError(t, d.Append(dataset.Int(int64(i)), dataset.Text("vis"), visit, dataset.Text(e.step), dataset.Text(e.at)))
	}
	return d
}

func TestCompletionRate(t *testing.T) {
	d := events(t,
		event{"v1", "2024-01-01T00:00:00", "start"},
		event{"v1", "2024-01-01T00:01:00", "confirm"},
		event{"v2", "2024-01-01T00:00:00", "start"},
		event{"v3", "2024-01-01T00:00:00", "start"},
		event{"v3", "2024-01-01T00:02:00", "confirm"},
		event{"v3", "2024-01-01T00:03:00", "confirm"},
	)
	rate, err := CompletionRate(d, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 66.67, rate)

	all := events(t,
		event{"v1", "2024-01-01T00:00:00", "confirm"},
		event{"v2", "2024-01-01T00:00:00", "confirm"},
	)
	rate, err = CompletionRate(all, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 100.0, rate)
}

func TestCompletionRateEmpty(t *testing.T) {
	rate, err := CompletionRate(events(t), DefaultOptions())
	require.NoError(t, err)
	assert.Zero(t, rate)

	opt := DefaultOptions()
	opt.IDColumn = "session"
	_, err = CompletionRate(events(t), opt)
	assert.ErrorIs(t, err, dataset.ErrColumnNotFound)
}

func TestTimeSpentPerStep(t *testing.T) {
	d := events(t,
		event{"v2", "2024-01-01T00:00:10", "start"},
		event{"v1", "2024-01-01T00:01:00.250", "step_1"},
		event{"v1", "2024-01-01T00:00:00", "start"},
		event{"v2", "2024-01-01T00:00:00", "start"},
		event{"v1", "2024-01-01T00:03:00", "confirm"},
	)
	out, err := TimeSpentPerStep(d, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"client_id", "visitor_id", "visit_id", "process_step", "date_time", TimeSpentColumn}, out.Names())
	spent, _ := out.Values(TimeSpentColumn)
	visits, _ := out.Values("visit_id")

	want := []struct {
		visit string
		secs  float64
		null  bool
	}{
		{"v1", 60.25, false},
		{"v1", 119.75, false},
		{"v1", 0, true},
		{"v2", 10, false},
		{"v2", 0, true},
	}
	require.Equal(t, len(want), out.Len())
	for i, w := range want {
		assert.Equal(t, w.visit, visits[i].String(), "row %d", i)
		if w.null {
			assert.True(t, spent[i].IsNull(), "row %d: last event of a visit", i)
			continue
		}
		s, ok := spent[i].AsFloat()
		require.True(t, ok, "row %d", i)
		assert.InDelta(t, w.secs, s, 1e-9, "row %d", i)
		assert.GreaterOrEqual(t, s, 0.0)
	}

	c, _ := out.Column("date_time")
	assert.Equal(t, dataset.TypeTimestamp, c.Type)
	orig, _ := d.Column("date_time")
	assert.Equal(t, dataset.TypeText, orig.Type, "input untouched")
}

func TestTimeSpentInsertPosition(t *testing.T) {
	d := events(t, event{"v1", "2024-01-01T00:00:00", "start"})
	opt := DefaultOptions()
	opt.InsertPosition = 0
	out, err := TimeSpentPerStep(d, opt)
	require.NoError(t, err)
	assert.Equal(t, TimeSpentColumn, out.Names()[0])

	again, err := TimeSpentPerStep(out, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 6, again.Width(), "existing column replaced, not duplicated")
	assert.Equal(t, TimeSpentColumn, again.Names()[5])

	opt.InsertPosition = 6
	_, err = TimeSpentPerStep(d, opt)
	assert.ErrorIs(t, err, dataset.ErrInvalidConfiguration)
}

func TestTimeSpentRejectsBadTimestamp(t *testing.T) {
	d := events(t, event{"v1", "yesterday", "start"})
	_, err := TimeSpentPerStep(d, DefaultOptions())
	assert.ErrorIs(t, err, dataset.ErrTypeMismatch)
}

func TestTimeSpentReadsSlashDatesInOneOrder(t *testing.T) {
	d := events(t,
		event{"v1", "13/01/2024 10:00", "confirm"},
		event{"v1", "12/01/2024 10:00", "start"},
	)
	out, err := TimeSpentPerStep(d, DefaultOptions())
	require.NoError(t, err)
	steps, _ := out.Values("process_step")
	assert.True(t, steps[0].Equal(dataset.Text("start")), "12 Jan sorts before 13 Jan")
	spent, err := out.Floats(TimeSpentColumn)
	require.NoError(t, err)
	assert.Equal(t, []float64{86400}, spent)

	mixed := events(t,
		event{"v1", "13/01/2024", "start"},
		event{"v1", "01/13/2024", "confirm"},
	)
	_, err = TimeSpentPerStep(mixed, DefaultOptions())
	assert.ErrorIs(t, err, dataset.ErrTypeMismatch)
}

func TestTimeSpentNullVisitIsUngrouped(t *testing.T) {
	d := events(t,
		event{"", "2024-01-01T00:00:00", "start"},
		event{"", "2024-01-01T00:00:05", "step_1"},
	)
	out, err := TimeSpentPerStep(d, DefaultOptions())
	require.NoError(t, err)
	spent, _ := out.Values(TimeSpentColumn)
	for i, v := range spent {
		assert.True(t, v.IsNull(), "row %d", i)
	}
}

func TestErrorRateDuplicateStepIsNotRegression(t *testing.T) {
	d := events(t,
		event{"v1", "2024-01-01T00:00:00", "start"},
		event{"v1", "2024-01-01T00:01:00", "step_1"},
		event{"v1", "2024-01-01T00:00:30", "start"},
	)
	rep, err := ErrorRate(d, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 0, rep.Errors)
	assert.Zero(t, rep.Rate)

	orders, err := rep.Dataset.Floats(StepOrderColumn)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 1}, orders)
}

func TestErrorRateIsPerVisit(t *testing.T) {
	d := events(t,
		event{"a", "2024-01-01T00:00:00", "start"},
		event{"a", "2024-01-01T00:01:00", "step_2"},
		event{"a", "2024-01-01T00:02:00", "step_1"},
		event{"a", "2024-01-01T00:03:00", "confirm"},
		// b starts lower than a ended: only a naive global diff flags this row.
		event{"b", "2024-01-01T00:00:00", "start"},
		event{"b", "2024-01-01T00:01:00", "step_3"},
		event{"b", "2024-01-01T00:02:00", "start"},
	)
	rep, err := ErrorRate(d, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Errors)
	assert.Equal(t, 28.57, rep.Rate)

	flags, _ := rep.Dataset.Values(IsErrorColumn)
	var flagged []int
	for i, f := range flags {
		b, ok := f.AsBool()
		require.True(t, ok)
		if b {
			flagged = append(flagged, i)
		}
	}
	assert.Equal(t, []int{2, 6}, flagged)
	assert.Equal(t, rep.Errors, len(flagged))
	assert.Equal(t, IsErrorColumn, rep.Dataset.Names()[rep.Dataset.Width()-1])
}

func TestErrorRateUnmappedStep(t *testing.T) {
	d := events(t,
		event{"v1", "2024-01-01T00:00:00", "start"},
		event{"v1", "2024-01-01T00:00:10", "step_9"},
	)
	_, err := ErrorRate(d, DefaultOptions())
	assert.ErrorIs(t, err, dataset.ErrUnmappedStepName)

	opt := DefaultOptions()
	opt.Steps = StepMapping{}
	_, err = ErrorRate(d, opt)
	assert.ErrorIs(t, err, dataset.ErrInvalidConfiguration)
}

func TestErrorRateEmpty(t *testing.T) {
	rep, err := ErrorRate(events(t), DefaultOptions())
	require.NoError(t, err)
	assert.Zero(t, rep.Errors)
	assert.Zero(t, rep.Rate)
}

func TestErrorRateAcceptsTimeCells(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d := dataset.New(
		dataset.Column{Name: "visit_id", Type: dataset.TypeInteger},
		dataset.Column{Name: "process_step", Type: dataset.TypeText},
		dataset.Column{Name: "date_time", Type: dataset.TypeTimestamp},
	)
	d.MustAppend(dataset.Int(1), dataset.Text("step_1"), dataset.Time(base.Add(time.Second)))
	d.MustAppend(dataset.Int(1), dataset.Text("start"), dataset.Time(base.Add(2*time.Second)))
	d.MustAppend(dataset.Int(1), dataset.Text("confirm"), dataset.Time(base))
	rep, err := ErrorRate(d, DefaultOptions())
	require.NoError(t, err)
	// confirm(4) -> step_1(1) -> start(0)
	assert.Equal(t, 2, rep.Errors)
}

func TestFromOrderNames(t *testing.T) {
	m, err := FromOrderNames(map[int]string{0: "start", 1: "step_1", 4: "confirm"})
	require.NoError(t, err)
	assert.Equal(t, []string{"start", "step_1", "confirm"}, m.Ordered())

	_, err = FromOrderNames(map[int]string{0: "start", 1: "start"})
	assert.ErrorIs(t, err, dataset.ErrInvalidConfiguration)
}

func TestSummarize(t *testing.T) {
	d := events(t,
		event{"v1", "2024-01-01T00:00:00", "start"},
		event{"v1", "2024-01-01T00:00:30", "step_1"},
		event{"v1", "2024-01-01T00:00:20", "start"},
		event{"v1", "2024-01-01T00:01:00", "confirm"},
		event{"v2", "2024-01-01T00:00:00", "start"},
		event{"v2", "2024-01-01T00:00:40", "step_1"},
		event{"v2", "2024-01-01T00:00:50", "start"},
	)
	sum, err := Summarize(d, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 7, sum.Rows)
	assert.Equal(t, 2, sum.Visits)
	assert.Equal(t, 50.0, sum.CompletionRate)
	assert.Equal(t, 1, sum.Errors)
	assert.Equal(t, 14.29, sum.ErrorRate)

	require.Len(t, sum.Steps, 5)
	start := sum.Steps[0]
	assert.Equal(t, "start", start.Name)
	assert.Equal(t, 4, start.Events)
	// v1: 20s, 10s; v2: 40s; v2's final start has no successor.
	assert.Equal(t, 3, start.Timed)
	assert.InDelta(t, 70.0/3, start.MeanSeconds, 1e-9)

	step1 := sum.Steps[1]
	assert.Equal(t, 2, step1.Events)
	assert.InDelta(t, 20.0, step1.MeanSeconds, 1e-9)
	assert.Equal(t, "confirm", sum.Steps[4].Name)
	assert.Zero(t, sum.Steps[4].Timed)
}
