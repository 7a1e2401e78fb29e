// Package analysis profiles a dataset column by column: missing counts,
// numeric spread, Tukey outlier counts, top categories, optional group-by
// means and correlations. The report renders as compact markdown.
package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/JimiHenning/vanguard-ab-test/internal/dataset"
	"github.com/JimiHenning/vanguard-ab-test/internal/stats"
)

// Options controls profiling.
type Options struct {
	// SampleRows determines how many example rows to include in the report.
	SampleRows int
	// GroupBy computes per-group numeric means for the given column names.
	GroupBy []string
	// Correlations computes Pearson correlations among numeric columns.
	Correlations bool
	// TopValues caps the categories listed per text column.
	TopValues int
}

// DefaultOptions returns reasonable defaults for dataset profiling.
func DefaultOptions() Options {
	return Options{SampleRows: 5, TopValues: 8}
}

// Report is a markdown-friendly profile of a dataset.
type Report struct {
	Name     string
	Rows     int
	Cols     []ColumnSummary
	Samples  [][]string
	Warnings []string
	Groups   []GroupResult
	Corr     []PairCorr
}

// ColumnSummary captures the declared type and statistics of one column.
type ColumnSummary struct {
	Name    string
	Type    dataset.ColumnType
	NonNull int
	Missing int
	Unique  int
	// Numeric stats
	Min, Max, Mean, Std float64
	Q1, Median, Q3      float64
	// TukeyOutliers counts values outside the 1.5 IQR fences.
	TukeyOutliers int
	// Timestamp range
	First, Last time.Time
	// Text top values
	TopValues []CategoryCount
}

type CategoryCount struct {
	Value string
	Count int
}

// GroupResult captures per-group numeric means.
type GroupResult struct {
	Key   string
	Size  int
	Means map[string]float64
}

// PairCorr is a correlation between two numeric columns over rows where
// both are present.
type PairCorr struct {
	A, B string
	R    float64
	N    int
}

// Profile summarizes ds. name labels the report. ds is not modified.
func Profile(ds *dataset.Dataset, name string, opt Options) (*Report, error) {
	rep := &Report{Name: name, Rows: ds.Len()}
	cols := ds.Columns()
	var numeric []int
	for j, c := range cols {
		s, isNum := summarize(ds, j, c, opt)
		if isNum {
			numeric = append(numeric, j)
		}
		if s.Missing > 0 && s.NonNull == 0 {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("column %s is entirely null", safeName(c.Name)))
		}
		rep.Cols = append(rep.Cols, s)
	}

	sampleRows := opt.SampleRows
	if sampleRows < 0 {
		sampleRows = 0
	}
	for i := 0; i < ds.Len() && i < sampleRows; i++ {
		row := make([]string, ds.Width())
		for j := range row {
			row[j] = ds.At(i, j).String()
		}
		rep.Samples = append(rep.Samples, row)
	}

	if len(opt.GroupBy) > 0 {
		groups, err := groupMeans(ds, opt.GroupBy, numeric)
		if err != nil {
			return nil, err
		}
		rep.Groups = groups
	}
	if opt.Correlations {
		rep.Corr = correlations(ds, numeric)
	}
	return rep, nil
}

func summarize(ds *dataset.Dataset, j int, c dataset.Column, opt Options) (ColumnSummary, bool) {
	s := ColumnSummary{Name: c.Name, Type: c.Type}
	var nums []float64
	var times []time.Time
	cats := map[string]int{}
	for i := 0; i < ds.Len(); i++ {
		v := ds.At(i, j)
		if v.IsNull() {
			s.Missing++
			continue
		}
		s.NonNull++
		cats[v.Key()]++
		if x, ok := v.AsFloat(); ok {
			nums = append(nums, x)
		}
		if t, ok := v.AsTime(); ok {
			times = append(times, t)
		}
	}
	s.Unique = len(cats)

	// A column counts as numeric when every non-null cell is a number.
	isNum := len(nums) > 0 && len(nums) == s.NonNull
	switch {
	case isNum:
		s.Mean, s.Std = stat.MeanStdDev(nums, nil)
		if len(nums) < 2 {
			s.Std = 0
		}
		s.Min, s.Max = math.Inf(1), math.Inf(-1)
		for _, x := range nums {
			s.Min = math.Min(s.Min, x)
			s.Max = math.Max(s.Max, x)
		}
		if b, err := stats.TukeyBounds(nums); err == nil {
			s.Q1, s.Median, s.Q3 = b.Q1, b.Median, b.Q3
			for _, x := range nums {
				if b.Outside(x) {
					s.TukeyOutliers++
				}
			}
		}
	case len(times) > 0:
		s.First, s.Last = times[0], times[0]
		for _, t := range times[1:] {
			if t.Before(s.First) {
				s.First = t
			}
			if t.After(s.Last) {
				s.Last = t
			}
		}
	default:
		s.TopValues = topValues(ds, j, opt.TopValues)
	}
	return s, isNum
}

func topValues(ds *dataset.Dataset, j, limit int) []CategoryCount {
	counts := map[string]int{}
	for i := 0; i < ds.Len(); i++ {
		if v := ds.At(i, j); !v.IsNull() {
			counts[v.String()]++
		}
	}
	tops := make([]CategoryCount, 0, len(counts))
	for k, v := range counts {
		tops = append(tops, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(tops, func(a, b int) bool {
		if tops[a].Count == tops[b].Count {
			return tops[a].Value < tops[b].Value
		}
		return tops[a].Count > tops[b].Count
	})
	if limit > 0 && len(tops) > limit {
		tops = tops[:limit]
	}
	return tops
}

func groupMeans(ds *dataset.Dataset, by []string, numeric []int) ([]GroupResult, error) {
	idx := make([]int, len(by))
	for k, name := range by {
		j, err := ds.Index(name)
		if err != nil {
			return nil, err
		}
		idx[k] = j
	}
	type acc struct {
		size int
		vals map[int][]float64
	}
	groups := map[string]*acc{}
	for i := 0; i < ds.Len(); i++ {
		parts := make([]string, len(idx))
		for k, j := range idx {
			parts[k] = fmt.Sprintf("%s=%s", by[k], safeVal(ds.At(i, j).String()))
		}
		key := strings.Join(parts, " | ")
		g := groups[key]
		if g == nil {
			g = &acc{vals: map[int][]float64{}}
			groups[key] = g
		}
		g.size++
		for _, j := range numeric {
			if x, ok := ds.At(i, j).AsFloat(); ok {
				g.vals[j] = append(g.vals[j], x)
			}
		}
	}
	cols := ds.Columns()
	out := make([]GroupResult, 0, len(groups))
	for key, g := range groups {
		gr := GroupResult{Key: key, Size: g.size, Means: map[string]float64{}}
		for j, xs := range g.vals {
			gr.Means[cols[j].Name] = stat.Mean(xs, nil)
		}
		out = append(out, gr)
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Size == out[b].Size {
			return out[a].Key < out[b].Key
		}
		return out[a].Size > out[b].Size
	})
	return out, nil
}

func correlations(ds *dataset.Dataset, numeric []int) []PairCorr {
	cols := ds.Columns()
	var pairs []PairCorr
	for a := 0; a < len(numeric); a++ {
		for b := a + 1; b < len(numeric); b++ {
			var xs, ys []float64
			for i := 0; i < ds.Len(); i++ {
				x, okx := ds.At(i, numeric[a]).AsFloat()
				y, oky := ds.At(i, numeric[b]).AsFloat()
				if okx && oky {
					xs = append(xs, x)
					ys = append(ys, y)
				}
			}
			if len(xs) < 2 {
				continue
			}
			r := stat.Correlation(xs, ys, nil)
			if math.IsNaN(r) || math.IsInf(r, 0) {
				continue
			}
			pairs = append(pairs, PairCorr{A: cols[numeric[a]].Name, B: cols[numeric[b]].Name, R: r, N: len(xs)})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		ai, aj := math.Abs(pairs[i].R), math.Abs(pairs[j].R)
		if ai == aj {
			return pairs[i].A+pairs[i].B < pairs[j].A+pairs[j].B
		}
		return ai > aj
	})
	return pairs
}

// Markdown renders a compact report suitable for terminals or standalone docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(r.Cols)))

	b.WriteString("[SCHEMA]\n")
	for _, c := range r.Cols {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%, unique %d)", safeName(c.Name), c.Type, c.NonNull, missPct, c.Unique))
		switch {
		case c.NonNull == 0:
		case !c.First.IsZero():
			b.WriteString(fmt.Sprintf("; from %s to %s", dataset.FormatTime(c.First), dataset.FormatTime(c.Last)))
		case len(c.TopValues) > 0:
			b.WriteString("; top: ")
			for i, kv := range c.TopValues {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
			}
		default:
			b.WriteString(fmt.Sprintf("; min %.4g, q1 %.4g, median %.4g, q3 %.4g, max %.4g, mean %.4g, std %.4g",
				c.Min, c.Q1, c.Median, c.Q3, c.Max, c.Mean, c.Std))
			if c.TukeyOutliers > 0 {
				b.WriteString(fmt.Sprintf("; outliers: %d outside 1.5 IQR", c.TukeyOutliers))
			}
		}
		b.WriteString("\n")
	}

	if len(r.Groups) > 0 {
		b.WriteString("\n[GROUP-BY SUMMARY]\n")
		for _, g := range r.Groups {
			b.WriteString(fmt.Sprintf("- %s (n=%d)\n", g.Key, g.Size))
			keys := make([]string, 0, len(g.Means))
			for k := range g.Means {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				b.WriteString(fmt.Sprintf("  • %s: mean %.4g\n", k, g.Means[k]))
			}
		}
	}
	if len(r.Corr) > 0 {
		b.WriteString("\n[CORRELATIONS]\n")
		maxp := 10
		if len(r.Corr) < maxp {
			maxp = len(r.Corr)
		}
		for _, p := range r.Corr[:maxp] {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f (n=%d)\n", p.A, p.B, p.R, p.N))
		}
	}
	if len(r.Samples) > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n")
		b.WriteString("| ")
		for i, c := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(safeName(c.Name))
		}
		b.WriteString(" |\n|")
		for range r.Cols {
			b.WriteString(" --- |")
		}
		b.WriteString("\n")
		for _, row := range r.Samples {
			b.WriteString("| ")
			for i, val := range row {
				if i > 0 {
					b.WriteString(" | ")
				}
				if len(val) > 80 {
					val = val[:77] + "..."
				}
				b.WriteString(safeVal(val))
			}
			b.WriteString(" |\n")
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
