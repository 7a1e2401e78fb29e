// Package report renders datasets and analysis results for the terminal
// (go-pretty tables) and as compact markdown with bracketed section headers.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/JimiHenning/vanguard-ab-test/internal/clean"
	"github.com/JimiHenning/vanguard-ab-test/internal/dataset"
	"github.com/JimiHenning/vanguard-ab-test/internal/funnel"
	"github.com/JimiHenning/vanguard-ab-test/internal/stats"
)

func newTable() table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	return tbl
}

func count(n int) string { return humanize.Comma(int64(n)) }

// Head renders the first n rows of ds as a table. Header cells carry the
// column type; nulls print as <null>.
func Head(ds *dataset.Dataset, n int) string {
	if n < 0 || n > ds.Len() {
		n = ds.Len()
	}
	tbl := newTable()
	header := make(table.Row, ds.Width())
	for j, c := range ds.Columns() {
		header[j] = fmt.Sprintf("%s (%s)", c.Name, c.Type)
	}
	tbl.AppendHeader(header)
	for i := 0; i < n; i++ {
		row := make(table.Row, ds.Width())
		for j := range row {
			v := ds.At(i, j)
			if v.IsNull() {
				row[j] = "<null>"
			} else {
				row[j] = safeVal(v.String())
			}
		}
		tbl.AppendRow(row)
	}
	tbl.AppendFooter(table.Row{fmt.Sprintf("Showing %d of %s rows", n, count(ds.Len()))})
	return tbl.Render()
}

// FunnelTable renders the per-step statistics of s.
func FunnelTable(s *funnel.Summary) string {
	tbl := newTable()
	tbl.AppendHeader(table.Row{"Order", "Step", "Events", "Timed", "Mean seconds"})
	for _, st := range s.Steps {
		mean := "-"
		if st.Timed > 0 {
			mean = fmt.Sprintf("%.2f", st.MeanSeconds)
		}
		tbl.AppendRow(table.Row{st.Order, st.Name, count(st.Events), count(st.Timed), mean})
	}
	return tbl.Render()
}

// FunnelMarkdown renders a funnel summary for the named input.
func FunnelMarkdown(name string, s *funnel.Summary) string {
	var b strings.Builder
	b.WriteString("[FUNNEL SUMMARY]\n")
	if name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", name))
	}
	b.WriteString(fmt.Sprintf("Rows: %s\n", count(s.Rows)))
	b.WriteString(fmt.Sprintf("Visits: %s\n", count(s.Visits)))
	b.WriteString(fmt.Sprintf("Completion rate: %.2f%%\n", s.CompletionRate))
	b.WriteString(fmt.Sprintf("Errors: %s (%.2f%% of rows)\n\n", count(s.Errors), s.ErrorRate))

	b.WriteString("[STEPS]\n")
	b.WriteString("| order | step | events | timed | mean seconds |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, st := range s.Steps {
		mean := "-"
		if st.Timed > 0 {
			mean = fmt.Sprintf("%.2f", st.MeanSeconds)
		}
		b.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s |\n", st.Order, safeVal(st.Name), count(st.Events), count(st.Timed), mean))
	}
	return b.String()
}

// CleanMarkdown renders a pipeline run.
func CleanMarkdown(name string, r *clean.RunReport) string {
	var b strings.Builder
	b.WriteString("[CLEAN RUN]\n")
	if name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", name))
	}
	b.WriteString(fmt.Sprintf("Run: %s\n", r.RunID))
	b.WriteString(fmt.Sprintf("Rows: %s -> %s\n\n", count(r.RowsIn), count(r.RowsOut)))

	b.WriteString("[STEPS]\n")
	for _, st := range r.Steps {
		b.WriteString(fmt.Sprintf("- %s: %s -> %s rows (%s)\n", st.Name, count(st.RowsBefore), count(st.RowsAfter), st.Elapsed.Round(time.Microsecond)))
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

// OutliersMarkdown renders the fences and flagged rows of an outlier pass.
// At most limit rows are listed; limit <= 0 lists all.
func OutliersMarkdown(r *stats.OutlierResult, limit int) string {
	var b strings.Builder
	bd := r.Bounds
	b.WriteString("[OUTLIERS]\n")
	b.WriteString(fmt.Sprintf("Column: %s\n", r.Column))
	b.WriteString(fmt.Sprintf("Mode: %s\n", r.Mode))
	b.WriteString(fmt.Sprintf("Q1=%.4g Q3=%.4g IQR=%.4g median=%.4g\n", bd.Q1, bd.Q3, bd.IQR, bd.Median))
	b.WriteString(fmt.Sprintf("Fences: [%.4g, %.4g]\n", bd.Lower, bd.Upper))
	b.WriteString(fmt.Sprintf("Outliers: %s\n", count(len(r.Outliers))))
	if r.Dataset != nil {
		b.WriteString(fmt.Sprintf("Rows after %s: %s\n", r.Mode, count(r.Dataset.Len())))
	}
	if len(r.Outliers) == 0 {
		return b.String()
	}
	b.WriteString("\n[ROWS]\n")
	shown := r.Outliers
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	for _, o := range shown {
		b.WriteString(fmt.Sprintf("- row %d: %g\n", o.Row, o.Value))
	}
	if rest := len(r.Outliers) - len(shown); rest > 0 {
		b.WriteString(fmt.Sprintf("- ... %s more\n", count(rest)))
	}
	return b.String()
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
