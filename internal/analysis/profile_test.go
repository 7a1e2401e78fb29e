package analysis

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/JimiHenning/vanguard-ab-test/internal/dataset"
)

func experiment() *dataset.Dataset {
	day := func(d int) dataset.Value {
		return dataset.Time(time.Date(2017, 4, d, 10, 0, 0, 0, time.UTC))
	}
	ds := dataset.New(
		dataset.Column{Name: "variation", Type: dataset.TypeText},
		dataset.Column{Name: "age", Type: dataset.TypeInteger},
		dataset.Column{Name: "bal", Type: dataset.TypeFloat},
		dataset.Column{Name: "gendr", Type: dataset.TypeText},
		dataset.Column{Name: "joined", Type: dataset.TypeTimestamp},
		dataset.Column{Name: "notes", Type: dataset.TypeMixed},
	)
	ds.MustAppend(dataset.Text("Control"), dataset.Int(30), dataset.Float(100), dataset.Text("M"), day(3), dataset.Null())
	ds.MustAppend(dataset.Text("Test"), dataset.Int(40), dataset.Float(200), dataset.Text("F"), day(1), dataset.Null())
	ds.MustAppend(dataset.Text("Control"), dataset.Int(50), dataset.Float(300), dataset.Text("M"), day(9), dataset.Null())
	ds.MustAppend(dataset.Text("Test"), dataset.Null(), dataset.Float(400), dataset.Text("F"), dataset.Null(), dataset.Null())
	return ds
}

func almost(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestProfile_ColumnSummaries(t *testing.T) {
	rep, err := Profile(experiment(), "exp.csv", DefaultOptions())
	if err != nil {
		t.Fatalf("Profile error: %v", err)
	}
	if rep.Rows != 4 || len(rep.Cols) != 6 {
		t.Fatalf("unexpected shape: rows=%d cols=%d", rep.Rows, len(rep.Cols))
	}

	age := rep.Cols[1]
	if age.NonNull != 3 || age.Missing != 1 || age.Unique != 3 {
		t.Fatalf("age counts: %+v", age)
	}
	if !almost(age.Mean, 40) || !almost(age.Std, 10) || age.Min != 30 || age.Max != 50 {
		t.Fatalf("age stats: mean=%v std=%v min=%v max=%v", age.Mean, age.Std, age.Min, age.Max)
	}
	if !almost(age.Q1, 35) || !almost(age.Median, 40) || !almost(age.Q3, 45) {
		t.Fatalf("age quartiles: %v %v %v", age.Q1, age.Median, age.Q3)
	}

	g := rep.Cols[3]
	if len(g.TopValues) != 2 || g.TopValues[0].Value != "F" || g.TopValues[0].Count != 2 {
		t.Fatalf("gendr top values: %+v", g.TopValues)
	}

	joined := rep.Cols[4]
	if joined.First.Day() != 1 || joined.Last.Day() != 9 {
		t.Fatalf("joined range: %v .. %v", joined.First, joined.Last)
	}

	if len(rep.Warnings) != 1 || !strings.Contains(rep.Warnings[0], "notes is entirely null") {
		t.Fatalf("warnings: %v", rep.Warnings)
	}
	if len(rep.Samples) != 4 || rep.Samples[3][1] != "" {
		t.Fatalf("samples: %v", rep.Samples)
	}
}

func TestProfile_TukeyOutlierCount(t *testing.T) {
	ds := dataset.New(dataset.Column{Name: "x", Type: dataset.TypeInteger})
	for _, v := range []int64{1, 2, 3, 4, 5, 6, 7, 100, 200} {
		ds.MustAppend(dataset.Int(v))
	}
	rep, err := Profile(ds, "", DefaultOptions())
	if err != nil {
		t.Fatalf("Profile error: %v", err)
	}
	if got := rep.Cols[0].TukeyOutliers; got != 2 {
		t.Fatalf("expected 2 outliers, got %d", got)
	}
	if !strings.Contains(rep.Markdown(), "outliers: 2 outside 1.5 IQR") {
		t.Fatalf("markdown missing outlier note:\n%s", rep.Markdown())
	}
}

func TestProfile_GroupByAndCorrelations(t *testing.T) {
	opt := DefaultOptions()
	opt.GroupBy = []string{"variation"}
	opt.Correlations = true
	rep, err := Profile(experiment(), "exp.csv", opt)
	if err != nil {
		t.Fatalf("Profile error: %v", err)
	}
	if len(rep.Groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(rep.Groups))
	}
	ctl, tst := rep.Groups[0], rep.Groups[1]
	if ctl.Key != "variation=Control" || ctl.Size != 2 || !almost(ctl.Means["bal"], 200) || !almost(ctl.Means["age"], 40) {
		t.Fatalf("control group: %+v", ctl)
	}
	if tst.Key != "variation=Test" || !almost(tst.Means["bal"], 300) || !almost(tst.Means["age"], 40) {
		t.Fatalf("test group: %+v", tst)
	}

	if len(rep.Corr) != 1 {
		t.Fatalf("expected one numeric pair, got %+v", rep.Corr)
	}
	p := rep.Corr[0]
	if p.A != "age" || p.B != "bal" || p.N != 3 || !almost(p.R, 1) {
		t.Fatalf("correlation: %+v", p)
	}

	md := rep.Markdown()
	for _, want := range []string{
		"[DATASET SUMMARY]",
		"File: exp.csv",
		"[SCHEMA]",
		"- age: integer (non-null 3, missing 25.0%, unique 3)",
		"top: F(2), M(2)",
		"from 2017-04-01 10:00:00 to 2017-04-09 10:00:00",
		"[GROUP-BY SUMMARY]",
		"- variation=Control (n=2)",
		"[CORRELATIONS]",
		"- age ~ bal: r=1.000 (n=3)",
		"[HEAD AND SAMPLE ROWS]",
		"[NOTES]",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestProfile_UnknownGroupColumn(t *testing.T) {
	opt := DefaultOptions()
	opt.GroupBy = []string{"segment"}
	_, err := Profile(experiment(), "", opt)
	if !errors.Is(err, dataset.ErrColumnNotFound) {
		t.Fatalf("expected ErrColumnNotFound, got %v", err)
	}
}

func TestMarkdown_EscapesCells(t *testing.T) {
	ds := dataset.New(dataset.Column{Name: " ", Type: dataset.TypeText})
	ds.MustAppend(dataset.Text("a|b\nc"))
	rep, err := Profile(ds, "", DefaultOptions())
	if err != nil {
		t.Fatalf("Profile error: %v", err)
	}
	md := rep.Markdown()
	if !strings.Contains(md, "(unnamed)") || !strings.Contains(md, "| a/b c |") {
		t.Fatalf("unexpected markdown:\n%s", md)
	}
}
