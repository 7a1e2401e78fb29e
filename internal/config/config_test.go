package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JimiHenning/vanguard-ab-test/internal/clean"
	"github.com/JimiHenning/vanguard-ab-test/internal/dataset"
	"github.com/JimiHenning/vanguard-ab-test/internal/stats"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.IDCol != "visit_id" || c.StepCol != "process_step" || c.DateTimeCol != "date_time" {
		t.Fatalf("unexpected column defaults: %+v", c)
	}
	if c.CompletionStep != "confirm" || c.InsertPosition != 5 {
		t.Fatalf("unexpected funnel defaults: %+v", c)
	}
	if len(c.StepMapping) != 5 || c.StepMapping["confirm"] != 4 {
		t.Fatalf("unexpected step mapping: %v", c.StepMapping)
	}
	if c.Keep != "first" || c.OutlierMode != "show" || c.Seed != 1 {
		t.Fatalf("unexpected defaults: %+v", c)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	p := writeConfig(t, `
id_col: session
completion_step: done
step_mapping:
  begin: 0
  done: 1
keep: last
integer_columns: [age, tenure]
replacements:
  - from: X
    to: U
  - from: "-1"
    kind: number
    to_null: true
`)
	t.Setenv("VANGUARD_OUTLIER_MODE", "delete")
	c, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.IDCol != "session" || c.StepCol != "process_step" {
		t.Fatalf("file value not merged with defaults: %+v", c)
	}
	if c.OutlierMode != "delete" {
		t.Fatalf("env should override, got %q", c.OutlierMode)
	}
	m, err := c.Mode()
	if err != nil || m != stats.ModeDelete {
		t.Fatalf("mode: %v %v", m, err)
	}

	opt := c.FunnelOptions()
	if opt.IDColumn != "session" || opt.Steps["done"] != 1 || len(opt.Steps) != 2 {
		t.Fatalf("funnel options: %+v", opt)
	}

	cc, err := c.CleanConfig()
	if err != nil {
		t.Fatalf("clean config: %v", err)
	}
	if cc.Keep != clean.KeepLast || len(cc.IntegerColumns) != 2 {
		t.Fatalf("clean config: %+v", cc)
	}
	if len(cc.Replacements) != 2 {
		t.Fatalf("replacements: %+v", cc.Replacements)
	}
	if !cc.Replacements[0].From.Equal(dataset.Text("X")) || !cc.Replacements[0].To.Equal(dataset.Text("U")) {
		t.Fatalf("text replacement: %+v", cc.Replacements[0])
	}
	if !cc.Replacements[1].From.Equal(dataset.Int(-1)) || !cc.Replacements[1].To.IsNull() {
		t.Fatalf("numeric replacement: %+v", cc.Replacements[1])
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"keep":     "keep: middle\n",
		"mode":     "outlier_mode: trim\n",
		"position": "insert_position: -2\n",
		"extract":  "extract_column: email\nextract_delimiter: \"\"\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			if !errors.Is(err, dataset.ErrInvalidConfiguration) {
				t.Fatalf("expected invalid configuration, got %v", err)
			}
		})
	}
}

func TestValidateNamesYamlKeys(t *testing.T) {
	_, err := Load(writeConfig(t, "keep: middle\n"))
	if err == nil || !strings.Contains(err.Error(), "keep") {
		t.Fatalf("expected error naming keep, got %v", err)
	}
}

func TestCleanConfigBadNumber(t *testing.T) {
	c := &Global{Keep: "first", Replacements: []ReplacementSpec{{From: "abc", Kind: "number"}}}
	if _, err := c.CleanConfig(); !errors.Is(err, dataset.ErrInvalidConfiguration) {
		t.Fatalf("expected invalid configuration, got %v", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "saved.yaml")
	in, err := Load(writeConfig(t, "seed: 42\nmean_fill_columns: [age]\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := Save(in, p); err != nil {
		t.Fatalf("save: %v", err)
	}
	out, err := Load(p)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if out.Seed != 42 || len(out.MeanFillColumns) != 1 || out.MeanFillColumns[0] != "age" {
		t.Fatalf("round trip lost values: %+v", out)
	}
}
