package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JimiHenning/vanguard-ab-test/internal/dataset"
	"github.com/JimiHenning/vanguard-ab-test/internal/funnel"
	"github.com/JimiHenning/vanguard-ab-test/internal/tableio"
)

// resetFlags clears values and Changed state that persist across in-process runs.
func resetFlags(c *cobra.Command) {
	reset := func(fl *pflag.Flag) {
		if sv, ok := fl.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = fl.Value.Set(fl.DefValue)
		}
		fl.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func execCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execCmd(t, args...)
	if err != nil {
		t.Fatalf("command %v failed: %v\n%s", args, err, out)
	}
	return out
}

// isolate points HOME at a temp dir so no user config leaks in.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

const webLog = "visit_id,process_step,date_time\n" +
	"v1,start,2017-04-17 15:26:00\n" +
	"v1,step_1,2017-04-17 15:26:30\n" +
	"v1,step_2,2017-04-17 15:27:00\n" +
	"v1,confirm,2017-04-17 15:28:00\n" +
	"v2,start,2017-04-17 16:00:00\n" +
	"v2,step_1,2017-04-17 16:00:20\n" +
	"v2,start,2017-04-17 16:00:50\n"

func TestCLI_Head(t *testing.T) {
	home := isolate(t)
	p := writeFile(t, home, "web.csv", webLog)
	out := strings.ToLower(runCmd(t, "head", p, "-n", "2"))
	assert.Contains(t, out, "date_time (timestamp)")
	assert.Contains(t, out, "showing 2 of 7 rows")
}

func TestCLI_FunnelJSON(t *testing.T) {
	home := isolate(t)
	p := writeFile(t, home, "web.csv", webLog)
	out := runCmd(t, "funnel", p, "--json")

	var sum funnel.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &sum))
	assert.Equal(t, 7, sum.Rows)
	assert.Equal(t, 2, sum.Visits)
	assert.Equal(t, 50.0, sum.CompletionRate)
	assert.Equal(t, 1, sum.Errors)
	assert.Equal(t, 14.29, sum.ErrorRate)
	require.NotEmpty(t, sum.Steps)
	assert.Equal(t, "start", sum.Steps[0].Name)
	assert.Equal(t, 3, sum.Steps[0].Events)
	assert.Equal(t, 2, sum.Steps[0].Timed)
	assert.InDelta(t, 25.0, sum.Steps[0].MeanSeconds, 1e-9)
}

func TestCLI_FunnelMarkdownAndAnnotated(t *testing.T) {
	home := isolate(t)
	p := writeFile(t, home, "web.csv", webLog)
	md := filepath.Join(home, "out", "funnel.md")
	annotated := filepath.Join(home, "out", "events.csv")
	out := runCmd(t, "funnel", p, "-o", md, "--annotated", annotated)
	assert.Contains(t, out, "✓ Wrote funnel summary")

	body, err := os.ReadFile(md)
	require.NoError(t, err)
	assert.Contains(t, string(body), "[FUNNEL SUMMARY]")
	assert.Contains(t, string(body), "Completion rate: 50.00%")

	ds, err := tableio.Load(annotated, tableio.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 7, ds.Len())
	assert.Equal(t, []string{"visit_id", "process_step", "date_time", "step_order", "is_error", "time_spent_seconds"}, ds.Names())
	errs := 0
	flags, err := ds.Values("is_error")
	require.NoError(t, err)
	for _, v := range flags {
		if b, _ := v.AsBool(); b {
			errs++
		}
	}
	assert.Equal(t, 1, errs)
}

func TestCLI_FunnelColumnOverride(t *testing.T) {
	home := isolate(t)
	p := writeFile(t, home, "web.csv", strings.Replace(webLog, "visit_id", "session", 1))
	_, err := execCmd(t, "funnel", p)
	assert.ErrorIs(t, err, dataset.ErrColumnNotFound)

	out := runCmd(t, "funnel", p, "--id-col", "session")
	assert.Contains(t, out, "Visits: 2")
}

const clients = "Client ID,Age,Gendr,Bal\n" +
	"1,30,M,100.5\n" +
	"2,,X,200\n" +
	"3,40,F,300\n" +
	"3,40,F,300\n" +
	",,,\n" +
	"4,50,,400\n"

func TestCLI_CleanWithConfig(t *testing.T) {
	home := isolate(t)
	p := writeFile(t, home, "demo.csv", clients)
	cfgPath := writeFile(t, home, "clean.yaml", `
replacements:
  - from: X
    to_null: true
integer_columns: [age]
mean_fill_columns: [age]
ratio_fill_columns: [gendr]
`)
	outPath := filepath.Join(home, "demo_clean.csv")
	out := runCmd(t, "--config", cfgPath, "clean", p, "-o", outPath)
	assert.Contains(t, out, "[CLEAN RUN]")
	assert.Contains(t, out, "Rows: 6 -> 4")
	assert.Contains(t, out, "✓ Wrote 4 rows to")

	ds, err := tableio.Load(outPath, tableio.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"client_id", "age", "gendr", "bal"}, ds.Names())
	assert.Equal(t, 4, ds.Len())
	age, _ := ds.Cell(1, "age")
	assert.True(t, age.Equal(dataset.Int(40)), "mean fill, got %v", age)
	genders, _ := ds.Values("gendr")
	for _, g := range genders {
		assert.False(t, g.IsNull())
	}
}

func TestCLI_CleanPreviewWithoutOutput(t *testing.T) {
	home := isolate(t)
	p := writeFile(t, home, "demo.csv", "A,B\n1,x\n1,x\n")
	out := strings.ToLower(runCmd(t, "clean", p))
	assert.Contains(t, out, "showing 1 of 1 rows")
}

func TestCLI_Outliers(t *testing.T) {
	home := isolate(t)
	p := writeFile(t, home, "ages.csv", "age\n1\n2\n3\n4\n5\n6\n7\n100\n200\n")
	out := runCmd(t, "outliers", p, "--column", "age")
	assert.Contains(t, out, "Outliers: 2")

	_, err := execCmd(t, "outliers", p, "--column", "age", "--mode", "delete")
	require.Error(t, err)

	dst := filepath.Join(home, "ages_trimmed.csv")
	out = runCmd(t, "outliers", p, "--column", "age", "--mode", "delete", "-o", dst)
	assert.Contains(t, out, "✓ Wrote 7 rows")
	ds, err := tableio.Load(dst, tableio.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 7, ds.Len())
}

func TestCLI_Effect(t *testing.T) {
	home := isolate(t)
	assert.Contains(t, runCmd(t, "effect", "h", "0.5", "0.5"), "Cohen's h: 0.0000 (negligible)")
	_, err := execCmd(t, "effect", "h", "1.5", "0.5")
	assert.ErrorIs(t, err, dataset.ErrInvalidConfiguration)

	assert.Contains(t, runCmd(t, "effect", "d", "--control", "2,4,6", "--test", "1,2,3"), "Cohen's d: 1.2649 (large), n=3/3")

	p := writeFile(t, home, "exp.csv", "variation,age\nControl,2\nTest,1\nControl,4\nTest,2\nControl,6\nTest,3\n,99\n")
	assert.Contains(t, runCmd(t, "effect", "d", p, "--column", "age"), "Cohen's d: 1.2649 (large), n=3/3")
}

func TestCLI_Analyze(t *testing.T) {
	home := isolate(t)
	p := writeFile(t, home, "exp.csv", "variation,age,bal\nControl,30,100\nTest,40,200\nControl,50,300\n")
	out := runCmd(t, "analyze", p, "--group-by", "variation", "--correlations")
	assert.Contains(t, out, "File: exp.csv")
	assert.Contains(t, out, "- variation=Control (n=2)")
	assert.Contains(t, out, "- age ~ bal: r=1.000 (n=3)")

	dst := filepath.Join(home, "reports", "exp.md")
	out = runCmd(t, "analyze", p, "-o", dst, "--sample-rows", "0")
	assert.Contains(t, out, "✓ Wrote analysis to")
	body, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Contains(t, string(body), "[SCHEMA]")
	assert.NotContains(t, string(body), "[HEAD AND SAMPLE ROWS]")
}

func TestCLI_ConfigSetShow(t *testing.T) {
	home := isolate(t)
	out := runCmd(t, "config", "set", "keep", "last")
	assert.Contains(t, out, "✓ Saved config")
	_, err := os.Stat(filepath.Join(home, ".vanguard", "config.yaml"))
	require.NoError(t, err)

	runCmd(t, "config", "set", "step_mapping", "begin=0, done=1")
	out = runCmd(t, "config", "show")
	assert.Contains(t, out, "keep: last")
	assert.Contains(t, out, "done: 1")
	assert.NotContains(t, out, "confirm: 4")

	_, err = execCmd(t, "config", "set", "keep", "middle")
	assert.ErrorIs(t, err, dataset.ErrInvalidConfiguration)
	_, err = execCmd(t, "config", "set", "nope", "1")
	require.Error(t, err)
}
