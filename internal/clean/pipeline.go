package clean

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/JimiHenning/vanguard-ab-test/internal/dataset"
)

// Extraction configures the delimited-field step. An empty Column skips it.
type Extraction struct {
	Column    string
	Delimiter string
	Index     int
}

// Config controls which columns each pipeline step touches.
type Config struct {
	Renames      map[string]string
	Replacements []Replacement
	Substrings   []SubstringRule
	Extract      Extraction
	// IntegerColumns are coerced to nullable integers.
	IntegerColumns []string
	MeanFill       []string
	RatioFill      []string
	// DuplicateColumns restricts duplicate detection; empty means all columns.
	DuplicateColumns []string
	Keep             Keep
	Seed             uint64
}

// DefaultConfig returns a config that only normalizes names, drops empty
// rows and exact duplicates.
func DefaultConfig() Config {
	return Config{
		Extract: Extraction{Delimiter: "/", Index: 1},
		Keep:    KeepFirst,
		Seed:    1,
	}
}

// StepReport records one pipeline step.
type StepReport struct {
	Name       string
	RowsBefore int
	RowsAfter  int
	Elapsed    time.Duration
}

// RunReport summarizes a pipeline run.
type RunReport struct {
	RunID    string
	Started  time.Time
	Steps    []StepReport
	RowsIn   int
	RowsOut  int
	Warnings []string
}

type step struct {
	name string
	fn   func(*dataset.Dataset) (*dataset.Dataset, error)
}

// Pipeline chains the cleaning transforms in a fixed order.
type Pipeline struct {
	cfg    Config
	logger *slog.Logger
}

// NewPipeline validates cfg and returns a Pipeline. A nil logger uses slog.Default().
func NewPipeline(cfg Config, logger *slog.Logger) (*Pipeline, error) {
	k, err := ParseKeep(string(cfg.Keep))
	if err != nil {
		return nil, err
	}
	cfg.Keep = k
	if cfg.Extract.Column != "" && (cfg.Extract.Delimiter == "" || cfg.Extract.Index < 0) {
		return nil, fmt.Errorf("%w: extract %q needs a delimiter and a non-negative index", dataset.ErrInvalidConfiguration, cfg.Extract.Column)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{cfg: cfg, logger: logger.With(slog.String("component", "clean_pipeline"))}, nil
}

func (p *Pipeline) steps() []step {
	c := p.cfg
	rng := rand.New(rand.NewPCG(c.Seed, c.Seed^0x9e3779b97f4a7c15))
	s := []step{
		{"normalize_columns", func(d *dataset.Dataset) (*dataset.Dataset, error) { return NormalizeColumnNames(d), nil }},
		{"rename_columns", func(d *dataset.Dataset) (*dataset.Dataset, error) { return RenameColumns(d, c.Renames), nil }},
		{"replace_values", func(d *dataset.Dataset) (*dataset.Dataset, error) { return ReplaceValues(d, c.Replacements, c.Substrings) }},
	}
	if c.Extract.Column != "" {
		s = append(s, step{"extract_field", func(d *dataset.Dataset) (*dataset.Dataset, error) {
			return ExtractDelimitedField(d, c.Extract.Column, c.Extract.Delimiter, c.Extract.Index)
		}})
	}
	return append(s,
		step{"coerce_integers", func(d *dataset.Dataset) (*dataset.Dataset, error) { return CoerceToInteger(d, c.IntegerColumns...) }},
		step{"drop_all_null_rows", func(d *dataset.Dataset) (*dataset.Dataset, error) { return DropAllNullRows(d), nil }},
		step{"fill_mean", func(d *dataset.Dataset) (*dataset.Dataset, error) { return FillWithMean(d, c.MeanFill...) }},
		step{"fill_ratio", func(d *dataset.Dataset) (*dataset.Dataset, error) { return FillCategoricalByRatio(d, rng, c.RatioFill...) }},
		step{"drop_duplicates", func(d *dataset.Dataset) (*dataset.Dataset, error) { return DropDuplicates(d, c.Keep, c.DuplicateColumns...) }},
	)
}

// Run pipes ds through every step and returns the cleaned copy. The input
// is never modified. The first failing step aborts the run.
func (p *Pipeline) Run(ctx context.Context, ds *dataset.Dataset) (*dataset.Dataset, *RunReport, error) {
	rep := &RunReport{RunID: uuid.NewString(), Started: time.Now(), RowsIn: ds.Len()}
	log := p.logger.With(slog.String("run_id", rep.RunID))
	cur := ds
	for _, st := range p.steps() {
		if err := ctx.Err(); err != nil {
			return nil, rep, fmt.Errorf("clean pipeline canceled before %s: %w", st.name, err)
		}
		start := time.Now()
		next, err := st.fn(cur)
		if err != nil {
			log.Error("step failed", slog.String("step", st.name), slog.Any("error", err))
			return nil, rep, fmt.Errorf("%s: %w", st.name, err)
		}
		sr := StepReport{Name: st.name, RowsBefore: cur.Len(), RowsAfter: next.Len(), Elapsed: time.Since(start)}
		rep.Steps = append(rep.Steps, sr)
		log.Debug("step done",
			slog.String("step", st.name),
			slog.Int("rows_before", sr.RowsBefore),
			slog.Int("rows_after", sr.RowsAfter),
			slog.Duration("elapsed", sr.Elapsed))
		cur = next
	}
	rep.RowsOut = cur.Len()
	if rep.RowsOut < rep.RowsIn {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("dropped %d of %d rows", rep.RowsIn-rep.RowsOut, rep.RowsIn))
	}
	log.Info("clean pipeline finished", slog.Int("rows_in", rep.RowsIn), slog.Int("rows_out", rep.RowsOut))
	return cur, rep, nil
}
