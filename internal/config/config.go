package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/JimiHenning/vanguard-ab-test/internal/clean"
	"github.com/JimiHenning/vanguard-ab-test/internal/dataset"
	"github.com/JimiHenning/vanguard-ab-test/internal/funnel"
	"github.com/JimiHenning/vanguard-ab-test/internal/stats"
)

// ReplacementSpec is one whole-value replacement. Kind selects how From and
// To are read: "text" (default) or "number". ToNull replaces with null.
type ReplacementSpec struct {
	From   string `mapstructure:"from" yaml:"from" validate:"required"`
	To     string `mapstructure:"to" yaml:"to"`
	Kind   string `mapstructure:"kind" yaml:"kind,omitempty" validate:"omitempty,oneof=text number"`
	ToNull bool   `mapstructure:"to_null" yaml:"to_null,omitempty"`
}

// SubstringSpec is one literal substring replacement.
type SubstringSpec struct {
	Old string `mapstructure:"old" yaml:"old" validate:"required"`
	New string `mapstructure:"new" yaml:"new"`
}

// Global configuration structure.
type Global struct {
	// Funnel columns and settings
	IDCol          string         `mapstructure:"id_col" yaml:"id_col" validate:"required"`
	StepCol        string         `mapstructure:"step_col" yaml:"step_col" validate:"required"`
	DateTimeCol    string         `mapstructure:"datetime_col" yaml:"datetime_col" validate:"required"`
	CompletionStep string         `mapstructure:"completion_step" yaml:"completion_step" validate:"required"`
	InsertPosition int            `mapstructure:"insert_position" yaml:"insert_position" validate:"gte=0"`
	StepMapping    map[string]int `mapstructure:"step_mapping" yaml:"step_mapping" validate:"required,min=1"`

	// Cleaning pipeline. Column names refer to normalized (lowercase, underscored) labels.
	ColumnRenames    map[string]string `mapstructure:"column_renames" yaml:"column_renames,omitempty"`
	Replacements     []ReplacementSpec `mapstructure:"replacements" yaml:"replacements,omitempty" validate:"dive"`
	Substrings       []SubstringSpec   `mapstructure:"substring_replacements" yaml:"substring_replacements,omitempty" validate:"dive"`
	ExtractColumn    string            `mapstructure:"extract_column" yaml:"extract_column,omitempty"`
	ExtractDelimiter string            `mapstructure:"extract_delimiter" yaml:"extract_delimiter" validate:"required_with=ExtractColumn"`
	ExtractIndex     int               `mapstructure:"extract_index" yaml:"extract_index" validate:"gte=0"`
	IntegerColumns   []string          `mapstructure:"integer_columns" yaml:"integer_columns,omitempty"`
	MeanFillColumns  []string          `mapstructure:"mean_fill_columns" yaml:"mean_fill_columns,omitempty"`
	RatioFillColumns []string          `mapstructure:"ratio_fill_columns" yaml:"ratio_fill_columns,omitempty"`
	DuplicateColumns []string          `mapstructure:"duplicate_columns" yaml:"duplicate_columns,omitempty"`
	Keep             string            `mapstructure:"keep" yaml:"keep" validate:"oneof=first last none"`
	Seed             uint64            `mapstructure:"seed" yaml:"seed"`

	OutlierMode string `mapstructure:"outlier_mode" yaml:"outlier_mode" validate:"oneof=show replace delete"`
	LogLevel    string `mapstructure:"log_level" yaml:"log_level" validate:"oneof=debug info warn error"`
}

func defaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".vanguard"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.vanguard/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := defaultDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("VANGUARD")
	v.AutomaticEnv()

	d := funnel.DefaultOptions()
	v.SetDefault("id_col", d.IDColumn)
	v.SetDefault("step_col", d.StepColumn)
	v.SetDefault("datetime_col", d.DateTimeColumn)
	v.SetDefault("completion_step", d.CompletionStep)
	v.SetDefault("insert_position", d.InsertPosition)
	v.SetDefault("extract_delimiter", "/")
	v.SetDefault("extract_index", 1)
	v.SetDefault("keep", string(clean.KeepFirst))
	v.SetDefault("seed", 1)
	v.SetDefault("outlier_mode", string(stats.ModeShow))
	v.SetDefault("log_level", "info")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := defaultDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// Not a viper default: viper merges nested default maps into file maps.
	if len(c.StepMapping) == 0 {
		c.StepMapping = map[string]int(d.Steps)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report yaml key names in validation errors.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks option values against their allowed sets.
func (c *Global) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("%w: %s", dataset.ErrInvalidConfiguration, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", dataset.ErrInvalidConfiguration, err)
	}
	return nil
}

// FunnelOptions converts the funnel settings.
func (c *Global) FunnelOptions() funnel.Options {
	steps := make(funnel.StepMapping, len(c.StepMapping))
	for k, v := range c.StepMapping {
		steps[k] = v
	}
	return funnel.Options{
		IDColumn:       c.IDCol,
		StepColumn:     c.StepCol,
		DateTimeColumn: c.DateTimeCol,
		CompletionStep: c.CompletionStep,
		InsertPosition: c.InsertPosition,
		Steps:          steps,
	}
}

// CleanConfig converts the cleaning settings.
func (c *Global) CleanConfig() (clean.Config, error) {
	keep, err := clean.ParseKeep(c.Keep)
	if err != nil {
		return clean.Config{}, err
	}
	out := clean.Config{
		Renames:          c.ColumnRenames,
		Extract:          clean.Extraction{Column: c.ExtractColumn, Delimiter: c.ExtractDelimiter, Index: c.ExtractIndex},
		IntegerColumns:   c.IntegerColumns,
		MeanFill:         c.MeanFillColumns,
		RatioFill:        c.RatioFillColumns,
		DuplicateColumns: c.DuplicateColumns,
		Keep:             keep,
		Seed:             c.Seed,
	}
	for i, r := range c.Replacements {
		from, err := literal(r.From, r.Kind)
		if err != nil {
			return clean.Config{}, fmt.Errorf("replacements[%d].from: %w", i, err)
		}
		to := dataset.Null()
		if !r.ToNull {
			if to, err = literal(r.To, r.Kind); err != nil {
				return clean.Config{}, fmt.Errorf("replacements[%d].to: %w", i, err)
			}
		}
		out.Replacements = append(out.Replacements, clean.Replacement{From: from, To: to})
	}
	for _, s := range c.Substrings {
		out.Substrings = append(out.Substrings, clean.SubstringRule{Old: s.Old, New: s.New})
	}
	return out, nil
}

// Mode returns the configured outlier mode.
func (c *Global) Mode() (stats.Mode, error) { return stats.ParseMode(c.OutlierMode) }

func literal(s, kind string) (dataset.Value, error) {
	if kind != "number" {
		return dataset.Text(s), nil
	}
	if i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
		return dataset.Int(i), nil
	}
	f, ok := dataset.ParseNumber(s)
	if !ok {
		return dataset.Value{}, fmt.Errorf("%w: %q is not a number", dataset.ErrInvalidConfiguration, s)
	}
	return dataset.Float(f), nil
}
