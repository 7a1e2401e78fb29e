package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	cfgpkg "github.com/JimiHenning/vanguard-ab-test/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set Vanguard configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		b, err := yaml.Marshal(c)
		if err != nil {
			return fmt.Errorf("marshal yaml: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), string(b))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Long: `Sets a scalar key, or a list key from a comma-separated value
(integer_columns, mean_fill_columns, ratio_fill_columns, duplicate_columns).
Step mappings are set as name=order pairs, e.g. "start=0,confirm=1".`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		if err := setKey(c, args[0], args[1]); err != nil {
			return err
		}
		if err := c.Validate(); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		success(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func setKey(c *cfgpkg.Global, key, val string) error {
	atoi := func() (int, error) {
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("invalid int for %s: %w", key, err)
		}
		return i, nil
	}
	var err error
	switch key {
	case "id_col":
		c.IDCol = val
	case "step_col":
		c.StepCol = val
	case "datetime_col":
		c.DateTimeCol = val
	case "completion_step":
		c.CompletionStep = val
	case "insert_position":
		c.InsertPosition, err = atoi()
	case "step_mapping":
		c.StepMapping, err = parseStepMapping(val)
	case "extract_column":
		c.ExtractColumn = val
	case "extract_delimiter":
		c.ExtractDelimiter = val
	case "extract_index":
		c.ExtractIndex, err = atoi()
	case "integer_columns":
		c.IntegerColumns = splitList(val)
	case "mean_fill_columns":
		c.MeanFillColumns = splitList(val)
	case "ratio_fill_columns":
		c.RatioFillColumns = splitList(val)
	case "duplicate_columns":
		c.DuplicateColumns = splitList(val)
	case "keep":
		c.Keep = val
	case "seed":
		c.Seed, err = strconv.ParseUint(val, 10, 64)
	case "outlier_mode":
		c.OutlierMode = val
	case "log_level":
		c.LogLevel = val
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return err
}

func splitList(val string) []string {
	var out []string
	for _, p := range strings.Split(val, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseStepMapping(val string) (map[string]int, error) {
	m := map[string]int{}
	for _, pair := range splitList(val) {
		name, order, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid step mapping entry %q (want name=order)", pair)
		}
		n, err := strconv.Atoi(strings.TrimSpace(order))
		if err != nil {
			return nil, fmt.Errorf("invalid order in %q: %w", pair, err)
		}
		m[strings.TrimSpace(name)] = n
	}
	return m, nil
}
