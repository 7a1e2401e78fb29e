package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/JimiHenning/vanguard-ab-test/internal/dataset"
	"github.com/JimiHenning/vanguard-ab-test/internal/stats"
)

var (
	effControl      []float64
	effTest         []float64
	effColumn       string
	effGroupCol     string
	effControlLabel string
	effTestLabel    string
)

var effectCmd = &cobra.Command{
	Use:   "effect",
	Short: "Effect sizes between the Control and Test groups",
}

var effectHCmd = &cobra.Command{
	Use:   "h <p1> <p2>",
	Short: "Cohen's h between two proportions in [0, 1]",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := make([]float64, 2)
		for i, a := range args {
			f, err := strconv.ParseFloat(a, 64)
			if err != nil {
				return fmt.Errorf("invalid proportion %q: %w", a, err)
			}
			p[i] = f
		}
		h, err := stats.CohenH(p[0], p[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cohen's h: %.4f (%s)\n", h, stats.Magnitude(h))
		return nil
	},
}

var effectDCmd = &cobra.Command{
	Use:   "d [file]",
	Short: "Cohen's d between two samples, given inline or as a column split by group",
	Long: `Without a file, compares --control and --test value lists. With a file, reads
--column and splits its rows by --group-col into the --control-label and
--test-label groups.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		control, test := effControl, effTest
		if len(args) == 1 {
			if effColumn == "" || effGroupCol == "" {
				return errors.New("reading a file needs --column and --group-col")
			}
			ds, err := loadTable(args[0])
			if err != nil {
				return err
			}
			if control, test, err = splitGroups(ds, effColumn, effGroupCol, effControlLabel, effTestLabel); err != nil {
				return err
			}
		}
		d, err := stats.CohenD(control, test)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cohen's d: %.4f (%s), n=%d/%d\n", d, stats.Magnitude(d), len(control), len(test))
		return nil
	},
}

// splitGroups collects the non-null numeric values of column for rows whose
// group cell is the control or test label.
func splitGroups(ds *dataset.Dataset, column, groupCol, controlLabel, testLabel string) ([]float64, []float64, error) {
	vals, err := ds.Values(column)
	if err != nil {
		return nil, nil, err
	}
	groups, err := ds.Values(groupCol)
	if err != nil {
		return nil, nil, err
	}
	var control, test []float64
	for i, v := range vals {
		if v.IsNull() {
			continue
		}
		x, ok := v.AsFloat()
		if !ok {
			return nil, nil, dataset.Mismatch(column, "row %d holds %s, want a number", i, v.Kind())
		}
		switch g, _ := groups[i].AsText(); g {
		case controlLabel:
			control = append(control, x)
		case testLabel:
			test = append(test, x)
		}
	}
	return control, test, nil
}

func init() {
	rootCmd.AddCommand(effectCmd)
	effectCmd.AddCommand(effectHCmd)
	effectCmd.AddCommand(effectDCmd)
	effectDCmd.Flags().Float64SliceVar(&effControl, "control", nil, "control values, comma separated")
	effectDCmd.Flags().Float64SliceVar(&effTest, "test", nil, "test values, comma separated")
	effectDCmd.Flags().StringVarP(&effColumn, "column", "c", "", "numeric column (file mode)")
	effectDCmd.Flags().StringVar(&effGroupCol, "group-col", "variation", "group column (file mode)")
	effectDCmd.Flags().StringVar(&effControlLabel, "control-label", "Control", "control group label (file mode)")
	effectDCmd.Flags().StringVar(&effTestLabel, "test-label", "Test", "test group label (file mode)")
	addInputFlags(effectDCmd)
}
