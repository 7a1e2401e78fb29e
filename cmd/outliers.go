package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JimiHenning/vanguard-ab-test/internal/report"
	"github.com/JimiHenning/vanguard-ab-test/internal/stats"
	"github.com/JimiHenning/vanguard-ab-test/internal/tableio"
)

var (
	outColumn string
	outMode   string
	outOutput string
	outLimit  int
)

var outliersCmd = &cobra.Command{
	Use:   "outliers <file>",
	Short: "Find Tukey outliers of a numeric column and show, replace or delete them",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		mode, err := c.Mode()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("mode") {
			if mode, err = stats.ParseMode(outMode); err != nil {
				return err
			}
		}
		if mode != stats.ModeShow && outOutput == "" {
			return fmt.Errorf("--mode %s needs --output for the modified table", mode)
		}

		ds, err := loadTable(args[0])
		if err != nil {
			return err
		}
		res, err := stats.TukeyOutliers(ds, outColumn, mode)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintln(w, report.OutliersMarkdown(res, outLimit))
		if res.Dataset != nil {
			if err := tableio.Save(outOutput, res.Dataset); err != nil {
				return err
			}
			success(w, "Wrote %d rows to %s", res.Dataset.Len(), outOutput)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(outliersCmd)
	outliersCmd.Flags().StringVarP(&outColumn, "column", "c", "", "numeric column to check (required)")
	outliersCmd.Flags().StringVar(&outMode, "mode", "show", "show|replace|delete (overrides config)")
	outliersCmd.Flags().StringVarP(&outOutput, "output", "o", "", "write the modified table (replace/delete modes)")
	outliersCmd.Flags().IntVar(&outLimit, "limit", 20, "max outlier rows to list (0 = all)")
	_ = outliersCmd.MarkFlagRequired("column")
	addInputFlags(outliersCmd)
}
