package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JimiHenning/vanguard-ab-test/internal/report"
)

var headRows int

var headCmd = &cobra.Command{
	Use:   "head <file>",
	Short: "Preview the first rows of a CSV/TSV/XLSX with inferred column types",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadTable(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), report.Head(ds, headRows))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(headCmd)
	headCmd.Flags().IntVarP(&headRows, "rows", "n", 5, "number of rows to show (negative = all)")
	addInputFlags(headCmd)
}
