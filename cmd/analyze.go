package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JimiHenning/vanguard-ab-test/internal/analysis"
	"github.com/JimiHenning/vanguard-ab-test/internal/utils"
)

var (
	anaOutputPath string
	anaSampleRows int
	anaTopValues  int
	anaGroupBy    []string
	anaCorr       bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Profile a CSV/TSV/XLSX table and produce a concise summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		opt := analysis.DefaultOptions()
		if anaSampleRows >= 0 {
			opt.SampleRows = anaSampleRows
		}
		if anaTopValues > 0 {
			opt.TopValues = anaTopValues
		}
		opt.GroupBy = anaGroupBy
		opt.Correlations = anaCorr

		ds, err := loadTable(path)
		if err != nil {
			return err
		}
		rep, err := analysis.Profile(ds, filepath.Base(path), opt)
		if err != nil {
			return err
		}
		md := rep.Markdown()

		if anaOutputPath == "" {
			fmt.Fprintln(cmd.OutOrStdout(), md)
			return nil
		}
		if err := utils.SafeWriteFile(anaOutputPath, []byte(md)); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		success(cmd.OutOrStdout(), "Wrote analysis to %s", anaOutputPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write analysis (Markdown)")
	analyzeCmd.Flags().IntVar(&anaSampleRows, "sample-rows", 5, "number of sample rows to include")
	analyzeCmd.Flags().IntVar(&anaTopValues, "top", 8, "categories listed per text column")
	analyzeCmd.Flags().StringSliceVar(&anaGroupBy, "group-by", nil, "comma-separated column names to group by (repeatable)")
	analyzeCmd.Flags().BoolVar(&anaCorr, "correlations", false, "compute Pearson correlations among numeric columns")
	addInputFlags(analyzeCmd)
}
