package cmd

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JimiHenning/vanguard-ab-test/internal/clean"
	"github.com/JimiHenning/vanguard-ab-test/internal/report"
	"github.com/JimiHenning/vanguard-ab-test/internal/tableio"
	"github.com/JimiHenning/vanguard-ab-test/internal/utils"
)

var (
	cleanOutput  string
	cleanReport  string
	cleanKeep    string
	cleanPreview int
)

var cleanCmd = &cobra.Command{
	Use:   "clean <file>",
	Short: "Run the configured cleaning pipeline over a table",
	Long: `Normalizes column names, applies renames and value replacements, extracts a
delimited field, coerces integer columns, drops empty rows, fills missing values
(mean / M-F ratio) and removes duplicates, in that order. Steps are configured in
~/.vanguard/config.yaml.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		cc, err := c.CleanConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("keep") {
			if cc.Keep, err = clean.ParseKeep(cleanKeep); err != nil {
				return err
			}
		}
		ds, err := loadTable(args[0])
		if err != nil {
			return err
		}
		p, err := clean.NewPipeline(cc, slog.Default())
		if err != nil {
			return err
		}
		out, rep, err := p.Run(cmd.Context(), ds)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		md := report.CleanMarkdown(filepath.Base(args[0]), rep)
		if cleanReport != "" {
			if err := utils.SafeWriteFile(cleanReport, []byte(md)); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			success(w, "Wrote clean report to %s", cleanReport)
		} else {
			fmt.Fprintln(w, md)
		}
		for _, msg := range rep.Warnings {
			warn(cmd.ErrOrStderr(), "%s", msg)
		}
		if cleanOutput != "" {
			if err := tableio.Save(cleanOutput, out); err != nil {
				return err
			}
			success(w, "Wrote %d rows to %s", out.Len(), cleanOutput)
			return nil
		}
		fmt.Fprintln(w, report.Head(out, cleanPreview))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().StringVarP(&cleanOutput, "output", "o", "", "write the cleaned table (.csv, .tsv or .xlsx)")
	cleanCmd.Flags().StringVar(&cleanReport, "report", "", "write the run report (Markdown) instead of printing it")
	cleanCmd.Flags().StringVar(&cleanKeep, "keep", "first", "duplicates to keep: first|last|none (overrides config)")
	cleanCmd.Flags().IntVar(&cleanPreview, "preview", 5, "rows to preview when no --output is given")
	addInputFlags(cleanCmd)
}
