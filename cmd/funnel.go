package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JimiHenning/vanguard-ab-test/internal/dataset"
	"github.com/JimiHenning/vanguard-ab-test/internal/funnel"
	"github.com/JimiHenning/vanguard-ab-test/internal/report"
	"github.com/JimiHenning/vanguard-ab-test/internal/tableio"
	"github.com/JimiHenning/vanguard-ab-test/internal/utils"
)

var (
	funIDCol          string
	funStepCol        string
	funDateTimeCol    string
	funCompletionStep string
	funInsertPos      int
	funOutputPath     string
	funAnnotated      string
	funJSON           bool
	funTable          bool
)

var funnelCmd = &cobra.Command{
	Use:   "funnel <file>",
	Short: "Compute completion rate, time per step and error rate of a web log",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		opt := c.FunnelOptions()
		f := cmd.Flags()
		if f.Changed("id-col") {
			opt.IDColumn = funIDCol
		}
		if f.Changed("step-col") {
			opt.StepColumn = funStepCol
		}
		if f.Changed("datetime-col") {
			opt.DateTimeColumn = funDateTimeCol
		}
		if f.Changed("completion-step") {
			opt.CompletionStep = funCompletionStep
		}
		if f.Changed("insert-position") {
			opt.InsertPosition = funInsertPos
		}

		ds, err := loadTable(args[0])
		if err != nil {
			return err
		}
		sum, err := funnel.Summarize(ds, opt)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		var out []byte
		switch {
		case funJSON:
			if out, err = utils.PrettyJSON(sum); err != nil {
				return err
			}
		case funTable:
			out = []byte(report.FunnelTable(sum))
		default:
			out = []byte(report.FunnelMarkdown(filepath.Base(args[0]), sum))
		}
		if funOutputPath != "" {
			if err := utils.SafeWriteFile(funOutputPath, out); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			success(w, "Wrote funnel summary to %s", funOutputPath)
		} else {
			fmt.Fprintln(w, string(out))
		}

		if funAnnotated != "" {
			annotated, err := annotate(ds, opt)
			if err != nil {
				return err
			}
			if err := tableio.Save(funAnnotated, annotated); err != nil {
				return err
			}
			success(w, "Wrote annotated events to %s", funAnnotated)
		}
		return nil
	},
}

// annotate adds step_order, is_error and time_spent_seconds to ds.
func annotate(ds *dataset.Dataset, opt funnel.Options) (*dataset.Dataset, error) {
	er, err := funnel.ErrorRate(ds, opt)
	if err != nil {
		return nil, err
	}
	return funnel.TimeSpentPerStep(er.Dataset, opt)
}

func init() {
	rootCmd.AddCommand(funnelCmd)
	funnelCmd.Flags().StringVar(&funIDCol, "id-col", "visit_id", "visit identifier column (overrides config)")
	funnelCmd.Flags().StringVar(&funStepCol, "step-col", "process_step", "step name column (overrides config)")
	funnelCmd.Flags().StringVar(&funDateTimeCol, "datetime-col", "date_time", "event timestamp column (overrides config)")
	funnelCmd.Flags().StringVar(&funCompletionStep, "completion-step", "confirm", "step that marks a completed visit (overrides config)")
	funnelCmd.Flags().IntVar(&funInsertPos, "insert-position", 5, "column position of time_spent_seconds in --annotated output")
	funnelCmd.Flags().StringVarP(&funOutputPath, "output", "o", "", "optional path to write the summary")
	funnelCmd.Flags().StringVar(&funAnnotated, "annotated", "", "write events with step_order, is_error and time_spent_seconds (.csv, .tsv or .xlsx)")
	funnelCmd.Flags().BoolVar(&funJSON, "json", false, "print the summary as JSON")
	funnelCmd.Flags().BoolVar(&funTable, "table", false, "print the per-step table instead of Markdown")
	addInputFlags(funnelCmd)
}
