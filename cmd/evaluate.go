package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/sleepstat-cli/internal/decision"
	"github.com/KaramelBytes/sleepstat-cli/internal/pipeline"
	"github.com/KaramelBytes/sleepstat-cli/internal/regression"
	"github.com/KaramelBytes/sleepstat-cli/internal/report"
)

var (
	evStudy     string
	evData      []string
	evFormat    string
	evParallel  bool
	evWorkers   int
	evMaxCond   float64
	evSummaries bool
	evNoRecord  bool
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Fit every model and decide every hypothesis",
	Long: `Fit the regression models behind the study hypotheses and print one verdict
per hypothesis. A model that cannot be fit marks only its own hypotheses as
unevaluable; the rest of the run continues.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format := strings.ToLower(evFormat)
		switch format {
		case "", "text", "json", "yaml", "yml":
		default:
			return fmt.Errorf("unsupported --format: %s (use text, json or yaml)", evFormat)
		}
		in, err := resolveInputs(evStudy, evData)
		if err != nil {
			return err
		}
		out, err := runEvaluation(cmd.Context(), in, evalFlags{
			parallel:    evParallel,
			parallelSet: cmd.Flags().Changed("parallel"),
			workers:     evWorkers,
			maxCond:     evMaxCond,
		})
		if err != nil {
			return err
		}
		if err := recordRun(in, out); err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		switch format {
		case "", "text":
			writeOutcome(w, out, evSummaries)
			return nil
		case "json":
			b, err := report.EncodeJSON(out)
			if err != nil {
				return err
			}
			_, err = w.Write(b)
			return err
		default:
			b, err := report.EncodeYAML(out)
			if err != nil {
				return err
			}
			_, err = w.Write(b)
			return err
		}
	},
}

// evalFlags are command-line overrides of the fitting settings.
type evalFlags struct {
	parallel    bool
	parallelSet bool
	workers     int
	maxCond     float64
}

// runEvaluation runs the pipeline with config defaults and command flags.
func runEvaluation(ctx context.Context, in *inputs, f evalFlags) (*pipeline.Outcome, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	c := currentConfig()
	maxCond := c.MaxCondition
	if f.maxCond > 0 {
		maxCond = f.maxCond
	}
	parallel := c.ParallelFits
	if f.parallelSet {
		parallel = f.parallel
	}
	workers := c.Workers
	if f.workers > 0 {
		workers = f.workers
	}
	ev := regression.NewEvaluator(regression.WithMaxCondition(maxCond))
	return pipeline.Run(ctx, in.provider, in.resolver, ev, pipeline.Options{
		Alpha:    in.alpha,
		Parallel: parallel,
		Workers:  workers,
	})
}

func recordRun(in *inputs, out *pipeline.Outcome) error {
	if in.study == nil || evNoRecord {
		return nil
	}
	in.study.RecordRun(out)
	if err := in.study.Save(); err != nil {
		return err
	}
	zap.L().Debug("run recorded", zap.String("study", in.study.Name), zap.String("run", out.RunID))
	return nil
}

func writeOutcome(w io.Writer, out *pipeline.Outcome, summaries bool) {
	fmt.Fprintf(w, "%s\n\n", mutedStyle.Render(fmt.Sprintf("run %s · alpha %g", out.RunID, out.Alpha)))

	rows := make([][]string, 0, len(out.Verdicts))
	for _, v := range out.Verdicts {
		coef, p := "", ""
		if v.Evaluated {
			coef = decision.FormatCoef(v.Coefficient)
			p = strings.TrimPrefix(decision.FormatP(v.PValue), "p=")
		}
		rows = append(rows, []string{v.HypothesisID, v.Model, v.Term, coef, p, verdictCell(v)})
	}
	fmt.Fprint(w, renderTable("Verdicts", []string{"hypothesis", "model", "term", "coef", "p-value", "verdict"}, rows))
	fmt.Fprintln(w)
	for _, v := range out.Verdicts {
		fmt.Fprintf(w, "- %s\n", v.Rationale)
	}

	if failed := out.Failed(); len(failed) > 0 {
		fmt.Fprintln(w)
		for _, m := range failed {
			fmt.Fprintf(w, "⚠ %s could not be fit: %s\n", m.ID, m.Error)
		}
	}
	if summaries {
		for _, m := range out.Models {
			if m.OK() {
				fmt.Fprintf(w, "\n%s\n%s", titleStyle.Render(m.Title), m.Fit.Summary())
			}
		}
	}
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
	evaluateCmd.Flags().StringVarP(&evStudy, "study", "s", "", "study name or directory")
	evaluateCmd.Flags().StringSliceVar(&evData, "data", nil, "dataset override as role=path (repeatable)")
	evaluateCmd.Flags().StringVarP(&evFormat, "format", "f", "text", "output format: text|json|yaml")
	evaluateCmd.Flags().BoolVar(&evParallel, "parallel", false, "fit models concurrently (overrides config)")
	evaluateCmd.Flags().IntVar(&evWorkers, "workers", 0, "maximum concurrent fits with --parallel (0 = one per model)")
	evaluateCmd.Flags().Float64Var(&evMaxCond, "max-condition", 0, "condition number above which a design is rejected (overrides config)")
	evaluateCmd.Flags().BoolVar(&evSummaries, "summaries", false, "print the full OLS summary of each model")
	evaluateCmd.Flags().BoolVar(&evNoRecord, "no-record", false, "do not append the run to the study history")
}
