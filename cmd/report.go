package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/sleepstat-cli/internal/report"
)

var (
	repStudy    string
	repData     []string
	repFormat   string
	repOut      string
	repTitle    string
	repPoints   bool
	repParallel bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render the full study dashboard",
	Long: `Evaluate the hypotheses and render everything the study shows: data previews,
hypotheses, exploratory statistics, regression plots, the correlation matrix,
OLS summaries, verdicts and conclusions. Formats: markdown, html, json, yaml.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := currentConfig()
		format := repFormat
		if format == "" {
			format = c.ReportFormat
		}
		if !validFormat(format) && format != "md" && format != "yml" {
			return fmt.Errorf("unsupported --format: %s", format)
		}
		in, err := resolveInputs(repStudy, repData)
		if err != nil {
			return err
		}
		out, err := runEvaluation(cmd.Context(), in, evalFlags{
			parallel:    repParallel,
			parallelSet: cmd.Flags().Changed("parallel"),
		})
		if err != nil {
			return err
		}
		title := repTitle
		if title == "" && in.study != nil {
			title = in.study.Name
			if in.study.Description != "" {
				title += ": " + in.study.Description
			}
		}
		d, err := report.Build(cmd.Context(), in.provider, in.resolver, out, report.Options{
			Title:      title,
			SampleRows: c.SampleRows,
			Points:     repPoints,
		})
		if err != nil {
			return err
		}

		if repOut == "" {
			return report.Render(cmd.OutOrStdout(), d, format)
		}
		f, err := os.Create(repOut)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		if err := report.Render(f, d, format); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s report to %s\n", format, repOut)
		for _, w := range d.Warnings {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ %s\n", w)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVarP(&repStudy, "study", "s", "", "study name or directory")
	reportCmd.Flags().StringSliceVar(&repData, "data", nil, "dataset override as role=path (repeatable)")
	reportCmd.Flags().StringVarP(&repFormat, "format", "f", "", "markdown|html|json|yaml (default from config)")
	reportCmd.Flags().StringVarP(&repOut, "output", "o", "", "write the report to a file instead of stdout")
	reportCmd.Flags().StringVar(&repTitle, "title", "", "report title")
	reportCmd.Flags().BoolVar(&repPoints, "points", false, "include raw scatter points in json/yaml output")
	reportCmd.Flags().BoolVar(&repParallel, "parallel", false, "fit models concurrently (overrides config)")
}
