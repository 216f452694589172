package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/sleepstat-cli/internal/analysis"
	"github.com/KaramelBytes/sleepstat-cli/internal/dataset"
	"github.com/KaramelBytes/sleepstat-cli/internal/study"
)

var (
	dsStudy      string
	dsRoles      []string
	dsOutput     string
	dsAttach     bool
	dsDelimiter  string
	dsDecimal    string
	dsSheetName  string
	dsSampleRows int
	dsGroupBy    []string
	dsCorr       bool
	dsOutliers   bool
	dsOutlierThr float64
	dsQuiet      bool
)

var describeCmd = &cobra.Command{
	Use:   "describe [files...]",
	Short: "Summarize CSV/TSV/XLSX datasets (schema, statistics, groups, correlations)",
	Long: `Describe one or more data files, or the study datasets named with --role.
File arguments may be glob patterns. Reports go to stdout, to --output, or with
--attach into the study's summaries directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := expandGlobs(args)
		if err != nil {
			return err
		}
		if len(files) == 0 && len(dsRoles) == 0 {
			return fmt.Errorf("no input files matched (pass files or --role)")
		}

		lopt := currentConfig().LoadOptions()
		if dsDelimiter != "" {
			switch dsDelimiter {
			case ",":
				lopt.Delimiter = ','
			case "\t", "tab":
				lopt.Delimiter = '\t'
			case ";":
				lopt.Delimiter = ';'
			default:
				return fmt.Errorf("unsupported --delimiter: %s", dsDelimiter)
			}
		}
		switch strings.ToLower(strings.TrimSpace(dsDecimal)) {
		case ",", "comma":
			lopt.DecimalSeparator = ','
			lopt.ThousandsSeparator = '.'
		case ".", "dot":
			lopt.DecimalSeparator = '.'
		case "":
		default:
			return fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", dsDecimal)
		}
		if dsSheetName != "" {
			lopt.SheetName = dsSheetName
		}

		opt := analysis.DefaultOptions()
		if cmd.Flags().Changed("sample-rows") {
			opt.SampleRows = dsSampleRows
		} else {
			opt.SampleRows = currentConfig().SampleRows
		}
		opt.GroupBy = dsGroupBy
		opt.Correlations = dsCorr
		opt.Outliers = dsOutliers
		if dsOutlierThr > 0 {
			opt.OutlierThreshold = dsOutlierThr
		}

		var tables []*dataset.Table
		if len(dsRoles) > 0 {
			in, err := resolveInputs(dsStudy, nil)
			if err != nil {
				return err
			}
			for _, r := range dsRoles {
				role, err := dataset.ParseRole(r)
				if err != nil {
					return err
				}
				t, err := in.provider.Table(cmd.Context(), role)
				if err != nil {
					return err
				}
				tables = append(tables, t)
			}
		}

		var st *study.Study
		if dsAttach {
			if st, err = openStudy(dsStudy, true); err != nil {
				return err
			}
		}

		w := cmd.OutOrStdout()
		var out io.Writer = w
		if dsOutput != "" {
			f, err := os.Create(dsOutput)
			if err != nil {
				return fmt.Errorf("create output: %w", err)
			}
			defer f.Close()
			out = f
		}

		total := len(files) + len(tables)
		describeOne := func(t *dataset.Table) error {
			md := analysis.Describe(t, opt).Markdown()
			if st != nil {
				path, err := attachSummary(st, t.Name(), md)
				if err != nil {
					return err
				}
				if !dsQuiet {
					fmt.Fprintf(w, "✓ Added summary to study '%s' as %s\n", st.Name, filepath.Base(path))
				}
				return nil
			}
			if total > 1 {
				fmt.Fprintf(out, "# %s\n\n", t.Name())
			}
			_, err := io.WriteString(out, md+"\n")
			return err
		}
		for _, t := range tables {
			if err := describeOne(t); err != nil {
				return err
			}
		}
		for i, path := range files {
			if !dsQuiet && total > 1 {
				fmt.Fprintf(cmd.ErrOrStderr(), "[%d/%d] Processing %s...\n", len(tables)+i+1, total, filepath.Base(path))
			}
			t, err := dataset.LoadFile(path, lopt)
			if err != nil {
				return err
			}
			if err := describeOne(t); err != nil {
				return err
			}
		}
		if dsOutput != "" && !dsQuiet {
			fmt.Fprintf(w, "✓ Wrote analysis to %s\n", dsOutput)
		}
		return nil
	},
}

// expandGlobs resolves patterns to a sorted, de-duplicated file list.
func expandGlobs(args []string) ([]string, error) {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", arg, err)
		}
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, nil
}

// attachSummary writes md under <study>/summaries without overwriting an
// earlier summary of a file with the same name.
func attachSummary(st *study.Study, name, md string) (string, error) {
	dir := filepath.Join(st.RootDir(), "summaries")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	path := filepath.Join(dir, base+".summary.md")
	for idx := 2; ; idx++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			break
		}
		path = filepath.Join(dir, fmt.Sprintf("%s__%d.summary.md", base, idx))
	}
	if err := os.WriteFile(path, []byte(md), 0o644); err != nil {
		return "", fmt.Errorf("write study summary: %w", err)
	}
	return path, nil
}

func init() {
	rootCmd.AddCommand(describeCmd)
	describeCmd.Flags().StringVarP(&dsStudy, "study", "s", "", "study for --role and --attach")
	describeCmd.Flags().StringSliceVarP(&dsRoles, "role", "r", nil, "describe configured datasets by role (repeatable)")
	describeCmd.Flags().StringVarP(&dsOutput, "output", "o", "", "optional path to write the analysis (Markdown)")
	describeCmd.Flags().BoolVar(&dsAttach, "attach", false, "write summaries into the study directory")
	describeCmd.Flags().StringVar(&dsDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab'")
	describeCmd.Flags().StringVar(&dsDecimal, "decimal", "", "decimal separator for numbers: '.'|'comma' (auto-detect if omitted)")
	describeCmd.Flags().StringVar(&dsSheetName, "sheet-name", "", "XLSX: sheet name to analyze")
	describeCmd.Flags().IntVar(&dsSampleRows, "sample-rows", 5, "number of sample rows to include (default from config)")
	describeCmd.Flags().StringSliceVar(&dsGroupBy, "group-by", nil, "comma-separated column names to group by (repeatable)")
	describeCmd.Flags().BoolVar(&dsCorr, "correlations", true, "compute Pearson correlations among numeric columns")
	describeCmd.Flags().BoolVar(&dsOutliers, "outliers", true, "compute robust outlier counts (MAD)")
	describeCmd.Flags().Float64Var(&dsOutlierThr, "outlier-threshold", 3.5, "robust |z| threshold for outliers (MAD-based)")
	describeCmd.Flags().BoolVar(&dsQuiet, "quiet", false, "suppress progress and non-essential output")
}
