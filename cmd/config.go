package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/sleepstat-cli/internal/config"
	"github.com/KaramelBytes/sleepstat-cli/internal/dataset"
	"github.com/KaramelBytes/sleepstat-cli/internal/report"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set sleepstat configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := currentConfig()
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "alpha: %g\n", c.Alpha)
		fmt.Fprintf(w, "parallel_fits: %t\n", c.ParallelFits)
		if c.Workers > 0 {
			fmt.Fprintf(w, "workers: %d\n", c.Workers)
		}
		fmt.Fprintf(w, "max_condition: %g\n", c.MaxCondition)
		fmt.Fprintf(w, "sample_rows: %d\n", c.SampleRows)
		fmt.Fprintf(w, "studies_dir: %s\n", c.StudiesDir)
		fmt.Fprintf(w, "report_format: %s\n", c.ReportFormat)
		for _, r := range dataset.Roles() {
			if p, ok := c.Datasets[string(r)]; ok {
				fmt.Fprintf(w, "datasets.%s: %s\n", r, p)
			}
		}
		keys := make([]string, 0, len(c.Columns))
		for k := range c.Columns {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "columns.%s: %s\n", k, c.Columns[k])
		}
		if c.Delimiter != "" {
			fmt.Fprintf(w, "delimiter: %q\n", c.Delimiter)
		}
		if c.DecimalSeparator != "" {
			fmt.Fprintf(w, "decimal_separator: %q\n", c.DecimalSeparator)
		}
		if c.Sheet != "" {
			fmt.Fprintf(w, "sheet: %s\n", c.Sheet)
		}
		fmt.Fprintf(w, "log.level: %s\n", c.Log.Level)
		fmt.Fprintf(w, "log.format: %s\n", c.Log.Format)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := currentConfig()
		if err := setConfigKey(c, args[0], args[1]); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func setConfigKey(c *cfgpkg.Global, key, val string) error {
	if role, ok := strings.CutPrefix(key, "datasets."); ok {
		if _, err := dataset.ParseRole(role); err != nil {
			return err
		}
		if c.Datasets == nil {
			c.Datasets = map[string]string{}
		}
		if val == "" {
			delete(c.Datasets, role)
		} else {
			c.Datasets[role] = val
		}
		return nil
	}
	if field, ok := strings.CutPrefix(key, "columns."); ok {
		if _, err := dataset.DefaultSchema().WithOverrides(map[string]string{field: val}); err != nil {
			return err
		}
		if c.Columns == nil {
			c.Columns = map[string]string{}
		}
		c.Columns[field] = val
		return nil
	}
	switch key {
	case "alpha":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f <= 0 || f >= 1 {
			return fmt.Errorf("invalid alpha: %v (want a number in (0, 1))", val)
		}
		c.Alpha = f
	case "parallel_fits":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid bool for parallel_fits: %w", err)
		}
		c.ParallelFits = b
	case "workers":
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid int for workers: %v", val)
		}
		c.Workers = i
	case "max_condition":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f <= 1 {
			return fmt.Errorf("invalid float for max_condition: %v", val)
		}
		c.MaxCondition = f
	case "sample_rows":
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid int for sample_rows: %v", val)
		}
		c.SampleRows = i
	case "studies_dir":
		c.StudiesDir = val
	case "report_format":
		if !validFormat(val) {
			return fmt.Errorf("invalid report_format: %s (use %s)", val, strings.Join(report.Formats(), ", "))
		}
		c.ReportFormat = val
	case "delimiter":
		c.Delimiter = val
	case "decimal_separator":
		switch val {
		case ".", ",", "":
			c.DecimalSeparator = val
		default:
			return fmt.Errorf("invalid decimal_separator: %s (use '.' or ',')", val)
		}
	case "sheet":
		c.Sheet = val
	case "log.level":
		c.Log.Level = val
	case "log.format":
		switch val {
		case "console", "json":
			c.Log.Format = val
		default:
			return fmt.Errorf("invalid log.format: %s (use console or json)", val)
		}
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

func validFormat(f string) bool {
	for _, v := range report.Formats() {
		if strings.EqualFold(v, f) {
			return true
		}
	}
	return false
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
