package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/sleepstat-cli/internal/config"
)

var (
	// Global flags
	cfgFile   string
	debug     bool
	flagAlpha float64

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "sleepstat",
	Short: "sleepstat: test sleep and lifestyle hypotheses with OLS regression",
	Long: `sleepstat loads the sleep/lifestyle datasets of a study, fits the ordinary
least squares models behind each hypothesis and reports, per hypothesis,
whether the null is rejected at the configured significance level.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.sleepstat/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().Float64Var(&flagAlpha, "alpha", 0, "significance level (overrides config and study)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: commands fall back to built-in defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = &cfgpkg.Global{Alpha: 0.05, SampleRows: 5, Log: cfgpkg.LogConfig{Level: "info"}}
	}
	cfg = c
	if debug {
		cfg.Log.Level = "debug"
	}
	if err := cfgpkg.InitLogger(cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: %v\n", err)
	}
}

// alphaOverride reports the --alpha flag when it was set.
func alphaOverride() (float64, bool) {
	if rootCmd.PersistentFlags().Changed("alpha") {
		return flagAlpha, true
	}
	return 0, false
}
