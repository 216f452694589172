package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/sleepstat-cli/internal/dataset"
	"github.com/KaramelBytes/sleepstat-cli/internal/regression"
)

// Global configuration structure.
type Global struct {
	Alpha        float64 `mapstructure:"alpha" yaml:"alpha"`
	ParallelFits bool    `mapstructure:"parallel_fits" yaml:"parallel_fits"`
	Workers      int     `mapstructure:"workers" yaml:"workers"`
	MaxCondition float64 `mapstructure:"max_condition" yaml:"max_condition"`
	SampleRows   int     `mapstructure:"sample_rows" yaml:"sample_rows"`
	StudiesDir   string  `mapstructure:"studies_dir" yaml:"studies_dir"`
	ReportFormat string  `mapstructure:"report_format" yaml:"report_format"`

	// Datasets maps a dataset role (sleep_productivity, sleep_health, merged,
	// cleaned) to a CSV or XLSX file.
	Datasets map[string]string `mapstructure:"datasets" yaml:"datasets,omitempty"`
	// Columns overrides physical column names by schema field key.
	Columns map[string]string `mapstructure:"columns" yaml:"columns,omitempty"`

	// Input parsing
	Delimiter        string   `mapstructure:"delimiter" yaml:"delimiter,omitempty"`
	DecimalSeparator string   `mapstructure:"decimal_separator" yaml:"decimal_separator,omitempty"`
	Sheet            string   `mapstructure:"sheet" yaml:"sheet,omitempty"`
	MissingTokens    []string `mapstructure:"missing_tokens" yaml:"missing_tokens,omitempty"`

	Log LogConfig `mapstructure:"log" yaml:"log"`
}

// LogConfig selects the zap logger flavour.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"` // console or json
}

const envPrefix = "SLEEPSTAT"

// Dir returns ~/.sleepstat.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", eris.Wrap(err, "resolve home dir")
	}
	return filepath.Join(home, ".sleepstat"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.sleepstat/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrap(err, "mkdir config dir")
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return eris.Wrap(err, "marshal yaml")
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return eris.Wrap(err, "write config")
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. A .env file in the working
// directory is read first and never overrides variables already set.
func Load(cfgFile string) (*Global, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("alpha", 0.05)
	v.SetDefault("parallel_fits", false)
	v.SetDefault("workers", 0)
	v.SetDefault("max_condition", regression.DefaultMaxCondition)
	v.SetDefault("sample_rows", 5)
	v.SetDefault("report_format", "markdown")
	v.SetDefault("missing_tokens", dataset.DefaultLoadOptions().MissingTokens)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	// Nested keys are only visible to Unmarshal once viper knows them.
	for _, r := range dataset.Roles() {
		_ = v.BindEnv("datasets." + string(r))
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		_ = os.MkdirAll(dir, 0o755)
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, eris.Wrap(err, "read config")
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, eris.Wrap(err, "unmarshal config")
	}
	for role, path := range c.Datasets {
		if path == "" {
			delete(c.Datasets, role)
		}
	}
	if c.StudiesDir == "" {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		c.StudiesDir = filepath.Join(dir, "studies")
	}
	return &c, nil
}

// Schema returns the default schema with the configured column overrides.
func (c *Global) Schema() (*dataset.Schema, error) {
	s, err := dataset.DefaultSchema().WithOverrides(c.Columns)
	if err != nil {
		return nil, eris.Wrap(err, "config: columns")
	}
	return s, nil
}

// DatasetPaths validates the configured roles.
func (c *Global) DatasetPaths() (map[dataset.Role]string, error) {
	out := make(map[dataset.Role]string, len(c.Datasets))
	for k, path := range c.Datasets {
		role, err := dataset.ParseRole(k)
		if err != nil {
			return nil, eris.Wrap(err, "config: datasets")
		}
		out[role] = path
	}
	return out, nil
}

// LoadOptions maps the parsing keys onto dataset.LoadOptions.
func (c *Global) LoadOptions() dataset.LoadOptions {
	opt := dataset.DefaultLoadOptions()
	if r := firstRune(c.Delimiter); r != 0 {
		opt.Delimiter = r
	}
	if r := firstRune(c.DecimalSeparator); r != 0 {
		opt.DecimalSeparator = r
		if r == ',' {
			opt.ThousandsSeparator = '.'
		}
	}
	if c.Sheet != "" {
		opt.SheetName = c.Sheet
	}
	if c.MissingTokens != nil {
		opt.MissingTokens = c.MissingTokens
	}
	return opt
}

func firstRune(s string) rune {
	switch s {
	case "":
		return 0
	case `\t`, "tab":
		return '\t'
	}
	return []rune(s)[0]
}

// InitLogger builds the global zap logger from the log settings.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.DisableStacktrace = true
	}

	level := cfg.Level
	if level == "" {
		level = "info"
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return eris.Wrapf(err, "config: parse log level %q", cfg.Level)
	}
	zapCfg.Level.SetLevel(lvl)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)
	return nil
}
