package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/sleepstat-cli/internal/dataset"
)

func TestLoad_Defaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 0.05, c.Alpha)
	assert.False(t, c.ParallelFits)
	assert.Equal(t, 1e10, c.MaxCondition)
	assert.Equal(t, 5, c.SampleRows)
	assert.Equal(t, "markdown", c.ReportFormat)
	assert.Equal(t, filepath.Join(home, ".sleepstat", "studies"), c.StudiesDir)
	assert.Equal(t, "info", c.Log.Level)
	assert.Equal(t, "console", c.Log.Format)
	assert.Empty(t, c.Datasets)
}

func TestSaveThenLoad(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")

	in := &Global{
		Alpha:        0.01,
		ParallelFits: true,
		SampleRows:   3,
		StudiesDir:   "/tmp/studies",
		Datasets:     map[string]string{"merged": "/data/merged.csv"},
		Columns:      map[string]string{"stress_level": "Stress"},
		Log:          LogConfig{Level: "debug", Format: "json"},
	}
	require.NoError(t, Save(in, path))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.01, c.Alpha)
	assert.True(t, c.ParallelFits)
	assert.Equal(t, 3, c.SampleRows)
	assert.Equal(t, "/tmp/studies", c.StudiesDir)
	assert.Equal(t, "/data/merged.csv", c.Datasets["merged"])
	assert.Equal(t, "Stress", c.Columns["stress_level"])
	assert.Equal(t, "debug", c.Log.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SLEEPSTAT_ALPHA", "0.1")
	t.Setenv("SLEEPSTAT_DATASETS_CLEANED", "/data/cleaned.xlsx")
	t.Setenv("SLEEPSTAT_LOG_LEVEL", "warn")

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 0.1, c.Alpha)
	assert.Equal(t, "/data/cleaned.xlsx", c.Datasets["cleaned"])
	assert.Equal(t, "warn", c.Log.Level)
}

func TestLoad_MalformedFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("alpha: [unclosed"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestSchemaAndDatasetPaths(t *testing.T) {
	c := &Global{
		Columns:  map[string]string{"stress_level": "Stress"},
		Datasets: map[string]string{"merged": "m.csv", "cleaned": "c.xlsx"},
	}
	s, err := c.Schema()
	require.NoError(t, err)
	assert.Equal(t, "Stress", s.Column(dataset.FieldStress))
	assert.Equal(t, "Sleep Quality", s.Column(dataset.FieldSleepQuality))

	paths, err := c.DatasetPaths()
	require.NoError(t, err)
	assert.Equal(t, map[dataset.Role]string{dataset.RoleMerged: "m.csv", dataset.RoleCleaned: "c.xlsx"}, paths)

	c.Columns = map[string]string{"shoe_size": "Shoes"}
	_, err = c.Schema()
	assert.Error(t, err)

	c.Datasets = map[string]string{"raw": "r.csv"}
	_, err = c.DatasetPaths()
	assert.Error(t, err)
}

func TestLoadOptions(t *testing.T) {
	c := &Global{Delimiter: "tab", DecimalSeparator: ",", Sheet: "Data"}
	opt := c.LoadOptions()
	assert.Equal(t, '\t', opt.Delimiter)
	assert.Equal(t, ',', opt.DecimalSeparator)
	assert.Equal(t, '.', opt.ThousandsSeparator)
	assert.Equal(t, "Data", opt.SheetName)
	assert.Equal(t, dataset.DefaultLoadOptions().MissingTokens, opt.MissingTokens)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "json"}))
	require.NoError(t, InitLogger(LogConfig{}))
	assert.Error(t, InitLogger(LogConfig{Level: "loud"}))
}
