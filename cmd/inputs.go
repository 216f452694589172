package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	cfgpkg "github.com/KaramelBytes/sleepstat-cli/internal/config"
	"github.com/KaramelBytes/sleepstat-cli/internal/dataset"
	"github.com/KaramelBytes/sleepstat-cli/internal/hypothesis"
	"github.com/KaramelBytes/sleepstat-cli/internal/study"
	"github.com/KaramelBytes/sleepstat-cli/internal/utils"
)

// inputs is everything an evaluation needs, resolved from config, the
// optional study and command-line overrides.
type inputs struct {
	provider *dataset.FileProvider
	resolver *hypothesis.Resolver
	alpha    float64
	study    *study.Study
}

// resolveInputs layers dataset paths and settings: config, then study, then
// --data role=path overrides. Alpha follows --alpha > study > config.
func resolveInputs(studyName string, data []string) (*inputs, error) {
	c := currentConfig()
	schema, err := c.Schema()
	if err != nil {
		return nil, err
	}
	paths, err := c.DatasetPaths()
	if err != nil {
		return nil, err
	}
	alpha := c.Alpha

	st, err := openStudy(studyName, false)
	if err != nil {
		return nil, err
	}
	if st != nil {
		for r, p := range st.Paths() {
			paths[r] = p
		}
		if schema, err = st.Schema(schema); err != nil {
			return nil, err
		}
		alpha = st.Alpha(alpha)
	}
	for _, kv := range data {
		role, path, err := parseDataFlag(kv)
		if err != nil {
			return nil, err
		}
		paths[role] = path
	}
	if a, ok := alphaOverride(); ok {
		alpha = a
	}
	if alpha <= 0 || alpha >= 1 {
		return nil, fmt.Errorf("alpha must be in (0, 1), got %g", alpha)
	}
	if len(paths) == 0 {
		return nil, errors.New("no datasets configured: use --study, --data role=path, or `sleepstat config set datasets.<role> <file>`")
	}
	return &inputs{
		provider: dataset.NewFileProvider(paths, schema, c.LoadOptions()),
		resolver: hypothesis.NewResolver(schema),
		alpha:    alpha,
		study:    st,
	}, nil
}

func parseDataFlag(kv string) (dataset.Role, string, error) {
	k, v, ok := strings.Cut(kv, "=")
	if !ok || v == "" {
		return "", "", fmt.Errorf("invalid --data %q (want role=path)", kv)
	}
	role, err := dataset.ParseRole(strings.TrimSpace(k))
	if err != nil {
		return "", "", err
	}
	return role, strings.TrimSpace(v), nil
}

// openStudy loads the named study. With an empty name it looks for a
// study.json above the working directory and returns nil when none exists,
// unless required is set.
func openStudy(name string, required bool) (*study.Study, error) {
	dir, err := study.Find(name, studiesDir())
	if err != nil {
		if name == "" && !required && errors.Is(err, utils.ErrNoStudyRoot) {
			return nil, nil
		}
		if name == "" {
			return nil, errors.New("--study is required (or run inside a study directory)")
		}
		return nil, err
	}
	return study.Load(dir)
}

func studiesDir() string {
	dir := currentConfig().StudiesDir
	if strings.HasPrefix(dir, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, strings.TrimPrefix(strings.TrimPrefix(dir, "~"), "/"))
		}
	}
	return filepath.Clean(dir)
}

// currentConfig returns the loaded config, loading defaults when the root
// initializer did not run.
func currentConfig() *cfgpkg.Global {
	if cfg == nil {
		loadConfig()
	}
	return cfg
}
