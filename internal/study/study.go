// Package study persists a named set of datasets and evaluation settings.
package study

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/KaramelBytes/sleepstat-cli/internal/dataset"
	"github.com/KaramelBytes/sleepstat-cli/internal/pipeline"
	"github.com/KaramelBytes/sleepstat-cli/internal/utils"
)

// FileName is the marker file of a study directory.
const FileName = "study.json"

// maxRuns bounds the history kept in study.json.
const maxRuns = 20

// Study is a sleepstat study persisted on disk.
type Study struct {
	Name        string                    `json:"name"`
	Description string                    `json:"description"`
	Datasets    map[dataset.Role]*Dataset `json:"datasets"`
	Config      *StudyConfig              `json:"config"`
	Runs        []RunRecord               `json:"runs,omitempty"`
	CreatedAt   time.Time                 `json:"created_at"`
	UpdatedAt   time.Time                 `json:"updated_at"`

	rootDir string
}

// StudyConfig holds per-study overrides. Zero values inherit the global config.
type StudyConfig struct {
	Alpha   float64           `json:"alpha,omitempty"`
	Columns map[string]string `json:"columns,omitempty"`
}

// New constructs an in-memory study. Call Save to persist.
func New(name, description, rootDir string) *Study {
	now := time.Now()
	return &Study{
		Name:        name,
		Description: description,
		Datasets:    make(map[dataset.Role]*Dataset),
		Config:      &StudyConfig{},
		CreatedAt:   now,
		UpdatedAt:   now,
		rootDir:     rootDir,
	}
}

// Load reads study.json from dir.
func Load(dir string) (*Study, error) {
	path := filepath.Join(dir, FileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, eris.Wrapf(err, "study not found at %s", path)
		}
		return nil, eris.Wrap(err, "read study")
	}
	var s Study
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, eris.Wrap(err, "parse study")
	}
	if s.Datasets == nil {
		s.Datasets = make(map[dataset.Role]*Dataset)
	}
	if s.Config == nil {
		s.Config = &StudyConfig{}
	}
	s.rootDir = dir
	return &s, nil
}

// RootDir returns the on-disk study directory.
func (s *Study) RootDir() string { return s.rootDir }

// Save writes study.json atomically.
func (s *Study) Save() error {
	if s.rootDir == "" {
		return eris.New("study root directory not set")
	}
	if err := utils.EnsureDir(s.rootDir); err != nil {
		return eris.Wrap(err, "ensure dir")
	}
	s.UpdatedAt = time.Now()
	data, err := utils.PrettyJSON(s)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(s.rootDir, FileName), data)
}

// AddDataset loads the file to check it parses, then registers it under role,
// replacing any previous file for that role. Columns the role is expected to
// carry but that are missing or of the wrong kind are recorded as problems;
// they only affect the models that read them.
func (s *Study) AddDataset(role dataset.Role, path, description string, schema *dataset.Schema, opt dataset.LoadOptions) (*Dataset, error) {
	if schema == nil {
		schema = dataset.DefaultSchema()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, eris.Wrap(err, "resolve path")
	}
	t, err := dataset.LoadFile(abs, opt)
	if err != nil {
		return nil, eris.Wrap(err, "read dataset")
	}
	if t, err = schema.Conform(t); err != nil {
		return nil, eris.Wrap(err, "conform dataset")
	}
	var problems []string
	if err := schema.Validate(t, role.Fields()...); err != nil {
		problems = strings.Split(err.Error(), "\n")
	}
	d := &Dataset{
		ID:          uuid.NewString(),
		Role:        role,
		Path:        abs,
		Name:        filepath.Base(abs),
		Description: description,
		Rows:        t.Rows(),
		Columns:     t.Columns(),
		Problems:    problems,
		AddedAt:     time.Now(),
	}
	if s.Datasets == nil {
		s.Datasets = make(map[dataset.Role]*Dataset)
	}
	s.Datasets[role] = d
	s.UpdatedAt = time.Now()
	return d, nil
}

// RemoveDataset drops the file registered under role.
func (s *Study) RemoveDataset(role dataset.Role) bool {
	if _, ok := s.Datasets[role]; !ok {
		return false
	}
	delete(s.Datasets, role)
	s.UpdatedAt = time.Now()
	return true
}

// SetAlpha sets the study significance level; 0 restores the global default.
func (s *Study) SetAlpha(alpha float64) error {
	if alpha != 0 && (alpha <= 0 || alpha >= 1) {
		return eris.Errorf("alpha must be in (0, 1), got %g", alpha)
	}
	if s.Config == nil {
		s.Config = &StudyConfig{}
	}
	s.Config.Alpha = alpha
	s.UpdatedAt = time.Now()
	return nil
}

// Alpha returns the study alpha or fallback when none is set.
func (s *Study) Alpha(fallback float64) float64 {
	if s.Config != nil && s.Config.Alpha > 0 {
		return s.Config.Alpha
	}
	return fallback
}

// Paths returns the role → file mapping.
func (s *Study) Paths() map[dataset.Role]string {
	out := make(map[dataset.Role]string, len(s.Datasets))
	for r, d := range s.Datasets {
		out[r] = d.Path
	}
	return out
}

// Schema applies the study column overrides on top of base.
func (s *Study) Schema(base *dataset.Schema) (*dataset.Schema, error) {
	if base == nil {
		base = dataset.DefaultSchema()
	}
	if s.Config == nil || len(s.Config.Columns) == 0 {
		return base, nil
	}
	return base.WithOverrides(s.Config.Columns)
}

// Roles lists the registered roles in display order.
func (s *Study) Roles() []dataset.Role {
	var out []dataset.Role
	for _, r := range dataset.Roles() {
		if _, ok := s.Datasets[r]; ok {
			out = append(out, r)
		}
	}
	return out
}

// RecordRun appends a summary of out to the history, keeping the newest runs.
func (s *Study) RecordRun(out *pipeline.Outcome) RunRecord {
	rec := RunRecord{ID: out.RunID, At: time.Now(), Alpha: out.Alpha, Rejected: []string{}}
	for _, v := range out.Verdicts {
		if v.Evaluated && v.Reject {
			rec.Rejected = append(rec.Rejected, v.HypothesisID)
		}
	}
	for _, m := range out.Failed() {
		rec.Failed = append(rec.Failed, m.ID)
	}
	sort.Strings(rec.Failed)
	s.Runs = append(s.Runs, rec)
	if len(s.Runs) > maxRuns {
		s.Runs = s.Runs[len(s.Runs)-maxRuns:]
	}
	s.UpdatedAt = time.Now()
	return rec
}

// Find locates the study for name. A name containing a path separator, or an
// existing directory holding study.json, is used as is; otherwise the study
// lives under studiesDir. An empty name searches upward from the working
// directory.
func Find(name, studiesDir string) (string, error) {
	if name == "" {
		return utils.FindRoot("", FileName)
	}
	if _, err := os.Stat(filepath.Join(name, FileName)); err == nil {
		return name, nil
	}
	if filepath.Base(name) != name {
		return name, nil
	}
	return filepath.Join(studiesDir, name), nil
}
