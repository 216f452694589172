package study

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/sleepstat-cli/internal/dataset"
	"github.com/KaramelBytes/sleepstat-cli/internal/hypothesis"
	"github.com/KaramelBytes/sleepstat-cli/internal/pipeline"
)

func TestStudy_AddSaveLoad(t *testing.T) {
	dir := t.TempDir()
	tables, err := dataset.SampleTables(40, 3)
	require.NoError(t, err)
	csvPath := filepath.Join(dir, "merged.csv")
	require.NoError(t, dataset.WriteCSV(tables[dataset.RoleMerged], csvPath))

	s := New("sleep", "pilot", filepath.Join(dir, "study"))
	d, err := s.AddDataset(dataset.RoleMerged, csvPath, "merged survey", nil, dataset.DefaultLoadOptions())
	require.NoError(t, err)
	assert.Equal(t, 40, d.Rows)
	assert.NotEmpty(t, d.ID)
	assert.Contains(t, d.Columns, "Sleep Quality")
	assert.Empty(t, d.Problems)
	require.NoError(t, s.SetAlpha(0.01))
	require.NoError(t, s.Save())

	back, err := Load(s.RootDir())
	require.NoError(t, err)
	assert.Equal(t, "sleep", back.Name)
	assert.Equal(t, []dataset.Role{dataset.RoleMerged}, back.Roles())
	assert.Equal(t, map[dataset.Role]string{dataset.RoleMerged: csvPath}, back.Paths())
	assert.Equal(t, 0.01, back.Alpha(0.05))

	assert.True(t, back.RemoveDataset(dataset.RoleMerged))
	assert.False(t, back.RemoveDataset(dataset.RoleMerged))
}

func TestStudy_AddDatasetRecordsSchemaProblems(t *testing.T) {
	dir := t.TempDir()
	tables, err := dataset.SampleTables(40, 3)
	require.NoError(t, err)
	csvPath := filepath.Join(dir, "health.csv")
	// sleep_health has no caffeine or productivity columns.
	require.NoError(t, dataset.WriteCSV(tables[dataset.RoleSleepHealth], csvPath))

	s := New("x", "", filepath.Join(dir, "study"))
	d, err := s.AddDataset(dataset.RoleSleepHealth, csvPath, "", nil, dataset.DefaultLoadOptions())
	require.NoError(t, err)
	assert.Empty(t, d.Problems)

	d, err = s.AddDataset(dataset.RoleMerged, csvPath, "", nil, dataset.DefaultLoadOptions())
	require.NoError(t, err)
	require.NotEmpty(t, d.Problems)
	assert.Contains(t, strings.Join(d.Problems, "\n"), "Caffeine Intake (mg)")
}

func TestStudy_AddDatasetRejectsUnreadableFile(t *testing.T) {
	s := New("x", "", t.TempDir())
	_, err := s.AddDataset(dataset.RoleCleaned, filepath.Join(t.TempDir(), "notes.txt"), "", nil, dataset.DefaultLoadOptions())
	assert.Error(t, err)
	assert.Empty(t, s.Datasets)
}

func TestStudy_SetAlpha(t *testing.T) {
	s := New("x", "", t.TempDir())
	assert.Error(t, s.SetAlpha(1.5))
	assert.Error(t, s.SetAlpha(-0.1))
	require.NoError(t, s.SetAlpha(0.1))
	assert.Equal(t, 0.1, s.Alpha(0.05))
	require.NoError(t, s.SetAlpha(0))
	assert.Equal(t, 0.05, s.Alpha(0.05))
}

func TestStudy_SchemaOverrides(t *testing.T) {
	s := New("x", "", t.TempDir())
	schema, err := s.Schema(nil)
	require.NoError(t, err)
	assert.Equal(t, "Stress Level", schema.Column(dataset.FieldStress))

	s.Config.Columns = map[string]string{"stress_level": "Stress"}
	schema, err = s.Schema(nil)
	require.NoError(t, err)
	assert.Equal(t, "Stress", schema.Column(dataset.FieldStress))
}

func TestStudy_RecordRun(t *testing.T) {
	tables, err := dataset.SampleTables(400, 7)
	require.NoError(t, err)
	delete(tables, dataset.RoleCleaned)
	out, err := pipeline.Run(context.Background(), dataset.StaticProvider(tables), nil, nil, pipeline.Options{})
	require.NoError(t, err)

	s := New("x", "", t.TempDir())
	for i := 0; i < maxRuns+3; i++ {
		s.RecordRun(out)
	}
	assert.Len(t, s.Runs, maxRuns)
	rec := s.Runs[len(s.Runs)-1]
	assert.Equal(t, out.RunID, rec.ID)
	assert.Contains(t, rec.Rejected, "H1")
	assert.Contains(t, rec.Rejected, "H8")
	assert.Equal(t, []string{hypothesis.ModelSleepJointCleaned}, rec.Failed)
}

func TestFind(t *testing.T) {
	studies := t.TempDir()
	got, err := Find("pilot", studies)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(studies, "pilot"), got)

	s := New("local", "", filepath.Join(t.TempDir(), "local"))
	require.NoError(t, s.Save())
	got, err = Find(s.RootDir(), studies)
	require.NoError(t, err)
	assert.Equal(t, s.RootDir(), got)
}
