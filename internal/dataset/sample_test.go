package dataset

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleTables_Deterministic(t *testing.T) {
	a, err := SampleTables(50, 42)
	require.NoError(t, err)
	b, err := SampleTables(50, 42)
	require.NoError(t, err)

	require.Len(t, a, len(Roles()))
	for _, r := range Roles() {
		require.Contains(t, a, r)
		assert.Equal(t, 50, a[r].Rows())
		assert.Equal(t, a[r].Head(50), b[r].Head(50), "role %s", r)
	}

	c, err := a[RoleMerged].Column("BMI Category Code")
	require.NoError(t, err)
	assert.Equal(t, KindOrdinal, c.Kind)
	for _, r := range Roles() {
		assert.NoError(t, DefaultSchema().Validate(a[r], r.Fields()...), "role %s", r)
	}
	assert.Error(t, DefaultSchema().Validate(a[RoleCleaned], RoleMerged.Fields()...))
}

func TestWriteCSVAndXLSX_LoadBack(t *testing.T) {
	tables, err := SampleTables(30, 1)
	require.NoError(t, err)
	src := tables[RoleSleepProductivity]
	dir := t.TempDir()

	for _, path := range []string{filepath.Join(dir, "sp.csv"), filepath.Join(dir, "sp.xlsx")} {
		if filepath.Ext(path) == ".csv" {
			require.NoError(t, WriteCSV(src, path))
		} else {
			require.NoError(t, WriteXLSX(src, path))
		}
		back, err := LoadFile(path, DefaultLoadOptions())
		require.NoError(t, err, path)
		assert.Equal(t, src.Rows(), back.Rows())
		assert.Equal(t, src.Columns(), back.Columns())

		caf, err := back.Column("Caffeine Intake (mg)")
		require.NoError(t, err)
		assert.Equal(t, KindNumeric, caf.Kind)
		assert.Equal(t, "mg", caf.Unit)
		want, _ := src.Column("Caffeine Intake (mg)")
		assert.Equal(t, want.Floats(), caf.Floats())

		g, err := back.Column("Gender")
		require.NoError(t, err)
		assert.Equal(t, KindCategorical, g.Kind)
	}
}
