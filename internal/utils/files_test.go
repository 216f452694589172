package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeWriteFile_ReplacesContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "study.json")
	require.NoError(t, SafeWriteFile(path, []byte("one")))
	require.NoError(t, SafeWriteFile(path, []byte("two")))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(b))
	assert.NoFileExists(t, path+".tmp")
}

func TestFindRoot(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "data", "raw")
	require.NoError(t, EnsureDir(nested))
	require.NoError(t, os.WriteFile(filepath.Join(root, "study.json"), []byte("{}"), 0o644))
	file := filepath.Join(nested, "merged.csv")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	got, err := FindRoot(file, "study.json")
	require.NoError(t, err)
	assert.Equal(t, root, got)

	_, err = FindRoot(nested, "missing.json")
	assert.ErrorIs(t, err, ErrNoStudyRoot)
}

func TestPrettyJSON(t *testing.T) {
	b, err := PrettyJSON(map[string]int{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1\n}", string(b))
}
