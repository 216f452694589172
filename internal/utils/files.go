package utils

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// ErrNoStudyRoot is returned when no parent directory holds a study file.
var ErrNoStudyRoot = errors.New("study root not found")

// EnsureDir ensures the provided directory exists.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// SafeWriteFile writes data to a temp file and atomically renames it into place.
func SafeWriteFile(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return eris.Wrap(err, "write temp file")
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return eris.Wrap(err, "atomic rename")
	}
	return nil
}

// PrettyJSON marshals a value as indented JSON.
func PrettyJSON(v any) ([]byte, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, eris.Wrap(err, "marshal json")
	}
	return b, nil
}

// FindRoot walks up from start looking for a directory containing marker.
// If start is a file, it begins from its directory; an empty start means the
// working directory.
func FindRoot(start, marker string) (string, error) {
	if start == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		start = wd
	}
	info, err := os.Stat(start)
	if err != nil {
		return "", err
	}
	dir := start
	if !info.IsDir() {
		dir = filepath.Dir(start)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", eris.Wrapf(ErrNoStudyRoot, "no %s above %s", marker, start)
}
