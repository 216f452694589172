package dataset

import "fmt"

// MissingColumnError indicates a named column is absent from a dataset.
type MissingColumnError struct {
	Dataset string
	Column  string
}

func (e *MissingColumnError) Error() string {
	if e.Dataset == "" {
		return fmt.Sprintf("missing column %q", e.Column)
	}
	return fmt.Sprintf("missing column %q in dataset %q", e.Column, e.Dataset)
}

// ColumnKindError indicates a column exists but has the wrong semantic type.
type ColumnKindError struct {
	Dataset string
	Column  string
	Want    Kind
	Got     Kind
}

func (e *ColumnKindError) Error() string {
	return fmt.Sprintf("column %q in dataset %q is %s, want %s", e.Column, e.Dataset, e.Got, e.Want)
}
