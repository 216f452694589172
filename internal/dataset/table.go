package dataset

import (
	"math"
	"strconv"

	"github.com/rotisserie/eris"
)

// Kind is the semantic type of a column.
type Kind string

const (
	KindNumeric     Kind = "numeric"
	KindCategorical Kind = "categorical"
	// KindOrdinal is a numeric code standing in for an ordered category
	// (e.g. a BMI category code). It behaves as numeric in models.
	KindOrdinal Kind = "ordinal"
)

// IsNumeric reports whether values of this kind are stored as floats.
func (k Kind) IsNumeric() bool { return k == KindNumeric || k == KindOrdinal }

// Column is a single named, typed column. Numeric and ordinal columns store
// floats with NaN for missing entries; categorical columns store strings with
// "" for missing entries. Columns are never modified after construction.
type Column struct {
	Name string
	Kind Kind
	Unit string

	nums []float64
	strs []string
}

// NewNumericColumn copies vals into a numeric column.
func NewNumericColumn(name string, vals []float64) *Column {
	cp := make([]float64, len(vals))
	copy(cp, vals)
	return &Column{Name: name, Kind: KindNumeric, nums: cp}
}

// NewOrdinalColumn copies vals into an ordinal code column.
func NewOrdinalColumn(name string, vals []float64) *Column {
	c := NewNumericColumn(name, vals)
	c.Kind = KindOrdinal
	return c
}

// NewCategoricalColumn copies vals into a categorical column.
func NewCategoricalColumn(name string, vals []string) *Column {
	cp := make([]string, len(vals))
	copy(cp, vals)
	return &Column{Name: name, Kind: KindCategorical, strs: cp}
}

// Len returns the number of rows in the column.
func (c *Column) Len() int {
	if c.Kind.IsNumeric() {
		return len(c.nums)
	}
	return len(c.strs)
}

// Floats returns a copy of the numeric values. It returns nil for categorical columns.
func (c *Column) Floats() []float64 {
	if !c.Kind.IsNumeric() {
		return nil
	}
	cp := make([]float64, len(c.nums))
	copy(cp, c.nums)
	return cp
}

// Float returns the numeric value at row i (NaN for categorical columns).
func (c *Column) Float(i int) float64 {
	if !c.Kind.IsNumeric() {
		return math.NaN()
	}
	return c.nums[i]
}

// Text returns the value at row i as display text; missing values are "".
func (c *Column) Text(i int) string {
	if c.Kind.IsNumeric() {
		v := c.nums[i]
		if math.IsNaN(v) {
			return ""
		}
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return c.strs[i]
}

// Texts returns every value as display text.
func (c *Column) Texts() []string {
	out := make([]string, c.Len())
	for i := range out {
		out[i] = c.Text(i)
	}
	return out
}

// Missing counts missing entries.
func (c *Column) Missing() int {
	n := 0
	for i := 0; i < c.Len(); i++ {
		if c.IsMissing(i) {
			n++
		}
	}
	return n
}

// IsMissing reports whether row i holds no value.
func (c *Column) IsMissing(i int) bool {
	if c.Kind.IsNumeric() {
		return math.IsNaN(c.nums[i])
	}
	return c.strs[i] == ""
}

func (c *Column) withKind(k Kind) *Column {
	cp := *c
	cp.Kind = k
	return &cp
}

// Table is an immutable set of equally long named columns. Operations that
// add or retype columns return a new Table; column storage is shared.
type Table struct {
	name  string
	cols  []*Column
	index map[string]int
	rows  int
}

// NewTable builds a table from columns of equal length with unique names.
func NewTable(name string, cols ...*Column) (*Table, error) {
	t := &Table{name: name, index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if c == nil {
			return nil, eris.Errorf("dataset %q: column %d is nil", name, i)
		}
		if _, dup := t.index[c.Name]; dup {
			return nil, eris.Errorf("dataset %q: duplicate column %q", name, c.Name)
		}
		if i == 0 {
			t.rows = c.Len()
		} else if c.Len() != t.rows {
			return nil, eris.Errorf("dataset %q: column %q has %d rows, want %d", name, c.Name, c.Len(), t.rows)
		}
		t.index[c.Name] = i
		t.cols = append(t.cols, c)
	}
	return t, nil
}

// Name returns the dataset name (usually the file base name).
func (t *Table) Name() string { return t.name }

// Rows returns the number of observations.
func (t *Table) Rows() int { return t.rows }

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.Name
	}
	return out
}

// Has reports whether a column exists.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column looks up a column by name.
func (t *Table) Column(name string) (*Column, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, &MissingColumnError{Dataset: t.name, Column: name}
	}
	return t.cols[i], nil
}

// NumericColumn looks up a column and requires a numeric or ordinal kind.
func (t *Table) NumericColumn(name string) (*Column, error) {
	c, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	if !c.Kind.IsNumeric() {
		return nil, &ColumnKindError{Dataset: t.name, Column: name, Want: KindNumeric, Got: c.Kind}
	}
	return c, nil
}

// NumericColumns returns all numeric and ordinal columns in order.
func (t *Table) NumericColumns() []*Column {
	var out []*Column
	for _, c := range t.cols {
		if c.Kind.IsNumeric() {
			out = append(out, c)
		}
	}
	return out
}

// With returns a new table with col appended.
func (t *Table) With(col *Column) (*Table, error) {
	if t.Has(col.Name) {
		return nil, eris.Errorf("dataset %q: column %q already exists", t.name, col.Name)
	}
	if len(t.cols) > 0 && col.Len() != t.rows {
		return nil, eris.Errorf("dataset %q: column %q has %d rows, want %d", t.name, col.Name, col.Len(), t.rows)
	}
	cols := make([]*Column, len(t.cols), len(t.cols)+1)
	copy(cols, t.cols)
	return NewTable(t.name, append(cols, col)...)
}

// WithKind returns a new table in which the named column is retyped.
// Conversions between numeric and ordinal are allowed, as is turning a
// categorical column with no values at all into an all-missing numeric one.
func (t *Table) WithKind(name string, k Kind) (*Table, error) {
	c, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	if c.Kind == k {
		return t, nil
	}
	var retyped *Column
	switch {
	case c.Kind.IsNumeric() && k.IsNumeric():
		retyped = c.withKind(k)
	case !c.Kind.IsNumeric() && k.IsNumeric() && c.Missing() == c.Len():
		vals := make([]float64, c.Len())
		for i := range vals {
			vals[i] = math.NaN()
		}
		retyped = NewNumericColumn(c.Name, vals).withKind(k)
		retyped.Unit = c.Unit
	default:
		return nil, &ColumnKindError{Dataset: t.name, Column: name, Want: k, Got: c.Kind}
	}
	cols := make([]*Column, len(t.cols))
	copy(cols, t.cols)
	cols[t.index[name]] = retyped
	return NewTable(t.name, cols...)
}

// Head returns up to n rows as display text.
func (t *Table) Head(n int) [][]string {
	if n > t.rows {
		n = t.rows
	}
	out := make([][]string, 0, n)
	for i := 0; i < n; i++ {
		row := make([]string, len(t.cols))
		for j, c := range t.cols {
			row[j] = c.Text(i)
		}
		out = append(out, row)
	}
	return out
}
