package dataset

import (
	"encoding/csv"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// LoadOptions controls how tabular files are read.
type LoadOptions struct {
	// Delimiter for CSV. If 0, picks '\t' for .tsv files and ',' otherwise.
	Delimiter rune
	// Numeric parsing locale. If DecimalSeparator is 0, auto-detect per value.
	DecimalSeparator   rune
	ThousandsSeparator rune
	// XLSX sheet selection: SheetName wins over the 1-based SheetIndex.
	SheetName  string
	SheetIndex int
	// MaxRows limits rows read; 0 means unlimited.
	MaxRows int
	// MissingTokens are cell values treated as missing, compared case-insensitively.
	MissingTokens []string
}

// DefaultLoadOptions returns options suitable for the sleep datasets.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		DecimalSeparator: '.',
		SheetIndex:       1,
		MissingTokens:    []string{"", "na", "n/a", "nan", "null", "none"},
	}
}

// Loader reads one file format into a Table.
type Loader interface {
	CanLoad(path string) bool
	Load(path string, opt LoadOptions) (*Table, error)
}

var registry []Loader

// Register adds a loader implementation to the registry.
func Register(l Loader) {
	registry = append(registry, l)
}

// ErrUnsupported indicates no registered loader accepts the file.
var ErrUnsupported = errors.New("unsupported dataset format")

// LoadFile selects a loader based on the file name and reads the table.
func LoadFile(path string, opt LoadOptions) (*Table, error) {
	for _, l := range registry {
		if l.CanLoad(path) {
			t, err := l.Load(path, opt)
			if err != nil {
				return nil, err
			}
			zap.L().Debug("dataset loaded",
				zap.String("path", path),
				zap.Int("rows", t.Rows()),
				zap.Int("columns", len(t.Columns())),
			)
			return t, nil
		}
	}
	return nil, eris.Wrapf(ErrUnsupported, "load %s", filepath.Base(path))
}

func init() {
	Register(csvLoader{})
	Register(xlsxLoader{})
}

type csvLoader struct{}

func (csvLoader) CanLoad(path string) bool {
	name := strings.ToLower(path)
	return strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".tsv")
}

func (csvLoader) Load(path string, opt LoadOptions) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "open csv")
	}
	defer f.Close()

	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path)
	}
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.Comma = delim

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return NewTable(filepath.Base(path))
		}
		return nil, eris.Wrap(err, "read header")
	}
	var records [][]string
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, eris.Wrapf(err, "read row %d", len(records)+1)
		}
		records = append(records, rec)
		if opt.MaxRows > 0 && len(records) >= opt.MaxRows {
			break
		}
	}
	return buildTable(filepath.Base(path), header, records, opt)
}

type xlsxLoader struct{}

func (xlsxLoader) CanLoad(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".xlsx")
}

func (xlsxLoader) Load(path string, opt LoadOptions) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "open xlsx")
	}
	defer f.Close()

	sheet := opt.SheetName
	if sheet == "" {
		sheets := f.GetSheetList()
		idx := opt.SheetIndex
		if idx <= 0 {
			idx = 1
		}
		if idx > len(sheets) {
			return nil, eris.Errorf("xlsx: sheet index %d out of range (file has %d sheets)", idx, len(sheets))
		}
		sheet = sheets[idx-1]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, eris.Wrapf(err, "xlsx: read sheet %q", sheet)
	}
	if len(rows) == 0 {
		return NewTable(filepath.Base(path))
	}
	records := rows[1:]
	if opt.MaxRows > 0 && len(records) > opt.MaxRows {
		records = records[:opt.MaxRows]
	}
	return buildTable(filepath.Base(path), rows[0], records, opt)
}

// buildTable infers a kind per column: numeric when every present cell
// parses as a number, categorical otherwise.
func buildTable(name string, header []string, records [][]string, opt LoadOptions) (*Table, error) {
	missing := make(map[string]struct{}, len(opt.MissingTokens))
	for _, tok := range opt.MissingTokens {
		missing[strings.ToLower(strings.TrimSpace(tok))] = struct{}{}
	}
	isMissing := func(v string) bool {
		if v == "" {
			return true
		}
		_, ok := missing[strings.ToLower(v)]
		return ok
	}

	cols := make([]*Column, 0, len(header))
	seen := make(map[string]int, len(header))
	for j, h := range header {
		colName := strings.TrimSpace(h)
		if colName == "" {
			colName = "column_" + strconv.Itoa(j+1)
		}
		if n := seen[colName]; n > 0 {
			seen[colName]++
			colName = colName + "." + strconv.Itoa(n)
		} else {
			seen[colName] = 1
		}

		raw := make([]string, len(records))
		numeric := true
		present := 0
		for i, rec := range records {
			if j < len(rec) {
				raw[i] = strings.TrimSpace(rec[j])
			}
			if isMissing(raw[i]) {
				raw[i] = ""
				continue
			}
			present++
			if numeric {
				if _, ok := parseNumeric(raw[i], opt); !ok {
					numeric = false
				}
			}
		}

		var c *Column
		if numeric && present > 0 {
			vals := make([]float64, len(raw))
			for i, v := range raw {
				if v == "" {
					vals[i] = math.NaN()
					continue
				}
				vals[i], _ = parseNumeric(v, opt)
			}
			c = NewNumericColumn(colName, vals)
		} else {
			c = NewCategoricalColumn(colName, raw)
		}
		_, c.Unit = splitUnits(colName)
		cols = append(cols, c)
	}
	t, err := NewTable(name, cols...)
	if err != nil {
		return nil, eris.Wrap(err, "build table")
	}
	return t, nil
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}

func parseNumeric(s string, opt LoadOptions) (float64, bool) {
	raw := strings.TrimSpace(strings.ReplaceAll(s, "\u00A0", " "))
	dec := opt.DecimalSeparator
	thou := opt.ThousandsSeparator
	if dec == 0 {
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		switch {
		case cpos >= 0 && dpos >= 0 && cpos > dpos:
			dec, thou = ',', '.'
		case cpos >= 0 && dpos >= 0:
			dec, thou = '.', ','
		case cpos >= 0:
			dec = ','
		default:
			dec = '.'
		}
	}
	if thou == 0 {
		for _, sep := range []rune{',', '.', ' '} {
			if sep != dec {
				raw = strings.ReplaceAll(raw, string(sep), "")
			}
		}
	} else if thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

var unitPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(.*)\s*\(([^)]+)\)\s*$`),  // Caffeine Intake (mg)
	regexp.MustCompile(`^(.*)\s*\[([^\]]+)\]\s*$`), // Mass [mg/L]
}

// splitUnits separates a trailing unit annotation from a header.
func splitUnits(name string) (clean string, unit string) {
	s := strings.TrimSpace(name)
	for _, re := range unitPatterns {
		if m := re.FindStringSubmatch(s); len(m) >= 3 {
			base := strings.TrimSpace(m[1])
			u := strings.TrimSpace(m[2])
			if base != "" && u != "" {
				return base, u
			}
		}
	}
	return s, ""
}
