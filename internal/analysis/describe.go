// Package analysis computes the exploratory statistics shown next to the
// regression results: column summaries, distributions, box plot statistics,
// correlations and scatter/fit data.
package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/KaramelBytes/sleepstat-cli/internal/dataset"
)

// Options controls Describe.
type Options struct {
	// SampleRows determines how many example rows to include in the report (0 disables).
	SampleRows int
	// GroupBy computes per-group summaries for the given column names.
	GroupBy []string
	// Correlations computes Pearson correlations among numeric columns.
	Correlations bool
	// Outlier detection via robust Z-score (MAD). If Outliers is true, counts |z|>threshold.
	Outliers         bool
	OutlierThreshold float64
	// TopValues caps the listed categories per categorical column.
	TopValues int
}

// DefaultOptions returns reasonable defaults for dataset analysis.
func DefaultOptions() Options {
	return Options{SampleRows: 5, Correlations: true, Outliers: true, OutlierThreshold: 3.5, TopValues: 8}
}

// Report is a markdown-friendly description of one table.
type Report struct {
	Name     string          `json:"name" yaml:"name"`
	Rows     int             `json:"rows" yaml:"rows"`
	Cols     []ColumnSummary `json:"columns" yaml:"columns"`
	Header   []string        `json:"header,omitempty" yaml:"header,omitempty"`
	Samples  [][]string      `json:"samples,omitempty" yaml:"samples,omitempty"`
	Warnings []string        `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Groups   []GroupResult   `json:"groups,omitempty" yaml:"groups,omitempty"`
	Corr     *CorrMatrix     `json:"correlations,omitempty" yaml:"correlations,omitempty"`
}

// ColumnSummary captures the kind and statistics of one column. Numeric
// fields follow the count/mean/std/min/25%/50%/75%/max convention.
type ColumnSummary struct {
	Name    string       `json:"name" yaml:"name"`
	Kind    dataset.Kind `json:"kind" yaml:"kind"`
	Unit    string       `json:"unit,omitempty" yaml:"unit,omitempty"`
	NonNull int          `json:"non_null" yaml:"non_null"`
	Missing int          `json:"missing" yaml:"missing"`
	Unique  int          `json:"unique" yaml:"unique"`

	Mean   float64 `json:"mean" yaml:"mean"`
	Std    float64 `json:"std" yaml:"std"`
	Min    float64 `json:"min" yaml:"min"`
	Q1     float64 `json:"q1" yaml:"q1"`
	Median float64 `json:"median" yaml:"median"`
	Q3     float64 `json:"q3" yaml:"q3"`
	Max    float64 `json:"max" yaml:"max"`

	OutliersCount    int     `json:"outliers,omitempty" yaml:"outliers,omitempty"`
	OutliersMaxAbsZ  float64 `json:"outliers_max_abs_z,omitempty" yaml:"outliers_max_abs_z,omitempty"`
	OutlierThreshold float64 `json:"outlier_threshold,omitempty" yaml:"outlier_threshold,omitempty"`

	TopValues []CategoryCount `json:"top_values,omitempty" yaml:"top_values,omitempty"`
}

// CategoryCount is one categorical value and its frequency.
type CategoryCount struct {
	Value string `json:"value" yaml:"value"`
	Count int    `json:"count" yaml:"count"`
}

// GroupResult captures aggregated metrics per group key.
type GroupResult struct {
	Key     string                `json:"key" yaml:"key"`
	Size    int                   `json:"size" yaml:"size"`
	Metrics map[string]NumSummary `json:"metrics" yaml:"metrics"`
}

type NumSummary struct {
	Count          int
	Min, Max, Mean float64
}

// Describe summarises every column of t.
func Describe(t *dataset.Table, opt Options) *Report {
	rep := &Report{Name: t.Name(), Rows: t.Rows(), Header: t.Columns()}
	if opt.SampleRows > 0 {
		rep.Samples = t.Head(opt.SampleRows)
	}

	for _, name := range t.Columns() {
		c, _ := t.Column(name)
		s := ColumnSummary{Name: c.Name, Kind: c.Kind, Unit: c.Unit, Missing: c.Missing()}
		s.NonNull = c.Len() - s.Missing
		if c.Kind.IsNumeric() {
			summarizeNumeric(&s, present(c), opt)
		} else {
			summarizeCategorical(&s, c, opt)
		}
		switch {
		case s.NonNull == 0:
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("column %q has no values", s.Name))
		case s.Unique == 1:
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("column %q is constant", s.Name))
		}
		rep.Cols = append(rep.Cols, s)
	}

	if len(opt.GroupBy) > 0 {
		groups, warn := groupBy(t, opt.GroupBy)
		rep.Groups = groups
		rep.Warnings = append(rep.Warnings, warn...)
	}
	if opt.Correlations {
		var names []string
		for _, c := range t.NumericColumns() {
			names = append(names, c.Name)
		}
		if len(names) >= 2 {
			rep.Corr, _ = Correlation(t, names...)
		}
	}
	return rep
}

// present returns the non-missing values of a numeric column.
func present(c *dataset.Column) []float64 {
	vals := c.Floats()
	out := vals[:0]
	for _, v := range vals {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

func summarizeNumeric(s *ColumnSummary, vals []float64, opt Options) {
	nan := math.NaN()
	s.Mean, s.Std, s.Min, s.Q1, s.Median, s.Q3, s.Max = nan, nan, nan, nan, nan, nan, nan
	if len(vals) == 0 {
		return
	}
	data := stats.Float64Data(vals)
	s.Mean, _ = data.Mean()
	if len(vals) > 1 {
		s.Std, _ = data.StandardDeviationSample()
	}
	s.Min, _ = data.Min()
	s.Max, _ = data.Max()

	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	s.Q1 = quantile(sorted, 0.25)
	s.Median = quantile(sorted, 0.5)
	s.Q3 = quantile(sorted, 0.75)

	uniq := map[float64]struct{}{}
	for _, v := range vals {
		uniq[v] = struct{}{}
	}
	s.Unique = len(uniq)

	if opt.Outliers && len(vals) >= 8 {
		thr := opt.OutlierThreshold
		if thr <= 0 {
			thr = 3.5
		}
		median, mad := medianMAD(vals)
		var cnt int
		maxAbsZ := 0.0
		if mad > 0 {
			for _, v := range vals {
				az := math.Abs(0.6745 * (v - median) / mad)
				if az > thr {
					cnt++
				}
				if az > maxAbsZ {
					maxAbsZ = az
				}
			}
		}
		s.OutliersCount = cnt
		s.OutliersMaxAbsZ = maxAbsZ
		s.OutlierThreshold = thr
	}
}

func summarizeCategorical(s *ColumnSummary, c *dataset.Column, opt Options) {
	s.Mean, s.Std, s.Min, s.Q1, s.Median, s.Q3, s.Max = math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN()
	counts := map[string]int{}
	for i := 0; i < c.Len(); i++ {
		if !c.IsMissing(i) {
			counts[c.Text(i)]++
		}
	}
	s.Unique = len(counts)
	tops := make([]CategoryCount, 0, len(counts))
	for k, v := range counts {
		tops = append(tops, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	limit := opt.TopValues
	if limit <= 0 {
		limit = 8
	}
	if len(tops) > limit {
		tops = tops[:limit]
	}
	s.TopValues = tops
}

func groupBy(t *dataset.Table, names []string) ([]GroupResult, []string) {
	var keyCols []*dataset.Column
	var warn []string
	for _, n := range names {
		c, err := t.Column(strings.TrimSpace(n))
		if err != nil {
			warn = append(warn, fmt.Sprintf("group-by column %q not found", n))
			continue
		}
		keyCols = append(keyCols, c)
	}
	if len(keyCols) == 0 {
		return nil, warn
	}

	type gAcc struct {
		size int
		vals map[string][]float64
	}
	groups := map[string]*gAcc{}
	numeric := t.NumericColumns()
	for i := 0; i < t.Rows(); i++ {
		parts := make([]string, len(keyCols))
		for j, c := range keyCols {
			parts[j] = fmt.Sprintf("%s=%s", c.Name, safeVal(c.Text(i)))
		}
		key := strings.Join(parts, " | ")
		ga := groups[key]
		if ga == nil {
			ga = &gAcc{vals: map[string][]float64{}}
			groups[key] = ga
		}
		ga.size++
		for _, c := range numeric {
			if v := c.Float(i); !math.IsNaN(v) {
				ga.vals[c.Name] = append(ga.vals[c.Name], v)
			}
		}
	}

	out := make([]GroupResult, 0, len(groups))
	for k, ga := range groups {
		gr := GroupResult{Key: k, Size: ga.size, Metrics: map[string]NumSummary{}}
		for name, vals := range ga.vals {
			data := stats.Float64Data(vals)
			ns := NumSummary{Count: len(vals)}
			ns.Min, _ = data.Min()
			ns.Max, _ = data.Max()
			ns.Mean, _ = data.Mean()
			gr.Metrics[name] = ns
		}
		out = append(out, gr)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Size == out[j].Size {
			return out[i].Key < out[j].Key
		}
		return out[i].Size > out[j].Size
	})
	if len(out) > 20 {
		out = out[:20]
	}
	return out, warn
}

// medianMAD computes median and MAD (median absolute deviation) of values.
func medianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	cp := append([]float64(nil), vals...)
	sort.Float64s(cp)
	median = quantile(cp, 0.5)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	mad = quantile(dev, 0.5)
	return
}

// quantile interpolates linearly between the two nearest ranks of a sorted
// slice, the same convention pandas uses for describe().
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
