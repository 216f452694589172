package analysis

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/sleepstat-cli/internal/dataset"
)

// maxDiscreteLevels is the largest number of distinct numeric values that
// are counted individually instead of binned.
const maxDiscreteLevels = 20

// Bin is one bar of a histogram. Percent is relative to the non-missing rows.
type Bin struct {
	Label   string  `json:"label" yaml:"label"`
	Lower   float64 `json:"lower,omitempty" yaml:"lower,omitempty"`
	Upper   float64 `json:"upper,omitempty" yaml:"upper,omitempty"`
	Count   int     `json:"count" yaml:"count"`
	Percent float64 `json:"percent" yaml:"percent"`
}

// Histogram is the data of a count plot with percentage annotations.
type Histogram struct {
	Column  string `json:"column" yaml:"column"`
	Total   int    `json:"total" yaml:"total"`
	Missing int    `json:"missing" yaml:"missing"`
	Bins    []Bin  `json:"bins" yaml:"bins"`
}

// NewHistogram counts the values of one column. Categorical columns and
// numeric columns with few distinct values get one bar per value; other
// numeric columns are binned with Sturges' rule.
func NewHistogram(t *dataset.Table, column string) (*Histogram, error) {
	c, err := t.Column(column)
	if err != nil {
		return nil, err
	}
	h := &Histogram{Column: column, Missing: c.Missing()}
	h.Total = c.Len() - h.Missing

	if !c.Kind.IsNumeric() {
		counts := map[string]int{}
		for i := 0; i < c.Len(); i++ {
			if !c.IsMissing(i) {
				counts[c.Text(i)]++
			}
		}
		labels := make([]string, 0, len(counts))
		for k := range counts {
			labels = append(labels, k)
		}
		sort.Strings(labels)
		for _, l := range labels {
			h.Bins = append(h.Bins, Bin{Label: l, Count: counts[l]})
		}
		h.percent()
		return h, nil
	}

	vals := present(c)
	counts := map[float64]int{}
	for _, v := range vals {
		counts[v]++
	}
	if len(counts) <= maxDiscreteLevels {
		levels := make([]float64, 0, len(counts))
		for v := range counts {
			levels = append(levels, v)
		}
		sort.Float64s(levels)
		for _, v := range levels {
			h.Bins = append(h.Bins, Bin{Label: strconv.FormatFloat(v, 'g', -1, 64), Lower: v, Upper: v, Count: counts[v]})
		}
		h.percent()
		return h, nil
	}

	sort.Float64s(vals)
	lo, hi := vals[0], vals[len(vals)-1]
	k := int(math.Ceil(math.Log2(float64(len(vals))))) + 1
	width := (hi - lo) / float64(k)
	for i := 0; i < k; i++ {
		a := lo + float64(i)*width
		b := a + width
		if i == k-1 {
			b = hi
		}
		h.Bins = append(h.Bins, Bin{Label: fmt.Sprintf("[%.4g, %.4g%s", a, b, closing(i == k-1)), Lower: a, Upper: b})
	}
	for _, v := range vals {
		i := int((v - lo) / width)
		if i >= k {
			i = k - 1
		}
		h.Bins[i].Count++
	}
	h.percent()
	return h, nil
}

func closing(last bool) string {
	if last {
		return "]"
	}
	return ")"
}

func (h *Histogram) percent() {
	if h.Total == 0 {
		return
	}
	for i := range h.Bins {
		h.Bins[i].Percent = 100 * float64(h.Bins[i].Count) / float64(h.Total)
	}
}

// BoxStats is the data of a box plot: quartiles, whiskers at the most
// extreme values within 1.5 IQR of the box, and the points beyond them.
type BoxStats struct {
	Column       string    `json:"column" yaml:"column"`
	N            int       `json:"n" yaml:"n"`
	Min          float64   `json:"min" yaml:"min"`
	Q1           float64   `json:"q1" yaml:"q1"`
	Median       float64   `json:"median" yaml:"median"`
	Q3           float64   `json:"q3" yaml:"q3"`
	Max          float64   `json:"max" yaml:"max"`
	IQR          float64   `json:"iqr" yaml:"iqr"`
	LowerWhisker float64   `json:"lower_whisker" yaml:"lower_whisker"`
	UpperWhisker float64   `json:"upper_whisker" yaml:"upper_whisker"`
	Outliers     []float64 `json:"outliers,omitempty" yaml:"outliers,omitempty"`
}

// NewBoxStats computes box plot statistics for a numeric column.
func NewBoxStats(t *dataset.Table, column string) (*BoxStats, error) {
	c, err := t.NumericColumn(column)
	if err != nil {
		return nil, err
	}
	vals := present(c)
	if len(vals) == 0 {
		return nil, eris.Errorf("column %q has no values", column)
	}
	sort.Float64s(vals)
	b := &BoxStats{
		Column: column,
		N:      len(vals),
		Min:    vals[0],
		Q1:     quantile(vals, 0.25),
		Median: quantile(vals, 0.5),
		Q3:     quantile(vals, 0.75),
		Max:    vals[len(vals)-1],
	}
	b.IQR = b.Q3 - b.Q1
	loFence, hiFence := b.Q1-1.5*b.IQR, b.Q3+1.5*b.IQR
	b.LowerWhisker, b.UpperWhisker = b.Q1, b.Q3
	for _, v := range vals {
		if v < loFence || v > hiFence {
			b.Outliers = append(b.Outliers, v)
			continue
		}
		if v < b.LowerWhisker {
			b.LowerWhisker = v
		}
		if v > b.UpperWhisker {
			b.UpperWhisker = v
		}
	}
	return b, nil
}

// Point is one observation of a scatter plot.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// RegPlot is the data of a scatter plot with a least-squares line.
type RegPlot struct {
	Dataset   string  `json:"dataset" yaml:"dataset"`
	X         string  `json:"x" yaml:"x"`
	Y         string  `json:"y" yaml:"y"`
	N         int     `json:"n" yaml:"n"`
	Intercept float64 `json:"intercept" yaml:"intercept"`
	Slope     float64 `json:"slope" yaml:"slope"`
	R         float64 `json:"r" yaml:"r"`
	Points    []Point `json:"points,omitempty" yaml:"points,omitempty"`
}

// NewRegPlot pairs the complete rows of x and y and fits y = a + b·x.
func NewRegPlot(t *dataset.Table, x, y string) (*RegPlot, error) {
	cx, err := t.NumericColumn(x)
	if err != nil {
		return nil, err
	}
	cy, err := t.NumericColumn(y)
	if err != nil {
		return nil, err
	}
	xs, ys := completePairs(cx, cy)
	p := &RegPlot{Dataset: t.Name(), X: x, Y: y, N: len(xs), Intercept: math.NaN(), Slope: math.NaN(), R: math.NaN()}
	p.Points = make([]Point, len(xs))
	for i := range xs {
		p.Points[i] = Point{X: xs[i], Y: ys[i]}
	}
	if len(xs) >= 2 {
		p.Intercept, p.Slope = stat.LinearRegression(xs, ys, nil, false)
		p.R = stat.Correlation(xs, ys, nil)
	}
	return p, nil
}
