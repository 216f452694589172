package analysis

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/sleepstat-cli/internal/dataset"
)

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
type CorrMatrix struct {
	Columns []string    `json:"columns" yaml:"columns"`
	Values  [][]float64 `json:"values" yaml:"values"` // row-major, Values[i][j]
	// N[i][j] is the number of rows where both columns are present.
	N [][]int `json:"n" yaml:"n"`
}

// PairCorr is a simple correlation pair summary.
type PairCorr struct {
	A, B string
	R    float64
}

// Correlation computes pairwise-complete Pearson correlations between the
// named numeric columns. Pairs with fewer than two shared rows or no variance
// are NaN.
func Correlation(t *dataset.Table, names ...string) (*CorrMatrix, error) {
	cols := make([]*dataset.Column, len(names))
	for i, n := range names {
		c, err := t.NumericColumn(n)
		if err != nil {
			return nil, err
		}
		cols[i] = c
	}
	k := len(cols)
	m := &CorrMatrix{Columns: append([]string(nil), names...), Values: make([][]float64, k), N: make([][]int, k)}
	for i := range m.Values {
		m.Values[i] = make([]float64, k)
		m.N[i] = make([]int, k)
	}
	for a := 0; a < k; a++ {
		for b := a; b < k; b++ {
			xs, ys := completePairs(cols[a], cols[b])
			r := math.NaN()
			if len(xs) >= 2 {
				r = stat.Correlation(xs, ys, nil)
				if r > 1 {
					r = 1
				} else if r < -1 {
					r = -1
				}
			}
			if a == b && len(xs) >= 2 && !math.IsNaN(r) {
				r = 1
			}
			m.Values[a][b], m.Values[b][a] = r, r
			m.N[a][b], m.N[b][a] = len(xs), len(xs)
		}
	}
	return m, nil
}

// At returns the correlation between two named columns.
func (m *CorrMatrix) At(a, b string) (float64, error) {
	ia, ib := -1, -1
	for i, c := range m.Columns {
		if c == a {
			ia = i
		}
		if c == b {
			ib = i
		}
	}
	if ia < 0 || ib < 0 {
		return math.NaN(), eris.Errorf("correlation between %q and %q not computed", a, b)
	}
	return m.Values[ia][ib], nil
}

// TopPairs lists off-diagonal pairs by descending |r|, skipping NaN.
func (m *CorrMatrix) TopPairs(limit int) []PairCorr {
	var pairs []PairCorr
	n := len(m.Columns)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if r := m.Values[i][j]; !math.IsNaN(r) {
				pairs = append(pairs, PairCorr{A: m.Columns[i], B: m.Columns[j], R: r})
			}
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		ai, aj := math.Abs(pairs[i].R), math.Abs(pairs[j].R)
		if ai == aj {
			return pairs[i].A+pairs[i].B < pairs[j].A+pairs[j].B
		}
		return ai > aj
	})
	if limit > 0 && len(pairs) > limit {
		pairs = pairs[:limit]
	}
	return pairs
}

func completePairs(x, y *dataset.Column) ([]float64, []float64) {
	xs := make([]float64, 0, x.Len())
	ys := make([]float64, 0, x.Len())
	for i := 0; i < x.Len(); i++ {
		a, b := x.Float(i), y.Float(i)
		if math.IsNaN(a) || math.IsNaN(b) {
			continue
		}
		xs = append(xs, a)
		ys = append(ys, b)
	}
	return xs, ys
}
