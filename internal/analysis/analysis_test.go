package analysis

import (
	"math"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/sleepstat-cli/internal/dataset"
)

func fixture(t *testing.T) *dataset.Table {
	t.Helper()
	nan := math.NaN()
	tb, err := dataset.NewTable("metrics.csv",
		dataset.NewCategoricalColumn("Group", []string{"A", "A", "A", "B", "B", "B", "A", "B", "A", "B"}),
		dataset.NewNumericColumn("Score", []float64{10, 11, 9.5, 10.5, 9.8, 10.2, 8.8, 9.7, 50, 10.1}),
		dataset.NewNumericColumn("Stress Level", []float64{1, 2, 3, 4, 5, 1, 2, 3, 4, nan}),
		dataset.NewNumericColumn("Sleep Quality", []float64{9, 8, 7, 6, 5, 9, 8, 7, 6, 7}),
		dataset.NewCategoricalColumn("Note", []string{"a", "b", "", "c", "d", "e", "f", "g", "h", "i"}),
	)
	require.NoError(t, err)
	return tb
}

func TestDescribe_NumericAndCategorical(t *testing.T) {
	opt := DefaultOptions()
	opt.SampleRows = 3
	opt.GroupBy = []string{"Group"}
	rep := Describe(fixture(t), opt)

	assert.Equal(t, "metrics.csv", rep.Name)
	assert.Equal(t, 10, rep.Rows)
	require.Len(t, rep.Samples, 3)
	assert.Equal(t, []string{"A", "10", "1", "9", "a"}, rep.Samples[0])

	stress := column(t, rep, "Stress Level")
	assert.Equal(t, 9, stress.NonNull)
	assert.Equal(t, 1, stress.Missing)
	assert.InDelta(t, 25.0/9, stress.Mean, 1e-9)
	assert.Equal(t, 1.0, stress.Min)
	assert.Equal(t, 2.0, stress.Q1)
	assert.Equal(t, 3.0, stress.Median)
	assert.Equal(t, 4.0, stress.Q3)
	assert.Equal(t, 5.0, stress.Max)
	assert.Equal(t, 5, stress.Unique)

	score := column(t, rep, "Score")
	assert.Equal(t, 1, score.OutliersCount, "50 is the only robust-z outlier")
	assert.Equal(t, 3.5, score.OutlierThreshold)

	group := column(t, rep, "Group")
	assert.Equal(t, dataset.KindCategorical, group.Kind)
	assert.Equal(t, 2, group.Unique)
	assert.Equal(t, []CategoryCount{{Value: "A", Count: 5}, {Value: "B", Count: 5}}, group.TopValues)
	assert.True(t, math.IsNaN(group.Mean))

	require.Len(t, rep.Groups, 2)
	assert.Equal(t, "Group=A", rep.Groups[0].Key)
	a := rep.Groups[0].Metrics["Score"]
	assert.Equal(t, 5, a.Count)
	assert.InDelta(t, (10+11+9.5+8.8+50)/5, a.Mean, 1e-9)

	require.NotNil(t, rep.Corr)
	assert.Equal(t, []string{"Score", "Stress Level", "Sleep Quality"}, rep.Corr.Columns)
}

func TestDescribe_Markdown(t *testing.T) {
	opt := DefaultOptions()
	opt.GroupBy = []string{"Group", "Nope"}
	md := Describe(fixture(t), opt).Markdown()
	for _, want := range []string{
		"[DATASET SUMMARY]", "File: metrics.csv", "Rows: 10",
		"[SCHEMA]", "- Stress Level: numeric (non-null 9, missing 10.0%)",
		"[SUMMARY STATISTICS]", "| column | count | mean | std | min | 25% | 50% | 75% | max |",
		"[GROUP-BY SUMMARY]", "Group=A (n=5)",
		"[CORRELATIONS]", "Stress Level ~ Sleep Quality: r=",
		"[HEAD AND SAMPLE ROWS]",
		"[NOTES]", `group-by column "Nope" not found`,
	} {
		assert.Contains(t, md, want)
	}
}

func TestCorrelation_PairwiseComplete(t *testing.T) {
	tb := fixture(t)
	m, err := Correlation(tb, "Stress Level", "Sleep Quality")
	require.NoError(t, err)

	// Row 10 has no stress value; the remaining nine rows are an exact line.
	r, err := m.At("Stress Level", "Sleep Quality")
	require.NoError(t, err)
	assert.InDelta(t, -1.0, r, 1e-9)
	assert.Equal(t, 9, m.N[0][1])
	assert.Equal(t, 1.0, m.Values[0][0])
	assert.Equal(t, m.Values[0][1], m.Values[1][0])

	_, err = Correlation(tb, "Group")
	var cke *dataset.ColumnKindError
	assert.ErrorAs(t, err, &cke)

	constant, err := dataset.NewTable("c",
		dataset.NewNumericColumn("a", []float64{1, 1, 1}),
		dataset.NewNumericColumn("b", []float64{1, 2, 3}),
	)
	require.NoError(t, err)
	m, err = Correlation(constant, "a", "b")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(m.Values[0][1]))
	assert.Empty(t, m.TopPairs(5))
}

func TestHistogram_PercentagesSumTo100(t *testing.T) {
	tb := fixture(t)
	h, err := NewHistogram(tb, "Stress Level")
	require.NoError(t, err)
	assert.Equal(t, 9, h.Total)
	assert.Equal(t, 1, h.Missing)
	require.Len(t, h.Bins, 5)
	assert.Equal(t, "1", h.Bins[0].Label)
	assert.Equal(t, 2, h.Bins[0].Count)

	var sum float64
	for _, b := range h.Bins {
		sum += b.Percent
	}
	assert.InDelta(t, 100, sum, 1e-9)

	h, err = NewHistogram(tb, "Group")
	require.NoError(t, err)
	assert.Equal(t, []Bin{{Label: "A", Count: 5, Percent: 50}, {Label: "B", Count: 5, Percent: 50}}, h.Bins)
	assert.Contains(t, h.Markdown(), "| A | 5 | 50.0% |")
}

func TestHistogram_BinsContinuousValues(t *testing.T) {
	vals := make([]float64, 64)
	for i := range vals {
		vals[i] = float64(i) * 1.5
	}
	tb, err := dataset.NewTable("t", dataset.NewNumericColumn("Daily Steps", vals))
	require.NoError(t, err)
	h, err := NewHistogram(tb, "Daily Steps")
	require.NoError(t, err)
	assert.Len(t, h.Bins, 7) // ceil(log2 64) + 1
	total := 0
	for _, b := range h.Bins {
		total += b.Count
	}
	assert.Equal(t, 64, total)
	assert.True(t, strings.HasSuffix(h.Bins[6].Label, "]"))
}

func TestBoxStats_WhiskersAndOutliers(t *testing.T) {
	b, err := NewBoxStats(fixture(t), "Score")
	require.NoError(t, err)
	assert.Equal(t, 10, b.N)
	assert.Equal(t, []float64{50}, b.Outliers)
	assert.Equal(t, 11.0, b.UpperWhisker)
	assert.Equal(t, 8.8, b.LowerWhisker)
	assert.InDelta(t, b.Q3-b.Q1, b.IQR, 1e-12)
	assert.Contains(t, b.Markdown(), "| Score | 10 |")

	_, err = NewBoxStats(fixture(t), "Group")
	assert.Error(t, err)
}

func TestRegPlot_FitsLine(t *testing.T) {
	p, err := NewRegPlot(fixture(t), "Stress Level", "Sleep Quality")
	require.NoError(t, err)
	assert.Equal(t, 9, p.N)
	assert.InDelta(t, -1.0, p.Slope, 1e-9)
	assert.InDelta(t, 10.0, p.Intercept, 1e-9)
	assert.InDelta(t, -1.0, p.R, 1e-9)
	assert.Len(t, p.Points, 9)
	assert.Contains(t, p.Markdown(), "Sleep Quality vs Stress Level")
}

func column(t *testing.T, rep *Report, name string) ColumnSummary {
	t.Helper()
	for _, c := range rep.Cols {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("column %q not found", name)
	return ColumnSummary{}
}

func TestDescribe_ZeroSampleRowsOmitsSamples(t *testing.T) {
	opt := DefaultOptions()
	opt.SampleRows = 0
	rep := Describe(fixture(t), opt)
	assert.Empty(t, rep.Samples)
	assert.NotContains(t, rep.Markdown(), "[HEAD AND SAMPLE ROWS]")
}

func TestTable_TruncatesOnRuneBoundaries(t *testing.T) {
	long := strings.Repeat("≈", 100)
	out := Table([]string{"label"}, [][]string{{long}, {"short"}})
	assert.True(t, utf8.ValidString(out))
	assert.Contains(t, out, strings.Repeat("≈", 77)+"...")
	assert.NotContains(t, out, strings.Repeat("≈", 78))
	assert.Contains(t, out, "| short |")
}
