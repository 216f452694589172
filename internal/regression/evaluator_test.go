package regression

import (
	"errors"
	"math"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/sleepstat-cli/internal/dataset"
	"github.com/KaramelBytes/sleepstat-cli/internal/hypothesis"
)

func table(t *testing.T, cols map[string][]float64) *dataset.Table {
	t.Helper()
	var cs []*dataset.Column
	for _, name := range sortedKeys(cols) {
		cs = append(cs, dataset.NewNumericColumn(name, cols[name]))
	}
	tb, err := dataset.NewTable("fixture", cs...)
	require.NoError(t, err)
	return tb
}

func sortedKeys(m map[string][]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func spec(target string, preds ...string) hypothesis.ModelSpec {
	return hypothesis.ModelSpec{ID: "m", Title: "fixture", Dataset: dataset.RoleMerged, Target: target, Predictors: preds, Missing: hypothesis.MissingMean}
}

func TestFit_KnownSimpleRegression(t *testing.T) {
	tb := table(t, map[string][]float64{
		"x": {1, 2, 3, 4, 5},
		"y": {2, 4, 5, 4, 5},
	})
	res, err := NewEvaluator().Fit(tb, spec("y", "x"))
	require.NoError(t, err)

	require.Len(t, res.Terms, 2)
	assert.Equal(t, InterceptName, res.Terms[0].Name)
	assert.InDelta(t, 2.2, res.Terms[0].Coef, 1e-9)

	x, ok := res.Term("x")
	require.True(t, ok)
	assert.InDelta(t, 0.6, x.Coef, 1e-9)
	assert.InDelta(t, 0.282843, x.StdErr, 1e-5)
	assert.InDelta(t, 2.12132, x.TStat, 1e-4)
	assert.InDelta(t, 0.124, x.PValue, 1e-3)
	assert.Less(t, x.CILow, x.Coef)
	assert.Greater(t, x.CIHigh, x.Coef)

	assert.InDelta(t, 0.6, res.RSquared, 1e-9)
	assert.InDelta(t, 0.466667, res.AdjRSquared, 1e-5)
	assert.InDelta(t, 4.5, res.FStat, 1e-9)
	assert.InDelta(t, x.PValue, res.FPValue, 1e-9, "single-predictor F test matches the t test")
	assert.Equal(t, 5, res.Observations)
	assert.Equal(t, 1, res.DFModel)
	assert.Equal(t, 3, res.DFResid)
	assert.InDelta(t, 2.016667, res.Residuals.DurbinWatson, 1e-5)
	assert.InDelta(t, -0.8, res.Residuals.Min, 1e-9)
	assert.InDelta(t, 1.0, res.Residuals.Max, 1e-9)
	assert.Empty(t, res.Imputed)
	assert.Equal(t, "y ~ x", res.Formula)
}

func TestFit_PerfectNegativeFit(t *testing.T) {
	tb := table(t, map[string][]float64{
		"Stress Level":  {1, 2, 3, 4, 5},
		"Sleep Quality": {5, 4, 3, 2, 1},
	})
	res, err := NewEvaluator().Fit(tb, spec("Sleep Quality", "Stress Level"))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, res.RSquared, 1e-9)
	term, ok := res.Term("Stress Level")
	require.True(t, ok)
	assert.InDelta(t, -1.0, term.Coef, 1e-9)
	assert.Less(t, term.PValue, 1e-6)
}

func TestFit_CoefficientPerPredictorPlusIntercept(t *testing.T) {
	tb := table(t, map[string][]float64{
		"a": {1, 2, 3, 4, 5, 6, 7, 8},
		"b": {2, 1, 4, 3, 6, 5, 8, 9},
		"c": {0, 1, 0, 1, 1, 0, 1, 1},
		"y": {3, 4, 6, 7, 9, 9, 12, 14},
	})
	res, err := NewEvaluator().Fit(tb, spec("y", "c", "a", "b"))
	require.NoError(t, err)
	require.Len(t, res.Coefficients(), 4)
	names := []string{}
	for _, term := range res.Terms {
		names = append(names, term.Name)
	}
	assert.Equal(t, []string{InterceptName, "c", "a", "b"}, names)
}

func TestFit_MeanImputationMatchesManualFill(t *testing.T) {
	nan := math.NaN()
	withGaps := table(t, map[string][]float64{
		"x": {1, nan, 3, 4, 5, 6},
		"y": {1.5, 2, nan, 4.2, 5.1, 5.8},
	})
	// mean(x present) = 19/5 = 3.8; mean(y present) = 18.6/5 = 3.72
	filled := table(t, map[string][]float64{
		"x": {1, 3.8, 3, 4, 5, 6},
		"y": {1.5, 2, 3.72, 4.2, 5.1, 5.8},
	})

	ev := NewEvaluator()
	a, err := ev.Fit(withGaps, spec("y", "x"))
	require.NoError(t, err)
	b, err := ev.Fit(filled, spec("y", "x"))
	require.NoError(t, err)

	assert.InDeltaSlice(t, b.Coefficients(), a.Coefficients(), 1e-9)
	assert.Equal(t, map[string]int{"x": 1, "y": 1}, a.Imputed)

	// The source table keeps its gaps.
	col, err := withGaps.Column("x")
	require.NoError(t, err)
	assert.Equal(t, 1, col.Missing())
}

func TestImputeMean_PreservesPresentMean(t *testing.T) {
	nan := math.NaN()
	for _, vals := range [][]float64{
		{1, nan, 3, 4, 5, 6},
		{nan, nan, 2.5, -1, 7.25, nan, 0.1},
		{10, 20, 30},
	} {
		var present []float64
		for _, v := range vals {
			if !math.IsNaN(v) {
				present = append(present, v)
			}
		}
		out, filled, err := ImputeMean(vals)
		require.NoError(t, err)
		assert.Equal(t, len(vals)-len(present), filled)
		require.Len(t, out, len(vals))
		for _, v := range out {
			assert.False(t, math.IsNaN(v))
		}
		assert.InDelta(t, mean(present), mean(out), 1e-12)
		// Input is left alone.
		assert.Equal(t, len(vals)-len(present), countNaN(vals))
	}

	_, _, err := ImputeMean([]float64{nan, nan})
	assert.ErrorIs(t, err, ErrNoValues)
}

func mean(vals []float64) float64 {
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func countNaN(vals []float64) int {
	n := 0
	for _, v := range vals {
		if math.IsNaN(v) {
			n++
		}
	}
	return n
}

func TestFit_ZeroVariancePredictorIsIllConditioned(t *testing.T) {
	tb := table(t, map[string][]float64{
		"x": {3, 3, 3, 3, 3},
		"y": {1, 2, 3, 4, 5},
	})
	_, err := NewEvaluator().Fit(tb, spec("y", "x"))
	var ill *IllConditionedModelError
	require.True(t, errors.As(err, &ill), "got %v", err)
	assert.Equal(t, "m", ill.Model)
}

func TestFit_CollinearPredictorsAreIllConditioned(t *testing.T) {
	tb := table(t, map[string][]float64{
		"a": {1, 2, 3, 4, 5, 6},
		"b": {2, 4, 6, 8, 10, 12},
		"y": {1, 3, 2, 5, 4, 6},
	})
	_, err := NewEvaluator().Fit(tb, spec("y", "a", "b"))
	var ill *IllConditionedModelError
	assert.True(t, errors.As(err, &ill), "got %v", err)
}

func TestFit_TooFewObservations(t *testing.T) {
	tb := table(t, map[string][]float64{
		"a": {1, 2},
		"y": {3, 5},
	})
	_, err := NewEvaluator().Fit(tb, spec("y", "a"))
	var ill *IllConditionedModelError
	require.True(t, errors.As(err, &ill))
	assert.Contains(t, ill.Error(), "2 observations for 2 terms")
}

func TestFit_AllMissingColumnIsDegenerate(t *testing.T) {
	nan := math.NaN()
	tb := table(t, map[string][]float64{
		"x": {nan, nan, nan, nan},
		"y": {1, 2, 3, 4},
	})
	_, err := NewEvaluator().Fit(tb, spec("y", "x"))
	var deg *DegenerateColumnError
	require.True(t, errors.As(err, &deg), "got %v", err)
	assert.Equal(t, "x", deg.Column)
	assert.Equal(t, "fixture", deg.Dataset)
}

func TestFit_ColumnErrors(t *testing.T) {
	tb, err := dataset.NewTable("fixture",
		dataset.NewNumericColumn("y", []float64{1, 2, 3, 4}),
		dataset.NewCategoricalColumn("g", []string{"a", "b", "a", "b"}),
	)
	require.NoError(t, err)

	_, err = NewEvaluator().Fit(tb, spec("y", "missing"))
	var mce *dataset.MissingColumnError
	assert.True(t, errors.As(err, &mce))

	_, err = NewEvaluator().Fit(tb, spec("y", "g"))
	var cke *dataset.ColumnKindError
	assert.True(t, errors.As(err, &cke))
}

func TestFit_NoIntercept(t *testing.T) {
	tb := table(t, map[string][]float64{
		"x": {1, 2, 3, 4},
		"y": {2.1, 3.9, 6.0, 8.1},
	})
	s := spec("y", "x")
	s.NoIntercept = true
	res, err := NewEvaluator().Fit(tb, s)
	require.NoError(t, err)
	require.Len(t, res.Terms, 1)
	assert.Equal(t, "x", res.Terms[0].Name)
	assert.InDelta(t, 2.0, res.Terms[0].Coef, 0.05)
	assert.False(t, res.HasIntercept)
	assert.Equal(t, 1, res.DFModel)
	assert.True(t, strings.HasSuffix(res.Formula, " - 1"))
}

func TestSummary_ListsTermsAndStatistics(t *testing.T) {
	tb := table(t, map[string][]float64{
		"Daily Steps":   {4000, 5200, 6100, 7000, 8300, 9100},
		"Sleep Quality": {5, 6, 6, 7, 8, 8},
	})
	res, err := NewEvaluator().Fit(tb, spec("Sleep Quality", "Daily Steps"))
	require.NoError(t, err)

	out := res.Summary()
	for _, want := range []string{"OLS Regression Results", "Dep. Variable:", "Sleep Quality", "R-squared:", "Daily Steps", InterceptName, "P>|t|", "Durbin-Watson:", "Cond. No."} {
		assert.Contains(t, out, want)
	}
}
