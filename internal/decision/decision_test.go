package decision

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/sleepstat-cli/internal/dataset"
	"github.com/KaramelBytes/sleepstat-cli/internal/hypothesis"
	"github.com/KaramelBytes/sleepstat-cli/internal/regression"
)

func mustGet(t *testing.T, id string) hypothesis.Hypothesis {
	t.Helper()
	h, err := hypothesis.Get(id)
	require.NoError(t, err)
	return h
}

func TestDecide_PerfectNegativeFitRejects(t *testing.T) {
	tb, err := dataset.NewTable("merged",
		dataset.NewNumericColumn("Stress Level", []float64{1, 2, 3, 4, 5}),
		dataset.NewNumericColumn("Sleep Quality", []float64{5, 4, 3, 2, 1}),
	)
	require.NoError(t, err)
	spec := hypothesis.ModelSpec{ID: hypothesis.ModelSleepJoint, Target: "Sleep Quality", Predictors: []string{"Stress Level"}}
	fit, err := regression.NewEvaluator().Fit(tb, spec)
	require.NoError(t, err)

	v := Decide(mustGet(t, "H1"), fit, DefaultAlpha)
	assert.True(t, v.Evaluated)
	assert.True(t, v.Reject)
	assert.Equal(t, "Stress Level", v.Term)
	assert.Equal(t, hypothesis.SignNegative, v.Direction)
	assert.True(t, v.DirectionMatches)
	assert.Equal(t, 0.05, v.Alpha)
	assert.True(t, strings.HasPrefix(v.Rationale, "Reject H0 for H1"), v.Rationale)
	assert.Contains(t, v.Rationale, "as expected")
}

func TestDecide_RejectSetIsMonotonicInAlpha(t *testing.T) {
	fit := &regression.FitResult{
		Model: hypothesis.ModelSleepJoint,
		Terms: []regression.Term{
			{Name: regression.InterceptName, Coef: 7, PValue: 0},
			{Name: "Stress Level", Coef: -0.2, PValue: 0.001},
			{Name: "BMI Category Code", Coef: -0.1, PValue: 0.03},
			{Name: "Heart Rate", Coef: 0.01, PValue: 0.07},
			{Name: "Daily Steps", Coef: 0.0001, PValue: 0.5},
		},
	}
	ids := []string{"H1", "H2", "H3", "H4"}
	alphas := []float64{0.9, 0.1, 0.05, 0.01, 0.001, 0.0001}
	prev := map[string]bool{}
	for i, a := range alphas {
		for _, id := range ids {
			v := Decide(mustGet(t, id), fit, a)
			if i > 0 && v.Reject {
				assert.True(t, prev[id], "%s rejected at alpha %g but not at a larger alpha", id, a)
			}
			prev[id] = v.Reject
		}
	}

	at05 := map[string]bool{}
	for _, id := range ids {
		at05[id] = Decide(mustGet(t, id), fit, 0.05).Reject
	}
	assert.Equal(t, map[string]bool{"H1": true, "H2": true, "H3": false, "H4": false}, at05)
}

func TestDecide_SignIsReportedNotDecisive(t *testing.T) {
	fit := &regression.FitResult{
		Model: hypothesis.ModelMood,
		Terms: []regression.Term{{Name: regression.InterceptName}, {Name: "Sleep Quality", Coef: -0.4, PValue: 0.01}},
	}
	v := Decide(mustGet(t, "H7"), fit, 0.05)
	assert.True(t, v.Reject)
	assert.False(t, v.DirectionMatches)
	assert.Contains(t, v.Rationale, "opposite to the expected positive")
}

func TestDecide_JointModelReadsDistinctRows(t *testing.T) {
	n := 24
	cols := map[string][]float64{}
	names := []string{"Stress Level", "BMI Category Code", "Heart Rate", "Daily Steps", "Sleep Quality"}
	for _, c := range names {
		cols[c] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		s := float64(i%7 + 1)
		b := float64((i * 3) % 4)
		hr := 60 + float64((i*5)%17)
		st := 3000 + float64((i*37)%11)*500
		cols["Stress Level"][i] = s
		cols["BMI Category Code"][i] = b
		cols["Heart Rate"][i] = hr
		cols["Daily Steps"][i] = st
		cols["Sleep Quality"][i] = 9 - 0.5*s - 0.3*b - 0.02*hr + 0.0002*st + 0.1*float64(i%3)
	}
	var cs []*dataset.Column
	for _, c := range names {
		cs = append(cs, dataset.NewNumericColumn(c, cols[c]))
	}
	tb, err := dataset.NewTable("merged", cs...)
	require.NoError(t, err)

	spec, err := hypothesis.Resolve("H1")
	require.NoError(t, err)
	fit, err := regression.NewEvaluator().Fit(tb, spec)
	require.NoError(t, err)

	rows := map[string]float64{}
	for _, id := range []string{"H1", "H2", "H3", "H4"} {
		h := mustGet(t, id)
		require.Equal(t, spec.ID, h.Model)
		v := Decide(h, fit, DefaultAlpha)
		require.True(t, v.Evaluated, v.Rationale)
		row, ok := fit.Term(v.Term)
		require.True(t, ok)
		assert.Equal(t, row.PValue, v.PValue)
		rows[v.Term] = v.Coefficient
	}
	assert.Len(t, rows, 4)
	assert.InDelta(t, -0.5, rows["Stress Level"], 0.05)
	assert.InDelta(t, 0.0002, rows["Daily Steps"], 0.0001)
}

func TestFailed_IsUnevaluable(t *testing.T) {
	h := mustGet(t, "H5")
	v := Failed(h, &regression.IllConditionedModelError{Model: h.Model, Reason: "design matrix is singular or nearly so"})
	assert.False(t, v.Evaluated)
	assert.False(t, v.Reject)
	assert.True(t, math.IsNaN(v.PValue))
	assert.Equal(t, "Age_Exercise_Interaction", v.Term)
	assert.True(t, strings.HasPrefix(v.Rationale, "model could not be fit: "))
	assert.Contains(t, v.Error, "singular")
}

func TestDecide_MissingTermOrFit(t *testing.T) {
	e := NewEngine(nil, 2)
	assert.Equal(t, DefaultAlpha, e.Alpha())

	v := e.Decide(mustGet(t, "H8"), nil)
	assert.False(t, v.Evaluated)

	fit := &regression.FitResult{Model: hypothesis.ModelProductivity, Terms: []regression.Term{{Name: regression.InterceptName}}}
	v = e.Decide(mustGet(t, "H8"), fit)
	assert.False(t, v.Evaluated)
	assert.Contains(t, v.Rationale, `no coefficient for "Sleep Quality"`)
}

func TestEngine_SchemaOverride(t *testing.T) {
	schema, err := dataset.DefaultSchema().WithOverrides(map[string]string{"stress_level": "Stress"})
	require.NoError(t, err)
	e := NewEngine(hypothesis.NewResolver(schema), 0.1)
	fit := &regression.FitResult{Terms: []regression.Term{{Name: "Stress", Coef: -1, PValue: 0.08}}}
	v := e.Decide(mustGet(t, "H1"), fit)
	assert.True(t, v.Reject)
	assert.Equal(t, "Stress", v.Term)
}

func TestFormatP(t *testing.T) {
	assert.Equal(t, "p<0.0001", FormatP(1e-9))
	assert.Equal(t, "p=0.0123", FormatP(0.0123))
	assert.Equal(t, "p=nan", FormatP(math.NaN()))
}
