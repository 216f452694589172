package dataset

import (
	"errors"
	"math"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTable_RejectsRaggedAndDuplicateColumns(t *testing.T) {
	_, err := NewTable("t",
		NewNumericColumn("a", []float64{1, 2}),
		NewNumericColumn("b", []float64{1}),
	)
	assert.ErrorContains(t, err, `column "b" has 1 rows, want 2`)
	assert.NotEmpty(t, eris.StackFrames(err))

	_, err = NewTable("t",
		NewNumericColumn("a", []float64{1}),
		NewCategoricalColumn("a", []string{"x"}),
	)
	assert.Error(t, err)
}

func TestColumn_CopiesAreIndependent(t *testing.T) {
	src := []float64{1, 2, 3}
	c := NewNumericColumn("a", src)
	src[0] = 99
	assert.Equal(t, 1.0, c.Float(0))

	vals := c.Floats()
	vals[1] = 42
	assert.Equal(t, 2.0, c.Float(1))
}

func TestColumn_MissingAndText(t *testing.T) {
	c := NewNumericColumn("a", []float64{1.5, math.NaN(), 3})
	assert.Equal(t, 1, c.Missing())
	assert.Equal(t, []string{"1.5", "", "3"}, c.Texts())

	cat := NewCategoricalColumn("g", []string{"Male", ""})
	assert.Equal(t, 1, cat.Missing())
	assert.True(t, math.IsNaN(cat.Float(0)))
	assert.Nil(t, cat.Floats())
}

func TestTable_WithKindAndLookup(t *testing.T) {
	tbl, err := NewTable("t",
		NewNumericColumn("BMI Category Code", []float64{0, 1, 2}),
		NewCategoricalColumn("BMI Category", []string{"Normal", "Overweight", "Obese"}),
	)
	require.NoError(t, err)

	ord, err := tbl.WithKind("BMI Category Code", KindOrdinal)
	require.NoError(t, err)
	c, err := ord.NumericColumn("BMI Category Code")
	require.NoError(t, err)
	assert.Equal(t, KindOrdinal, c.Kind)

	orig, _ := tbl.Column("BMI Category Code")
	assert.Equal(t, KindNumeric, orig.Kind)

	_, err = tbl.WithKind("BMI Category", KindNumeric)
	var cke *ColumnKindError
	assert.True(t, errors.As(err, &cke))

	_, err = tbl.Column("nope")
	var mce *MissingColumnError
	assert.True(t, errors.As(err, &mce))

	assert.Len(t, ord.NumericColumns(), 1)
	assert.Equal(t, [][]string{{"0", "Normal"}, {"1", "Overweight"}}, ord.Head(2))
}

func TestSchema_OverridesAndValidate(t *testing.T) {
	s, err := DefaultSchema().WithOverrides(map[string]string{"stress_level": "Stress"})
	require.NoError(t, err)
	assert.Equal(t, "Stress", s.Column(FieldStress))
	assert.Equal(t, "Stress Level", DefaultSchema().Column(FieldStress))

	_, err = DefaultSchema().WithOverrides(map[string]string{"bogus": "x"})
	assert.Error(t, err)

	tbl, err := NewTable("t",
		NewNumericColumn("Stress", []float64{1, 2}),
		NewCategoricalColumn("Sleep Quality", []string{"good", "bad"}),
	)
	require.NoError(t, err)

	err = s.Validate(tbl, FieldStress, FieldSleepQuality, FieldHeartRate)
	require.Error(t, err)
	var mce *MissingColumnError
	require.True(t, errors.As(err, &mce))
	assert.Equal(t, "Heart Rate", mce.Column)
	var cke *ColumnKindError
	require.True(t, errors.As(err, &cke))
	assert.Equal(t, "Sleep Quality", cke.Column)

	assert.NoError(t, s.Validate(tbl, FieldStress))
}

func TestSchema_ConformMarksOrdinal(t *testing.T) {
	tbl, err := NewTable("t", NewNumericColumn("BMI Category Code", []float64{0, 1}))
	require.NoError(t, err)
	out, err := DefaultSchema().Conform(tbl)
	require.NoError(t, err)
	c, _ := out.Column("BMI Category Code")
	assert.Equal(t, KindOrdinal, c.Kind)
}

func TestSchemaAndRoleErrorsCarryTraces(t *testing.T) {
	_, err := DefaultSchema().WithOverrides(map[string]string{"shoe_size": "Shoes"})
	require.Error(t, err)
	assert.NotEmpty(t, eris.StackFrames(err))

	_, err = ParseRole("raw")
	require.ErrorContains(t, err, `unknown dataset role "raw"`)
	assert.NotEmpty(t, eris.StackFrames(err))
}

func TestSchema_ConformBlankNumericField(t *testing.T) {
	tbl, err := NewTable("t",
		NewCategoricalColumn("Sleep Quality", []string{"", "", ""}),
		NewCategoricalColumn("Gender", []string{"", "", ""}),
		NewCategoricalColumn("Stress Level", []string{"high", "", "low"}),
	)
	require.NoError(t, err)
	out, err := DefaultSchema().Conform(tbl)
	require.NoError(t, err)

	sq, _ := out.Column("Sleep Quality")
	assert.Equal(t, KindNumeric, sq.Kind)
	assert.Equal(t, 3, sq.Missing())
	assert.True(t, math.IsNaN(sq.Float(0)))

	g, _ := out.Column("Gender")
	assert.Equal(t, KindCategorical, g.Kind)
	// Text values are a real kind mismatch and stay visible as one.
	st, _ := out.Column("Stress Level")
	assert.Equal(t, KindCategorical, st.Kind)

	_, err = tbl.WithKind("Stress Level", KindNumeric)
	var kerr *ColumnKindError
	assert.True(t, errors.As(err, &kerr))
}
