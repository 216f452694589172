package dataset

import (
	"errors"
	"sort"

	"github.com/rotisserie/eris"
)

// Field is a logical column key. Code refers to fields; the Schema maps them
// to the physical header names found in the source files.
type Field string

const (
	FieldAge          Field = "age"
	FieldGender       Field = "gender"
	FieldAgeCategory  Field = "age_category"
	FieldBMICategory  Field = "bmi_category"
	FieldBMICode      Field = "bmi_category_code"
	FieldStress       Field = "stress_level"
	FieldHeartRate    Field = "heart_rate"
	FieldDailySteps   Field = "daily_steps"
	FieldCaffeine     Field = "caffeine_intake"
	FieldScreenTime   Field = "screen_time"
	FieldExercise     Field = "exercise"
	FieldSleepQuality Field = "sleep_quality"
	FieldProductivity Field = "productivity_score"
	FieldMood         Field = "mood_score"

	// Derived interaction columns.
	FieldCaffeineScreen Field = "caffeine_screen_interaction"
	FieldAgeExercise    Field = "age_exercise_interaction"
)

// FieldDef binds a logical field to a physical column and its expected kind.
type FieldDef struct {
	Column string
	Kind   Kind
}

// Schema maps logical fields to physical columns.
type Schema struct {
	fields map[Field]FieldDef
}

// DefaultSchema returns the column layout of the sleep/lifestyle datasets.
func DefaultSchema() *Schema {
	return &Schema{fields: map[Field]FieldDef{
		FieldAge:            {"Age", KindNumeric},
		FieldGender:         {"Gender", KindCategorical},
		FieldAgeCategory:    {"Age Category", KindCategorical},
		FieldBMICategory:    {"BMI Category", KindCategorical},
		FieldBMICode:        {"BMI Category Code", KindOrdinal},
		FieldStress:         {"Stress Level", KindNumeric},
		FieldHeartRate:      {"Heart Rate", KindNumeric},
		FieldDailySteps:     {"Daily Steps", KindNumeric},
		FieldCaffeine:       {"Caffeine Intake (mg)", KindNumeric},
		FieldScreenTime:     {"Screen Time Before Bed (mins)", KindNumeric},
		FieldExercise:       {"Exercise (mins/day)", KindNumeric},
		FieldSleepQuality:   {"Sleep Quality", KindNumeric},
		FieldProductivity:   {"Productivity Score", KindNumeric},
		FieldMood:           {"Mood Score", KindNumeric},
		FieldCaffeineScreen: {"Caffein_ScreenTime_Interaction", KindNumeric},
		FieldAgeExercise:    {"Age_Exercise_Interaction", KindNumeric},
	}}
}

// WithOverrides returns a copy of the schema with physical column names
// replaced for the given field keys. Unknown keys are an error.
func (s *Schema) WithOverrides(cols map[string]string) (*Schema, error) {
	out := &Schema{fields: make(map[Field]FieldDef, len(s.fields))}
	for k, v := range s.fields {
		out.fields[k] = v
	}
	for k, col := range cols {
		f := Field(k)
		def, ok := out.fields[f]
		if !ok {
			return nil, eris.Errorf("unknown schema field %q", k)
		}
		if col == "" {
			return nil, eris.Errorf("schema field %q: empty column name", k)
		}
		def.Column = col
		out.fields[f] = def
	}
	return out, nil
}

// Column returns the physical column name for a field, or the field key
// itself when the field is not part of the schema.
func (s *Schema) Column(f Field) string {
	if def, ok := s.fields[f]; ok {
		return def.Column
	}
	return string(f)
}

// Kind returns the expected kind for a field.
func (s *Schema) Kind(f Field) Kind {
	if def, ok := s.fields[f]; ok {
		return def.Kind
	}
	return KindNumeric
}

// Fields lists the known fields in sorted order.
func (s *Schema) Fields() []Field {
	out := make([]Field, 0, len(s.fields))
	for f := range s.fields {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Conform retypes numeric columns the schema declares as ordinal, and turns
// a numeric field whose column holds no values at all (and so was read as
// categorical) into an all-missing numeric column. Columns the schema does
// not know about are left alone.
func (s *Schema) Conform(t *Table) (*Table, error) {
	var err error
	for _, f := range s.Fields() {
		def := s.fields[f]
		if !def.Kind.IsNumeric() {
			continue
		}
		c, lookupErr := t.Column(def.Column)
		if lookupErr != nil || c.Kind == def.Kind {
			continue
		}
		switch {
		case c.Kind.IsNumeric() && def.Kind == KindOrdinal:
		case !c.Kind.IsNumeric() && c.Missing() == c.Len():
		default:
			continue
		}
		if t, err = t.WithKind(def.Column, def.Kind); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Validate checks that every field is present in t with a compatible kind.
// All violations are reported, joined.
func (s *Schema) Validate(t *Table, fields ...Field) error {
	var errs []error
	for _, f := range fields {
		def, ok := s.fields[f]
		if !ok {
			def = FieldDef{Column: string(f), Kind: KindNumeric}
		}
		c, err := t.Column(def.Column)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if def.Kind.IsNumeric() != c.Kind.IsNumeric() {
			errs = append(errs, &ColumnKindError{Dataset: t.Name(), Column: def.Column, Want: def.Kind, Got: c.Kind})
		}
	}
	return errors.Join(errs...)
}
