package hypothesis

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/KaramelBytes/sleepstat-cli/internal/dataset"
)

// Model spec identifiers.
const (
	ModelSleepJoint        = "sleep-joint"
	ModelSleepJointCleaned = "sleep-joint-cleaned"
	ModelAgeExercise       = "age-exercise"
	ModelCaffeineScreen    = "caffeine-screen"
	ModelProductivity      = "productivity"
	ModelMood              = "mood"
)

// MissingPolicy says how missing values are handled before fitting.
type MissingPolicy string

// MissingMean replaces missing entries with the column mean of the present entries.
const MissingMean MissingPolicy = "mean"

// Interaction is a derived product column a model needs.
type Interaction struct {
	A, B, Out string
}

// ModelSpec is a concrete regression specification with physical column names.
type ModelSpec struct {
	ID      string
	Title   string
	Dataset dataset.Role
	Target  string
	// Predictors are reported in this order after the intercept.
	Predictors   []string
	Interactions []Interaction
	Missing      MissingPolicy
	NoIntercept  bool
}

// Columns returns the target followed by the predictors.
func (s ModelSpec) Columns() []string {
	return append([]string{s.Target}, s.Predictors...)
}

// Formula renders the spec as "target ~ a + b".
func (s ModelSpec) Formula() string {
	f := s.Target + " ~ " + strings.Join(s.Predictors, " + ")
	if s.NoIntercept {
		f += " - 1"
	}
	return f
}

type specDef struct {
	id           string
	title        string
	role         dataset.Role
	target       dataset.Field
	predictors   []dataset.Field
	interactions [][3]dataset.Field
}

var specDefs = []specDef{
	{
		id:         ModelSleepJoint,
		title:      "Simple Effects on Sleep Quality (merged)",
		role:       dataset.RoleMerged,
		target:     dataset.FieldSleepQuality,
		predictors: []dataset.Field{dataset.FieldStress, dataset.FieldBMICode, dataset.FieldHeartRate, dataset.FieldDailySteps},
	},
	{
		id:         ModelSleepJointCleaned,
		title:      "Simple Effects on Sleep Quality (cleaned)",
		role:       dataset.RoleCleaned,
		target:     dataset.FieldSleepQuality,
		predictors: []dataset.Field{dataset.FieldBMICode, dataset.FieldHeartRate, dataset.FieldDailySteps},
	},
	{
		id:           ModelAgeExercise,
		title:        "Interaction Effect of Age and Exercise on Sleep Quality",
		role:         dataset.RoleMerged,
		target:       dataset.FieldSleepQuality,
		predictors:   []dataset.Field{dataset.FieldAge, dataset.FieldExercise, dataset.FieldAgeExercise},
		interactions: [][3]dataset.Field{{dataset.FieldAge, dataset.FieldExercise, dataset.FieldAgeExercise}},
	},
	{
		id:           ModelCaffeineScreen,
		title:        "Interaction Effect of Caffeine Intake and Screen Time on Sleep Quality",
		role:         dataset.RoleMerged,
		target:       dataset.FieldSleepQuality,
		predictors:   []dataset.Field{dataset.FieldCaffeine, dataset.FieldScreenTime, dataset.FieldCaffeineScreen},
		interactions: [][3]dataset.Field{{dataset.FieldCaffeine, dataset.FieldScreenTime, dataset.FieldCaffeineScreen}},
	},
	{
		id:         ModelProductivity,
		title:      "Effect of Sleep Quality on Productivity Score",
		role:       dataset.RoleMerged,
		target:     dataset.FieldProductivity,
		predictors: []dataset.Field{dataset.FieldSleepQuality},
	},
	{
		id:         ModelMood,
		title:      "Effect of Sleep Quality on Mood Score",
		role:       dataset.RoleMerged,
		target:     dataset.FieldMood,
		predictors: []dataset.Field{dataset.FieldSleepQuality},
	},
}

// Resolver maps hypotheses and model IDs to concrete specs using a schema.
type Resolver struct {
	schema *dataset.Schema
}

// NewResolver returns a resolver over schema (the default schema when nil).
func NewResolver(schema *dataset.Schema) *Resolver {
	if schema == nil {
		schema = dataset.DefaultSchema()
	}
	return &Resolver{schema: schema}
}

// Schema returns the schema the resolver uses.
func (r *Resolver) Schema() *dataset.Schema { return r.schema }

// Resolve returns the model spec that tests hypothesis id.
func (r *Resolver) Resolve(id string) (ModelSpec, error) {
	h, err := Get(id)
	if err != nil {
		return ModelSpec{}, err
	}
	return r.Model(h.Model)
}

// Model returns the spec with the given model ID.
func (r *Resolver) Model(modelID string) (ModelSpec, error) {
	for _, d := range specDefs {
		if d.id == modelID {
			return r.build(d), nil
		}
	}
	return ModelSpec{}, eris.Errorf("unknown model %q", modelID)
}

// Specs returns every model spec in report order.
func (r *Resolver) Specs() []ModelSpec {
	out := make([]ModelSpec, 0, len(specDefs))
	for _, d := range specDefs {
		out = append(out, r.build(d))
	}
	return out
}

// TermColumn returns the physical column a hypothesis reads its coefficient from.
func (r *Resolver) TermColumn(h Hypothesis) string {
	return r.schema.Column(h.Term)
}

func (r *Resolver) build(d specDef) ModelSpec {
	s := ModelSpec{
		ID:      d.id,
		Title:   d.title,
		Dataset: d.role,
		Target:  r.schema.Column(d.target),
		Missing: MissingMean,
	}
	for _, p := range d.predictors {
		s.Predictors = append(s.Predictors, r.schema.Column(p))
	}
	for _, in := range d.interactions {
		s.Interactions = append(s.Interactions, Interaction{
			A:   r.schema.Column(in[0]),
			B:   r.schema.Column(in[1]),
			Out: r.schema.Column(in[2]),
		})
	}
	return s
}

var defaultResolver = NewResolver(nil)

// Resolve maps a hypothesis ID to its model spec under the default schema.
func Resolve(id string) (ModelSpec, error) { return defaultResolver.Resolve(id) }

// Specs lists the model specs under the default schema.
func Specs() []ModelSpec { return defaultResolver.Specs() }
