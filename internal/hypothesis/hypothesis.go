// Package hypothesis holds the fixed set of study hypotheses and the
// regression model specifications that test them.
package hypothesis

import (
	"fmt"

	"github.com/KaramelBytes/sleepstat-cli/internal/dataset"
)

// Category groups hypotheses for display.
type Category string

const (
	CategoryOnSleep  Category = "Effects on Sleep Quality"
	CategoryCombined Category = "Combined Effects on Sleep Quality"
	CategoryOfSleep  Category = "Effects of Sleep Quality"
)

// Categories returns the display categories in order.
func Categories() []Category {
	return []Category{CategoryOnSleep, CategoryCombined, CategoryOfSleep}
}

// Sign is the expected direction of an effect under the alternative.
type Sign int

const (
	SignAny      Sign = 0
	SignPositive Sign = 1
	SignNegative Sign = -1
)

func (s Sign) String() string {
	switch s {
	case SignPositive:
		return "positive"
	case SignNegative:
		return "negative"
	default:
		return "any"
	}
}

// MarshalText renders the sign by name in JSON and YAML output.
func (s Sign) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Hypothesis is a static null/alternative pair tested by one coefficient of
// one model.
type Hypothesis struct {
	ID          string
	Category    Category
	Question    string
	Null        string
	Alternative string
	Expected    Sign
	// Model is the ID of the ModelSpec whose fit answers the hypothesis.
	Model string
	// Term is the logical field whose coefficient row the decision reads.
	Term dataset.Field
}

// UnknownHypothesisError indicates an identifier that is not registered.
type UnknownHypothesisError struct {
	ID string
}

func (e *UnknownHypothesisError) Error() string {
	return fmt.Sprintf("unknown hypothesis %q", e.ID)
}

var registry = []Hypothesis{
	{
		ID:          "H1",
		Category:    CategoryOnSleep,
		Question:    "Does stress level influence sleep quality?",
		Null:        "No relationship",
		Alternative: "Higher stress levels negatively impact sleep quality",
		Expected:    SignNegative,
		Model:       ModelSleepJoint,
		Term:        dataset.FieldStress,
	},
	{
		ID:          "H2",
		Category:    CategoryOnSleep,
		Question:    "Does BMI category affect sleep quality?",
		Null:        "No effect",
		Alternative: "Normal BMI correlates with better sleep",
		Expected:    SignNegative,
		Model:       ModelSleepJoint,
		Term:        dataset.FieldBMICode,
	},
	{
		ID:          "H3",
		Category:    CategoryOnSleep,
		Question:    "Is resting heart rate related to sleep quality?",
		Null:        "No relationship",
		Alternative: "Lower resting heart rate predicts better sleep",
		Expected:    SignNegative,
		Model:       ModelSleepJoint,
		Term:        dataset.FieldHeartRate,
	},
	{
		ID:          "H4",
		Category:    CategoryOnSleep,
		Question:    "Do daily steps predict better sleep quality?",
		Null:        "No effect",
		Alternative: "More steps lead to better sleep",
		Expected:    SignPositive,
		Model:       ModelSleepJoint,
		Term:        dataset.FieldDailySteps,
	},
	{
		ID:          "H5",
		Category:    CategoryCombined,
		Question:    "Is there an interaction between age and exercise on sleep quality?",
		Null:        "No interaction",
		Alternative: "Older people benefit more from exercise in terms of sleep quality",
		Expected:    SignPositive,
		Model:       ModelAgeExercise,
		Term:        dataset.FieldAgeExercise,
	},
	{
		ID:          "H6",
		Category:    CategoryCombined,
		Question:    "Do screen time and caffeine intake have a combined effect on sleep quality?",
		Null:        "No joint influence",
		Alternative: "High values of both harm sleep quality",
		Expected:    SignNegative,
		Model:       ModelCaffeineScreen,
		Term:        dataset.FieldCaffeineScreen,
	},
	{
		ID:          "H7",
		Category:    CategoryOfSleep,
		Question:    "Does sleep quality affect mood?",
		Null:        "No effect",
		Alternative: "Better sleep leads to better mood",
		Expected:    SignPositive,
		Model:       ModelMood,
		Term:        dataset.FieldSleepQuality,
	},
	{
		ID:          "H8",
		Category:    CategoryOfSleep,
		Question:    "Does sleep quality affect productivity?",
		Null:        "No effect",
		Alternative: "Better sleep leads to higher productivity",
		Expected:    SignPositive,
		Model:       ModelProductivity,
		Term:        dataset.FieldSleepQuality,
	},
}

// List returns the registered hypotheses in display order.
func List() []Hypothesis {
	out := make([]Hypothesis, len(registry))
	copy(out, registry)
	return out
}

// Get returns the hypothesis with the given ID.
func Get(id string) (Hypothesis, error) {
	for _, h := range registry {
		if h.ID == id {
			return h, nil
		}
	}
	return Hypothesis{}, &UnknownHypothesisError{ID: id}
}

// ByCategory returns the hypotheses of one category in display order.
func ByCategory(c Category) []Hypothesis {
	var out []Hypothesis
	for _, h := range registry {
		if h.Category == c {
			out = append(out, h)
		}
	}
	return out
}

// ForModel returns the hypotheses answered by the given model spec.
func ForModel(modelID string) []Hypothesis {
	var out []Hypothesis
	for _, h := range registry {
		if h.Model == modelID {
			out = append(out, h)
		}
	}
	return out
}
