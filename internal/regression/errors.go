package regression

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// ErrNoValues is returned by ImputeMean for a column with no present values.
var ErrNoValues = eris.New("no non-missing values")

// DegenerateColumnError indicates a column without a single usable value, so
// no mean can be computed for imputation.
type DegenerateColumnError struct {
	Dataset string
	Column  string
}

func (e *DegenerateColumnError) Error() string {
	return fmt.Sprintf("column %q in dataset %q has no non-missing values", e.Column, e.Dataset)
}

// IllConditionedModelError indicates a singular or near-singular design
// matrix, or too few observations to estimate every term.
type IllConditionedModelError struct {
	Model     string
	Reason    string
	Condition float64
}

func (e *IllConditionedModelError) Error() string {
	if e.Condition > 0 {
		return fmt.Sprintf("model %s is ill-conditioned: %s (condition number %.3g)", e.Model, e.Reason, e.Condition)
	}
	return fmt.Sprintf("model %s is ill-conditioned: %s", e.Model, e.Reason)
}
