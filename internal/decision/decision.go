// Package decision turns fitted models into accept/reject verdicts.
package decision

import (
	"fmt"
	"math"

	"github.com/rotisserie/eris"

	"github.com/KaramelBytes/sleepstat-cli/internal/hypothesis"
	"github.com/KaramelBytes/sleepstat-cli/internal/regression"
)

// DefaultAlpha is the significance threshold used when none is configured.
const DefaultAlpha = 0.05

// Verdict is the decision for one hypothesis. No correction for multiple
// comparisons is applied across verdicts.
type Verdict struct {
	HypothesisID string `json:"hypothesis" yaml:"hypothesis"`
	Model        string `json:"model" yaml:"model"`
	Term         string `json:"term" yaml:"term"`
	// Evaluated is false when the model could not be fit.
	Evaluated        bool            `json:"evaluated" yaml:"evaluated"`
	Reject           bool            `json:"reject" yaml:"reject"`
	PValue           float64         `json:"p_value" yaml:"p_value"`
	Alpha            float64         `json:"alpha" yaml:"alpha"`
	Coefficient      float64         `json:"coefficient" yaml:"coefficient"`
	Direction        hypothesis.Sign `json:"direction" yaml:"direction"`
	Expected         hypothesis.Sign `json:"expected" yaml:"expected"`
	DirectionMatches bool            `json:"direction_matches" yaml:"direction_matches"`
	Rationale        string          `json:"rationale" yaml:"rationale"`
	Error            string          `json:"error,omitempty" yaml:"error,omitempty"`
}

// Engine decides hypotheses against fits using one resolver and threshold.
type Engine struct {
	resolver *hypothesis.Resolver
	alpha    float64
}

// NewEngine returns an engine. A nil resolver means the default schema; an
// alpha outside (0, 1) means DefaultAlpha.
func NewEngine(r *hypothesis.Resolver, alpha float64) *Engine {
	if r == nil {
		r = hypothesis.NewResolver(nil)
	}
	if !(alpha > 0 && alpha < 1) {
		alpha = DefaultAlpha
	}
	return &Engine{resolver: r, alpha: alpha}
}

// Alpha returns the threshold in use.
func (e *Engine) Alpha() float64 { return e.alpha }

// Decide reads the coefficient row h names and rejects the null when its
// p-value is below alpha. The sign of the coefficient is reported but never
// changes the outcome.
func (e *Engine) Decide(h hypothesis.Hypothesis, fit *regression.FitResult) Verdict {
	term := e.resolver.TermColumn(h)
	if fit == nil {
		return e.failed(h, term, eris.New("no fit result"))
	}
	row, ok := fit.Term(term)
	if !ok {
		return e.failed(h, term, eris.Errorf("model %s has no coefficient for %q", fit.Model, term))
	}

	v := Verdict{
		HypothesisID: h.ID,
		Model:        h.Model,
		Term:         term,
		Evaluated:    true,
		PValue:       row.PValue,
		Alpha:        e.alpha,
		Coefficient:  row.Coef,
		Direction:    signOf(row.Coef),
		Expected:     h.Expected,
	}
	v.Reject = row.PValue < e.alpha
	v.DirectionMatches = h.Expected == hypothesis.SignAny || v.Direction == h.Expected
	v.Rationale = rationale(v)
	return v
}

// Failed records an unevaluable verdict for h.
func (e *Engine) Failed(h hypothesis.Hypothesis, err error) Verdict {
	return e.failed(h, e.resolver.TermColumn(h), err)
}

func (e *Engine) failed(h hypothesis.Hypothesis, term string, err error) Verdict {
	reason := "unknown error"
	if err != nil {
		reason = err.Error()
	}
	return Verdict{
		HypothesisID: h.ID,
		Model:        h.Model,
		Term:         term,
		PValue:       math.NaN(),
		Alpha:        e.alpha,
		Coefficient:  math.NaN(),
		Expected:     h.Expected,
		Rationale:    "model could not be fit: " + reason,
		Error:        reason,
	}
}

var defaultEngine = NewEngine(nil, DefaultAlpha)

// Decide applies the default schema with the given alpha.
func Decide(h hypothesis.Hypothesis, fit *regression.FitResult, alpha float64) Verdict {
	return NewEngine(defaultEngine.resolver, alpha).Decide(h, fit)
}

// Failed is Engine.Failed under the default schema and alpha.
func Failed(h hypothesis.Hypothesis, err error) Verdict {
	return defaultEngine.Failed(h, err)
}

func signOf(v float64) hypothesis.Sign {
	switch {
	case v > 0:
		return hypothesis.SignPositive
	case v < 0:
		return hypothesis.SignNegative
	default:
		return hypothesis.SignAny
	}
}

func rationale(v Verdict) string {
	cmp := "not below"
	head := "Fail to reject H0"
	if v.Reject {
		cmp = "below"
		head = "Reject H0"
	}
	if math.IsNaN(v.PValue) {
		return fmt.Sprintf("%s for %s: p-value for %s is undefined", head, v.HypothesisID, v.Term)
	}
	s := fmt.Sprintf("%s for %s: %s coefficient %s (%s, %s alpha %g)",
		head, v.HypothesisID, v.Term, FormatCoef(v.Coefficient), FormatP(v.PValue), cmp, v.Alpha)
	if v.Reject && v.Expected != hypothesis.SignAny {
		if v.DirectionMatches {
			s += fmt.Sprintf("; %s effect as expected", v.Direction)
		} else {
			s += fmt.Sprintf("; %s effect, opposite to the expected %s", v.Direction, v.Expected)
		}
	}
	return s
}

// FormatP renders a p-value as "p=0.0123", or "p<0.0001" for tiny values.
func FormatP(p float64) string {
	if math.IsNaN(p) {
		return "p=nan"
	}
	if p < 1e-4 {
		return "p<0.0001"
	}
	return fmt.Sprintf("p=%.4f", p)
}

// FormatCoef renders a coefficient compactly.
func FormatCoef(c float64) string {
	a := math.Abs(c)
	if a != 0 && (a < 1e-3 || a >= 1e5) {
		return fmt.Sprintf("%.3e", c)
	}
	return fmt.Sprintf("%.4f", c)
}
