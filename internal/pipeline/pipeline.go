// Package pipeline runs every model spec against its dataset and decides each
// hypothesis from the resulting fits.
package pipeline

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/sleepstat-cli/internal/dataset"
	"github.com/KaramelBytes/sleepstat-cli/internal/decision"
	"github.com/KaramelBytes/sleepstat-cli/internal/hypothesis"
	"github.com/KaramelBytes/sleepstat-cli/internal/regression"
)

// Options tune a run.
type Options struct {
	// Alpha is the significance threshold; zero means decision.DefaultAlpha.
	Alpha float64
	// Parallel fits independent specs concurrently.
	Parallel bool
	// Workers caps concurrent fits when Parallel is set (0 = one per spec).
	Workers int
}

// ModelOutcome is the fit (or the failure) of one model spec.
type ModelOutcome struct {
	ID      string                `json:"id" yaml:"id"`
	Title   string                `json:"title" yaml:"title"`
	Dataset dataset.Role          `json:"dataset" yaml:"dataset"`
	Formula string                `json:"formula" yaml:"formula"`
	Fit     *regression.FitResult `json:"fit,omitempty" yaml:"fit,omitempty"`
	Error   string                `json:"error,omitempty" yaml:"error,omitempty"`
	Err     error                 `json:"-" yaml:"-"`
}

// OK reports whether the model was fit.
func (m ModelOutcome) OK() bool { return m.Err == nil && m.Fit != nil }

// Outcome is the result of one run.
type Outcome struct {
	RunID    string             `json:"run_id" yaml:"run_id"`
	Alpha    float64            `json:"alpha" yaml:"alpha"`
	Models   []ModelOutcome     `json:"models" yaml:"models"`
	Verdicts []decision.Verdict `json:"verdicts" yaml:"verdicts"`
}

// Model returns the outcome of one model spec.
func (o *Outcome) Model(id string) (ModelOutcome, bool) {
	for _, m := range o.Models {
		if m.ID == id {
			return m, true
		}
	}
	return ModelOutcome{}, false
}

// Verdict returns the verdict for one hypothesis.
func (o *Outcome) Verdict(id string) (decision.Verdict, bool) {
	for _, v := range o.Verdicts {
		if v.HypothesisID == id {
			return v, true
		}
	}
	return decision.Verdict{}, false
}

// Failed lists the models that could not be fit.
func (o *Outcome) Failed() []ModelOutcome {
	var out []ModelOutcome
	for _, m := range o.Models {
		if !m.OK() {
			out = append(out, m)
		}
	}
	return out
}

// Runner wires a provider, a resolver and an evaluator together.
type Runner struct {
	provider  dataset.Provider
	resolver  *hypothesis.Resolver
	evaluator *regression.Evaluator
	opts      Options
}

// New returns a runner. Nil resolver and evaluator fall back to defaults.
func New(p dataset.Provider, r *hypothesis.Resolver, e *regression.Evaluator, opts Options) *Runner {
	if r == nil {
		r = hypothesis.NewResolver(nil)
	}
	if e == nil {
		e = regression.NewEvaluator()
	}
	return &Runner{provider: p, resolver: r, evaluator: e, opts: opts}
}

// Run fits every spec and decides every hypothesis. A spec that fails only
// affects the hypotheses that read it; the returned error is non-nil only
// when ctx ends the run.
func (r *Runner) Run(ctx context.Context) (*Outcome, error) {
	specs := r.resolver.Specs()
	models := make([]ModelOutcome, len(specs))

	if r.opts.Parallel {
		g, gctx := errgroup.WithContext(ctx)
		if r.opts.Workers > 0 {
			g.SetLimit(r.opts.Workers)
		}
		for i, s := range specs {
			i, s := i, s
			g.Go(func() error {
				models[i] = r.fit(gctx, s)
				return gctx.Err()
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i, s := range specs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			models[i] = r.fit(ctx, s)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	engine := decision.NewEngine(r.resolver, r.opts.Alpha)
	byID := make(map[string]ModelOutcome, len(models))
	for _, m := range models {
		byID[m.ID] = m
	}
	out := &Outcome{RunID: uuid.NewString(), Alpha: engine.Alpha(), Models: models}
	for _, h := range hypothesis.List() {
		m := byID[h.Model]
		if !m.OK() {
			out.Verdicts = append(out.Verdicts, engine.Failed(h, m.Err))
			continue
		}
		out.Verdicts = append(out.Verdicts, engine.Decide(h, m.Fit))
	}
	zap.L().Info("evaluation complete",
		zap.String("run", out.RunID),
		zap.Int("models", len(models)),
		zap.Int("failed", len(out.Failed())),
	)
	return out, nil
}

func (r *Runner) fit(ctx context.Context, s hypothesis.ModelSpec) ModelOutcome {
	m := ModelOutcome{ID: s.ID, Title: s.Title, Dataset: s.Dataset, Formula: s.Formula()}
	fail := func(err error) ModelOutcome {
		m.Err = err
		m.Error = err.Error()
		zap.L().Warn("model could not be fit", zap.String("model", s.ID), zap.Error(err))
		return m
	}
	t, err := r.provider.Table(ctx, s.Dataset)
	if err != nil {
		return fail(err)
	}
	t, err = Prepare(t, s)
	if err != nil {
		return fail(err)
	}
	fit, err := r.evaluator.Fit(t, s)
	if err != nil {
		return fail(err)
	}
	m.Fit = fit
	return m
}

// Prepare derives the interaction columns spec needs. The input table is
// not modified.
func Prepare(t *dataset.Table, spec hypothesis.ModelSpec) (*dataset.Table, error) {
	var err error
	for _, in := range spec.Interactions {
		if t, err = dataset.EnsureInteraction(t, in.A, in.B, in.Out); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Run is shorthand for New(p, r, e, opts).Run(ctx).
func Run(ctx context.Context, p dataset.Provider, r *hypothesis.Resolver, e *regression.Evaluator, opts Options) (*Outcome, error) {
	return New(p, r, e, opts).Run(ctx)
}
