// Package regression fits ordinary least squares models described by
// hypothesis.ModelSpec against dataset tables.
package regression

import (
	"errors"
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/KaramelBytes/sleepstat-cli/internal/dataset"
	"github.com/KaramelBytes/sleepstat-cli/internal/hypothesis"
)

// DefaultMaxCondition bounds the condition number of the column-scaled
// design matrix. Anything above it is reported as ill-conditioned.
const DefaultMaxCondition = 1e10

// Evaluator fits model specs. It holds no per-fit state and is safe for
// concurrent use.
type Evaluator struct {
	maxCond    float64
	confidence float64
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithMaxCondition overrides DefaultMaxCondition. Non-positive values are ignored.
func WithMaxCondition(c float64) Option {
	return func(e *Evaluator) {
		if c > 0 {
			e.maxCond = c
		}
	}
}

// WithConfidence sets the level of the coefficient intervals (default 0.95).
func WithConfidence(level float64) Option {
	return func(e *Evaluator) {
		if level > 0 && level < 1 {
			e.confidence = level
		}
	}
}

// NewEvaluator returns an evaluator with the given options applied.
func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{maxCond: DefaultMaxCondition, confidence: 0.95}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Fit estimates spec on t. Interaction columns must already be present.
// Missing values are replaced by the column mean before fitting; the table
// itself is left untouched.
func (e *Evaluator) Fit(t *dataset.Table, spec hypothesis.ModelSpec) (*FitResult, error) {
	if t == nil {
		return nil, eris.Errorf("model %s: nil table", spec.ID)
	}
	if len(spec.Predictors) == 0 && spec.NoIntercept {
		return nil, eris.Errorf("model %s: no terms to estimate", spec.ID)
	}

	imputed := map[string]int{}
	y, filled, err := e.column(t, spec.Target)
	if err != nil {
		return nil, err
	}
	if filled > 0 {
		imputed[spec.Target] = filled
	}

	names := make([]string, 0, len(spec.Predictors)+1)
	if !spec.NoIntercept {
		names = append(names, InterceptName)
	}
	names = append(names, spec.Predictors...)

	n, p := t.Rows(), len(names)
	x := mat.NewDense(max(n, 1), p, nil)
	col := 0
	if !spec.NoIntercept {
		for i := 0; i < n; i++ {
			x.Set(i, 0, 1)
		}
		col = 1
	}
	for _, name := range spec.Predictors {
		vals, filled, err := e.column(t, name)
		if err != nil {
			return nil, err
		}
		if filled > 0 {
			imputed[name] = filled
		}
		for i, v := range vals {
			x.Set(i, col, v)
		}
		col++
	}

	if n <= p {
		return nil, &IllConditionedModelError{
			Model:  spec.ID,
			Reason: fmt.Sprintf("%d observations for %d terms", n, p),
		}
	}

	res, err := e.ols(spec.ID, x, y, names)
	if err != nil {
		return nil, err
	}
	res.Model = spec.ID
	res.Title = spec.Title
	res.Dataset = string(spec.Dataset)
	res.Target = spec.Target
	res.Formula = spec.Formula()
	res.HasIntercept = !spec.NoIntercept
	if len(imputed) > 0 {
		res.Imputed = imputed
	}

	zap.L().Debug("model fitted",
		zap.String("model", spec.ID),
		zap.Int("n", res.Observations),
		zap.Float64("r_squared", res.RSquared),
		zap.Any("imputed", imputed),
	)
	return res, nil
}

// column returns the named column with missing entries replaced by the mean
// of the present ones, plus the number of entries filled.
func (e *Evaluator) column(t *dataset.Table, name string) ([]float64, int, error) {
	c, err := t.NumericColumn(name)
	if err != nil {
		return nil, 0, err
	}
	vals, filled, err := ImputeMean(c.Floats())
	if errors.Is(err, ErrNoValues) {
		return nil, 0, &DegenerateColumnError{Dataset: t.Name(), Column: name}
	}
	if err != nil {
		return nil, 0, eris.Wrapf(err, "impute %s", name)
	}
	return vals, filled, nil
}

// ImputeMean returns a copy of vals with every NaN replaced by the mean of the
// other entries, and how many entries it filled. The mean of the result equals
// the mean of the present values.
func ImputeMean(vals []float64) ([]float64, int, error) {
	out := make([]float64, len(vals))
	copy(out, vals)
	present := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			present = append(present, v)
		}
	}
	if len(present) == 0 {
		return nil, 0, ErrNoValues
	}
	if len(present) == len(vals) {
		return out, 0, nil
	}
	mean, err := stats.Mean(present)
	if err != nil {
		return nil, 0, eris.Wrap(err, "mean")
	}
	filled := 0
	for i, v := range out {
		if math.IsNaN(v) {
			out[i] = mean
			filled++
		}
	}
	return out, filled, nil
}

func (e *Evaluator) ols(model string, x *mat.Dense, yv []float64, names []string) (*FitResult, error) {
	n, p := x.Dims()
	hasConst := len(names) > 0 && names[0] == InterceptName

	scaledCond, err := equilibratedCondition(x)
	if err != nil || math.IsInf(scaledCond, 1) || scaledCond > e.maxCond {
		reason := "design matrix is singular or nearly so"
		if err != nil {
			reason = err.Error()
		}
		return nil, &IllConditionedModelError{Model: model, Reason: reason, Condition: scaledCond}
	}

	y := mat.NewVecDense(n, yv)
	var beta mat.VecDense
	if err := beta.SolveVec(x, y); err != nil {
		return nil, &IllConditionedModelError{Model: model, Reason: err.Error(), Condition: scaledCond}
	}
	var xtx, inv mat.Dense
	xtx.Mul(x.T(), x)
	if err := inv.Inverse(&xtx); err != nil {
		return nil, &IllConditionedModelError{Model: model, Reason: err.Error(), Condition: scaledCond}
	}

	var fitted mat.VecDense
	fitted.MulVec(x, &beta)
	resid := make([]float64, n)
	var ssr, ybar float64
	for i := 0; i < n; i++ {
		resid[i] = yv[i] - fitted.AtVec(i)
		ssr += resid[i] * resid[i]
		ybar += yv[i]
	}
	ybar /= float64(n)
	var sst float64
	for _, v := range yv {
		d := v
		if hasConst {
			d -= ybar
		}
		sst += d * d
	}

	dfResid := n - p
	dfModel := p
	kConst := 0
	if hasConst {
		dfModel--
		kConst = 1
	}

	res := &FitResult{
		Observations: n,
		DFModel:      dfModel,
		DFResid:      dfResid,
		Terms:        make([]Term, p),
	}

	sigma2 := ssr / float64(dfResid)
	tdist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(dfResid)}
	tq := tdist.Quantile(1 - (1-e.confidence)/2)
	for j := 0; j < p; j++ {
		b := beta.AtVec(j)
		se := math.Sqrt(math.Max(sigma2*inv.At(j, j), 0))
		tstat, pval := tTest(b, se, tdist)
		res.Terms[j] = Term{
			Name:   names[j],
			Coef:   b,
			StdErr: se,
			TStat:  tstat,
			PValue: pval,
			CILow:  b - tq*se,
			CIHigh: b + tq*se,
		}
	}

	res.RSquared = 1 - ssr/sst
	res.AdjRSquared = 1 - float64(n-kConst)/float64(dfResid)*(1-res.RSquared)
	res.FStat, res.FPValue = math.NaN(), math.NaN()
	if dfModel > 0 {
		ess := sst - ssr
		res.FStat = (ess / float64(dfModel)) / sigma2
		switch {
		case math.IsInf(res.FStat, 1):
			res.FPValue = 0
		case !math.IsNaN(res.FStat):
			res.FPValue = distuv.F{D1: float64(dfModel), D2: float64(dfResid)}.Survival(res.FStat)
		}
	}

	nf := float64(n)
	res.LogLikelihood = -nf / 2 * (math.Log(2*math.Pi) + math.Log(ssr/nf) + 1)
	res.AIC = -2*res.LogLikelihood + 2*float64(p)
	res.BIC = -2*res.LogLikelihood + math.Log(nf)*float64(p)
	res.ConditionNumber = rawCondition(x)
	res.Residuals = summarizeResiduals(resid)
	return res, nil
}

func tTest(b, se float64, d distuv.StudentsT) (float64, float64) {
	if se == 0 {
		if b == 0 {
			return 0, 1
		}
		return math.Copysign(math.Inf(1), b), 0
	}
	t := b / se
	return t, 2 * d.Survival(math.Abs(t))
}

// equilibratedCondition returns the 2-norm condition number of x after
// scaling every column to unit length, so units of measure do not count
// against a model.
func equilibratedCondition(x *mat.Dense) (float64, error) {
	n, p := x.Dims()
	scaled := mat.NewDense(n, p, nil)
	for j := 0; j < p; j++ {
		norm := mat.Norm(x.ColView(j), 2)
		if norm == 0 {
			return math.Inf(1), eris.Errorf("column %d is identically zero", j)
		}
		for i := 0; i < n; i++ {
			scaled.Set(i, j, x.At(i, j)/norm)
		}
	}
	return condition(scaled)
}

func rawCondition(x *mat.Dense) float64 {
	c, err := condition(x)
	if err != nil {
		return math.Inf(1)
	}
	return c
}

func condition(m *mat.Dense) (float64, error) {
	var svd mat.SVD
	if !svd.Factorize(m, mat.SVDNone) {
		return math.Inf(1), eris.New("singular value decomposition failed")
	}
	sv := svd.Values(nil)
	last := sv[len(sv)-1]
	if last == 0 {
		return math.Inf(1), nil
	}
	return sv[0] / last, nil
}

func summarizeResiduals(r []float64) Residuals {
	var out Residuals
	data := stats.Float64Data(r)
	out.Min, _ = data.Min()
	out.Max, _ = data.Max()
	out.Median, _ = data.Median()
	if q, err := stats.Quartile(data); err == nil {
		out.Q1, out.Q3 = q.Q1, q.Q3
	}

	var num, den float64
	for i, v := range r {
		den += v * v
		if i > 0 {
			d := v - r[i-1]
			num += d * d
		}
	}
	out.DurbinWatson = num / den

	mean, _ := data.Mean()
	var m2, m3, m4 float64
	for _, v := range r {
		d := v - mean
		d2 := d * d
		m2 += d2
		m3 += d2 * d
		m4 += d2 * d2
	}
	nf := float64(len(r))
	m2, m3, m4 = m2/nf, m3/nf, m4/nf
	out.Skew = m3 / math.Pow(m2, 1.5)
	out.Kurtosis = m4 / (m2 * m2)
	out.JarqueBera = nf / 6 * (out.Skew*out.Skew + (out.Kurtosis-3)*(out.Kurtosis-3)/4)
	out.JBPValue = math.NaN()
	if !math.IsNaN(out.JarqueBera) {
		out.JBPValue = distuv.ChiSquared{K: 2}.Survival(out.JarqueBera)
	}
	return out
}
