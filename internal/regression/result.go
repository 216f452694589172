package regression

// InterceptName labels the constant term in fit results.
const InterceptName = "const"

// Term is one coefficient row of a fitted model.
type Term struct {
	Name   string  `json:"name" yaml:"name"`
	Coef   float64 `json:"coef" yaml:"coef"`
	StdErr float64 `json:"std_err" yaml:"std_err"`
	TStat  float64 `json:"t" yaml:"t"`
	PValue float64 `json:"p_value" yaml:"p_value"`
	CILow  float64 `json:"ci_low" yaml:"ci_low"`
	CIHigh float64 `json:"ci_high" yaml:"ci_high"`
}

// Residuals summarises the residual distribution of a fit.
type Residuals struct {
	Min          float64 `json:"min" yaml:"min"`
	Q1           float64 `json:"q1" yaml:"q1"`
	Median       float64 `json:"median" yaml:"median"`
	Q3           float64 `json:"q3" yaml:"q3"`
	Max          float64 `json:"max" yaml:"max"`
	DurbinWatson float64 `json:"durbin_watson" yaml:"durbin_watson"`
	Skew         float64 `json:"skew" yaml:"skew"`
	Kurtosis     float64 `json:"kurtosis" yaml:"kurtosis"`
	JarqueBera   float64 `json:"jarque_bera" yaml:"jarque_bera"`
	JBPValue     float64 `json:"jb_p_value" yaml:"jb_p_value"`
}

// FitResult is the outcome of one OLS fit. Terms start with the intercept
// when the model has one, followed by the predictors in spec order.
type FitResult struct {
	Model        string `json:"model" yaml:"model"`
	Title        string `json:"title" yaml:"title"`
	Dataset      string `json:"dataset" yaml:"dataset"`
	Target       string `json:"target" yaml:"target"`
	Formula      string `json:"formula" yaml:"formula"`
	HasIntercept bool   `json:"has_intercept" yaml:"has_intercept"`

	Observations int `json:"observations" yaml:"observations"`
	DFModel      int `json:"df_model" yaml:"df_model"`
	DFResid      int `json:"df_resid" yaml:"df_resid"`

	Terms []Term `json:"terms" yaml:"terms"`

	RSquared      float64 `json:"r_squared" yaml:"r_squared"`
	AdjRSquared   float64 `json:"adj_r_squared" yaml:"adj_r_squared"`
	FStat         float64 `json:"f_statistic" yaml:"f_statistic"`
	FPValue       float64 `json:"f_p_value" yaml:"f_p_value"`
	LogLikelihood float64 `json:"log_likelihood" yaml:"log_likelihood"`
	AIC           float64 `json:"aic" yaml:"aic"`
	BIC           float64 `json:"bic" yaml:"bic"`
	// ConditionNumber of the raw design matrix.
	ConditionNumber float64 `json:"condition_number" yaml:"condition_number"`

	Residuals Residuals `json:"residuals" yaml:"residuals"`
	// Imputed counts the values filled with the column mean, per column.
	Imputed map[string]int `json:"imputed,omitempty" yaml:"imputed,omitempty"`
}

// Term looks up a coefficient row by name.
func (f *FitResult) Term(name string) (Term, bool) {
	for _, t := range f.Terms {
		if t.Name == name {
			return t, true
		}
	}
	return Term{}, false
}

// Coefficients returns the coefficient values in term order.
func (f *FitResult) Coefficients() []float64 {
	out := make([]float64, len(f.Terms))
	for i, t := range f.Terms {
		out[i] = t.Coef
	}
	return out
}
