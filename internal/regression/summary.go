package regression

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Summary renders the fit as a plain-text OLS results table.
func (f *FitResult) Summary() string {
	nameW := 10
	for _, t := range f.Terms {
		if len(t.Name) > nameW {
			nameW = len(t.Name)
		}
	}
	width := nameW + 2 + 6*11
	if width < 78 {
		width = 78
	}
	heavy := strings.Repeat("=", width)
	light := strings.Repeat("-", width)
	half := width / 2

	var b strings.Builder
	title := "OLS Regression Results"
	fmt.Fprintf(&b, "%*s\n", (width+len(title))/2, title)
	b.WriteString(heavy + "\n")
	pair := func(l1, v1, l2, v2 string) {
		left := fmt.Sprintf("%-20s%*s", l1, half-22, v1)
		fmt.Fprintf(&b, "%s  %-20s%*s\n", left, l2, width-half-20, v2)
	}
	pair("Dep. Variable:", f.Target, "R-squared:", num(f.RSquared, 3))
	pair("Model:", f.Model, "Adj. R-squared:", num(f.AdjRSquared, 3))
	pair("Method:", "Least Squares", "F-statistic:", num(f.FStat, 4))
	pair("No. Observations:", fmt.Sprint(f.Observations), "Prob (F-statistic):", num(f.FPValue, 3))
	pair("Df Residuals:", fmt.Sprint(f.DFResid), "Log-Likelihood:", num(f.LogLikelihood, 2))
	pair("Df Model:", fmt.Sprint(f.DFModel), "AIC:", num(f.AIC, 1))
	pair("Covariance Type:", "nonrobust", "BIC:", num(f.BIC, 1))
	b.WriteString(heavy + "\n")

	fmt.Fprintf(&b, "%-*s%11s%11s%11s%11s%11s%11s\n", nameW+2, "", "coef", "std err", "t", "P>|t|", "[0.025", "0.975]")
	b.WriteString(light + "\n")
	for _, t := range f.Terms {
		fmt.Fprintf(&b, "%-*s%11s%11s%11s%11s%11s%11s\n", nameW+2, t.Name,
			num(t.Coef, 4), num(t.StdErr, 3), num(t.TStat, 3), num(t.PValue, 3), num(t.CILow, 3), num(t.CIHigh, 3))
	}
	b.WriteString(heavy + "\n")

	r := f.Residuals
	pair("Durbin-Watson:", num(r.DurbinWatson, 3), "Jarque-Bera (JB):", num(r.JarqueBera, 3))
	pair("Skew:", num(r.Skew, 3), "Prob(JB):", num(r.JBPValue, 3))
	pair("Kurtosis:", num(r.Kurtosis, 3), "Cond. No.", num(f.ConditionNumber, 3))
	b.WriteString(heavy + "\n")

	if len(f.Imputed) > 0 {
		cols := make([]string, 0, len(f.Imputed))
		for c := range f.Imputed {
			cols = append(cols, c)
		}
		sort.Strings(cols)
		b.WriteString("\nMean-imputed values:\n")
		for _, c := range cols {
			fmt.Fprintf(&b, "  %s: %d\n", c, f.Imputed[c])
		}
	}
	return b.String()
}

func num(v float64, prec int) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	a := math.Abs(v)
	if a != 0 && (a >= 1e6 || a < math.Pow(10, -float64(prec))) {
		return fmt.Sprintf("%.*e", min(prec, 3), v)
	}
	return fmt.Sprintf("%.*f", prec, v)
}
