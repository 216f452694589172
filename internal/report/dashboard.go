// Package report assembles the study dashboard (data previews, hypotheses,
// exploratory statistics, model summaries and verdicts) and renders it.
package report

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/KaramelBytes/sleepstat-cli/internal/analysis"
	"github.com/KaramelBytes/sleepstat-cli/internal/dataset"
	"github.com/KaramelBytes/sleepstat-cli/internal/decision"
	"github.com/KaramelBytes/sleepstat-cli/internal/hypothesis"
	"github.com/KaramelBytes/sleepstat-cli/internal/pipeline"
)

// Options control dashboard assembly.
type Options struct {
	Title string
	// SampleRows is the number of rows shown per dataset preview.
	SampleRows int
	// Points keeps the raw scatter points of regression plots.
	Points bool
}

// Preview is the head of one raw dataset.
type Preview struct {
	Role   dataset.Role `json:"role" yaml:"role"`
	Name   string       `json:"name" yaml:"name"`
	Rows   int          `json:"rows" yaml:"rows"`
	Header []string     `json:"header" yaml:"header"`
	Head   [][]string   `json:"head" yaml:"head"`
}

// HypothesisView is a hypothesis with the formula of the model that tests it.
type HypothesisView struct {
	ID          string              `json:"id" yaml:"id"`
	Category    hypothesis.Category `json:"category" yaml:"category"`
	Question    string              `json:"question" yaml:"question"`
	Null        string              `json:"null" yaml:"null"`
	Alternative string              `json:"alternative" yaml:"alternative"`
	Expected    hypothesis.Sign     `json:"expected" yaml:"expected"`
	Model       string              `json:"model" yaml:"model"`
	Formula     string              `json:"formula" yaml:"formula"`
	Term        string              `json:"term" yaml:"term"`
}

// EDA holds the exploratory statistics of the merged dataset.
type EDA struct {
	Summary    *analysis.Report      `json:"summary,omitempty" yaml:"summary,omitempty"`
	Histograms []*analysis.Histogram `json:"histograms,omitempty" yaml:"histograms,omitempty"`
	Boxes      []*analysis.BoxStats  `json:"boxes,omitempty" yaml:"boxes,omitempty"`
}

// Dashboard is everything the report renders.
type Dashboard struct {
	Title       string                  `json:"title" yaml:"title"`
	GeneratedAt time.Time               `json:"generated_at" yaml:"generated_at"`
	RunID       string                  `json:"run_id" yaml:"run_id"`
	Alpha       float64                 `json:"alpha" yaml:"alpha"`
	Previews    []Preview               `json:"previews" yaml:"previews"`
	Hypotheses  []HypothesisView        `json:"hypotheses" yaml:"hypotheses"`
	EDA         EDA                     `json:"eda" yaml:"eda"`
	RegPlots    []*analysis.RegPlot     `json:"regression_plots" yaml:"regression_plots"`
	Correlation *analysis.CorrMatrix    `json:"correlation,omitempty" yaml:"correlation,omitempty"`
	Models      []pipeline.ModelOutcome `json:"models" yaml:"models"`
	Verdicts    []decision.Verdict      `json:"verdicts" yaml:"verdicts"`
	Conclusion  []string                `json:"conclusion" yaml:"conclusion"`
	Warnings    []string                `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

var (
	previewRoles    = []dataset.Role{dataset.RoleSleepProductivity, dataset.RoleSleepHealth}
	histogramFields = []dataset.Field{dataset.FieldAgeCategory, dataset.FieldGender, dataset.FieldBMICategory, dataset.FieldStress, dataset.FieldSleepQuality}
	boxFields       = []dataset.Field{dataset.FieldAge, dataset.FieldSleepQuality}
	plotDefs        = []struct {
		role dataset.Role
		x, y dataset.Field
	}{
		{dataset.RoleMerged, dataset.FieldAge, dataset.FieldSleepQuality},
		{dataset.RoleMerged, dataset.FieldExercise, dataset.FieldSleepQuality},
		{dataset.RoleMerged, dataset.FieldStress, dataset.FieldSleepQuality},
		{dataset.RoleMerged, dataset.FieldCaffeine, dataset.FieldSleepQuality},
		{dataset.RoleMerged, dataset.FieldScreenTime, dataset.FieldSleepQuality},
		{dataset.RoleCleaned, dataset.FieldHeartRate, dataset.FieldSleepQuality},
		{dataset.RoleCleaned, dataset.FieldDailySteps, dataset.FieldSleepQuality},
		{dataset.RoleCleaned, dataset.FieldBMICode, dataset.FieldSleepQuality},
		{dataset.RoleMerged, dataset.FieldSleepQuality, dataset.FieldProductivity},
		{dataset.RoleMerged, dataset.FieldSleepQuality, dataset.FieldMood},
	}
)

// Build assembles a dashboard from the provider's tables and a finished run.
// Sections whose data is unavailable are skipped with a warning.
func Build(ctx context.Context, p dataset.Provider, r *hypothesis.Resolver, out *pipeline.Outcome, opt Options) (*Dashboard, error) {
	if out == nil {
		return nil, eris.New("report: no evaluation outcome")
	}
	if r == nil {
		r = hypothesis.NewResolver(nil)
	}
	if opt.SampleRows <= 0 {
		opt.SampleRows = 5
	}
	if opt.Title == "" {
		opt.Title = "Sleep, Lifestyle and Productivity Study"
	}
	schema := r.Schema()
	d := &Dashboard{
		Title:       opt.Title,
		GeneratedAt: time.Now().UTC(),
		RunID:       out.RunID,
		Alpha:       out.Alpha,
		Models:      out.Models,
		Verdicts:    out.Verdicts,
	}
	warn := func(format string, args ...any) {
		msg := fmt.Sprintf(format, args...)
		d.Warnings = append(d.Warnings, msg)
		zap.L().Warn("dashboard section skipped", zap.String("reason", msg))
	}
	table := func(role dataset.Role) *dataset.Table {
		t, err := p.Table(ctx, role)
		if err != nil {
			warn("%s: %v", role, err)
			return nil
		}
		return t
	}

	for _, role := range previewRoles {
		if t := table(role); t != nil {
			d.Previews = append(d.Previews, Preview{Role: role, Name: t.Name(), Rows: t.Rows(), Header: t.Columns(), Head: t.Head(opt.SampleRows)})
		}
	}

	for _, h := range hypothesis.List() {
		v := HypothesisView{ID: h.ID, Category: h.Category, Question: h.Question, Null: h.Null, Alternative: h.Alternative,
			Expected: h.Expected, Model: h.Model, Term: r.TermColumn(h)}
		if spec, err := r.Model(h.Model); err == nil {
			v.Formula = spec.Formula()
		}
		d.Hypotheses = append(d.Hypotheses, v)
	}

	tables := map[dataset.Role]*dataset.Table{}
	merged := table(dataset.RoleMerged)
	tables[dataset.RoleMerged] = merged
	if merged != nil {
		aopt := analysis.DefaultOptions()
		aopt.SampleRows = opt.SampleRows
		aopt.Correlations = false
		d.EDA.Summary = analysis.Describe(merged, aopt)
		for _, f := range histogramFields {
			h, err := analysis.NewHistogram(merged, schema.Column(f))
			if err != nil {
				warn("histogram %s: %v", schema.Column(f), err)
				continue
			}
			d.EDA.Histograms = append(d.EDA.Histograms, h)
		}
		for _, f := range boxFields {
			b, err := analysis.NewBoxStats(merged, schema.Column(f))
			if err != nil {
				warn("box plot %s: %v", schema.Column(f), err)
				continue
			}
			d.EDA.Boxes = append(d.EDA.Boxes, b)
		}
		var numeric []string
		for _, c := range merged.NumericColumns() {
			numeric = append(numeric, c.Name)
		}
		if len(numeric) >= 2 {
			m, err := analysis.Correlation(merged, numeric...)
			if err != nil {
				warn("correlation: %v", err)
			}
			d.Correlation = m
		}
	}

	for _, pd := range plotDefs {
		t, seen := tables[pd.role]
		if !seen {
			t = table(pd.role)
			tables[pd.role] = t
		}
		if t == nil {
			continue
		}
		rp, err := analysis.NewRegPlot(t, schema.Column(pd.x), schema.Column(pd.y))
		if err != nil {
			warn("regression plot %s vs %s: %v", schema.Column(pd.y), schema.Column(pd.x), err)
			continue
		}
		if !opt.Points {
			rp.Points = nil
		}
		d.RegPlots = append(d.RegPlots, rp)
	}

	d.Conclusion = conclude(out)
	return d, nil
}

// conclude writes the closing notes from the verdicts and fits.
func conclude(out *pipeline.Outcome) []string {
	var lines []string
	var significant, insignificant []string
	for _, v := range out.Verdicts {
		switch {
		case !v.Evaluated:
			lines = append(lines, fmt.Sprintf("%s could not be evaluated: %s", v.HypothesisID, v.Error))
		case v.Reject:
			note := fmt.Sprintf("%s (%s): significant %s effect, %s", v.HypothesisID, v.Term, v.Direction, decision.FormatP(v.PValue))
			if !v.DirectionMatches {
				note += ", opposite to the hypothesised direction"
			}
			significant = append(significant, note)
		default:
			insignificant = append(insignificant, fmt.Sprintf("%s (%s): no significant effect, %s", v.HypothesisID, v.Term, decision.FormatP(v.PValue)))
		}
	}
	lines = append(lines, significant...)
	lines = append(lines, insignificant...)

	for _, m := range out.Models {
		if !m.OK() {
			continue
		}
		r2 := m.Fit.RSquared
		if math.IsNaN(r2) {
			continue
		}
		note := fmt.Sprintf("Model %s explains %.1f%% of the variance in %s (R²=%.3f).", m.ID, 100*r2, m.Fit.Target, r2)
		if r2 < 0.1 {
			note += " Predictive power is weak."
		}
		lines = append(lines, note)
	}
	lines = append(lines,
		fmt.Sprintf("Each hypothesis was tested at alpha=%g with no correction for multiple comparisons.", out.Alpha),
		"Hypotheses H1 to H4 share one joint model, so their coefficients are effects holding the other predictors constant.",
	)
	return lines
}
