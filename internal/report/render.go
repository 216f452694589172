package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"math"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/sleepstat-cli/internal/analysis"
	"github.com/KaramelBytes/sleepstat-cli/internal/decision"
	"github.com/KaramelBytes/sleepstat-cli/internal/hypothesis"
)

// Supported output formats.
const (
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
	FormatJSON     = "json"
	FormatYAML     = "yaml"
)

// Formats lists the accepted values of --format.
func Formats() []string { return []string{FormatMarkdown, FormatHTML, FormatJSON, FormatYAML} }

// Render writes d to w in the given format.
func Render(w io.Writer, d *Dashboard, format string) error {
	var (
		out []byte
		err error
	)
	switch strings.ToLower(format) {
	case "", FormatMarkdown, "md":
		out = []byte(Markdown(d))
	case FormatHTML:
		out, err = HTML(d)
	case FormatJSON:
		out, err = JSON(d)
	case FormatYAML, "yml":
		out, err = YAML(d)
	default:
		return eris.Errorf("unsupported format %q (use %s)", format, strings.Join(Formats(), ", "))
	}
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

// Markdown renders the dashboard as one document, one section per tab.
func Markdown(d *Dashboard) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", d.Title)
	fmt.Fprintf(&b, "Generated %s · run `%s` · alpha %g\n", d.GeneratedAt.Format("2006-01-02 15:04 MST"), d.RunID, d.Alpha)

	b.WriteString("\n## Data Preview\n")
	for _, p := range d.Previews {
		fmt.Fprintf(&b, "\n### %s (%s, %d rows)\n\n", p.Role, p.Name, p.Rows)
		b.WriteString(analysis.Table(p.Header, p.Head))
	}

	b.WriteString("\n## Hypotheses\n")
	for _, c := range hypothesis.Categories() {
		fmt.Fprintf(&b, "\n### %s\n\n", c)
		for _, h := range d.Hypotheses {
			if h.Category != c {
				continue
			}
			fmt.Fprintf(&b, "**%s. %s**\n\n", h.ID, h.Question)
			fmt.Fprintf(&b, "- H0: %s\n- H1: %s\n- Model: `%s`\n\n", h.Null, h.Alternative, h.Formula)
		}
	}

	b.WriteString("## Exploratory Data Analysis\n")
	if d.EDA.Summary != nil {
		fmt.Fprintf(&b, "\n### Summary statistics (%s)\n\n", d.EDA.Summary.Name)
		b.WriteString(d.EDA.Summary.StatsTable())
	}
	for _, h := range d.EDA.Histograms {
		fmt.Fprintf(&b, "\n### Distribution of %s\n\n", h.Column)
		b.WriteString(h.Markdown())
	}
	if len(d.EDA.Boxes) > 0 {
		b.WriteString("\n### Box plots\n\n")
		for _, bx := range d.EDA.Boxes {
			b.WriteString(bx.Markdown())
			b.WriteString("\n")
		}
	}

	b.WriteString("\n## Regression Plots\n\n")
	for _, p := range d.RegPlots {
		b.WriteString(p.Markdown())
	}

	b.WriteString("\n## Correlation Matrix\n\n")
	if d.Correlation != nil {
		header := append([]string{""}, d.Correlation.Columns...)
		rows := make([][]string, len(d.Correlation.Columns))
		for i, name := range d.Correlation.Columns {
			row := []string{name}
			for _, v := range d.Correlation.Values[i] {
				row = append(row, corr(v))
			}
			rows[i] = row
		}
		b.WriteString(analysis.Table(header, rows))
	} else {
		b.WriteString("(not available)\n")
	}

	b.WriteString("\n## OLS Regression\n")
	for _, m := range d.Models {
		fmt.Fprintf(&b, "\n### %s\n\n`%s` on %s\n\n", m.Title, m.Formula, m.Dataset)
		if !m.OK() {
			fmt.Fprintf(&b, "> model could not be fit: %s\n", m.Error)
			continue
		}
		b.WriteString("```\n")
		b.WriteString(m.Fit.Summary())
		b.WriteString("```\n")
	}

	b.WriteString("\n## Verdicts\n\n")
	rows := make([][]string, 0, len(d.Verdicts))
	for _, v := range d.Verdicts {
		rows = append(rows, []string{v.HypothesisID, v.Term, verdictLabel(v), pCell(v), v.Rationale})
	}
	b.WriteString(analysis.Table([]string{"hypothesis", "term", "verdict", "p-value", "rationale"}, rows))

	b.WriteString("\n## Conclusion\n\n")
	for _, line := range d.Conclusion {
		fmt.Fprintf(&b, "- %s\n", line)
	}
	if len(d.Warnings) > 0 {
		b.WriteString("\n## Notes\n\n")
		for _, w := range d.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}
	return b.String()
}

// HTML renders the markdown document as a standalone HTML page.
func HTML(d *Dashboard) ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var body bytes.Buffer
	if err := md.Convert([]byte(Markdown(d)), &body); err != nil {
		return nil, eris.Wrap(err, "render html")
	}
	var page bytes.Buffer
	fmt.Fprintf(&page, htmlHead, html.EscapeString(d.Title))
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return page.Bytes(), nil
}

const htmlHead = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 72rem; margin: 2rem auto; padding: 0 1rem; }
table { border-collapse: collapse; margin: 1rem 0; }
th, td { border: 1px solid #ccc; padding: .25rem .5rem; text-align: right; }
pre { background: #f6f8fa; padding: 1rem; overflow-x: auto; }
</style>
</head>
<body>
`

// JSON renders the dashboard as indented JSON. Undefined statistics (NaN,
// ±Inf) become null.
func JSON(d *Dashboard) ([]byte, error) { return EncodeJSON(d) }

// YAML renders the dashboard as YAML.
func YAML(d *Dashboard) ([]byte, error) { return EncodeYAML(d) }

// EncodeJSON encodes v as indented JSON with NaN and ±Inf written as null.
func EncodeJSON(v any) ([]byte, error) {
	// Round-trip through YAML, which represents NaN and Inf, so the tree can
	// be cleaned before encoding/json sees it.
	raw, err := yaml.Marshal(v)
	if err != nil {
		return nil, eris.Wrap(err, "encode value")
	}
	var tree any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return nil, eris.Wrap(err, "decode value")
	}
	out, err := json.MarshalIndent(finite(tree), "", "  ")
	if err != nil {
		return nil, eris.Wrap(err, "encode json")
	}
	return append(out, '\n'), nil
}

// EncodeYAML encodes v as YAML.
func EncodeYAML(v any) ([]byte, error) {
	out, err := yaml.Marshal(v)
	if err != nil {
		return nil, eris.Wrap(err, "encode yaml")
	}
	return out, nil
}

func finite(v any) any {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil
		}
		return t
	case map[string]any:
		for k, e := range t {
			t[k] = finite(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = finite(e)
		}
		return t
	default:
		return v
	}
}

func verdictLabel(v decision.Verdict) string {
	switch {
	case !v.Evaluated:
		return "unevaluable"
	case v.Reject:
		return "reject H0"
	default:
		return "fail to reject H0"
	}
}

func pCell(v decision.Verdict) string {
	if !v.Evaluated {
		return ""
	}
	return strings.TrimPrefix(decision.FormatP(v.PValue), "p=")
}

func corr(v float64) string {
	if math.IsNaN(v) {
		return "nan"
	}
	return fmt.Sprintf("%.2f", v)
}
