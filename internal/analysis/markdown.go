package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"
)

// Markdown renders a compact report suitable for terminals or standalone docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(r.Cols)))

	b.WriteString("[SCHEMA]\n")
	for _, c := range r.Cols {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		name := safeName(c.Name)
		if c.Unit != "" {
			name = fmt.Sprintf("%s [%s]", name, c.Unit)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%)", name, c.Kind, c.NonNull, missPct))
		if c.Kind.IsNumeric() {
			if c.OutlierThreshold > 0 {
				b.WriteString(fmt.Sprintf("; outliers: %d above |z|>%.1f", c.OutliersCount, c.OutlierThreshold))
				if c.OutliersMaxAbsZ > 0 {
					b.WriteString(fmt.Sprintf(" (max |z|≈%.2f)", c.OutliersMaxAbsZ))
				}
			}
		} else if len(c.TopValues) > 0 {
			b.WriteString("; top: ")
			for i, kv := range c.TopValues {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
			}
			if c.Unique > len(c.TopValues) {
				b.WriteString(fmt.Sprintf("; unique=%d", c.Unique))
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("\n[SUMMARY STATISTICS]\n")
	b.WriteString(r.StatsTable())

	if len(r.Groups) > 0 {
		b.WriteString("\n[GROUP-BY SUMMARY]\n")
		for _, g := range r.Groups {
			b.WriteString(fmt.Sprintf("- %s (n=%d)\n", g.Key, g.Size))
			keys := make([]string, 0, len(g.Metrics))
			for k := range g.Metrics {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			if len(keys) > 6 {
				keys = keys[:6]
			}
			for _, k := range keys {
				m := g.Metrics[k]
				b.WriteString(fmt.Sprintf("  • %s: mean %.4g (min %.4g, max %.4g)\n", k, m.Mean, m.Min, m.Max))
			}
		}
	}
	if r.Corr != nil && len(r.Corr.Columns) >= 2 {
		b.WriteString("\n[CORRELATIONS]\n")
		for _, p := range r.Corr.TopPairs(10) {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f\n", p.A, p.B, p.R))
		}
	}
	if len(r.Samples) > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n")
		b.WriteString(Table(r.Header, r.Samples))
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// StatsTable renders the numeric columns as a count/mean/std/quartile table.
func (r *Report) StatsTable() string {
	header := []string{"column", "count", "mean", "std", "min", "25%", "50%", "75%", "max"}
	var rows [][]string
	for _, c := range r.Cols {
		if !c.Kind.IsNumeric() {
			continue
		}
		rows = append(rows, []string{
			c.Name, fmt.Sprint(c.NonNull), num(c.Mean), num(c.Std), num(c.Min),
			num(c.Q1), num(c.Median), num(c.Q3), num(c.Max),
		})
	}
	if len(rows) == 0 {
		return "(no numeric columns)\n"
	}
	return Table(header, rows)
}

// Markdown renders the histogram as a table with percentage annotations.
func (h *Histogram) Markdown() string {
	rows := make([][]string, 0, len(h.Bins))
	for _, bin := range h.Bins {
		rows = append(rows, []string{bin.Label, fmt.Sprint(bin.Count), fmt.Sprintf("%.1f%%", bin.Percent), bar(bin.Percent)})
	}
	return Table([]string{h.Column, "count", "percent", ""}, rows)
}

// Markdown renders the box statistics as a one-row table.
func (b *BoxStats) Markdown() string {
	out := Table(
		[]string{"column", "n", "lower whisker", "25%", "median", "75%", "upper whisker", "outliers"},
		[][]string{{b.Column, fmt.Sprint(b.N), num(b.LowerWhisker), num(b.Q1), num(b.Median), num(b.Q3), num(b.UpperWhisker), fmt.Sprint(len(b.Outliers))}},
	)
	return out
}

// Markdown renders the fitted line and correlation of a regression plot.
func (p *RegPlot) Markdown() string {
	return fmt.Sprintf("- %s vs %s (%s, n=%d): %s = %s + %s·%s, r=%s\n",
		p.Y, p.X, p.Dataset, p.N, p.Y, num(p.Intercept), num(p.Slope), p.X, num(p.R))
}

// Table renders a GitHub-flavoured markdown table.
func Table(header []string, rows [][]string) string {
	var b strings.Builder
	b.WriteString("| ")
	for i, h := range header {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString(safeVal(h))
	}
	b.WriteString(" |\n| ")
	for i := range header {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString("---")
	}
	b.WriteString(" |\n")
	for _, row := range rows {
		b.WriteString("| ")
		for i := range header {
			if i > 0 {
				b.WriteString(" | ")
			}
			val := ""
			if i < len(row) {
				val = row[i]
			}
			b.WriteString(safeVal(truncate(val, 80)))
		}
		b.WriteString(" |\n")
	}
	return b.String()
}

// truncate shortens s to at most n runes, ending in "..." when cut.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}

func num(v float64) string {
	if math.IsNaN(v) {
		return "nan"
	}
	return fmt.Sprintf("%.4g", v)
}

func bar(pct float64) string {
	n := int(math.Round(pct / 2))
	return strings.Repeat("█", n)
}
