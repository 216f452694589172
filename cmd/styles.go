package cmd

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/KaramelBytes/sleepstat-cli/internal/decision"
)

var (
	successColor = lipgloss.Color("#8BC34A")
	warnColor    = lipgloss.Color("#FFC107")
	errorColor   = lipgloss.Color("#e53935")
	mutedColor   = lipgloss.Color("#8a94a6")

	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Foreground(mutedColor)
	rejectStyle = lipgloss.NewStyle().Foreground(successColor).Bold(true)
	keepStyle   = lipgloss.NewStyle().Foreground(warnColor)
	failStyle   = lipgloss.NewStyle().Foreground(errorColor)
)

// renderTable lays out a plain text table sized with lipgloss so styled
// cells keep their alignment.
func renderTable(title string, headers []string, rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}
	var sb strings.Builder
	if title != "" {
		sb.WriteString(titleStyle.Render(title))
		sb.WriteString("\n")
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				if w := lipgloss.Width(cell); w > widths[i] {
					widths[i] = w
				}
			}
		}
	}
	// Width includes the padding.
	total := len(headers) - 1
	for i := range widths {
		widths[i] += 2
		total += widths[i]
	}

	sep := mutedStyle.Render("|")
	for i, h := range headers {
		sb.WriteString(headerStyle.Width(widths[i]).Render(h))
		if i < len(headers)-1 {
			sb.WriteString(sep)
		}
	}
	sb.WriteString("\n")
	sb.WriteString(mutedStyle.Render(strings.Repeat("-", total)))
	sb.WriteString("\n")
	for _, row := range rows {
		for i := range headers {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			sb.WriteString(cellStyle.Width(widths[i]).Render(cell))
			if i < len(headers)-1 {
				sb.WriteString(sep)
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func verdictCell(v decision.Verdict) string {
	switch {
	case !v.Evaluated:
		return failStyle.Render("unevaluable")
	case v.Reject:
		return rejectStyle.Render("reject H0")
	default:
		return keepStyle.Render("fail to reject H0")
	}
}
