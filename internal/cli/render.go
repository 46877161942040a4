package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"spendly/internal/core"
	"spendly/internal/pages"
)

var (
	colorBorder = lipgloss.Color("#3f3f46")
	colorMuted  = lipgloss.Color("#9aa1ad")
	colorText   = lipgloss.Color("#e7e9ee")
	colorAccent = lipgloss.Color("#818cf8")
	colorGreen  = lipgloss.Color("#16a34a")
	colorOrange = lipgloss.Color("#f59e0b")
	colorRed    = lipgloss.Color("#dc2626")
	colorBlue   = lipgloss.Color("#2563eb")
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorText)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	valueStyle  = lipgloss.NewStyle().Foreground(colorText)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	borderStyle = lipgloss.NewStyle().Foreground(colorBorder)

	levelStyles = map[string]lipgloss.Style{
		pages.LevelSuccess: lipgloss.NewStyle().Foreground(colorGreen),
		pages.LevelInfo:    lipgloss.NewStyle().Foreground(colorBlue),
		pages.LevelWarning: lipgloss.NewStyle().Foreground(colorOrange),
		pages.LevelError:   lipgloss.NewStyle().Foreground(colorRed).Bold(true),
	}

	severityStyles = map[core.Severity]lipgloss.Style{
		core.SeverityNormal:  lipgloss.NewStyle().Foreground(colorGreen),
		core.SeverityWarning: lipgloss.NewStyle().Foreground(colorOrange),
		core.SeverityDanger:  lipgloss.NewStyle().Foreground(colorRed),
	}
)

// Table is a bordered text table. The first column is left aligned, the
// others right aligned.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// RenderTitle renders title inside a rounded box.
func RenderTitle(title string) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 2)
	return box.Render(titleStyle.Render(title))
}

// RenderTable renders t, or a muted placeholder when it has no rows.
func RenderTable(t Table) string {
	var b strings.Builder
	if t.Title != "" {
		b.WriteString(headerStyle.Render(t.Title))
		b.WriteString("\n")
	}
	if len(t.Rows) == 0 {
		b.WriteString(mutedStyle.Render("  (nothing yet)"))
		b.WriteString("\n")
		return b.String()
	}

	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i := 0; i < len(widths) && i < len(row); i++ {
			if w := lipgloss.Width(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}

	rule := func(left, mid, right string) {
		b.WriteString(borderStyle.Render(left))
		for i, w := range widths {
			b.WriteString(borderStyle.Render(strings.Repeat("─", w+2)))
			if i < len(widths)-1 {
				b.WriteString(borderStyle.Render(mid))
			}
		}
		b.WriteString(borderStyle.Render(right))
		b.WriteString("\n")
	}
	line := func(cells []string, style lipgloss.Style) {
		b.WriteString(borderStyle.Render("│"))
		for i, w := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			pad := strings.Repeat(" ", w-lipgloss.Width(cell))
			if i == 0 {
				b.WriteString(style.Render(" " + cell + pad + " "))
			} else {
				b.WriteString(style.Render(" " + pad + cell + " "))
			}
			b.WriteString(borderStyle.Render("│"))
		}
		b.WriteString("\n")
	}

	rule("╭", "┬", "╮")
	line(t.Headers, headerStyle)
	rule("├", "┼", "┤")
	for _, row := range t.Rows {
		line(row, valueStyle)
	}
	rule("╰", "┴", "╯")
	return b.String()
}

// RenderNotice renders a page notice coloured by its level, or "" when empty.
func RenderNotice(n pages.Notice) string {
	if n.Empty() {
		return ""
	}
	style, ok := levelStyles[n.Level]
	if !ok {
		style = valueStyle
	}
	return style.Render(n.Message)
}

// RenderBar draws p as a bar of width cells followed by its label percentage.
func RenderBar(p core.Progress, width int, severity core.Severity) string {
	if width <= 0 {
		return ""
	}
	filled := int(p.Bar / 100 * float64(width))
	if filled > width {
		filled = width
	}
	style, ok := severityStyles[severity]
	if !ok {
		style = valueStyle
	}
	bar := style.Render(strings.Repeat("█", filled)) + mutedStyle.Render(strings.Repeat("░", width-filled))
	return fmt.Sprintf("%s %3.0f%%", bar, p.Percent)
}

// Muted renders s in the secondary text colour.
func Muted(s string) string {
	return mutedStyle.Render(s)
}
