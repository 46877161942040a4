package cli

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"

	"spendly/internal/core"
	"spendly/internal/pages"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func TestRenderTable(t *testing.T) {
	out := RenderTable(Table{
		Title:   "Budgets",
		Headers: []string{"Category", "Amount"},
		Rows: [][]string{
			{"Food", "100.00"},
			{"Transportation", "5.00"},
		},
	})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Equal(t, "Budgets", lines[0])
	assert.Equal(t, "│ Food           │ 100.00 │", lines[4])
	assert.Equal(t, "│ Transportation │   5.00 │", lines[5])

	for _, l := range lines[1:] {
		assert.Equal(t, lipgloss.Width(lines[1]), lipgloss.Width(l), "rows are aligned")
	}
}

func TestRenderTableEmpty(t *testing.T) {
	out := RenderTable(Table{Headers: []string{"Item"}})
	assert.Contains(t, out, "(nothing yet)")
}

func TestRenderBar(t *testing.T) {
	tests := []struct {
		name string
		p    core.Progress
		want string
	}{
		{"empty", core.Progress{}, "░░░░░░░░░░   0%"},
		{"half", core.Progress{Percent: 50, Bar: 50}, "█████░░░░░  50%"},
		{"over", core.Progress{Percent: 120, Bar: 100}, "██████████ 120%"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RenderBar(tt.p, 10, core.SeverityNormal))
		})
	}
	assert.Empty(t, RenderBar(core.Progress{}, 0, core.SeverityNormal))
}

func TestRenderNotice(t *testing.T) {
	assert.Empty(t, RenderNotice(pages.Notice{}))
	assert.Equal(t, "Saved", RenderNotice(pages.Notice{Level: pages.LevelSuccess, Message: "Saved"}))
}
