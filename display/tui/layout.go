package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// panelGap is the number of blank columns between panels on one row.
const panelGap = 1

// arrange lays panels out left to right, starting a new row whenever the
// next panel would overflow width. A width of zero or less puts every
// panel on one row.
func arrange(panels []string, width int) string {
	if len(panels) == 0 {
		return ""
	}
	gap := strings.Repeat(" ", panelGap)

	var rows []string
	var row []string
	used := 0
	for _, p := range panels {
		w := lipgloss.Width(p)
		need := w
		if len(row) > 0 {
			need += panelGap
		}
		if width > 0 && len(row) > 0 && used+need > width {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row, used, need = nil, 0, w
		}
		if len(row) > 0 {
			row = append(row, gap)
		}
		row = append(row, p)
		used += need
	}
	rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// sectionTitle centres title between box-drawing rules: "── Title ──".
func sectionTitle(title string, width int) string {
	if width <= 0 {
		return title
	}
	decorLen := lipgloss.Width(title) + 2
	if decorLen >= width {
		return title
	}
	remaining := width - decorLen
	left := remaining / 2
	right := remaining - left
	return strings.Repeat("─", left) + " " + title + " " + strings.Repeat("─", right)
}

// blank returns a cols by rows block of spaces.
func blank(cols, rows int) string {
	if cols <= 0 || rows <= 0 {
		return ""
	}
	line := strings.Repeat(" ", cols)
	lines := make([]string, rows)
	for i := range lines {
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}
