package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

const (
	colorRunning = lipgloss.Color("#2ECC71")
	colorStopped = lipgloss.Color("#7F8C8D")
	colorFrozen  = lipgloss.Color("#9D2F22")
	colorAccent  = lipgloss.Color("#ECF0F1")
)

var (
	styleTitle  = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	styleFooter = lipgloss.NewStyle().Foreground(colorStopped).MarginTop(1)
	styleError  = lipgloss.NewStyle().Foreground(colorFrozen)
	styleHealth = lipgloss.NewStyle().Foreground(colorStopped).PaddingLeft(1)
)

// panelStyle frames one indicator. The border colour tracks its state.
func panelStyle(border lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(border)
}

// dim blends c halfway toward the terminal background so stopped panels
// recede. Invalid colours are returned unchanged.
func dim(c lipgloss.Color) lipgloss.Color {
	fg, err := colorful.Hex(string(c))
	if err != nil {
		return c
	}
	bg, _ := colorful.Hex("#1E1E1E")
	return lipgloss.Color(fg.BlendLab(bg, 0.5).Clamped().Hex())
}
