package tui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestArrange(t *testing.T) {
	a := blank(10, 2)
	tests := []struct {
		name     string
		width    int
		n        int
		wantRows int
	}{
		{"all fit", 80, 4, 1},
		{"unbounded", 0, 4, 1},
		{"two per row", 21, 4, 2},
		{"one per row", 15, 3, 3},
		{"narrower than a panel", 5, 2, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			panels := make([]string, tt.n)
			for i := range panels {
				panels[i] = a
			}
			out := arrange(panels, tt.width)
			if got := lipgloss.Height(out); got != tt.wantRows*2 {
				t.Errorf("height = %d, want %d", got, tt.wantRows*2)
			}
			if tt.width >= 10 {
				if got := lipgloss.Width(out); got > tt.width {
					t.Errorf("width = %d exceeds %d", got, tt.width)
				}
			}
		})
	}
}

func TestArrange_Empty(t *testing.T) {
	if got := arrange(nil, 80); got != "" {
		t.Errorf("arrange(nil) = %q", got)
	}
}

func TestSectionTitle(t *testing.T) {
	tests := []struct {
		title string
		width int
		want  string
	}{
		{"cpu", 9, "── cpu ──"},
		{"cpu", 10, "── cpu ───"},
		{"memory", 4, "memory"},
		{"disk", 0, "disk"},
	}
	for _, tt := range tests {
		if got := sectionTitle(tt.title, tt.width); got != tt.want {
			t.Errorf("sectionTitle(%q, %d) = %q, want %q", tt.title, tt.width, got, tt.want)
		}
	}
}

func TestBlank(t *testing.T) {
	got := blank(3, 2)
	if got != "   \n   " {
		t.Errorf("blank(3, 2) = %q", got)
	}
	if blank(0, 2) != "" || blank(2, 0) != "" {
		t.Error("blank with zero dimension should be empty")
	}
	if strings.Count(blank(4, 3), "\n") != 2 {
		t.Error("blank(4, 3) should have three lines")
	}
}
