package tui

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

func TestBindings(t *testing.T) {
	got := Bindings()
	if len(got) != 7 {
		t.Fatalf("Bindings() returned %d, want 7", len(got))
	}
	seen := map[string]bool{}
	for _, b := range got {
		if b.Help().Key == "" || b.Help().Desc == "" {
			t.Errorf("binding %v has no help", b.Keys())
		}
		for _, k := range b.Keys() {
			if seen[k] {
				t.Errorf("key %q bound twice", k)
			}
			seen[k] = true
		}
	}
}

func TestToggleAnyMatchesEveryToggle(t *testing.T) {
	for _, r := range "1234" {
		msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
		if !key.Matches(msg, keys.ToggleAny) {
			t.Errorf("ToggleAny does not match %q", r)
		}
	}
}
