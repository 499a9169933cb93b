package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the TUI key bindings. It implements help.KeyMap.
type keyMap struct {
	Toggle    [4]key.Binding
	ToggleAny key.Binding
	Health    key.Binding
	Help      key.Binding
	Quit      key.Binding
}

// ShortHelp returns the bindings shown in the footer.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.ToggleAny, k.Health, k.Help, k.Quit}
}

// FullHelp returns the expanded binding groups shown when help is toggled.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		k.Toggle[:],
		{k.Health, k.Help, k.Quit},
	}
}

var keys = keyMap{
	Toggle: [4]key.Binding{
		key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "toggle processor")),
		key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "toggle memory")),
		key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "toggle network")),
		key.NewBinding(key.WithKeys("4"), key.WithHelp("4", "toggle disk")),
	},
	ToggleAny: key.NewBinding(key.WithKeys("1", "2", "3", "4"), key.WithHelp("1-4", "toggle indicator")),
	Health:    key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "health")),
	Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// Bindings returns every dashboard binding in help order.
func Bindings() []key.Binding {
	var out []key.Binding
	for _, group := range keys.FullHelp() {
		out = append(out, group...)
	}
	return out
}
