// Package color decides whether menu-meters writes colour to a terminal.
//
// It honours NO_COLOR (https://no-color.org/) and turns colour off when the
// output is a pipe or file. When colour is off lipgloss is switched to the
// Ascii profile and frames are printed with the ASCII ramp instead of
// 24-bit half blocks.
package color

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// Disabled reports whether colour must be suppressed on f.
func Disabled(f *os.File) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return true
	}
	if f == nil {
		return true
	}
	fd := f.Fd()
	return !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd)
}

// Profile returns the colour profile to use on f: Ascii when Disabled,
// otherwise whatever the environment advertises.
func Profile(f *os.File) termenv.Profile {
	if Disabled(f) {
		return termenv.Ascii
	}
	return termenv.NewOutput(f).EnvColorProfile()
}

// Apply sets the global lipgloss profile for f and reports whether colour
// output is enabled.
func Apply(f *os.File) bool {
	p := Profile(f)
	lipgloss.SetColorProfile(p)
	return p != termenv.Ascii
}

// ForceDisable switches lipgloss to plain text unconditionally.
func ForceDisable() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// StripANSI removes CSI escape sequences from s.
func StripANSI(s string) string {
	var result []byte
	inEscape := false
	for i := 0; i < len(s); i++ {
		if inEscape {
			if (s[i] >= 'a' && s[i] <= 'z') || (s[i] >= 'A' && s[i] <= 'Z') || s[i] == '~' {
				inEscape = false
			}
			continue
		}
		if s[i] == '\x1b' {
			inEscape = true
			continue
		}
		result = append(result, s[i])
	}
	return string(result)
}
