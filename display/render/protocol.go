// Package render turns indicator draw commands into pixels and pixels into
// terminal output. Raster is the canvas.Canvas implementation; HalfBlocks,
// EncodeKitty and EncodeITerm2 write a presented frame to a terminal.
package render

import (
	"fmt"
	"os"
	"strings"
)

// Protocol identifies how frames are written to the terminal.
type Protocol int

const (
	// ProtocolUnicode uses upper half-block characters with 24-bit ANSI colour.
	ProtocolUnicode Protocol = iota
	// ProtocolKitty uses the Kitty graphics protocol (Kitty, Ghostty, WezTerm).
	ProtocolKitty
	// ProtocolITerm2 uses iTerm2 inline images.
	ProtocolITerm2
)

func (p Protocol) String() string {
	switch p {
	case ProtocolUnicode:
		return "unicode"
	case ProtocolKitty:
		return "kitty"
	case ProtocolITerm2:
		return "iterm2"
	default:
		return "unknown"
	}
}

// ParseProtocol maps a configuration value to a Protocol. "auto" and the
// empty string run DetectProtocolWithContext.
func ParseProtocol(s string) (Protocol, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return DetectProtocolWithContext(), nil
	case "unicode", "halfblock", "half-block":
		return ProtocolUnicode, nil
	case "kitty":
		return ProtocolKitty, nil
	case "iterm2":
		return ProtocolITerm2, nil
	default:
		return ProtocolUnicode, fmt.Errorf("render: unknown protocol %q", s)
	}
}

// DetectProtocol inspects the environment for a graphics-capable terminal.
//
// Detection order:
//  1. TERM_PROGRAM for known emulators
//  2. TERM=xterm-kitty
//  3. KITTY_WINDOW_ID
//  4. iTerm2 session variables
//  5. WEZTERM_EXECUTABLE
//  6. half-blocks otherwise
func DetectProtocol() Protocol {
	switch strings.ToLower(os.Getenv("TERM_PROGRAM")) {
	case "ghostty", "kitty", "wezterm":
		return ProtocolKitty
	case "iterm.app":
		return ProtocolITerm2
	case "apple_terminal":
		return ProtocolUnicode
	}

	if os.Getenv("TERM") == "xterm-kitty" {
		return ProtocolKitty
	}
	if os.Getenv("KITTY_WINDOW_ID") != "" {
		return ProtocolKitty
	}
	if os.Getenv("ITERM_SESSION_ID") != "" || os.Getenv("LC_TERMINAL") == "iTerm2" {
		return ProtocolITerm2
	}
	if os.Getenv("WEZTERM_EXECUTABLE") != "" {
		return ProtocolKitty
	}
	return ProtocolUnicode
}

// IsSSHSession reports whether we run inside an SSH session.
func IsSSHSession() bool {
	return os.Getenv("SSH_CLIENT") != "" || os.Getenv("SSH_CONNECTION") != "" ||
		os.Getenv("SSH_TTY") != ""
}

// IsTmuxSession reports whether we run inside tmux.
func IsTmuxSession() bool {
	return os.Getenv("TMUX") != ""
}

// DetectProtocolWithContext is DetectProtocol degraded to half-blocks over
// SSH and inside tmux, where graphics escapes are rarely passed through.
func DetectProtocolWithContext() Protocol {
	p := DetectProtocol()
	if p != ProtocolUnicode && (IsSSHSession() || IsTmuxSession()) {
		return ProtocolUnicode
	}
	return p
}
