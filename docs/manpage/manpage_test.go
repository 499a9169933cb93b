package manpage

import (
	"flag"
	"strings"
	"testing"
)

func testFlags() *flag.FlagSet {
	fs := flag.NewFlagSet("menu-meters", flag.ContinueOnError)
	fs.String("config", "", "Path to `file`")
	fs.Bool("once", false, "Run one tick per indicator")
	fs.Bool("tui", true, "Run the interactive dashboard")
	return fs
}

func TestGenerate_Sections(t *testing.T) {
	page := Generate("0.3.0", "abc1234", "2026-02-06", testFlags())

	if !strings.HasPrefix(page, ".TH MENU-METERS 1") {
		t.Errorf("page should start with .TH header, got %q", page[:40])
	}
	for _, section := range []string{
		".SH NAME",
		".SH SYNOPSIS",
		".SH DESCRIPTION",
		".SH OPTIONS",
		".SH KEYBINDINGS",
		".SH CONFIGURATION",
		".SH SETTINGS",
		".SH FILES",
		".SH EXAMPLES",
		".SH ENVIRONMENT",
		".SH EXIT STATUS",
		".SH SEE ALSO",
		".SH VERSION",
	} {
		if !strings.Contains(page, section) {
			t.Errorf("page missing %s", section)
		}
	}
	if !strings.Contains(page, "0.3.0 (abc1234) built 2026-02-06") {
		t.Error("page missing version footer")
	}
}

func TestGenerate_Options(t *testing.T) {
	page := Generate("dev", "none", "unknown", testFlags())

	for _, want := range []string{
		`\fB\-config\fR \fIfile\fR`,
		`\fB\-once\fR`,
		`Run the interactive dashboard (default: true)`,
	} {
		if !strings.Contains(page, want) {
			t.Errorf("options missing %q", want)
		}
	}
	if strings.Contains(page, "Run one tick per indicator (default") {
		t.Error("false booleans should not show a default")
	}
}

func TestGenerate_NilFlags(t *testing.T) {
	page := Generate("dev", "none", "unknown", nil)
	if !strings.Contains(page, ".SH OPTIONS\n.SH KEYBINDINGS") {
		t.Error("nil flag set should leave OPTIONS empty")
	}
}

func TestGenerate_KeybindingsAndSettings(t *testing.T) {
	page := Generate("dev", "none", "unknown", nil)

	for _, want := range []string{
		"toggle processor",
		"toggle disk",
		"q, ctrl+c",
		"diskSpaceUnit",
		"processorUserUsedGraphColor",
	} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestRoffEscape(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"a-b", `a\-b`},
		{`back\slash`, `back\\slash`},
		{".leading", `\&.leading`},
		{"mid.dot", "mid.dot"},
	}
	for _, tt := range tests {
		if got := roffEscape(tt.in); got != tt.want {
			t.Errorf("roffEscape(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
