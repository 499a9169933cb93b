package color

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/muesli/termenv"
)

func TestDisabled_NOCOLOR(t *testing.T) {
	for _, val := range []string{"", "1", "anything"} {
		t.Run(val, func(t *testing.T) {
			t.Setenv("NO_COLOR", val)
			if !Disabled(os.Stdout) {
				t.Errorf("Disabled() = false with NO_COLOR=%q", val)
			}
		})
	}
}

func TestDisabled_NotATerminal(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	os.Unsetenv("NO_COLOR")
	f, err := os.Create(filepath.Join(t.TempDir(), "out.txt"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if !Disabled(f) {
		t.Error("Disabled() = false for a regular file")
	}
	if !Disabled(nil) {
		t.Error("Disabled(nil) = false")
	}
	if p := Profile(f); p != termenv.Ascii {
		t.Errorf("Profile() = %v, want Ascii", p)
	}
}

func TestApply_NOCOLOR(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	if Apply(os.Stdout) {
		t.Error("Apply() = true with NO_COLOR set")
	}
}

func TestStripANSI(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain text unchanged",
			input: "hello world",
			want:  "hello world",
		},
		{
			name:  "strips color codes",
			input: "\x1b[31mred text\x1b[0m",
			want:  "red text",
		},
		{
			name:  "strips bold",
			input: "\x1b[1mbold\x1b[0m normal",
			want:  "bold normal",
		},
		{
			name:  "strips multiple sequences",
			input: "\x1b[1;31;40mstyle\x1b[0m gap \x1b[32mgreen\x1b[0m",
			want:  "style gap green",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "cursor control stripped",
			input: "\x1b[?25h",
			want:  "",
		},
		{
			name:  "preserves unicode",
			input: "⇣ \x1b[32m12 Ko/s\x1b[0m ⇡ 3 Ko/s",
			want:  "⇣ 12 Ko/s ⇡ 3 Ko/s",
		},
		{
			name:  "preserves half blocks",
			input: "\x1b[38;2;9;9;9m▀\x1b[0m\x1b[38;2;1;1;1m▄\x1b[0m",
			want:  "▀▄",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StripANSI(tt.input)
			if got != tt.want {
				t.Errorf("StripANSI(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestStripANSI_NoEscapesInOutput(t *testing.T) {
	inputs := []string{
		"\x1b[31mred\x1b[0m",
		"\x1b[38;2;1;2;3m\x1b[48;2;4;5;6m▀\x1b[0m",
		"plain",
		"\x1b[?25h\x1b[?25l",
	}
	for _, input := range inputs {
		if result := StripANSI(input); strings.Contains(result, "\x1b") {
			t.Errorf("StripANSI(%q) still contains ESC: %q", input, result)
		}
	}
}
