package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults do not validate: %v", err)
	}

	tests := []struct {
		name     string
		ic       IndicatorConfig
		width    int
		interval time.Duration
	}{
		{"processor", cfg.Indicators.Processor, 35, 500 * time.Millisecond},
		{"memory", cfg.Indicators.Memory, 35, time.Second},
		{"network", cfg.Indicators.Network, 50, 500 * time.Millisecond},
		{"disk", cfg.Indicators.Disk.Indicator(), 35, 500 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.ic.Enabled {
				t.Error("should be enabled by default")
			}
			if tt.ic.Width != tt.width {
				t.Errorf("Width = %d, want %d", tt.ic.Width, tt.width)
			}
			if tt.ic.Height != 22 {
				t.Errorf("Height = %d, want 22", tt.ic.Height)
			}
			if tt.ic.Interval.Duration != tt.interval {
				t.Errorf("Interval = %v, want %v", tt.ic.Interval, tt.interval)
			}
		})
	}

	if cfg.Indicators.Disk.Mount != "/" {
		t.Errorf("Disk.Mount = %q, want /", cfg.Indicators.Disk.Mount)
	}
	if cfg.Render.Protocol != "auto" {
		t.Errorf("Render.Protocol = %q, want auto", cfg.Render.Protocol)
	}
	if cfg.General.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.General.LogLevel)
	}
}

func TestLoadFromReader(t *testing.T) {
	input := `
[general]
log_level = "debug"
settings_path = "/tmp/palette.yaml"

[render]
protocol = "kitty"
scale = 2.0

[breaker]
max_failures = 3
reset_timeout = "10s"

[indicators.processor]
width = 40
interval = 0.25

[indicators.memory]
enabled = false
interval = 2

[indicators.disk]
mount = "/home"
interval = "750ms"
`
	cfg, err := LoadFromReader(strings.NewReader(input))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if cfg.General.LogLevel != "debug" || cfg.General.SettingsPath != "/tmp/palette.yaml" {
		t.Errorf("General = %+v", cfg.General)
	}
	if cfg.Render.Protocol != "kitty" || cfg.Render.Scale != 2 {
		t.Errorf("Render = %+v", cfg.Render)
	}
	if cfg.Breaker.MaxFailures != 3 || cfg.Breaker.ResetTimeout.Duration != 10*time.Second {
		t.Errorf("Breaker = %+v", cfg.Breaker)
	}
	if cfg.Indicators.Processor.Width != 40 || cfg.Indicators.Processor.Interval.Duration != 250*time.Millisecond {
		t.Errorf("Processor = %+v", cfg.Indicators.Processor)
	}
	if !cfg.Indicators.Processor.Enabled || cfg.Indicators.Processor.Height != 22 {
		t.Error("unset processor fields should keep their defaults")
	}
	if cfg.Indicators.Memory.Enabled || cfg.Indicators.Memory.Interval.Duration != 2*time.Second {
		t.Errorf("Memory = %+v", cfg.Indicators.Memory)
	}
	if cfg.Indicators.Disk.Mount != "/home" || cfg.Indicators.Disk.Interval.Duration != 750*time.Millisecond {
		t.Errorf("Disk = %+v", cfg.Indicators.Disk)
	}
}

func TestLoadFromReader_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"unknown key", "[indicators.gpu]\nwidth = 3\n", "unknown keys"},
		{"zero width", "[indicators.network]\nwidth = 0\n", "indicators.network.width"},
		{"negative interval", "[indicators.memory]\ninterval = -1\n", "negative"},
		{"bad protocol", "[render]\nprotocol = \"sixel\"\n", "render.protocol"},
		{"bad duration", "[breaker]\nreset_timeout = \"soon\"\n", "invalid duration"},
		{"syntax", "[general\n", "decode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromReader(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	cfg, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.Indicators.Network.Width != 50 {
		t.Error("missing file should yield defaults")
	}
}

func TestLoad_XDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	if err := os.MkdirAll(filepath.Join(dir, "menu-meters"), 0700); err != nil {
		t.Fatal(err)
	}
	content := "[indicators.network]\nwidth = 64\n"
	if err := os.WriteFile(filepath.Join(dir, "menu-meters", "config.toml"), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Indicators.Network.Width != 64 {
		t.Errorf("Network.Width = %d, want 64", cfg.Indicators.Network.Width)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MENU_METERS_SETTINGS", "/etc/palette.yaml")
	t.Setenv("MENU_METERS_PROTOCOL", "unicode")
	t.Setenv("MENU_METERS_LOG_LEVEL", "warn")

	cfg, err := LoadFromReader(strings.NewReader("[render]\nprotocol = \"kitty\"\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.General.SettingsPath != "/etc/palette.yaml" {
		t.Errorf("SettingsPath = %q", cfg.General.SettingsPath)
	}
	if cfg.Render.Protocol != "unicode" {
		t.Errorf("Protocol = %q, env should win over the file", cfg.Render.Protocol)
	}
	if cfg.General.LogLevel != "warn" {
		t.Errorf("LogLevel = %q", cfg.General.LogLevel)
	}
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"debug", "DEBUG"},
		{"INFO", "INFO"},
		{"warning", "WARN"},
		{"error", "ERROR"},
		{"", "INFO"},
	}
	for _, tt := range tests {
		cfg := DefaultConfig()
		cfg.General.LogLevel = tt.in
		if got := cfg.SlogLevel().String(); got != tt.want {
			t.Errorf("SlogLevel(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestDuration_Parse(t *testing.T) {
	tests := []struct {
		input string
		want  time.Duration
	}{
		{"1s", time.Second},
		{"500ms", 500 * time.Millisecond},
		{"1h30m", time.Hour + 30*time.Minute},
		{"0.5", 500 * time.Millisecond},
		{"2", 2 * time.Second},
		{"", 0},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var d Duration
			if err := d.UnmarshalText([]byte(tt.input)); err != nil {
				t.Fatalf("UnmarshalText(%q) error: %v", tt.input, err)
			}
			if d.Duration != tt.want {
				t.Errorf("UnmarshalText(%q) = %v, want %v", tt.input, d.Duration, tt.want)
			}
		})
	}
}

func TestDuration_ParseInvalid(t *testing.T) {
	for _, input := range []string{"not-a-duration", "-5m", "-0.5"} {
		t.Run(input, func(t *testing.T) {
			var d Duration
			if err := d.UnmarshalText([]byte(input)); err == nil {
				t.Errorf("UnmarshalText(%q) should have returned error", input)
			}
		})
	}
}

func TestDuration_Roundtrip(t *testing.T) {
	for _, dur := range []time.Duration{500 * time.Millisecond, time.Second, 5 * time.Minute} {
		t.Run(dur.String(), func(t *testing.T) {
			text, err := Duration{dur}.MarshalText()
			if err != nil {
				t.Fatal(err)
			}
			var d Duration
			if err := d.UnmarshalText(text); err != nil {
				t.Fatalf("UnmarshalText(%q): %v", text, err)
			}
			if d.Duration != dur {
				t.Errorf("roundtrip: got %v, want %v", d.Duration, dur)
			}
		})
	}
}
