package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Load reads configuration from the standard config path.
// Search order:
//  1. $XDG_CONFIG_HOME/menu-meters/config.toml
//  2. ~/.config/menu-meters/config.toml
//
// If no file exists, returns DefaultConfig() with env overrides applied.
func Load() (*Config, error) {
	for _, p := range configSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return LoadFromFile(p)
		}
	}
	return finish(DefaultConfig())
}

// LoadFromFile reads configuration from a specific file path. A missing file
// yields the defaults.
func LoadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return finish(DefaultConfig())
		}
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()
	return LoadFromReader(f)
}

// LoadFromReader decodes TOML over the defaults, then applies environment
// overrides and validates the result. Unknown keys are rejected.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()
	md, err := toml.NewDecoder(r).Decode(cfg)
	if err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("config: unknown keys: %s", strings.Join(keys, ", "))
	}
	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfig returns the built-in configuration: every indicator enabled
// at the widths and cadences of the classic menu bar meters.
func DefaultConfig() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel: "info",
		},
		Render: RenderConfig{
			Protocol: "auto",
			Scale:    1,
		},
		Breaker: BreakerConfig{
			MaxFailures:  5,
			ResetTimeout: Duration{30 * time.Second},
		},
		Indicators: IndicatorsConfig{
			Processor: IndicatorConfig{Enabled: true, Width: 35, Height: 22, Interval: Duration{500 * time.Millisecond}},
			Memory:    IndicatorConfig{Enabled: true, Width: 35, Height: 22, Interval: Duration{time.Second}},
			Network:   IndicatorConfig{Enabled: true, Width: 50, Height: 22, Interval: Duration{500 * time.Millisecond}},
			Disk:      DiskConfig{Enabled: true, Width: 35, Height: 22, Interval: Duration{500 * time.Millisecond}, Mount: "/"},
		},
	}
}

// SlogLevel maps General.LogLevel to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.General.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// applyEnvOverrides lets the environment win over the file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MENU_METERS_SETTINGS"); v != "" {
		cfg.General.SettingsPath = v
	}
	if v := os.Getenv("MENU_METERS_PROTOCOL"); v != "" {
		cfg.Render.Protocol = v
	}
	if v := os.Getenv("MENU_METERS_LOG_LEVEL"); v != "" {
		cfg.General.LogLevel = v
	}
}

// configSearchPaths returns the ordered list of config file paths to try.
func configSearchPaths() []string {
	home, _ := os.UserHomeDir()
	var paths []string

	xdg := xdgConfigHome(home)
	paths = append(paths, filepath.Join(xdg, "menu-meters", "config.toml"))

	// If XDG_CONFIG_HOME was explicitly set, also try the fallback default.
	defaultXDG := filepath.Join(home, ".config")
	if xdg != defaultXDG {
		paths = append(paths, filepath.Join(defaultXDG, "menu-meters", "config.toml"))
	}
	return paths
}

// xdgConfigHome returns XDG_CONFIG_HOME or ~/.config as fallback.
func xdgConfigHome(home string) string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	return filepath.Join(home, ".config")
}
