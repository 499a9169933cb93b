// Package config loads the menu-meters TOML configuration.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config is the root configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Render     RenderConfig     `toml:"render"`
	Breaker    BreakerConfig    `toml:"breaker"`
	Indicators IndicatorsConfig `toml:"indicators"`
}

// GeneralConfig holds process-wide settings.
type GeneralConfig struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level"`

	// SettingsPath is the palette file. Empty means the XDG default.
	SettingsPath string `toml:"settings_path"`
}

// RenderConfig controls how frames reach the terminal.
type RenderConfig struct {
	// Protocol is "auto", "kitty", "iterm2" or "unicode".
	Protocol string `toml:"protocol"`

	// Scale multiplies surface geometry before rasterizing (HiDPI).
	Scale float64 `toml:"scale"`
}

// BreakerConfig tunes the circuit breaker wrapped around each sampler.
type BreakerConfig struct {
	MaxFailures  int      `toml:"max_failures"`
	ResetTimeout Duration `toml:"reset_timeout"`
}

// IndicatorsConfig holds one section per indicator.
type IndicatorsConfig struct {
	Processor IndicatorConfig `toml:"processor"`
	Memory    IndicatorConfig `toml:"memory"`
	Network   IndicatorConfig `toml:"network"`
	Disk      DiskConfig      `toml:"disk"`
}

// IndicatorConfig is the geometry and cadence of one indicator.
type IndicatorConfig struct {
	Enabled  bool     `toml:"enabled"`
	Width    int      `toml:"width"`
	Height   int      `toml:"height"`
	Interval Duration `toml:"interval"`
}

// DiskConfig adds the watched mount point.
type DiskConfig struct {
	Enabled  bool     `toml:"enabled"`
	Width    int      `toml:"width"`
	Height   int      `toml:"height"`
	Interval Duration `toml:"interval"`
	Mount    string   `toml:"mount"`
}

// Indicator returns the shared fields.
func (d DiskConfig) Indicator() IndicatorConfig {
	return IndicatorConfig{Enabled: d.Enabled, Width: d.Width, Height: d.Height, Interval: d.Interval}
}

// Validate reports every unusable value at once.
func (c *Config) Validate() error {
	var problems []string
	check := func(name string, ic IndicatorConfig) {
		if ic.Width < 1 {
			problems = append(problems, fmt.Sprintf("indicators.%s.width must be at least 1", name))
		}
		if ic.Height < 1 {
			problems = append(problems, fmt.Sprintf("indicators.%s.height must be at least 1", name))
		}
		if ic.Interval.Duration <= 0 {
			problems = append(problems, fmt.Sprintf("indicators.%s.interval must be positive", name))
		}
	}
	check("processor", c.Indicators.Processor)
	check("memory", c.Indicators.Memory)
	check("network", c.Indicators.Network)
	check("disk", c.Indicators.Disk.Indicator())
	if c.Indicators.Disk.Mount == "" {
		problems = append(problems, "indicators.disk.mount must not be empty")
	}

	switch c.Render.Protocol {
	case "auto", "kitty", "iterm2", "unicode":
	default:
		problems = append(problems, fmt.Sprintf("render.protocol %q is not one of auto, kitty, iterm2, unicode", c.Render.Protocol))
	}
	if c.Render.Scale <= 0 {
		problems = append(problems, "render.scale must be positive")
	}
	if c.Breaker.MaxFailures < 1 {
		problems = append(problems, "breaker.max_failures must be at least 1")
	}

	if len(problems) > 0 {
		return fmt.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Duration is a time.Duration that decodes from a Go duration string
// ("500ms", "1m") or from a number of seconds (0.5, 2).
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if s == "" {
		d.Duration = 0
		return nil
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return d.setSeconds(secs)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if v < 0 {
		return fmt.Errorf("invalid duration %q: negative", s)
	}
	d.Duration = v
	return nil
}

// UnmarshalTOML accepts bare TOML numbers as seconds.
func (d *Duration) UnmarshalTOML(v any) error {
	switch x := v.(type) {
	case string:
		return d.UnmarshalText([]byte(x))
	case int64:
		return d.setSeconds(float64(x))
	case float64:
		return d.setSeconds(x)
	default:
		return fmt.Errorf("invalid duration value %v (%T)", v, v)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

func (d *Duration) setSeconds(secs float64) error {
	if secs < 0 {
		return fmt.Errorf("invalid duration %v: negative", secs)
	}
	d.Duration = time.Duration(secs * float64(time.Second))
	return nil
}
