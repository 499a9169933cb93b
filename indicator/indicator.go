package indicator

import (
	"context"
	"errors"

	"gitlab.com/tinyland/lab/menu-meters/display/canvas"
)

// Sampler produces one snapshot per call. Calls may block for the
// sampler's own measurement window.
type Sampler[S Sample] interface {
	Sample(ctx context.Context) (S, error)
}

// SamplerFunc adapts a function to the Sampler interface.
type SamplerFunc[S Sample] func(ctx context.Context) (S, error)

// Sample implements Sampler.
func (f SamplerFunc[S]) Sample(ctx context.Context) (S, error) { return f(ctx) }

// Settings is the read side of the palette store. Implementations must be
// safe for concurrent use; workers read it on every tick.
type Settings interface {
	Color(key string) (canvas.Color, error)
	String(key string) (string, error)
}

// Indicator turns a history of samples into draw commands. Every metric kind
// supplies its own implementation; there is no default behaviour.
type Indicator[S Sample] interface {
	Kind() Kind
	// ColorKeys lists the palette colours Draw reads.
	ColorKeys() []string
	// StringKeys lists the settings strings Draw reads.
	StringKeys() []string
	Draw(f Frame[S]) []canvas.Command
}

// Frame is everything an Indicator needs for one render pass.
type Frame[S Sample] struct {
	// History holds the samples oldest first; Latest is its last element.
	History []S
	Latest  S
	Palette Palette
	Width   float64
	Height  float64
}

// Palette holds the colours and strings resolved from Settings for one tick.
type Palette struct {
	Colors  map[string]canvas.Color
	Strings map[string]string
}

// Color returns the resolved colour for key.
func (p Palette) Color(key string) canvas.Color {
	return p.Colors[key]
}

// String returns the resolved string for key.
func (p Palette) String(key string) string {
	return p.Strings[key]
}

// readPalette resolves every key an indicator declares. All lookups run so
// that the returned error names every missing key at once.
func readPalette[S Sample](s Settings, ind Indicator[S]) (Palette, error) {
	p := Palette{
		Colors:  make(map[string]canvas.Color, len(ind.ColorKeys())),
		Strings: make(map[string]string, len(ind.StringKeys())),
	}
	var errs []error
	for _, key := range ind.ColorKeys() {
		c, err := s.Color(key)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		p.Colors[key] = c
	}
	for _, key := range ind.StringKeys() {
		v, err := s.String(key)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		p.Strings[key] = v
	}
	return p, errors.Join(errs...)
}

func rect(x, y, w, h float64, c canvas.Color) canvas.Command {
	return canvas.FillRect(canvas.Rect{X: x, Y: y, W: w, H: h}, c)
}

func text(value string, x, y, size float64, c canvas.Color, w, h float64) canvas.Command {
	return canvas.DrawText(canvas.Text{Value: value, X: x, Y: y, Size: size, Color: c, W: w, H: h})
}

func clampPercent(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
