// Package canvas defines the drawing capability the indicator engine paints
// through. The engine only issues commands; implementations own the pixel
// surfaces and any font or rasterization backend.
package canvas

import (
	"errors"
	"fmt"
	"image/color"
)

// Color is a non-premultiplied 8-bit RGBA colour.
type Color = color.RGBA

// Surface identifies one icon-sized drawing area owned by a Canvas.
type Surface struct {
	ID     string
	Width  int
	Height int
}

// Rect is a filled rectangle in surface coordinates. The origin is the
// top-left corner and y grows downward.
type Rect struct {
	X, Y, W, H float64
}

// Text is a string positioned inside a bounding box whose top-left corner is
// (X, Y). Size is the font size in points.
type Text struct {
	Value string
	X, Y  float64
	Size  float64
	Color Color
	W, H  float64
}

// Canvas paints on surfaces it owns. A render pass is Clear, any number of
// FillRect and DrawText calls, then Present, which publishes the frame.
type Canvas interface {
	Clear(s Surface) error
	FillRect(s Surface, r Rect, c Color) error
	DrawText(s Surface, t Text) error
	Present(s Surface) error
}

// Command is one draw instruction produced by an indicator.
type Command struct {
	Kind  CommandKind
	Rect  Rect
	Color Color
	Text  Text
}

// CommandKind discriminates Command.
type CommandKind int

const (
	// KindFillRect paints Rect with Color.
	KindFillRect CommandKind = iota
	// KindText paints Text.
	KindText
)

// String returns the human-readable command kind.
func (k CommandKind) String() string {
	switch k {
	case KindFillRect:
		return "fill_rect"
	case KindText:
		return "text"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// FillRect returns a rectangle command.
func FillRect(r Rect, c Color) Command {
	return Command{Kind: KindFillRect, Rect: r, Color: c}
}

// DrawText returns a text command.
func DrawText(t Text) Command {
	return Command{Kind: KindText, Text: t}
}

// ErrEmptySurface is returned by Apply for surfaces with no pixels.
var ErrEmptySurface = errors.New("canvas: surface has no area")

// Apply runs a full render pass of cmds against s: Clear, every command in
// order, then Present. The first error aborts the pass before Present, so
// the previously presented frame stays visible.
func Apply(c Canvas, s Surface, cmds []Command) error {
	if s.Width <= 0 || s.Height <= 0 {
		return ErrEmptySurface
	}
	if err := c.Clear(s); err != nil {
		return fmt.Errorf("clear %s: %w", s.ID, err)
	}
	for i, cmd := range cmds {
		var err error
		switch cmd.Kind {
		case KindFillRect:
			err = c.FillRect(s, cmd.Rect, cmd.Color)
		case KindText:
			err = c.DrawText(s, cmd.Text)
		default:
			err = fmt.Errorf("unsupported command %s", cmd.Kind)
		}
		if err != nil {
			return fmt.Errorf("command %d (%s) on %s: %w", i, cmd.Kind, s.ID, err)
		}
	}
	if err := c.Present(s); err != nil {
		return fmt.Errorf("present %s: %w", s.ID, err)
	}
	return nil
}

// Hex returns an opaque colour from a 0xRRGGBB integer, the encoding the
// settings store historically used.
func Hex(v int) Color {
	return Color{R: uint8(v >> 16 & 0xff), G: uint8(v >> 8 & 0xff), B: uint8(v & 0xff), A: 0xff}
}
