package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"gitlab.com/tinyland/lab/menu-meters/display/canvas"
)

// ErrUnknownSurface is returned for surfaces that were never added.
var ErrUnknownSurface = errors.New("render: unknown surface")

// Raster is a canvas.Canvas backed by in-memory RGBA images. Each surface
// has a back buffer that drawing targets and a front buffer that Present
// publishes and Frame reads.
type Raster struct {
	scale float64
	font  *opentype.Font

	mu       sync.Mutex
	surfaces map[string]*surface
	faces    map[float64]font.Face
}

type surface struct {
	back  *image.RGBA
	front *image.RGBA
}

var _ canvas.Canvas = (*Raster)(nil)

// NewRaster parses the embedded Go Regular font and returns an empty
// raster. Every coordinate and font size is multiplied by scale.
func NewRaster(scale float64) (*Raster, error) {
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return nil, fmt.Errorf("render: invalid scale %v", scale)
	}
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("render: parse font: %w", err)
	}
	return &Raster{
		scale:    scale,
		font:     f,
		surfaces: make(map[string]*surface),
		faces:    make(map[float64]font.Face),
	}, nil
}

// Scale returns the coordinate multiplier.
func (r *Raster) Scale() float64 { return r.scale }

// Add registers s, allocating pixel buffers of Width*scale by Height*scale.
// Adding an existing ID reallocates its buffers.
func (r *Raster) Add(s canvas.Surface) error {
	if s.ID == "" {
		return errors.New("render: surface needs an ID")
	}
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("render: surface %s: %w", s.ID, canvas.ErrEmptySurface)
	}
	bounds := image.Rect(0, 0, r.px(float64(s.Width)), r.px(float64(s.Height)))

	r.mu.Lock()
	defer r.mu.Unlock()
	r.surfaces[s.ID] = &surface{
		back:  image.NewRGBA(bounds),
		front: image.NewRGBA(bounds),
	}
	return nil
}

// Surfaces returns the registered surface IDs.
func (r *Raster) Surfaces() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.surfaces))
	for id := range r.surfaces {
		ids = append(ids, id)
	}
	return ids
}

// Clear makes the back buffer fully transparent.
func (r *Raster) Clear(s canvas.Surface) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sf, err := r.lookup(s.ID)
	if err != nil {
		return err
	}
	draw.Draw(sf.back, sf.back.Bounds(), image.Transparent, image.Point{}, draw.Src)
	return nil
}

// FillRect paints rect over the back buffer.
func (r *Raster) FillRect(s canvas.Surface, rect canvas.Rect, c canvas.Color) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sf, err := r.lookup(s.ID)
	if err != nil {
		return err
	}
	dst := image.Rect(
		r.px(rect.X), r.px(rect.Y),
		r.pxCeil(rect.X+rect.W), r.pxCeil(rect.Y+rect.H),
	).Intersect(sf.back.Bounds())
	if dst.Empty() {
		return nil
	}
	draw.Draw(sf.back, dst, image.NewUniform(nrgba(c)), image.Point{}, draw.Over)
	return nil
}

// DrawText renders t with its box's top edge as the ascent line. Glyphs
// are clipped to the box when it has an area, otherwise to the surface.
func (r *Raster) DrawText(s canvas.Surface, t canvas.Text) error {
	if t.Size <= 0 {
		return fmt.Errorf("render: text %q has size %v", t.Value, t.Size)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	sf, err := r.lookup(s.ID)
	if err != nil {
		return err
	}
	face, err := r.face(t.Size * r.scale)
	if err != nil {
		return err
	}

	clip := sf.back.Bounds()
	if t.W > 0 && t.H > 0 {
		clip = image.Rect(r.px(t.X), r.px(t.Y), r.pxCeil(t.X+t.W), r.pxCeil(t.Y+t.H)).Intersect(clip)
	}
	if clip.Empty() {
		return nil
	}
	dst, ok := sf.back.SubImage(clip).(*image.RGBA)
	if !ok {
		return fmt.Errorf("render: unexpected sub-image type for %s", s.ID)
	}

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(nrgba(t.Color)),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.Int26_6(t.X * r.scale * 64),
			Y: fixed.Int26_6(t.Y*r.scale*64) + face.Metrics().Ascent,
		},
	}
	d.DrawString(t.Value)
	return nil
}

// Present publishes the back buffer.
func (r *Raster) Present(s canvas.Surface) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sf, err := r.lookup(s.ID)
	if err != nil {
		return err
	}
	copy(sf.front.Pix, sf.back.Pix)
	return nil
}

// Frame returns a copy of the last presented image for id.
func (r *Raster) Frame(id string) (*image.RGBA, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sf, err := r.lookup(id)
	if err != nil {
		return nil, err
	}
	img := image.NewRGBA(sf.front.Bounds())
	copy(img.Pix, sf.front.Pix)
	return img, nil
}

// Measure returns the advance width of s at size points, in surface units.
func (r *Raster) Measure(s string, size float64) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	face, err := r.face(size * r.scale)
	if err != nil {
		return 0, err
	}
	adv := font.MeasureString(face, s)
	return float64(adv) / 64 / r.scale, nil
}

// Close releases cached font faces.
func (r *Raster) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for size, f := range r.faces {
		if err := f.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(r.faces, size)
	}
	return errors.Join(errs...)
}

func (r *Raster) lookup(id string) (*surface, error) {
	sf, ok := r.surfaces[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSurface, id)
	}
	return sf, nil
}

// face must be called with mu held.
func (r *Raster) face(px float64) (font.Face, error) {
	if f, ok := r.faces[px]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(r.font, &opentype.FaceOptions{
		Size:    px,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("render: face at %vpx: %w", px, err)
	}
	r.faces[px] = f
	return f, nil
}

func (r *Raster) px(v float64) int     { return int(math.Floor(v * r.scale)) }
func (r *Raster) pxCeil(v float64) int { return int(math.Ceil(v * r.scale)) }

func nrgba(c canvas.Color) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}
