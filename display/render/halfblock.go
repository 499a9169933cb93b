package render

import (
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
)

// asciiRamp goes from dark to bright.
const asciiRamp = " .:-=+*#%@"

// alphaCutoff is the alpha below which a pixel counts as transparent.
const alphaCutoff = 128

// HalfBlocks renders img in at most cols by rows terminal cells. Each cell
// covers two pixel rows: with colour it prints an upper half block whose
// foreground is the top pixel and background the bottom one; without
// colour it prints an ASCII character picked by average luminance.
// Transparent pixels keep the terminal's own colours.
func HalfBlocks(img image.Image, cols, rows int, colour bool) string {
	if cols <= 0 || rows <= 0 || img == nil || img.Bounds().Empty() {
		return ""
	}
	fitted := imaging.Fit(img, cols, rows*2, imaging.Lanczos)
	b := fitted.Bounds()
	w, h := b.Dx(), b.Dy()

	var out strings.Builder
	for y := 0; y < h; y += 2 {
		if y > 0 {
			out.WriteByte('\n')
		}
		for x := 0; x < w; x++ {
			top := pixelAt(fitted, b.Min.X+x, b.Min.Y+y)
			var bot pixel
			if y+1 < h {
				bot = pixelAt(fitted, b.Min.X+x, b.Min.Y+y+1)
			}
			if colour {
				writeColourCell(&out, top, bot)
			} else {
				out.WriteByte(asciiCell(top, bot))
			}
		}
	}
	return out.String()
}

type pixel struct {
	r, g, b uint8
	opaque  bool
}

func pixelAt(img *image.NRGBA, x, y int) pixel {
	c := img.NRGBAAt(x, y)
	return pixel{r: c.R, g: c.G, b: c.B, opaque: c.A >= alphaCutoff}
}

func (p pixel) luminance() float64 {
	return 0.2126*float64(p.r) + 0.7152*float64(p.g) + 0.0722*float64(p.b)
}

func writeColourCell(out *strings.Builder, top, bot pixel) {
	switch {
	case top.opaque && bot.opaque:
		fmt.Fprintf(out, "\033[38;2;%d;%d;%dm\033[48;2;%d;%d;%dm▀\033[0m",
			top.r, top.g, top.b, bot.r, bot.g, bot.b)
	case top.opaque:
		fmt.Fprintf(out, "\033[38;2;%d;%d;%dm▀\033[0m", top.r, top.g, top.b)
	case bot.opaque:
		fmt.Fprintf(out, "\033[38;2;%d;%d;%dm▄\033[0m", bot.r, bot.g, bot.b)
	default:
		out.WriteByte(' ')
	}
}

func asciiCell(top, bot pixel) byte {
	var sum float64
	var n int
	for _, p := range [2]pixel{top, bot} {
		if p.opaque {
			sum += p.luminance()
			n++
		}
	}
	if n == 0 {
		return ' '
	}
	idx := int(sum / float64(n) / 256 * float64(len(asciiRamp)))
	if idx >= len(asciiRamp) {
		idx = len(asciiRamp) - 1
	}
	return asciiRamp[idx]
}
