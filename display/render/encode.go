package render

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"
)

// kittyChunkSize is the maximum number of base64 bytes per Kitty chunk.
const kittyChunkSize = 4096

var errEmptyImage = errors.New("render: empty image")

// Encode writes img in protocol p sized to cols by rows cells. colour only
// affects ProtocolUnicode.
func Encode(p Protocol, img image.Image, cols, rows int, colour bool) (string, error) {
	switch p {
	case ProtocolKitty:
		return EncodeKitty(img, cols, rows)
	case ProtocolITerm2:
		return EncodeITerm2(img, cols, rows)
	case ProtocolUnicode:
		if img == nil || img.Bounds().Empty() {
			return "", errEmptyImage
		}
		return HalfBlocks(img, cols, rows, colour), nil
	default:
		return "", fmt.Errorf("render: unsupported protocol %v", p)
	}
}

// EncodeKitty transmits img as PNG through the Kitty graphics protocol,
// splitting the payload into chunks when it exceeds kittyChunkSize.
func EncodeKitty(img image.Image, cols, rows int) (string, error) {
	data, err := encodePNG(img)
	if err != nil {
		return "", err
	}
	encoded := base64.StdEncoding.EncodeToString(data)

	var b strings.Builder
	if len(encoded) <= kittyChunkSize {
		fmt.Fprintf(&b, "\033_Gf=100,a=T,t=d,c=%d,r=%d,m=0;%s\033\\", cols, rows, encoded)
		return b.String(), nil
	}
	for i := 0; i < len(encoded); i += kittyChunkSize {
		end := min(i+kittyChunkSize, len(encoded))
		chunk := encoded[i:end]
		switch {
		case i == 0:
			fmt.Fprintf(&b, "\033_Gf=100,a=T,t=d,c=%d,r=%d,m=1;%s\033\\", cols, rows, chunk)
		case end == len(encoded):
			fmt.Fprintf(&b, "\033_Gm=0;%s\033\\", chunk)
		default:
			fmt.Fprintf(&b, "\033_Gm=1;%s\033\\", chunk)
		}
	}
	return b.String(), nil
}

// EncodeITerm2 transmits img as an iTerm2 inline image (OSC 1337).
func EncodeITerm2(img image.Image, cols, rows int) (string, error) {
	data, err := encodePNG(img)
	if err != nil {
		return "", err
	}
	params := fmt.Sprintf("size=%d;width=%d;height=%d;preserveAspectRatio=1;inline=1", len(data), cols, rows)
	return fmt.Sprintf("\033]1337;File=%s:%s\007", params, base64.StdEncoding.EncodeToString(data)), nil
}

func encodePNG(img image.Image) ([]byte, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, errEmptyImage
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("render: encode png: %w", err)
	}
	return buf.Bytes(), nil
}
