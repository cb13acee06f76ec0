// Package icon normalizes shortcut icons to the size and format the
// launcher grid shows.
package icon

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif" // registers the GIF decoder
	"image/jpeg"
	_ "image/png" // registers the PNG decoder

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // registers the WebP decoder
)

// Output geometry and quality.
const (
	Width   = 192
	Quality = 60
)

// Normalize decodes a PNG, JPEG, GIF or WebP image, scales it to Width
// keeping the aspect ratio, flattens transparency onto white and encodes it
// as JPEG.
func Normalize(data []byte) ([]byte, error) {
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode icon: %w", err)
	}

	bounds := src.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, fmt.Errorf("icon has no pixels (%s)", format) //nolint:err113 // carries the format
	}

	height := max(1, bounds.Dy()*Width/bounds.Dx())
	dst := image.NewRGBA(image.Rect(0, 0, Width, height))

	xdraw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, xdraw.Src)
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)

	var out bytes.Buffer
	if err := jpeg.Encode(&out, dst, &jpeg.Options{Quality: Quality}); err != nil {
		return nil, fmt.Errorf("failed to encode icon: %w", err)
	}

	return out.Bytes(), nil
}
