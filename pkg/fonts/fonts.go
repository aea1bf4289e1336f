// Package fonts provides the embedded typeface for text overlays.
//
// The Go Regular font ships inside golang.org/x/image, so overlay text
// renders identically on every kiosk without external font files.
package fonts

import (
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// Parsed font cache (computed once on first access).
var (
	regular     *truetype.Font
	regularErr  error
	regularOnce sync.Once
)

// Regular returns the parsed Go Regular font.
// The result is cached after first parse.
func Regular() (*truetype.Font, error) {
	regularOnce.Do(func() {
		regular, regularErr = truetype.Parse(goregular.TTF)
	})
	return regular, regularErr
}

// Face returns a font face at the given point size, rendered at screen
// resolution (72 dpi). Suitable for previews.
func Face(points float64) (font.Face, error) {
	return FaceAt(points, 0)
}

// FaceAt returns a font face at the given point size and rendering DPI.
// Print overlays should pass the canvas DPI so a 12pt caption measures
// 12pt on paper rather than 12px on screen. A dpi of 0 means 72.
func FaceAt(points, dpi float64) (font.Face, error) {
	f, err := Regular()
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(f, &truetype.Options{
		Size: points,
		DPI:  dpi,
	}), nil
}

// FontFamily is the font-family name of the embedded typeface.
const FontFamily = "Go Regular"
