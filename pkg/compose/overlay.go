package compose

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"github.com/gridbooth/gridbooth/pkg/errors"
	"github.com/gridbooth/gridbooth/pkg/fonts"
)

// DefaultTextSize is the overlay text size in pixels when none is given.
const DefaultTextSize = 48.0

// OverlaySpec describes decoration applied onto a finished composite.
// Stickers draw first, then text, then the frame border, which applies
// last because it grows the canvas. Overlays never crop or scale the
// composite content underneath.
type OverlaySpec struct {
	Stickers []Sticker `json:"stickers,omitempty"`
	Texts    []Text    `json:"texts,omitempty"`
	Frame    *Frame    `json:"frame,omitempty"`
}

// Sticker is an image layer drawn centered at a canvas position.
type Sticker struct {
	// Data holds the encoded sticker image. Manifests reference stickers
	// by path instead; the loader fills Data before apply.
	Data []byte `json:"-"`
	Path string `json:"path,omitempty"`

	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Scale    float64 `json:"scale,omitempty"`    // 0 means 1.0
	Rotation float64 `json:"rotation,omitempty"` // degrees, clockwise
}

// Text is a string layer drawn centered at a canvas position.
type Text struct {
	Value string  `json:"value"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Size  float64 `json:"size,omitempty"`  // pixels, 0 means DefaultTextSize
	Color string  `json:"color,omitempty"` // hex RGB(A), default black
}

// Frame is a decorative border around the whole composite. The canvas
// grows by Width on all sides; an optional frame image is stretched over
// the grown canvas.
type Frame struct {
	Width int    `json:"width"`           // pixels
	Color string `json:"color,omitempty"` // hex RGB(A), default white

	// Data holds an encoded frame image with transparency. Manifests
	// reference frames by path instead.
	Data []byte `json:"-"`
	Path string `json:"path,omitempty"`
}

// Empty reports whether the spec carries no layers at all.
func (s OverlaySpec) Empty() bool {
	return len(s.Stickers) == 0 && len(s.Texts) == 0 && s.Frame == nil
}

// Fingerprint returns a stable digest of the spec including layer image
// bytes. Two specs with equal fingerprints produce identical overlays, so
// the fingerprint can key artifact caches.
func (s OverlaySpec) Fingerprint() string {
	h := sha256.New()
	meta, _ := json.Marshal(s)
	h.Write(meta)
	for _, st := range s.Stickers {
		h.Write(st.Data)
	}
	if s.Frame != nil {
		h.Write(s.Frame.Data)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ApplyOverlay draws the spec's layers onto a copy of base and returns the
// result. The base image is not modified.
func ApplyOverlay(base image.Image, spec OverlaySpec) (*image.RGBA, error) {
	dc := gg.NewContextForImage(base)

	for i, st := range spec.Stickers {
		img, _, err := image.Decode(bytes.NewReader(st.Data))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode sticker %d", i)
		}
		scale := st.Scale
		if scale == 0 {
			scale = 1
		}
		dc.Push()
		dc.RotateAbout(gg.Radians(st.Rotation), st.X, st.Y)
		dc.ScaleAbout(scale, scale, st.X, st.Y)
		dc.DrawImageAnchored(img, int(st.X), int(st.Y), 0.5, 0.5)
		dc.Pop()
	}

	for i, tx := range spec.Texts {
		size := tx.Size
		if size == 0 {
			size = DefaultTextSize
		}
		face, err := fonts.Face(size)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "load overlay font")
		}
		c, err := ParseColor(tx.Color, color.Black)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "text %d color", i)
		}
		dc.SetFontFace(face)
		dc.SetColor(c)
		dc.DrawStringAnchored(tx.Value, tx.X, tx.Y, 0.5, 0.5)
	}

	out := dc.Image()
	if spec.Frame != nil {
		framed, err := applyFrame(out, *spec.Frame)
		if err != nil {
			return nil, err
		}
		out = framed
	}
	return cloneRGBA(out), nil
}

// applyFrame grows the canvas by the border width on all sides and pastes
// the composite centered on the colored ground.
func applyFrame(img image.Image, f Frame) (image.Image, error) {
	if f.Width <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "frame width must be positive, got %d", f.Width)
	}
	bg, err := ParseColor(f.Color, color.White)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "frame color")
	}

	b := img.Bounds()
	out := imaging.New(b.Dx()+2*f.Width, b.Dy()+2*f.Width, bg)
	out = imaging.Paste(out, img, image.Pt(f.Width, f.Width))

	if len(f.Data) > 0 {
		frameImg, _, err := image.Decode(bytes.NewReader(f.Data))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode frame image")
		}
		stretched := imaging.Resize(frameImg, out.Bounds().Dx(), out.Bounds().Dy(), imaging.Lanczos)
		out = imaging.Overlay(out, stretched, image.Point{}, 1.0)
	}
	return out, nil
}

// ParseColor parses a "#RGB", "#RRGGBB" or "#RRGGBBAA" hex color.
// An empty string returns fallback.
func ParseColor(s string, fallback color.Color) (color.Color, error) {
	if s == "" {
		return fallback, nil
	}
	hexPart := strings.TrimPrefix(s, "#")

	var r, g, b uint8
	a := uint8(0xff)
	switch len(hexPart) {
	case 3:
		_, err := fmt.Sscanf(hexPart, "%1x%1x%1x", &r, &g, &b)
		if err != nil {
			return nil, fmt.Errorf("invalid color %q", s)
		}
		r, g, b = r*17, g*17, b*17
	case 6:
		if _, err := fmt.Sscanf(hexPart, "%02x%02x%02x", &r, &g, &b); err != nil {
			return nil, fmt.Errorf("invalid color %q", s)
		}
	case 8:
		if _, err := fmt.Sscanf(hexPart, "%02x%02x%02x%02x", &r, &g, &b, &a); err != nil {
			return nil, fmt.Errorf("invalid color %q", s)
		}
	default:
		return nil, fmt.Errorf("invalid color %q", s)
	}
	return color.NRGBA{R: r, G: g, B: b, A: a}, nil
}

// cloneRGBA converts any image into a zero-origin RGBA buffer.
func cloneRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
