package compose

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"

	"github.com/gridbooth/gridbooth/pkg/errors"
)

// Render paints the photos onto an opaque white canvas according to plan.
// Photo i lands in plan.Cells[i]. Rendering is single-threaded and the
// returned buffer is exclusively owned by the caller; identical inputs
// produce pixel-identical output.
func Render(imgs []image.Image, plan Plan) (*image.RGBA, error) {
	if got, want := len(imgs), len(plan.Cells); got != want {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "plan has %d cells, got %d photos", want, got)
	}

	canvas := image.NewRGBA(image.Rect(0, 0, plan.CanvasW, plan.CanvasH))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	for i, cell := range plan.Cells {
		if plan.Fit == FitAspectPreserve {
			drawFitted(canvas, cell, imgs[i])
		} else {
			drawCropped(canvas, cell, imgs[i])
		}
	}
	return canvas, nil
}

// drawCropped scales a centered crop of img to fill the cell exactly.
// The crop window has the cell's aspect: a photo wider than the cell loses
// equal slices left and right, a taller one top and bottom.
func drawCropped(dst *image.RGBA, cell Cell, img image.Image) {
	b := img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	cellAspect := float64(cell.W) / float64(cell.H)

	var src image.Rectangle
	if w/h > cellAspect {
		srcW := int(math.Round(h * cellAspect))
		x0 := b.Min.X + (b.Dx()-srcW)/2
		src = image.Rect(x0, b.Min.Y, x0+srcW, b.Max.Y)
	} else {
		srcH := int(math.Round(w / cellAspect))
		y0 := b.Min.Y + (b.Dy()-srcH)/2
		src = image.Rect(b.Min.X, y0, b.Max.X, y0+srcH)
	}

	draw.CatmullRom.Scale(dst, cell.Rect(), img, src, draw.Over, nil)
}

// drawFitted scales img to its largest size that fits inside the cell,
// centers it, and leaves the remainder white. Nothing is cropped; the
// drawn rectangle keeps the source aspect up to pixel quantization.
func drawFitted(dst *image.RGBA, cell Cell, img image.Image) {
	b := img.Bounds()
	imgAspect := float64(b.Dx()) / float64(b.Dy())
	cellAspect := float64(cell.W) / float64(cell.H)

	drawW, drawH := cell.W, cell.H
	if imgAspect > cellAspect {
		drawH = int(math.Round(float64(cell.W) / imgAspect))
	} else {
		drawW = int(math.Round(float64(cell.H) * imgAspect))
	}

	x := cell.X + (cell.W-drawW)/2
	y := cell.Y + (cell.H-drawH)/2
	draw.CatmullRom.Scale(dst, image.Rect(x, y, x+drawW, y+drawH), img, b, draw.Over, nil)
}
