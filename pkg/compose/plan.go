package compose

import (
	"image"
	"math"

	"github.com/gridbooth/gridbooth/pkg/errors"
)

// Cell is one destination rectangle on the canvas. All values are pixels.
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Rect returns the cell as an image rectangle.
func (c Cell) Rect() image.Rectangle {
	return image.Rect(c.X, c.Y, c.X+c.W, c.Y+c.H)
}

// CenterX returns the horizontal center of the cell.
func (c Cell) CenterX() int { return c.X + c.W/2 }

// CenterY returns the vertical center of the cell.
func (c Cell) CenterY() int { return c.Y + c.H/2 }

// Plan is the computed geometry of a composite: the canvas, the uniform
// cell size, and one destination rectangle per photo index.
//
// Cells are ordered column-major: photo i maps to row i % rows, column
// i / rows, so a vertical strip layout prints in capture order. The order
// is a compatibility contract with existing kiosks.
//
// A Plan is immutable once computed and JSON-serializable for caching.
type Plan struct {
	CanvasW  int     `json:"canvas_w"`
	CanvasH  int     `json:"canvas_h"`
	MarginPx int     `json:"margin_px"`
	CellW    int     `json:"cell_w"`
	CellH    int     `json:"cell_h"`
	Cells    []Cell  `json:"cells"`
	Fit      FitMode `json:"fit"`
}

// PlanLayout computes the canvas size and cell rectangles for a grid on a
// page. aspects carries the width/height ratio of each photo in request
// order; it is only consulted in aspect-preserve mode, where the uniform
// cell must hold the widest and the tallest photo footprint.
func PlanLayout(grid GridSpec, page PageSize, opts Options, aspects []float64) (Plan, error) {
	if err := grid.Validate(); err != nil {
		return Plan{}, err
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return Plan{}, err
	}

	if opts.Fit == FitAspectPreserve {
		return planAspectPreserve(grid, page, opts, aspects)
	}
	return planCropFill(grid, page, opts)
}

// planCropFill derives the canvas from the page size. The margin is a
// percentage of the smaller canvas dimension; cell sizes are the integer
// floor of the remaining space, so up to cols-1 remainder pixels land in
// the trailing margin. The canvas itself never depends on the margin.
func planCropFill(grid GridSpec, page PageSize, opts Options) (Plan, error) {
	cols, rows := int(grid.Cols), int(grid.Rows)
	dpi := float64(opts.DPI)

	canvasW := int(math.Round(page.WidthIn * dpi))
	canvasH := int(math.Round(page.HeightIn * dpi))
	marginPx := int(math.Round(float64(min(canvasW, canvasH)) * opts.MarginPercent / 100))

	cellW := (canvasW - marginPx*(cols+1)) / cols
	cellH := (canvasH - marginPx*(rows+1)) / rows
	if cellW <= 0 || cellH <= 0 {
		return Plan{}, errors.New(errors.ErrCodeInvalidRequest,
			"margin %g%% leaves no room for a %dx%d grid on a %gx%gin page", opts.MarginPercent, cols, rows, page.WidthIn, page.HeightIn)
	}

	return Plan{
		CanvasW:  canvasW,
		CanvasH:  canvasH,
		MarginPx: marginPx,
		CellW:    cellW,
		CellH:    cellH,
		Cells:    placeCells(cols, rows, marginPx, cellW, cellH),
		Fit:      opts.Fit,
	}, nil
}

// planAspectPreserve derives the canvas from the cell: every photo gets a
// candidate footprint capped at the maximum cell width, the uniform cell is
// the maximum candidate width by the maximum candidate height, and the
// canvas grows around the grid. No photo is ever scaled to a smaller cell.
func planAspectPreserve(grid GridSpec, page PageSize, opts Options, aspects []float64) (Plan, error) {
	cols, rows := int(grid.Cols), int(grid.Rows)
	if got, want := len(aspects), grid.Cells(); got != want {
		return Plan{}, errors.New(errors.ErrCodeInvalidRequest, "grid %dx%d needs %d photo aspects, got %d", cols, rows, want, got)
	}

	maxCellW := opts.MaxCellWidthIn
	if maxCellW == 0 {
		byWidth := (page.WidthIn - autoMarginIn*float64(cols-1)) / float64(cols)
		byHeight := (page.HeightIn - autoMarginIn*float64(rows-1)) / float64(rows)
		maxCellW = math.Min(byWidth, byHeight)
	}

	var maxW, maxH float64
	for i, a := range aspects {
		if a <= 0 || math.IsNaN(a) || math.IsInf(a, 0) {
			return Plan{}, errors.New(errors.ErrCodeInvalidRequest, "photo %d has invalid aspect ratio %g", i, a)
		}
		w, h := maxCellW, maxCellW
		if a > 1 {
			h = maxCellW / a
		} else {
			w = maxCellW * a
		}
		maxW = math.Max(maxW, w)
		maxH = math.Max(maxH, h)
	}

	dpi := float64(opts.DPI)
	cellW := int(math.Round(maxW * dpi))
	cellH := int(math.Round(maxH * dpi))
	if cellW <= 0 || cellH <= 0 {
		return Plan{}, errors.New(errors.ErrCodeInvalidRequest,
			"a %dx%d grid leaves no room for cells on a %gx%gin page", cols, rows, page.WidthIn, page.HeightIn)
	}
	marginPx := int(math.Round(float64(min(cellW, cellH)) * opts.MarginPercent / 100))

	return Plan{
		CanvasW:  marginPx + (cellW+marginPx)*cols,
		CanvasH:  marginPx + (cellH+marginPx)*rows,
		MarginPx: marginPx,
		CellW:    cellW,
		CellH:    cellH,
		Cells:    placeCells(cols, rows, marginPx, cellW, cellH),
		Fit:      opts.Fit,
	}, nil
}

// placeCells lays out cols*rows cells column-major with a uniform margin
// around and between them.
func placeCells(cols, rows, margin, cellW, cellH int) []Cell {
	cells := make([]Cell, 0, cols*rows)
	for i := 0; i < cols*rows; i++ {
		row := i % rows
		col := i / rows
		cells = append(cells, Cell{
			X: margin + col*(cellW+margin),
			Y: margin + row*(cellH+margin),
			W: cellW,
			H: cellH,
		})
	}
	return cells
}
