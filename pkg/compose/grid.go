package compose

import (
	"github.com/gridbooth/gridbooth/pkg/errors"
)

// GridSpec describes the photo arrangement of a composite: a fixed grid of
// Cols x Rows rectangular cells, optionally tagged with a layout catalog id.
type GridSpec struct {
	Cols uint32 `json:"cols"`
	Rows uint32 `json:"rows"`
	ID   string `json:"id,omitempty"`
}

// Cells returns the number of photos the grid holds.
func (g GridSpec) Cells() int {
	return int(g.Cols) * int(g.Rows)
}

// Validate checks that the grid has at least one cell.
func (g GridSpec) Validate() error {
	if g.Cols == 0 || g.Rows == 0 {
		return errors.New(errors.ErrCodeInvalidGrid, "grid must have at least one column and one row, got %dx%d", g.Cols, g.Rows)
	}
	return nil
}

// FitMode selects how source photos are fitted into grid cells.
//
// Both modes are user-facing policies selected per request; neither
// subsumes the other. Crop-fill trades edges for full cells, fit trades
// white space for complete photos.
type FitMode string

const (
	// FitCropFill scales and center-crops each photo so it fills its cell
	// exactly. Content outside the crop window is discarded.
	FitCropFill FitMode = "crop"

	// FitAspectPreserve letterboxes each photo inside a uniform cell sized
	// to the largest photo footprint. Nothing is ever cropped; residual
	// cell area stays white.
	FitAspectPreserve FitMode = "fit"
)

// Valid reports whether the fit mode is one of the supported values.
func (m FitMode) Valid() bool {
	return m == FitCropFill || m == FitAspectPreserve
}

// ParseFitMode converts a CLI or API string into a FitMode.
// An empty string selects the default crop-fill mode.
func ParseFitMode(s string) (FitMode, error) {
	switch FitMode(s) {
	case "":
		return DefaultFit, nil
	case FitCropFill:
		return FitCropFill, nil
	case FitAspectPreserve:
		return FitAspectPreserve, nil
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "invalid fit mode: %q (must be one of: crop, fit)", s)
}
