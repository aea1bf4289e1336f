package compose

import (
	"github.com/gridbooth/gridbooth/pkg/errors"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, API, and Pipeline
// =============================================================================

const (
	// DefaultDPI is the print resolution used when none is given.
	// 300 dpi is the native resolution of dye-sublimation kiosk printers.
	DefaultDPI = 300

	// DefaultMarginPercent is the margin around and between cells as a
	// percentage of the smaller canvas dimension.
	DefaultMarginPercent = 2.0

	// MaxMarginPercent bounds the margin so cells keep positive size.
	MaxMarginPercent = 25.0

	// autoMarginIn is the inter-cell gap assumed when deriving the
	// automatic cell width in aspect-preserve mode.
	autoMarginIn = 0.1
)

// DefaultFit is the fit mode used when none is given.
const DefaultFit = FitCropFill

// Options configures how a composite is laid out and rendered.
// This struct supports JSON serialization for API requests.
type Options struct {
	// DPI is the print resolution in pixels per inch.
	DPI uint32 `json:"dpi,omitempty"`

	// MarginPercent sizes the margin as a percentage of the smaller canvas
	// dimension (crop-fill) or smaller cell dimension (aspect-preserve).
	// Zero selects the default.
	MarginPercent float64 `json:"margin_percent,omitempty"`

	// Fit selects the placement policy. Empty selects crop-fill.
	Fit FitMode `json:"fit,omitempty"`

	// MaxCellWidthIn caps the cell footprint in aspect-preserve mode.
	// Zero derives the cap from the page size and grid shape.
	MaxCellWidthIn float64 `json:"max_cell_width_in,omitempty"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// ValidateAndSetDefaults checks fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect
// as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}

	if o.DPI == 0 {
		o.DPI = DefaultDPI
	}
	if o.MarginPercent == 0 {
		o.MarginPercent = DefaultMarginPercent
	}
	if o.MarginPercent < 0 || o.MarginPercent > MaxMarginPercent {
		return errors.New(errors.ErrCodeInvalidInput, "margin_percent must be between 0 and %.0f, got %g", MaxMarginPercent, o.MarginPercent)
	}
	if o.Fit == "" {
		o.Fit = DefaultFit
	}
	if !o.Fit.Valid() {
		return errors.New(errors.ErrCodeInvalidInput, "invalid fit mode: %q (must be one of: crop, fit)", o.Fit)
	}
	if o.MaxCellWidthIn < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "max_cell_width_in cannot be negative, got %g", o.MaxCellWidthIn)
	}

	o.validated = true
	return nil
}

// Request is one composition job: the ordered photos plus the grid they
// arrange into and the layout options.
type Request struct {
	Photos  []Photo  `json:"photos"`
	Grid    GridSpec `json:"grid"`
	Options Options  `json:"options"`
}

// Validate checks the request and applies option defaults. The photo count
// check runs here, before any decode or layout work, so an inconsistent
// request never allocates a canvas.
func (r *Request) Validate() error {
	if err := r.Grid.Validate(); err != nil {
		return err
	}
	if err := r.Options.ValidateAndSetDefaults(); err != nil {
		return err
	}
	if got, want := len(r.Photos), r.Grid.Cells(); got != want {
		return errors.New(errors.ErrCodeInvalidRequest, "grid %dx%d needs %d photos, got %d", r.Grid.Cols, r.Grid.Rows, want, got)
	}
	return nil
}
