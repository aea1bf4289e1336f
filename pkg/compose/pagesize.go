package compose

import (
	"math"
	"sync"

	"github.com/gridbooth/gridbooth/pkg/errors"
)

// PageSize is a physical print size in inches with its printer label.
type PageSize struct {
	WidthIn  float64 `json:"width_in"`
	HeightIn float64 `json:"height_in"`
	Label    string  `json:"label"`
}

// Layout is a catalog entry pairing a grid shape with the page it prints on.
type Layout struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Cols    uint32   `json:"cols"`
	Rows    uint32   `json:"rows"`
	Page    PageSize `json:"page"`
	Builtin bool     `json:"builtin"`
}

// Grid returns the grid spec for this catalog entry.
func (l Layout) Grid() GridSpec {
	return GridSpec{Cols: l.Cols, Rows: l.Rows, ID: l.ID}
}

// Standard page sizes, in resolution order. When a grid matches neither the
// catalog nor the shape defaults, the nearest of these is chosen by L1
// distance in inches; ties resolve to the earlier entry. The tie-break is a
// frozen compatibility rule, not a tunable.
var standardSizes = []PageSize{
	{WidthIn: 2, HeightIn: 4, Label: "2x4"},
	{WidthIn: 4, HeightIn: 6, Label: "4x6"},
	{WidthIn: 5, HeightIn: 7, Label: "5x7"},
	{WidthIn: 8, HeightIn: 10, Label: "8x10"},
}

// Nominal cell footprint used to derive the desired page size for shapes
// outside the catalog. 2x3in is the cell of the 4-cut layout.
const (
	nominalCellWIn = 2.0
	nominalCellHIn = 3.0
)

// builtinLayouts is the fixed kiosk catalog. IDs and page assignments are
// part of the compatibility surface and must not change.
var builtinLayouts = []Layout{
	{ID: "4x6-single", Name: "SINGLE", Cols: 1, Rows: 1, Page: PageSize{4, 6, "4x6"}, Builtin: true},
	{ID: "2x4-vertical-2", Name: "V-2 CUT", Cols: 2, Rows: 1, Page: PageSize{2, 4, "2x4"}, Builtin: true},
	{ID: "4x6-4cut", Name: "4 CUT", Cols: 2, Rows: 2, Page: PageSize{4, 6, "4x6"}, Builtin: true},
	{ID: "5x7-6cut", Name: "6 CUT", Cols: 3, Rows: 2, Page: PageSize{5, 7, "5x7"}, Builtin: true},
	{ID: "5x5-single", Name: "5x5 SINGLE", Cols: 1, Rows: 1, Page: PageSize{5, 5, "5x5"}, Builtin: true},
}

// shapeDefaults maps bare grid shapes to pages when no catalog id matches.
var shapeDefaults = map[[2]uint32]PageSize{
	{1, 1}: {4, 6, "4x6"},
	{2, 1}: {2, 4, "2x4"},
	{2, 2}: {4, 6, "4x6"},
	{3, 2}: {5, 7, "5x7"},
}

// Custom catalog entries added from config, in registration order.
var (
	layoutMu      sync.RWMutex
	customLayouts []Layout
)

// RegisterLayout adds a custom catalog entry, typically from a [[layout]]
// config section. Built-in ids are reserved and cannot be overridden.
func RegisterLayout(l Layout) error {
	if err := errors.ValidateLayoutID(l.ID); err != nil {
		return err
	}
	if l.Cols == 0 || l.Rows == 0 {
		return errors.New(errors.ErrCodeInvalidLayout, "layout %q must have at least one column and one row", l.ID)
	}
	if l.Page.WidthIn <= 0 || l.Page.HeightIn <= 0 {
		return errors.New(errors.ErrCodeInvalidLayout, "layout %q has non-positive page size", l.ID)
	}

	layoutMu.Lock()
	defer layoutMu.Unlock()
	for _, b := range builtinLayouts {
		if b.ID == l.ID {
			return errors.New(errors.ErrCodeInvalidLayout, "layout id %q is built in and cannot be overridden", l.ID)
		}
	}
	for _, c := range customLayouts {
		if c.ID == l.ID {
			return errors.New(errors.ErrCodeInvalidLayout, "layout id %q is already registered", l.ID)
		}
	}
	l.Builtin = false
	customLayouts = append(customLayouts, l)
	return nil
}

// ResetLayouts removes all custom catalog entries.
// This is primarily useful for testing.
func ResetLayouts() {
	layoutMu.Lock()
	defer layoutMu.Unlock()
	customLayouts = nil
}

// Layouts returns the full catalog: built-ins first, then custom entries in
// registration order.
func Layouts() []Layout {
	layoutMu.RLock()
	defer layoutMu.RUnlock()
	out := make([]Layout, 0, len(builtinLayouts)+len(customLayouts))
	out = append(out, builtinLayouts...)
	out = append(out, customLayouts...)
	return out
}

// LayoutByID returns the catalog entry with the given id.
func LayoutByID(id string) (Layout, bool) {
	layoutMu.RLock()
	defer layoutMu.RUnlock()
	for _, l := range builtinLayouts {
		if l.ID == id {
			return l, true
		}
	}
	for _, l := range customLayouts {
		if l.ID == id {
			return l, true
		}
	}
	return Layout{}, false
}

// ResolvePageSize maps a grid to the physical page it prints on.
//
// Resolution is total and deterministic; it never fails. Precedence:
//
//  1. Exact catalog id match (built-in first, then custom entries).
//  2. Shape default for the bare (cols, rows) pair.
//  3. Nearest standard size by L1 distance to the grid's nominal footprint,
//     ties resolving to the earlier standard size.
func ResolvePageSize(grid GridSpec) PageSize {
	if grid.ID != "" {
		if l, ok := LayoutByID(grid.ID); ok {
			return l.Page
		}
	}

	if page, ok := shapeDefaults[[2]uint32{grid.Cols, grid.Rows}]; ok {
		return page
	}

	return nearestStandardSize(
		float64(grid.Cols)*nominalCellWIn,
		float64(grid.Rows)*nominalCellHIn,
	)
}

// nearestStandardSize snaps a desired footprint to the closest standard
// page by L1 distance. Strict less keeps the first entry on ties.
func nearestStandardSize(wantW, wantH float64) PageSize {
	best := standardSizes[0]
	bestDist := math.Inf(1)
	for _, s := range standardSizes {
		d := math.Abs(s.WidthIn-wantW) + math.Abs(s.HeightIn-wantH)
		if d < bestDist {
			best = s
			bestDist = d
		}
	}
	return best
}
