// Package pipeline provides the cached composition pipeline for Gridbooth.
//
// This package implements the complete decode → plan → render → encode
// pipeline used by both the CLI and the HTTP API. Centralizing it keeps
// caching behavior identical across entry points: a composite rendered
// through the API can be served again to a CLI reprint without redoing
// any pixel work.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Decode: Decode all source photos concurrently
//  2. Plan: Resolve the page size and compute the layout plan
//  3. Render: Draw the composite, apply overlays and encode it
//
// The plan and the encoded artifact are cached independently. Plans are
// small JSON blobs keyed by the request hash and layout options; artifacts
// are the encoded bytes keyed additionally by format and overlay. A cache
// hit on the artifact skips decoding, drawing and encoding entirely.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    GridID: "4x6-4cut",
//	    Photos: photoBytes,
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	jpeg := result.Composite.Data
package pipeline

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/gridbooth/gridbooth/pkg/cache"
	"github.com/gridbooth/gridbooth/pkg/compose"
	"github.com/gridbooth/gridbooth/pkg/errors"
)

// Options contains all configuration for one pipeline run.
// This struct supports JSON serialization for API requests; the photo
// bytes themselves travel out of band (multipart upload, file paths).
type Options struct {
	// Grid selection. A layout id alone is enough when it names a catalog
	// entry; explicit cols/rows override or extend it.
	GridID string `json:"grid_id,omitempty"`
	Cols   uint32 `json:"cols,omitempty"`
	Rows   uint32 `json:"rows,omitempty"`

	// Composition options. Zero values use the compose package defaults.
	DPI            uint32  `json:"dpi,omitempty"`
	MarginPercent  float64 `json:"margin_percent,omitempty"`
	Fit            string  `json:"fit,omitempty"`
	MaxCellWidthIn float64 `json:"max_cell_width_in,omitempty"`

	// Overlay is drawn onto the composite before encoding. Its parameters
	// are part of the artifact cache key.
	Overlay *compose.OverlaySpec `json:"overlay,omitempty"`

	// NoCache disables cache reads and writes for this run.
	NoCache bool `json:"no_cache,omitempty"`

	// Refresh recomputes every stage but still stores the fresh results.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Photos [][]byte    `json:"-"`
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Composite is the encoded output with its pixel dimensions and page.
	Composite compose.Composite

	// Plan is the layout the composite was drawn from.
	Plan compose.Plan

	// RequestHash is the content hash identifying this request's photos
	// and grid. Identical requests produce identical hashes.
	RequestHash string

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	DecodeTime time.Duration
	PlanTime   time.Duration
	RenderTime time.Duration
	EncodeTime time.Duration
	Bytes      int
}

// CacheInfo tracks cache hits for each cached pipeline stage.
type CacheInfo struct {
	PlanHit     bool // Whether the layout plan came from cache
	ArtifactHit bool // Whether the encoded composite came from cache
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent - calling it multiple times has the same
// effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}

	if o.GridID != "" && (o.Cols == 0 || o.Rows == 0) {
		layout, ok := compose.LayoutByID(o.GridID)
		if !ok {
			return errors.New(errors.ErrCodeInvalidGrid, "unknown layout id %q and no explicit grid shape", o.GridID)
		}
		o.Cols, o.Rows = layout.Cols, layout.Rows
	}

	grid := o.Grid()
	if err := grid.Validate(); err != nil {
		return err
	}
	if len(o.Photos) != int(grid.Cells()) {
		return errors.New(errors.ErrCodeInvalidRequest,
			"grid %dx%d needs %d photos, got %d", grid.Cols, grid.Rows, grid.Cells(), len(o.Photos))
	}

	// Validated through the compose package so the two entry points can
	// never drift apart.
	if _, err := o.ComposeOptions(); err != nil {
		return err
	}

	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	o.validated = true
	return nil
}

// Grid returns the grid spec selected by the options.
func (o *Options) Grid() compose.GridSpec {
	return compose.GridSpec{Cols: o.Cols, Rows: o.Rows, ID: o.GridID}
}

// ComposeOptions resolves the options into the compose package's form,
// with defaults applied.
func (o *Options) ComposeOptions() (compose.Options, error) {
	fit, err := compose.ParseFitMode(o.Fit)
	if err != nil {
		return compose.Options{}, err
	}
	copts := compose.Options{
		DPI:            o.DPI,
		MarginPercent:  o.MarginPercent,
		Fit:            fit,
		MaxCellWidthIn: o.MaxCellWidthIn,
	}
	if err := copts.ValidateAndSetDefaults(); err != nil {
		return compose.Options{}, err
	}
	return copts, nil
}

// overlayFingerprint returns the cache fingerprint of the overlay, or ""
// when the run has no overlay.
func (o *Options) overlayFingerprint() string {
	if o.Overlay == nil || o.Overlay.Empty() {
		return ""
	}
	return o.Overlay.Fingerprint()
}

// planKeyOpts maps the options onto the plan cache key parameters.
func (o *Options) planKeyOpts(copts compose.Options) cache.PlanKeyOpts {
	return cache.PlanKeyOpts{
		Cols:           o.Cols,
		Rows:           o.Rows,
		GridID:         o.GridID,
		DPI:            copts.DPI,
		MarginPercent:  copts.MarginPercent,
		Fit:            string(copts.Fit),
		MaxCellWidthIn: copts.MaxCellWidthIn,
	}
}

// artifactKeyOpts maps the options onto the artifact cache key parameters.
func (o *Options) artifactKeyOpts(copts compose.Options) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Plan:    o.planKeyOpts(copts),
		Format:  "jpeg",
		Quality: compose.JPEGQuality,
		Overlay: o.overlayFingerprint(),
	}
}

// RequestHash computes the content hash identifying a request: the hash
// of every photo in order plus the grid. Two requests with the same
// photos and grid share plan and artifact cache entries; changing a
// single photo changes the hash.
func RequestHash(photos [][]byte, grid compose.GridSpec) string {
	var buf bytes.Buffer
	for _, p := range photos {
		buf.WriteString(cache.Hash(p))
		buf.WriteByte('\n')
	}
	fmt.Fprintf(&buf, "%dx%d:%s", grid.Cols, grid.Rows, grid.ID)
	return cache.Hash(buf.Bytes())
}
