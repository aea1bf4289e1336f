// Package cache provides caching for composition pipeline stages.
//
// Two layers of the pipeline are cacheable: layout plans (cheap to compute,
// cached to keep reprints byte-stable) and encoded composites (expensive,
// cached so a reprint of the same request skips all pixel work). HTTP
// response caching for the print service shares the same backends.
//
// Backends: FileCache for single-kiosk deployments, RedisCache for venues
// running several booths against one cache, NullCache to disable caching.
package cache

import (
	"context"
	"time"
)

// Default TTLs for the different cache layers.
const (
	// TTLPlan is the lifetime of cached layout plans.
	TTLPlan = 7 * 24 * time.Hour

	// TTLArtifact is the lifetime of cached encoded composites.
	// It bounds the reprint window of a booth session.
	TTLArtifact = 24 * time.Hour

	// TTLHTTP is the lifetime of cached print-service responses.
	TTLHTTP = 6 * time.Hour
)

// Cache stores binary blobs under string keys with optional expiry.
//
// Implementations must treat a missing key as a miss, not an error; the
// second return value of Get reports whether the key was found.
type Cache interface {
	// Get retrieves a value. Returns (nil, false, nil) on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A ttl of 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}

// PlanKeyOpts are the request parameters that determine a layout plan.
// Any field change must produce a different cache key.
type PlanKeyOpts struct {
	Cols           uint32  `json:"cols"`
	Rows           uint32  `json:"rows"`
	GridID         string  `json:"grid_id,omitempty"`
	DPI            uint32  `json:"dpi"`
	MarginPercent  float64 `json:"margin_percent"`
	Fit            string  `json:"fit"`
	MaxCellWidthIn float64 `json:"max_cell_width_in,omitempty"`
}

// ArtifactKeyOpts are the parameters that determine an encoded composite.
// They extend the plan parameters with the output format and overlay, since
// the same plan can produce different artifacts.
type ArtifactKeyOpts struct {
	Plan    PlanKeyOpts `json:"plan"`
	Format  string      `json:"format"`
	Quality int         `json:"quality"`
	Overlay string      `json:"overlay,omitempty"` // hash of the overlay spec, empty when none
}

// Keyer generates cache keys for the different cache layers.
//
// The requestHash passed to PlanKey and ArtifactKey is the combined content
// hash of the source photos in request order, so two requests with the same
// options but different photos never collide.
type Keyer interface {
	// HTTPKey generates a key for HTTP response caching.
	HTTPKey(namespace, key string) string

	// PlanKey generates a key for layout plan caching.
	PlanKey(requestHash string, opts PlanKeyOpts) string

	// ArtifactKey generates a key for encoded composite caching.
	ArtifactKey(requestHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer is the standard Keyer implementation.
// Keys embed a SHA-256 hash of the JSON-encoded parameters.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// HTTPKey generates a key for HTTP response caching.
func (k *DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

// PlanKey generates a key for layout plan caching.
func (k *DefaultKeyer) PlanKey(requestHash string, opts PlanKeyOpts) string {
	return hashKey("plan", requestHash, opts)
}

// ArtifactKey generates a key for encoded composite caching.
func (k *DefaultKeyer) ArtifactKey(requestHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", requestHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
