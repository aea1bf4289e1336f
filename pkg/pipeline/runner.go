package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"time"

	"github.com/charmbracelet/log"

	"github.com/gridbooth/gridbooth/pkg/cache"
	"github.com/gridbooth/gridbooth/pkg/compose"
	"github.com/gridbooth/gridbooth/pkg/observability"
)

// Runner executes the composition pipeline with caching between stages.
// The zero value is not usable; construct with NewRunner.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner builds a Runner. A nil cache disables caching, a nil keyer
// falls back to the default key scheme, and a nil logger logs to the
// standard charmbracelet logger.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Close releases the cache backend.
func (r *Runner) Close() error {
	return r.Cache.Close()
}

// Execute runs decode, plan and render for one request. Plans and encoded
// artifacts are cached independently: an artifact hit skips decoding,
// drawing and encoding entirely, and a plan hit in crop mode never touches
// pixel data at all.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	copts, err := opts.ComposeOptions()
	if err != nil {
		return nil, err
	}
	grid := opts.Grid()
	page := compose.ResolvePageSize(grid)

	result := &Result{RequestHash: RequestHash(opts.Photos, grid)}

	// Photos decode at most once per Execute, and only when a stage
	// actually needs pixels.
	var imgs []image.Image
	decode := func() ([]image.Image, error) {
		if imgs != nil {
			return imgs, nil
		}
		photos := make([]compose.Photo, len(opts.Photos))
		for i, data := range opts.Photos {
			photos[i] = compose.Photo{Data: data}
		}
		start := time.Now()
		observability.Pipeline().OnDecodeStart(ctx, len(photos))
		decoded, err := compose.DecodeAll(ctx, photos)
		observability.Pipeline().OnDecodeComplete(ctx, len(photos), time.Since(start), err)
		if err != nil {
			return nil, err
		}
		imgs = decoded
		result.Stats.DecodeTime = time.Since(start)
		return imgs, nil
	}

	planStart := time.Now()
	plan, planHit, err := r.planStage(ctx, result.RequestHash, &opts, copts, grid, page, decode)
	if err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}
	result.Plan = plan
	result.Stats.PlanTime = time.Since(planStart)
	result.CacheInfo.PlanHit = planHit

	r.Logger.Info("planned layout",
		"grid", fmt.Sprintf("%dx%d", grid.Cols, grid.Rows),
		"page", page.Label,
		"canvas", fmt.Sprintf("%dx%d", plan.CanvasW, plan.CanvasH),
		"cache_hit", planHit,
		"duration", result.Stats.PlanTime)

	data, artifactHit, err := r.renderStage(ctx, result.RequestHash, &opts, copts, plan, decode, &result.Stats)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.CacheInfo.ArtifactHit = artifactHit
	result.Stats.Bytes = len(data)

	// A frame overlay grows the canvas on all sides after planning.
	width, height := plan.CanvasW, plan.CanvasH
	if opts.Overlay != nil && opts.Overlay.Frame != nil {
		width += 2 * opts.Overlay.Frame.Width
		height += 2 * opts.Overlay.Frame.Width
	}
	result.Composite = compose.Composite{
		Data:   data,
		Width:  width,
		Height: height,
		Format: "jpeg",
		Page:   page,
	}

	r.Logger.Info("composed",
		"bytes", len(data),
		"cache_hit", artifactHit,
		"decode", result.Stats.DecodeTime,
		"render", result.Stats.RenderTime,
		"encode", result.Stats.EncodeTime)

	return result, nil
}

// planStage returns the layout plan, from cache when possible. The bool
// reports a cache hit. Aspect-preserve plans depend on photo content, so a
// miss in that mode forces a decode; crop plans are pure geometry.
func (r *Runner) planStage(ctx context.Context, requestHash string, opts *Options, copts compose.Options, grid compose.GridSpec, page compose.PageSize, decode func() ([]image.Image, error)) (compose.Plan, bool, error) {
	key := r.Keyer.PlanKey(requestHash, opts.planKeyOpts(copts))

	if !opts.NoCache && !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var plan compose.Plan
			if err := json.Unmarshal(data, &plan); err == nil {
				observability.Cache().OnCacheHit(ctx, "plan")
				return plan, true, nil
			}
			// A corrupt entry falls through to a recompute.
			opts.Logger.Warn("discarding corrupt cached plan", "key", key)
		}
		observability.Cache().OnCacheMiss(ctx, "plan")
	}

	var aspects []float64
	if copts.Fit == compose.FitAspectPreserve {
		imgs, err := decode()
		if err != nil {
			return compose.Plan{}, false, err
		}
		aspects = compose.Aspects(imgs)
	}

	start := time.Now()
	observability.Pipeline().OnPlanStart(ctx, string(copts.Fit), grid.Cells())
	plan, err := compose.PlanLayout(grid, page, copts, aspects)
	observability.Pipeline().OnPlanComplete(ctx, string(copts.Fit), time.Since(start), err)
	if err != nil {
		return compose.Plan{}, false, err
	}

	if !opts.NoCache {
		if data, err := json.Marshal(plan); err == nil {
			if err := r.Cache.Set(ctx, key, data, cache.TTLPlan); err == nil {
				observability.Cache().OnCacheSet(ctx, "plan", len(data))
			}
		}
	}
	return plan, false, nil
}

// renderStage returns the encoded composite, from cache when possible.
// The bool reports a cache hit.
func (r *Runner) renderStage(ctx context.Context, requestHash string, opts *Options, copts compose.Options, plan compose.Plan, decode func() ([]image.Image, error), stats *Stats) ([]byte, bool, error) {
	key := r.Keyer.ArtifactKey(requestHash, opts.artifactKeyOpts(copts))

	if !opts.NoCache && !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "artifact")
			return data, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "artifact")
	}

	imgs, err := decode()
	if err != nil {
		return nil, false, err
	}

	renderStart := time.Now()
	observability.Pipeline().OnRenderStart(ctx, plan.CanvasW, plan.CanvasH)
	canvas, err := compose.Render(imgs, plan)
	observability.Pipeline().OnRenderComplete(ctx, plan.CanvasW, plan.CanvasH, time.Since(renderStart), err)
	if err != nil {
		return nil, false, err
	}

	var out image.Image = canvas
	if opts.Overlay != nil && !opts.Overlay.Empty() {
		decorated, err := compose.ApplyOverlay(canvas, *opts.Overlay)
		if err != nil {
			return nil, false, err
		}
		out = decorated
	}
	stats.RenderTime = time.Since(renderStart)

	encodeStart := time.Now()
	observability.Pipeline().OnEncodeStart(ctx, "jpeg")
	data, err := compose.EncodeJPEG(out)
	observability.Pipeline().OnEncodeComplete(ctx, "jpeg", len(data), time.Since(encodeStart), err)
	if err != nil {
		return nil, false, err
	}
	stats.EncodeTime = time.Since(encodeStart)

	if !opts.NoCache {
		if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err == nil {
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
	}
	return data, false, nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
