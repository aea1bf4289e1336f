package cli

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"

	"github.com/spf13/cobra"

	"github.com/gridbooth/gridbooth/pkg/compose"
	gbio "github.com/gridbooth/gridbooth/pkg/io"
	"github.com/gridbooth/gridbooth/pkg/pipeline"
)

// composeParams collects the compose command's non-pipeline flag values.
type composeParams struct {
	output      string
	manifest    string
	noCache     bool
	refresh     bool
	pick        bool
	overlayText string
	stickers    []string
	framePath   string
	frameWidth  int
	frameColor  string
}

// overlayRequested reports whether any overlay flag was set.
func (p composeParams) overlayRequested() bool {
	return p.overlayText != "" || len(p.stickers) > 0 || p.framePath != "" || p.frameWidth > 0
}

// composeCommand creates the compose command for building grid composites.
func (c *CLI) composeCommand() *cobra.Command {
	var p composeParams
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "compose [photos...]",
		Short: "Compose captured photos into a print-ready grid",
		Long: `Compose captured photos into a print-ready grid composite.

Photos fill the grid column by column in argument order. The grid comes from a
layout id (--grid-id), an explicit shape (--cols and --rows), or the
interactive picker (--pick). A manifest file (--manifest) can carry the
whole request instead, including overlay decoration; flags override the
manifest's options where both are given.

The composite is encoded as JPEG and sized for the resolved print page.
Plans and rendered composites are cached locally for faster repeat runs.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCompose(cmd.Context(), args, opts, p)
		},
	}

	// Common flags
	cmd.Flags().StringVarP(&p.output, "output", "o", "", "output file (default: "+defaultOutput+")")
	cmd.Flags().StringVarP(&p.manifest, "manifest", "m", "", "compose from a JSON manifest instead of photo arguments")
	cmd.Flags().BoolVar(&p.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&p.refresh, "refresh", false, "recompute and overwrite cached results")

	// Grid flags
	cmd.Flags().StringVarP(&opts.GridID, "grid-id", "g", "", "layout id from the catalog (see 'gridbooth layouts')")
	cmd.Flags().Uint32Var(&opts.Cols, "cols", 0, "grid columns")
	cmd.Flags().Uint32Var(&opts.Rows, "rows", 0, "grid rows")
	cmd.Flags().BoolVarP(&p.pick, "pick", "p", false, "pick a layout interactively when no grid is given")

	// Composition flags
	cmd.Flags().Uint32Var(&opts.DPI, "dpi", 0, "print resolution in dots per inch (default 300)")
	cmd.Flags().Float64Var(&opts.MarginPercent, "margin", 0, "margin as percent of the short canvas side (default 2)")
	cmd.Flags().StringVar(&opts.Fit, "fit", "", "cell fit mode: crop (default), fit")
	cmd.Flags().Float64Var(&opts.MaxCellWidthIn, "max-cell-width", 0, "cap cell width in inches, shrinking the canvas")

	// Overlay flags
	cmd.Flags().StringVar(&p.overlayText, "overlay-text", "", "caption drawn centered near the bottom edge")
	cmd.Flags().StringArrayVar(&p.stickers, "overlay-sticker", nil, "sticker image placed in the bottom-right corner (repeatable)")
	cmd.Flags().StringVar(&p.framePath, "frame", "", "frame image stretched over the composite border")
	cmd.Flags().IntVar(&p.frameWidth, "frame-width", 0, "frame border width in pixels")
	cmd.Flags().StringVar(&p.frameColor, "frame-color", "", "frame border color as hex, e.g. #ffffff")

	return cmd
}

// runCompose loads the photos, runs the pipeline and writes the composite.
func (c *CLI) runCompose(ctx context.Context, args []string, opts pipeline.Options, p composeParams) error {
	outputPath := p.output

	if p.manifest != "" {
		if len(args) > 0 {
			return fmt.Errorf("--manifest and photo arguments are mutually exclusive")
		}
		manifestOut, err := loadManifest(p.manifest, &opts)
		if err != nil {
			return err
		}
		if outputPath == "" {
			outputPath = manifestOut
		}
	} else {
		if p.pick && opts.GridID == "" && opts.Cols == 0 && opts.Rows == 0 {
			id, err := pickLayout()
			if err != nil {
				return err
			}
			opts.GridID = id
		}
		if len(args) == 0 {
			return fmt.Errorf("no photos given (pass photo files or --manifest)")
		}
		photos, err := readPhotoFiles(args)
		if err != nil {
			return err
		}
		opts.Photos = photos
	}

	opts.NoCache = p.noCache
	opts.Refresh = p.refresh
	opts.Logger = c.Logger

	// Validate before any pixel work so shape mismatches fail fast.
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	if p.overlayRequested() {
		if err := applyOverlayFlags(&opts, p); err != nil {
			return err
		}
	}

	runner, err := c.newRunner(p.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Composing %d photos...", len(opts.Photos)))
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Compose failed")
		return fmt.Errorf("compose: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	if outputPath == "" {
		outputPath = defaultOutput
	}

	if err := os.WriteFile(outputPath, result.Composite.Data, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Composite ready")
	printFile(outputPath)
	printStats(len(opts.Photos), result.Composite.Width, result.Composite.Height, result.CacheInfo.ArtifactHit)
	printDetail("Page: %s at %d DPI", result.Composite.Page.Label, opts.DPI)
	printNewline()
	printNextStep("Run the kiosk API", "gridbooth serve")

	return nil
}

// loadManifest fills opts from a manifest file and returns the manifest's
// output path, if any. Grid, photos and overlay always come from the
// manifest; composition options only fill values no flag has set.
func loadManifest(path string, opts *pipeline.Options) (string, error) {
	m, err := gbio.ImportJSON(path)
	if err != nil {
		return "", err
	}

	req, err := m.Request()
	if err != nil {
		return "", err
	}
	spec, err := m.OverlaySpec()
	if err != nil {
		return "", err
	}

	opts.GridID = req.Grid.ID
	opts.Cols = req.Grid.Cols
	opts.Rows = req.Grid.Rows

	opts.Photos = make([][]byte, len(req.Photos))
	for i, photo := range req.Photos {
		opts.Photos[i] = photo.Data
	}

	if opts.DPI == 0 {
		opts.DPI = req.Options.DPI
	}
	if opts.MarginPercent == 0 {
		opts.MarginPercent = req.Options.MarginPercent
	}
	if opts.Fit == "" {
		opts.Fit = string(req.Options.Fit)
	}
	if opts.MaxCellWidthIn == 0 {
		opts.MaxCellWidthIn = req.Options.MaxCellWidthIn
	}

	if !spec.Empty() {
		opts.Overlay = &spec
	}

	if m.Output != "" {
		return m.Resolve(m.Output), nil
	}
	return "", nil
}

// applyOverlayFlags builds overlay layers from command-line flags on top
// of any manifest overlay. Layer positions need canvas coordinates, so a
// throwaway crop plan supplies the final canvas size; the canvas does not
// depend on the fit mode.
func applyOverlayFlags(opts *pipeline.Options, p composeParams) error {
	copts, err := opts.ComposeOptions()
	if err != nil {
		return err
	}
	copts.Fit = compose.FitCropFill

	grid := opts.Grid()
	plan, err := compose.PlanLayout(grid, compose.ResolvePageSize(grid), copts, nil)
	if err != nil {
		return err
	}

	spec := compose.OverlaySpec{}
	if opts.Overlay != nil {
		spec = *opts.Overlay
	}

	if p.overlayText != "" {
		size := float64(plan.CanvasH) * 0.05
		spec.Texts = append(spec.Texts, compose.Text{
			Value: p.overlayText,
			X:     float64(plan.CanvasW) / 2,
			Y:     float64(plan.CanvasH) - size,
			Size:  size,
		})
	}

	inset := plan.MarginPx
	if inset == 0 {
		inset = plan.CanvasW / 40
	}
	right := plan.CanvasW - inset
	for _, path := range p.stickers {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read sticker %s: %w", path, err)
		}
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("decode sticker %s: %w", path, err)
		}
		spec.Stickers = append(spec.Stickers, compose.Sticker{
			Data: data,
			X:    float64(right - cfg.Width/2),
			Y:    float64(plan.CanvasH - inset - cfg.Height/2),
		})
		right -= cfg.Width + inset
	}

	if p.frameWidth > 0 || p.framePath != "" {
		frame := &compose.Frame{Width: p.frameWidth, Color: p.frameColor}
		if frame.Width == 0 {
			frame.Width = min(plan.CanvasW, plan.CanvasH) / 40
		}
		if frame.Width == 0 {
			frame.Width = 1
		}
		if p.framePath != "" {
			data, err := os.ReadFile(p.framePath)
			if err != nil {
				return fmt.Errorf("read frame %s: %w", p.framePath, err)
			}
			frame.Data = data
		}
		spec.Frame = frame
	}

	if !spec.Empty() {
		opts.Overlay = &spec
	}
	return nil
}

// readPhotoFiles loads the photo files in argument order, which is the
// grid fill order.
func readPhotoFiles(paths []string) ([][]byte, error) {
	photos := make([][]byte, len(paths))
	for i, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read photo %s: %w", p, err)
		}
		photos[i] = data
	}
	return photos, nil
}
