// Package pkg provides the core libraries for Gridbooth photo composition.
//
// # Overview
//
// Gridbooth turns a burst of kiosk captures into a print-ready grid
// composite sized for a physical photo page. The pkg directory is
// organized into four main areas:
//
//  1. [compose] - Domain logic (grids, page sizes, planning, rendering, overlays)
//  2. [pipeline] - Orchestration (decode → plan → render, with caching)
//  3. Infrastructure - caching, storage, sessions, configuration
//  4. [printer] - The print service client
//
// # Architecture
//
// The typical data flow through Gridbooth:
//
//	Captured photos (JPEG/PNG bytes)
//	         ↓
//	    [compose] package (decode + plan the grid)
//	         ↓
//	    [compose] package (render cells, apply overlays)
//	         ↓
//	    [pipeline] package (cache plans and composites)
//	         ↓
//	    JPEG composite → storage → printer
//
// # Quick Start
//
// Compose four photos into a 2x2 grid on a 4x6 page:
//
//	import (
//	    "context"
//	    "github.com/gridbooth/gridbooth/pkg/cache"
//	    "github.com/gridbooth/gridbooth/pkg/pipeline"
//	)
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, nil)
//	defer runner.Close()
//
//	result, err := runner.Execute(context.Background(), pipeline.Options{
//	    GridID: "4x6-4cut",
//	    Photos: photos, // [][]byte in grid fill order
//	})
//	// result.Composite.Data holds the encoded JPEG
//
// # Main Packages
//
// ## Core Domain Logic
//
// [compose] - Grid specifications, the page-size catalog, layout planning
// (crop-fill and aspect-preserve), cell rendering and overlay decoration
// (stickers, captions, frames). Pure image work with no storage concerns.
//
// [io] - JSON manifests describing a full composition request (grid,
// options, photo paths, overlay) for file-driven workflows.
//
// ## Orchestration
//
// [pipeline] - The decode → plan → render pipeline shared by the CLI and
// the HTTP server. Plans and finished composites are cached independently,
// so a repeated request can skip all pixel work.
//
// ## Infrastructure
//
// [cache] - Content-addressed byte cache keyed by request hashes, with
// file, Redis and null backends plus TTL expiry.
//
// [storage] - Composite object store on the local filesystem with
// validated names and streaming reads.
//
// [session] - Booth visit state machine (created → captured → composed →
// printed) with memory, file and MongoDB stores.
//
// [config] - TOML kiosk configuration with environment overrides and
// custom layout registration.
//
// [httputil] - HTTP retry helpers and a file-backed response cache used
// by outbound clients.
//
// [observability] - Pipeline, cache and print hooks for metrics without
// wiring a metrics stack into the hot path.
//
// ## External Services
//
// [printer] - Client for the print service that turns composites into
// physical prints, with retry on transient failures and a null client for
// printerless kiosks.
//
// # Common Workflows
//
// Compose from a manifest file:
//
//	m, _ := io.ImportJSON("manifest.json")
//	req, _ := m.Request()
//	overlay, _ := m.OverlaySpec()
//
// Resolve a grid shape to a page:
//
//	page := compose.ResolvePageSize(compose.GridSpec{Cols: 3, Rows: 2})
//	// page.Label == "5x7"
//
// Submit a print job:
//
//	client, _ := printer.NewHTTPClient(endpoint, apiKey, 30*time.Second)
//	jobID, _ := client.Submit(ctx, printer.Job{Data: jpeg, PageLabel: "4x6"})
//
// # Testing
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/compose/...            # Specific package
//	go test -tags integration ./pkg/...  # Include integration tests
//
// [compose]: https://pkg.go.dev/github.com/gridbooth/gridbooth/pkg/compose
// [pipeline]: https://pkg.go.dev/github.com/gridbooth/gridbooth/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/gridbooth/gridbooth/pkg/cache
// [storage]: https://pkg.go.dev/github.com/gridbooth/gridbooth/pkg/storage
// [session]: https://pkg.go.dev/github.com/gridbooth/gridbooth/pkg/session
// [config]: https://pkg.go.dev/github.com/gridbooth/gridbooth/pkg/config
// [httputil]: https://pkg.go.dev/github.com/gridbooth/gridbooth/pkg/httputil
// [observability]: https://pkg.go.dev/github.com/gridbooth/gridbooth/pkg/observability
// [printer]: https://pkg.go.dev/github.com/gridbooth/gridbooth/pkg/printer
// [io]: https://pkg.go.dev/github.com/gridbooth/gridbooth/pkg/io
package pkg
