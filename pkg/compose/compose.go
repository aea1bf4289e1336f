// Package compose builds printable grid composites from kiosk photos.
//
// This package implements the complete resolve → plan → render → encode
// core shared by the CLI, the HTTP API, and the pipeline runner. By
// centralizing this logic, every entry point produces byte-identical
// composites for identical requests.
//
// # Architecture
//
// A composition runs in four stages:
//
//  1. Decode: Decode all source photos concurrently, preserving order
//  2. Resolve: Map the grid to a physical page size via the layout catalog
//  3. Plan: Compute the canvas and one cell rectangle per photo
//  4. Render + Encode: Paint photos onto a white canvas and encode JPEG
//
// Each stage can be run independently or through [Compose].
//
// # Usage
//
// Build a request and run the full composition:
//
//	req := compose.Request{
//	    Photos: photos,
//	    Grid:   compose.GridSpec{Cols: 2, Rows: 2, ID: "4x6-4cut"},
//	}
//	out, err := compose.Compose(ctx, req)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("strip.jpg", out.Data, 0o644)
//
// Run individual stages:
//
//	imgs, err := compose.DecodeAll(ctx, req.Photos)
//	page := compose.ResolvePageSize(req.Grid)
//	plan, err := compose.PlanLayout(req.Grid, page, req.Options, compose.Aspects(imgs))
//	canvas, err := compose.Render(imgs, plan)
package compose

import (
	"context"
)

// Composite is an encoded output image plus the physical page it prints on.
// The pixel data is opaque to storage and printing; Page.Label travels with
// the bytes so the print service selects the right media.
type Composite struct {
	Data   []byte   `json:"-"`
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Format string   `json:"format"`
	Page   PageSize `json:"page"`
}

// Compose runs the full composition for one request: validate, decode,
// resolve, plan, render, encode. Any failure aborts the whole request;
// there is never a partial composite.
func Compose(ctx context.Context, req Request) (*Composite, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	imgs, err := DecodeAll(ctx, req.Photos)
	if err != nil {
		return nil, err
	}

	page := ResolvePageSize(req.Grid)

	var aspects []float64
	if req.Options.Fit == FitAspectPreserve {
		aspects = Aspects(imgs)
	}
	plan, err := PlanLayout(req.Grid, page, req.Options, aspects)
	if err != nil {
		return nil, err
	}

	canvas, err := Render(imgs, plan)
	if err != nil {
		return nil, err
	}

	data, err := EncodeJPEG(canvas)
	if err != nil {
		return nil, err
	}

	return &Composite{
		Data:   data,
		Width:  plan.CanvasW,
		Height: plan.CanvasH,
		Format: "jpeg",
		Page:   page,
	}, nil
}
