// Package io provides JSON import and export for composition request manifests.
//
// # Overview
//
// A manifest describes one composition as a file: the grid, the layout
// options, the source photos and optional overlay decoration. The format is
// designed for:
//
//   - Scripted kiosk flows that assemble requests outside the booth UI
//   - Reproducing a composition exactly from archived session data
//   - Round-trip preservation: import, compose, export, and re-import identically
//
// # JSON Format
//
// The format has a required grid and photos array:
//
//	{
//	  "grid": {"cols": 2, "rows": 2, "id": "4x6-4cut"},
//	  "options": {"dpi": 300, "margin_percent": 2, "fit": "crop"},
//	  "photos": ["shots/01.jpg", "shots/02.jpg", "shots/03.jpg", "shots/04.jpg"],
//	  "overlay": {
//	    "texts": [{"value": "Party!", "x": 600, "y": 1700, "size": 64, "color": "#ff00aa"}],
//	    "stickers": [{"path": "assets/star.png", "x": 120, "y": 120, "scale": 1.5}],
//	    "frame": {"width": 40, "color": "#ffffff"}
//	  },
//	  "output": "strip.jpg"
//	}
//
// # Fields
//
// Required:
//   - grid: cols and rows, optionally a layout catalog id
//   - photos: one file path per grid cell, in capture order
//
// Optional:
//   - options: dpi, margin_percent, fit, max_cell_width_in (defaults apply)
//   - overlay: stickers, texts and a frame drawn onto the finished composite
//   - output: where the composite is written (callers may override)
//
// Relative paths resolve against the manifest's own directory, so a manifest
// can travel with its photos and assets as one folder.
//
// # Import
//
// Use [ImportJSON] to read a manifest from a file path, or [ReadJSON] to read
// from any io.Reader:
//
//	m, err := io.ImportJSON("booth.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	req, err := m.Request()
//
// Both functions validate the manifest structure: the grid must be valid and
// the photo count must match the grid's cell count. Errors are wrapped with
// context about which entry caused the problem. [Manifest.Request] and
// [Manifest.OverlaySpec] then load the referenced files.
//
// # Export
//
// Use [ExportJSON] to write a manifest to a file, or [WriteJSON] to write to
// any io.Writer:
//
//	err := io.ExportJSON(m, "booth.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// The export preserves all fields, so an imported manifest exports byte-for-
// byte equivalent JSON apart from formatting.
package io
