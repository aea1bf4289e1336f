package io

import (
	"encoding/json"
	"io"
	"os"

	"github.com/gridbooth/gridbooth/pkg/errors"
)

// WriteJSON encodes a manifest as indented JSON and writes it to w.
// The output can be re-imported with [ReadJSON] for round-trip processing.
func WriteJSON(m *Manifest, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode manifest")
	}
	return nil
}

// ExportJSON writes a manifest to a JSON file at path.
// This is a convenience wrapper around [WriteJSON] for file-based output.
func ExportJSON(m *Manifest, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "create %s", path)
	}
	defer f.Close()
	return WriteJSON(m, f)
}
