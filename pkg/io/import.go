package io

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/gridbooth/gridbooth/pkg/compose"
	"github.com/gridbooth/gridbooth/pkg/errors"
)

// Manifest is a composition request as a file: the grid, layout options,
// photo paths in capture order and optional overlay decoration.
type Manifest struct {
	Grid    compose.GridSpec     `json:"grid"`
	Options compose.Options      `json:"options,omitempty"`
	Photos  []string             `json:"photos"`
	Overlay *compose.OverlaySpec `json:"overlay,omitempty"`
	Output  string               `json:"output,omitempty"`

	// dir anchors relative photo and asset paths. ImportJSON sets it to
	// the manifest's directory; manifests read from a stream resolve
	// against the working directory.
	dir string
}

// ReadJSON decodes a manifest from r and validates its structure.
//
// ReadJSON returns an error if:
//   - The JSON is malformed
//   - The grid has zero columns or rows
//   - The photo count does not match the grid's cell count
//   - A photo entry is empty, or an overlay sticker has no path
//
// File contents are not touched here; [Manifest.Request] loads the photos
// and [Manifest.OverlaySpec] loads overlay assets. ReadJSON does not
// close r.
func ReadJSON(r io.Reader) (*Manifest, error) {
	var m Manifest
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "decode manifest")
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// ImportJSON reads a manifest file at path and returns the decoded manifest.
//
// Relative photo and asset paths inside the manifest resolve against the
// manifest's own directory, so a manifest travels with its folder.
// ImportJSON returns the same validation errors as [ReadJSON].
func ImportJSON(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	defer f.Close()

	m, err := ReadJSON(f)
	if err != nil {
		return nil, err
	}
	m.dir = filepath.Dir(path)
	return m, nil
}

func (m *Manifest) validate() error {
	if err := m.Grid.Validate(); err != nil {
		return err
	}
	if got, want := len(m.Photos), m.Grid.Cells(); got != want {
		return errors.New(errors.ErrCodeInvalidManifest, "grid %dx%d needs %d photos, manifest lists %d", m.Grid.Cols, m.Grid.Rows, want, got)
	}
	for i, p := range m.Photos {
		if p == "" {
			return errors.New(errors.ErrCodeInvalidManifest, "photo %d has an empty path", i)
		}
	}
	if m.Overlay != nil {
		for i, s := range m.Overlay.Stickers {
			if s.Path == "" {
				return errors.New(errors.ErrCodeInvalidManifest, "sticker %d has no path", i)
			}
		}
		for i, tx := range m.Overlay.Texts {
			if tx.Value == "" {
				return errors.New(errors.ErrCodeInvalidManifest, "text %d has an empty value", i)
			}
		}
	}
	return nil
}

// Resolve returns p anchored at the manifest's directory. Absolute paths
// pass through unchanged.
func (m *Manifest) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || m.dir == "" {
		return p
	}
	return filepath.Join(m.dir, p)
}

// Request loads the referenced photo files and returns the composition
// request they describe. Photo order follows the manifest.
func (m *Manifest) Request() (compose.Request, error) {
	photos := make([]compose.Photo, len(m.Photos))
	for i, p := range m.Photos {
		data, err := os.ReadFile(m.Resolve(p))
		if err != nil {
			return compose.Request{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "photo %d: read %s", i, p)
		}
		photos[i] = compose.Photo{Data: data}
	}
	return compose.Request{
		Photos:  photos,
		Grid:    m.Grid,
		Options: m.Options,
	}, nil
}

// OverlaySpec loads the overlay's sticker and frame assets and returns the
// completed spec. A manifest without an overlay returns an empty spec.
func (m *Manifest) OverlaySpec() (compose.OverlaySpec, error) {
	if m.Overlay == nil {
		return compose.OverlaySpec{}, nil
	}

	spec := *m.Overlay
	spec.Stickers = make([]compose.Sticker, len(m.Overlay.Stickers))
	for i, s := range m.Overlay.Stickers {
		data, err := os.ReadFile(m.Resolve(s.Path))
		if err != nil {
			return compose.OverlaySpec{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "sticker %d: read %s", i, s.Path)
		}
		s.Data = data
		spec.Stickers[i] = s
	}
	if m.Overlay.Frame != nil {
		frame := *m.Overlay.Frame
		if frame.Path != "" {
			data, err := os.ReadFile(m.Resolve(frame.Path))
			if err != nil {
				return compose.OverlaySpec{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "frame: read %s", frame.Path)
			}
			frame.Data = data
		}
		spec.Frame = &frame
	}
	return spec, nil
}
