package web

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gridbooth/gridbooth/pkg/errors"
	"github.com/gridbooth/gridbooth/pkg/pipeline"
	"github.com/gridbooth/gridbooth/pkg/session"
)

// maxUploadBytes bounds one compose request. A full 3x3 grid of phone
// camera JPEGs stays well under this.
const maxUploadBytes = 64 << 20

type composeResponse struct {
	SessionID string `json:"session_id"`
	File      string `json:"file"`
	URL       string `json:"url"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	PageLabel string `json:"page_label"`
	CacheHit  bool   `json:"cache_hit"`
}

// handleCompose runs the pipeline on uploaded photos. With save=true the
// composite is persisted and bound to a session; otherwise the JPEG is
// streamed straight back.
func (s *Server) handleCompose(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, errors.Wrap(errors.ErrCodeInvalidRequest, err, "parse multipart form"))
		return
	}

	opts, err := composeOptionsFromForm(r)
	if err != nil {
		respondError(w, err)
		return
	}
	s.applyComposeDefaults(&opts)

	files := r.MultipartForm.File["photos"]
	if len(files) == 0 {
		respondError(w, errors.New(errors.ErrCodeInvalidRequest, "no photos uploaded"))
		return
	}
	photos, err := readUploads(files)
	if err != nil {
		respondError(w, err)
		return
	}
	opts.Photos = photos

	// Validate before any pixel work so shape mismatches fail fast.
	if err := opts.ValidateAndSetDefaults(); err != nil {
		respondError(w, err)
		return
	}

	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		respondError(w, err)
		return
	}

	if !formBool(r, "save") {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Header().Set("Content-Length", strconv.Itoa(len(result.Composite.Data)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(result.Composite.Data)
		return
	}

	obj, err := s.store.Save(r.Context(), result.Composite.Data, ".jpg")
	if err != nil {
		respondError(w, err)
		return
	}

	sess, err := s.resolveSession(r, &opts)
	if err != nil {
		respondError(w, err)
		return
	}
	sess.CompositeName = obj.Name
	sess.PageLabel = result.Composite.Page.Label
	if err := sess.Advance(session.StateComposed); err != nil {
		respondError(w, err)
		return
	}
	if err := s.sessions.Set(r.Context(), sess); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, composeResponse{
		SessionID: sess.ID,
		File:      obj.Name,
		URL:       s.baseURL + "/api/v1/composites/" + obj.Name,
		Width:     result.Composite.Width,
		Height:    result.Composite.Height,
		PageLabel: result.Composite.Page.Label,
		CacheHit:  result.CacheInfo.ArtifactHit,
	})
}

// handleDownload streams a stored composite. ServeContent picks the
// content type from the object name and handles range requests.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	rc, obj, err := s.store.Open(r.Context(), name)
	if err != nil {
		respondError(w, err)
		return
	}
	defer rc.Close()

	http.ServeContent(w, r, obj.Name, obj.CreatedAt, rc)
}

// resolveSession returns the session named in the form, or a fresh one
// when the request carries no session id.
func (s *Server) resolveSession(r *http.Request, opts *pipeline.Options) (*session.Session, error) {
	if id := r.FormValue("session_id"); id != "" {
		sess, err := s.sessions.Get(r.Context(), id)
		if err != nil {
			return nil, err
		}
		if sess == nil {
			return nil, errors.New(errors.ErrCodeSessionNotFound, "session %s not found", id)
		}
		return sess, nil
	}

	copts, err := opts.ComposeOptions()
	if err != nil {
		return nil, err
	}
	return session.New(opts.Grid(), copts, s.sessionTTL)
}

// applyComposeDefaults fills fields the form left empty with the
// kiosk-wide defaults from the config.
func (s *Server) applyComposeDefaults(opts *pipeline.Options) {
	if opts.DPI == 0 {
		opts.DPI = s.defaults.DPI
	}
	if opts.MarginPercent == 0 {
		opts.MarginPercent = s.defaults.MarginPercent
	}
	if opts.Fit == "" {
		opts.Fit = string(s.defaults.Fit)
	}
}

func composeOptionsFromForm(r *http.Request) (pipeline.Options, error) {
	opts := pipeline.Options{
		GridID: r.FormValue("grid_id"),
		Fit:    r.FormValue("fit"),
	}

	var err error
	if opts.Cols, err = formUint32(r, "cols"); err != nil {
		return opts, err
	}
	if opts.Rows, err = formUint32(r, "rows"); err != nil {
		return opts, err
	}
	if opts.DPI, err = formUint32(r, "dpi"); err != nil {
		return opts, err
	}
	if opts.MarginPercent, err = formFloat(r, "margin_percent"); err != nil {
		return opts, err
	}
	if opts.MaxCellWidthIn, err = formFloat(r, "max_cell_width_in"); err != nil {
		return opts, err
	}
	return opts, nil
}

// readUploads reads each uploaded photo into memory, in form order. The
// order is the grid fill order, so it must be preserved.
func readUploads(files []*multipart.FileHeader) ([][]byte, error) {
	photos := make([][]byte, 0, len(files))
	for i, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidRequest, err, "open upload %d", i)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidRequest, err, "read upload %q", fh.Filename)
		}
		photos = append(photos, data)
	}
	return photos, nil
}
