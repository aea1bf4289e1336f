package web

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gridbooth/gridbooth/pkg/errors"
	"github.com/gridbooth/gridbooth/pkg/printer"
	"github.com/gridbooth/gridbooth/pkg/session"
)

type printRequest struct {
	SessionID string `json:"session_id"`
	Copies    int    `json:"copies"`
}

type printResponse struct {
	JobID     string `json:"job_id"`
	SessionID string `json:"session_id"`
}

// handlePrint loads a session's composite from storage and submits it to
// the print service. The job id is recorded on the session for the kiosk
// status screen.
func (s *Server) handlePrint(w http.ResponseWriter, r *http.Request) {
	var req printRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(errors.ErrCodeInvalidRequest, err, "decode print request"))
		return
	}
	if req.SessionID == "" {
		respondError(w, errors.New(errors.ErrCodeInvalidRequest, "session_id is required"))
		return
	}

	sess, err := s.sessions.Get(r.Context(), req.SessionID)
	if err != nil {
		respondError(w, err)
		return
	}
	if sess == nil {
		respondError(w, errors.New(errors.ErrCodeSessionNotFound, "session %s not found", req.SessionID))
		return
	}
	if sess.CompositeName == "" {
		respondError(w, errors.New(errors.ErrCodeInvalidRequest, "session %s has no composite to print", sess.ID))
		return
	}

	rc, _, err := s.store.Open(r.Context(), sess.CompositeName)
	if err != nil {
		respondError(w, err)
		return
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		respondError(w, errors.Wrap(errors.ErrCodeStorage, err, "read composite %s", sess.CompositeName))
		return
	}

	jobID, err := s.printer.Submit(r.Context(), printer.Job{
		Data:      data,
		PageLabel: sess.PageLabel,
		Copies:    req.Copies,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	sess.PrintJobID = jobID
	if err := sess.Advance(session.StatePrinted); err != nil {
		respondError(w, err)
		return
	}
	if err := s.sessions.Set(r.Context(), sess); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusAccepted, printResponse{
		JobID:     jobID,
		SessionID: sess.ID,
	})
}

// handleSession returns the session record for the kiosk wizard.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, err := s.sessions.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	if sess == nil {
		respondError(w, errors.New(errors.ErrCodeSessionNotFound, "session %s not found", id))
		return
	}
	respondJSON(w, http.StatusOK, sess)
}
