package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gridbooth/gridbooth/pkg/buildinfo"
	"github.com/gridbooth/gridbooth/pkg/compose"
)

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/layouts", s.handleLayouts)
		r.Post("/compose", s.handleCompose)
		r.Get("/composites/{name}", s.handleDownload)
		r.Post("/print", s.handlePrint)
		r.Get("/sessions/{id}", s.handleSession)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

// handleLayouts returns the page-size catalog, built-in entries first.
func (s *Server) handleLayouts(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string][]compose.Layout{
		"layouts": compose.Layouts(),
	})
}
