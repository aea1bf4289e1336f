// Package web provides the HTTP API serving the kiosk frontend.
package web

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/gridbooth/gridbooth/pkg/compose"
	"github.com/gridbooth/gridbooth/pkg/errors"
	"github.com/gridbooth/gridbooth/pkg/pipeline"
	"github.com/gridbooth/gridbooth/pkg/printer"
	"github.com/gridbooth/gridbooth/pkg/session"
	"github.com/gridbooth/gridbooth/pkg/storage"
)

// Server serves the booth API over HTTP.
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	logger     *log.Logger
	baseURL    string
	runner     *pipeline.Runner
	store      storage.Store
	sessions   session.Store
	printer    printer.Client
	sessionTTL time.Duration
	defaults   compose.Options
}

// Options wires the server's collaborators. Store is required; the other
// fields fall back to working defaults (in-memory sessions, a printerless
// null client, the standard logger).
type Options struct {
	Addr       string
	BaseURL    string
	Runner     *pipeline.Runner
	Store      storage.Store
	Sessions   session.Store
	Printer    printer.Client
	SessionTTL time.Duration
	Logger     *log.Logger

	// ComposeDefaults fills request fields the kiosk frontend leaves
	// empty, typically from the config's [compose] section.
	ComposeDefaults compose.Options
}

// NewServer creates the API server with its middleware stack and routes.
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Runner == nil {
		opts.Runner = pipeline.NewRunner(nil, nil, opts.Logger)
	}
	if opts.Sessions == nil {
		opts.Sessions = session.NewMemoryStore()
	}
	if opts.Printer == nil {
		opts.Printer = printer.NewNullClient()
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = session.DefaultTTL
	}

	r := chi.NewRouter()
	s := &Server{
		router:     r,
		logger:     opts.Logger,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		runner:     opts.Runner,
		store:      opts.Store,
		sessions:   opts.Sessions,
		printer:    opts.Printer,
		sessionTTL: opts.SessionTTL,
		defaults:   opts.ComposeDefaults,
	}

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(opts.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(2 * time.Minute))

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         opts.Addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute, // uploads and cold renders take a while
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("starting web server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(errors.ErrCodeInternal, err, "start server")
	}
	return nil
}

// Shutdown gracefully stops the server, letting in-flight requests finish.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down web server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "shutdown server")
	}
	return nil
}

// Router returns the chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}
