// Package api provides the HTTP REST API for docsage.
//
// Endpoints:
//
//	GET  /health              → liveness probe
//	POST /api/query           → answer one question
//	POST /api/ingest          → (re)ingest the documents folder
//	GET  /api/blocklist       → current blocked terms
//	PUT  /api/blocklist       → replace blocked terms
//	GET  /api/models          → current model selection
//	PUT  /api/models          → update model selection
//	GET  /api/logs/queries    → query audit trail
//	GET  /api/logs/admin      → admin audit trail
//	GET  /api/metrics         → ingestion metrics series
//
// Admin mutations (PUT endpoints and ingestion) append entries to the admin
// audit trail with the caller-supplied username.
//
// File structure:
//   - server.go: HTTP server setup and lifecycle
//   - middleware.go: HTTP middleware (logging, recovery)
//   - health.go: liveness endpoint
//   - query.go: query and ingestion endpoints
//   - admin.go: blocklist, models, logs, metrics endpoints
//   - response.go: JSON response helpers
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/docsage/docsage/internal/log"
)

const (
	// DefaultAddr is the default address for the HTTP server.
	DefaultAddr = "127.0.0.1:8321"

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout bounds header reads to stop slow-client attacks.
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout = 30 * time.Second

	// WriteTimeout is the maximum duration for writing the response. Answer
	// generation on a local model can be slow, so this is generous.
	WriteTimeout = 5 * time.Minute

	// IdleTimeout applies to keep-alive connections between requests.
	IdleTimeout = 120 * time.Second
)

// Config carries the server's dependencies.
type Config struct {
	Logger       log.Logger
	Service      QueryService  // Required
	Ingestor     IngestService // Required
	Blocklist    BlocklistStore
	Models       ModelStore
	Activity     ActivityStore
	DocumentsDir string // folder ingested by POST /api/ingest
}

// Server is the HTTP server for the docsage REST API.
type Server struct {
	mux    *http.ServeMux
	logger log.Logger
}

// NewServer creates a new HTTP server with all routes registered.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Service == nil {
		return nil, errors.New("query service is required")
	}
	if cfg.Ingestor == nil {
		return nil, errors.New("ingestor is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", health)

	qh := &queryHandler{
		service:      cfg.Service,
		ingestor:     cfg.Ingestor,
		activity:     cfg.Activity,
		documentsDir: cfg.DocumentsDir,
		logger:       logger,
	}
	qh.RegisterRoutes(mux)

	ah := &adminHandler{
		blocklist: cfg.Blocklist,
		models:    cfg.Models,
		activity:  cfg.Activity,
		logger:    logger,
	}
	ah.RegisterRoutes(mux)

	return &Server{mux: mux, logger: logger}, nil
}

// Handler returns the HTTP handler with middleware applied.
// Middleware order: recovery → logging → handler
func (s *Server) Handler() http.Handler {
	return chain(s.mux,
		recoveryMiddleware(s.logger),
		loggingMiddleware(s.logger),
	)
}

// Run starts the HTTP server and blocks until the context is cancelled.
// It handles graceful shutdown when the context is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
