// Package server exposes prompt version tracking over HTTP: the versioning
// actions under /api/prompt/versions/ plus live prompt record CRUD.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/promptvc/promptvc/config"
	"github.com/promptvc/promptvc/prompt"
)

// Server handles HTTP requests for prompt version tracking.
type Server struct {
	db      *sql.DB
	store   *prompt.Store
	differ  *prompt.Differ
	cfg     *config.Config
	logger  *zap.SugaredLogger
	limiter *rate.Limiter
	mux     *http.ServeMux

	httpServer *http.Server
}

// New creates a server wired to the given database and configuration.
func New(db *sql.DB, cfg *config.Config, logger *zap.SugaredLogger) *Server {
	store := prompt.NewStore(db, logger)
	s := &Server{
		db:     db,
		store:  store,
		differ: prompt.NewDiffer(store, cfg.Diff.MaxFieldBytes, logger),
		cfg:    cfg,
		logger: logger,
		mux:    http.NewServeMux(),
	}
	if cfg.Server.RateLimitPerSecond > 0 {
		burst := cfg.Server.RateLimitBurst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.Server.RateLimitPerSecond), burst)
	}
	s.setupHTTPRoutes()
	return s
}

// Handler returns the server's HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start begins serving and blocks until the listener fails or Shutdown runs.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.ServerPort())
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Infow("Server listening",
		"addr", addr,
		"auth_enabled", s.cfg.Auth.Enabled,
	)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Infow("Server shutting down")
	return s.httpServer.Shutdown(ctx)
}

// requestTimeout returns the per-request deadline from config.
func (s *Server) requestTimeout() time.Duration {
	secs := s.cfg.Server.RequestTimeoutSeconds
	if secs <= 0 {
		secs = config.DefaultRequestTimeoutSeconds
	}
	return time.Duration(secs) * time.Second
}
