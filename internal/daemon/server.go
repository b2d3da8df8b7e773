// Package daemon serves the adaptive difficulty API over HTTP.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/fortify/ratelimit"

	"github.com/felixgeelhaar/parley/internal/adaptive"
	"github.com/felixgeelhaar/parley/internal/config"
	"github.com/felixgeelhaar/parley/internal/conversation"
)

// Server is the parley daemon HTTP server.
type Server struct {
	cfg     *config.LocalConfig
	server  *http.Server
	router  *http.ServeMux
	handler http.Handler
	limiter ratelimit.RateLimiter
	logger  *slog.Logger

	service *adaptive.Service
	starter *conversation.Starter
	version string
	started time.Time
}

// ServerConfig holds what the server needs. Storage and queue wiring happen
// in the caller; the server only talks to the adaptive service.
type ServerConfig struct {
	Config  *config.LocalConfig
	Service *adaptive.Service
	Starter *conversation.Starter // defaults to a starter without a generator
	Version string
	Logger  *slog.Logger
}

// NewServer creates the server and its middleware chain.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Config == nil {
		return nil, errors.New("daemon: config is required")
	}
	if cfg.Service == nil {
		return nil, errors.New("daemon: adaptive service is required")
	}

	s := &Server{
		cfg:     cfg.Config,
		router:  http.NewServeMux(),
		logger:  cfg.Logger,
		service: cfg.Service,
		starter: cfg.Starter,
		version: cfg.Version,
		started: time.Now(),
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.starter == nil {
		s.starter = conversation.NewStarter(cfg.Service.Catalog(), nil)
	}
	if s.version == "" {
		s.version = "dev"
	}

	s.setupRoutes()

	mws := []middleware{
		correlationIDMiddleware,
		recoveryMiddleware(s.logger),
		loggingMiddleware(s.logger),
	}
	if rl := cfg.Config.Daemon.RateLimit; rl.Enabled && rl.Rate > 0 {
		s.limiter = ratelimit.New(&ratelimit.Config{
			Rate:     rl.Rate,
			Burst:    max(rl.Burst, rl.Rate),
			Interval: time.Second,
		})
		mws = append(mws, rateLimitMiddleware(s.limiter))
	}
	s.handler = chain(s.router, mws...)

	addr := fmt.Sprintf("%s:%d", cfg.Config.Daemon.Bind, cfg.Config.Daemon.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("GET /v1/health", s.handleHealth)
	s.router.HandleFunc("GET /v1/status", s.handleStatus)

	// Catalog
	s.router.HandleFunc("GET /v1/levels", s.handleListLevels)
	s.router.HandleFunc("GET /v1/levels/{id}", s.handleGetLevel)

	// Profiles
	s.router.HandleFunc("POST /v1/users", s.handleCreateProfile)
	s.router.HandleFunc("GET /v1/users/{id}/profile", s.handleGetProfile)
	s.router.HandleFunc("PUT /v1/users/{id}/preferences", s.handleUpdatePreferences)

	// Sessions and recommendations
	s.router.HandleFunc("POST /v1/users/{id}/sessions", s.handleRecordSession)
	s.router.HandleFunc("GET /v1/users/{id}/sessions", s.handleListSessions)
	s.router.HandleFunc("POST /v1/users/{id}/recommendations", s.handleRecommend)
	s.router.HandleFunc("GET /v1/users/{id}/recommendations", s.handleListRecommendations)
	s.router.HandleFunc("POST /v1/users/{id}/recommendations/{recID}/apply", s.handleApplyRecommendation)
	s.router.HandleFunc("GET /v1/users/{id}/progression", s.handleProgression)
	s.router.HandleFunc("GET /v1/users/{id}/overview", s.handleOverview)

	// Conversations
	s.router.HandleFunc("POST /v1/users/{id}/conversations", s.handleStartConversation)
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// Start listens until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("starting parley daemon",
		"addr", s.server.Addr,
		"version", s.version,
		"storage", s.cfg.Storage.Driver,
	)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down daemon")
	err := s.server.Shutdown(ctx)
	if s.limiter != nil {
		if cerr := s.limiter.Close(); cerr != nil {
			s.logger.Warn("close rate limiter", "error", cerr)
		}
	}
	return err
}

type errorBody struct {
	Error   string `json:"error"`
	Status  int    `json:"status"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (s *Server) jsonError(w http.ResponseWriter, status int, message string, err error) {
	body := errorBody{Error: message, Status: status}
	if err != nil {
		body.Details = err.Error()
	}
	writeJSON(w, status, body)
}
