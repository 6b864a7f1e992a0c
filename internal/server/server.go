// Package server provides the HTTP API for medfinder.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/medfinder/internal/config"
	"github.com/hyperjump/medfinder/internal/search"
	"github.com/hyperjump/medfinder/pkg/utils"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// CallerHeader carries the opaque caller identity that keys search sessions.
const CallerHeader = "X-Caller-ID"

// Server is the HTTP server for the medfinder API.
type Server struct {
	service *search.Service
	config  *config.ServerConfig
	logger  *zap.Logger
	limiter *rate.Limiter
	server  *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(service *search.Service, cfg *config.ServerConfig, logger *zap.Logger) *Server {
	s := &Server{
		service: service,
		config:  cfg,
		logger:  utils.OrNop(logger),
	}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.rateLimit)
		r.Post("/search", s.handleSearch)
		r.Post("/search/name", s.handleSearchName)
		r.Post("/search/speciality", s.handleSearchSpeciality)
		r.Post("/search/all", s.handleSearchAll)
		r.Get("/results", s.handleResults)
		r.Get("/records/{index}", s.handleRecord)
		r.Get("/records/{index}/market", s.handleMarket)
		r.Get("/status", s.handleStatus)
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			s.respondJSON(w, http.StatusTooManyRequests, errorBody{Error: "too many requests", Kind: "rate_limited"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
