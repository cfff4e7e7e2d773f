// Package api serves the record store over a read-only REST surface.
// All /api/v1 routes require the configured X-API-Key header; the
// /metrics endpoint stays open for Prometheus scraping.
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ssargent/brokkr/pkg/index"
	"github.com/ssargent/brokkr/pkg/query"
	"github.com/ssargent/brokkr/pkg/store"
)

// NewServer creates a server over an open store. A nil metrics
// disables instrumentation, which keeps handler tests from fighting
// over the global Prometheus registry.
func NewServer(st *store.PebbleStore, config ServerConfig, metrics *Metrics, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		store:   st,
		engine:  query.NewEngine(index.NewManager(st), st),
		metrics: metrics,
		logger:  logger,
		config:  config,
	}
}

// Router builds the chi router with all routes configured.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	r.Handle("/metrics", promhttp.Handler())

	// API key authentication middleware for protected routes
	r.Route("/api/v1", func(r chi.Router) {
		auth := apiKeyMiddleware(s.config.APIKey)
		if s.metrics != nil {
			r.Use(s.metrics.InstrumentAuthMiddleware(auth))
		} else {
			r.Use(auth)
		}

		r.Get("/health", s.instrument("GET", "/api/v1/health", s.handleHealth))

		// Table browsing
		r.Get("/tables", s.instrument("GET", "/api/v1/tables", s.handleListTables))
		r.Get("/tables/{table}", s.instrument("GET", "/api/v1/tables/{table}", s.handleGetTable))
		r.Get("/tables/{table}/rows", s.instrument("GET", "/api/v1/tables/{table}/rows", s.handleGetRows))

		// Diagnostics
		r.Get("/stats", s.instrument("GET", "/api/v1/stats", s.handleStats))
	})

	return r
}

// instrument wraps a handler with metrics when they are enabled.
func (s *Server) instrument(method, endpoint string, h http.HandlerFunc) http.HandlerFunc {
	if s.metrics == nil {
		return h
	}
	return s.metrics.InstrumentHandler(method, endpoint, h)
}

// startMetricsUpdater refreshes the store gauges periodically.
func (s *Server) startMetricsUpdater() {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		stats, err := s.store.TotalStats()
		if err != nil {
			s.logger.Warn("failed to refresh store metrics", zap.Error(err))
			continue
		}
		s.metrics.UpdateStoreStats(stats.Tables, stats.Rows, stats.LastImport)
	}
}

// StartServer starts the HTTP server with all routes configured. It
// blocks until the listener fails.
func StartServer(st *store.PebbleStore, config ServerConfig, logger *zap.Logger) error {
	metrics := NewMetrics()
	server := NewServer(st, config, metrics, logger)

	// Background store gauge refresh
	go server.startMetricsUpdater()

	addr := fmt.Sprintf("%s:%d", config.Bind, config.Port)
	server.logger.Info("starting REST API server",
		zap.String("addr", addr),
		zap.String("metrics", fmt.Sprintf("http://%s/metrics", addr)))
	return http.ListenAndServe(addr, server.Router())
}
