// Package server provides the HTTP server and routing for the hedge fund API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/hedgefund/internal/di"
	"github.com/aristath/hedgefund/internal/httpx"
	agenthandlers "github.com/aristath/hedgefund/internal/modules/agents/handlers"
	analysishandlers "github.com/aristath/hedgefund/internal/modules/analysis/handlers"
	backtesthandlers "github.com/aristath/hedgefund/internal/modules/backtest/handlers"
	portfoliohandlers "github.com/aristath/hedgefund/internal/modules/portfolio/handlers"
	"github.com/aristath/hedgefund/pkg/embedded"
)

// Service identity reported by / and /health
const (
	ServiceName        = "AI Hedge Fund API"
	ServiceVersion     = "0.1.0"
	ServiceDescription = "API for the AI Hedge Fund application"
)

// Config holds server configuration
type Config struct {
	Log             zerolog.Logger
	Port            int
	DevMode         bool
	CORSOrigins     []string
	RequestTimeout  time.Duration
	AgentServiceURL string
	Container       *di.Container
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            Config
	container      *di.Container
	systemHandlers *SystemHandlers
	docs           *apiDocs
}

// New creates a new HTTP server
func New(cfg Config) (*Server, error) {
	if cfg.Container == nil {
		return nil, fmt.Errorf("server requires a dependency container")
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 120 * time.Second
	}

	docs, err := newAPIDocs(embedded.OpenAPI)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI document: %w", err)
	}

	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		cfg:       cfg,
		container: cfg.Container,
		docs:      docs,
	}

	s.systemHandlers = NewSystemHandlers(cfg.Container.AgentRegistry, cfg.AgentServiceURL != "", cfg.Log)

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	// Analysis batches can legitimately run up to RequestTimeout
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	if s.container.Metrics != nil {
		s.router.Use(s.container.Metrics.Middleware)
	}

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Link", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteError(w, r, http.StatusNotFound, httpx.CodeNotFound,
			fmt.Sprintf("No route for %s %s", r.Method, r.URL.Path), nil, s.log)
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteError(w, r, http.StatusMethodNotAllowed, httpx.CodeMethodNotAllow,
			fmt.Sprintf("Method %s not allowed on %s", r.Method, r.URL.Path), nil, s.log)
	})
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleRoot)
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/docs", s.docs.handleSwaggerUI)
	s.router.Get("/openapi.json", s.docs.handleJSON)
	s.router.Get("/openapi.yaml", s.docs.handleYAML)
	if s.container.Metrics != nil {
		s.router.Handle("/metrics", s.container.Metrics.Handler())
	}

	s.router.Route("/api/v1", func(r chi.Router) {
		// Long-lived stream, outside the request deadline
		r.Get("/events/stream", NewEventsStreamHandler(s.container.EventBus, s.log).ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(s.cfg.RequestTimeout))

			r.Get("/system/status", s.systemHandlers.HandleSystemStatus)

			agenthandlers.NewHandler(s.container.AgentRegistry, s.container.AnalysisService, s.log).RegisterRoutes(r)
			analysishandlers.NewHandler(s.container.AnalysisService, s.container.AnalysisLimiter, s.log).RegisterRoutes(r)
			portfoliohandlers.NewHandler(s.log).RegisterRoutes(r)
			backtesthandlers.NewHandler(s.container.AgentRegistry, s.log).RegisterRoutes(r)
		})
	})
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
