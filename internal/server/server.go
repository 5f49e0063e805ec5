// Package server provides the HTTP server and routing for the flip tracker.
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

	"github.com/aristath/flipper/internal/config"
	"github.com/aristath/flipper/internal/di"
	displayhandlers "github.com/aristath/flipper/internal/modules/display/handlers"
	"github.com/aristath/flipper/internal/scheduler"
)

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	Config    *config.Config
	Port      int
	Container *di.Container    // DI container with all services
	Jobs      *di.JobInstances // Optional; enables manual job runs
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	port           int
	container      *di.Container
	systemHandlers *SystemHandlers
	displayHandler *displayhandlers.Handler
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	c := cfg.Container

	var jobs []scheduler.Job
	if cfg.Jobs != nil {
		jobs = append(jobs, cfg.Jobs.CatalogRefresh, cfg.Jobs.ClientDataCleanup)
	}

	autoAccept := true
	if cfg.Config != nil {
		autoAccept = cfg.Config.AutoAcceptCorrections
	}

	systemHandlers := NewSystemHandlers(
		cfg.Log,
		c.Controller,
		c.MarketService,
		c.ClientDataDB,
		c.Watchlist,
		c.Scheduler,
		jobs...,
	)

	s := &Server{
		router:         chi.NewRouter(),
		log:            cfg.Log.With().Str("component", "server").Logger(),
		cfg:            cfg.Config,
		port:           cfg.Port,
		container:      c,
		systemHandlers: systemHandlers,
		displayHandler: displayhandlers.NewHandler(c.Loop, c.MarketService, c.Watchlist, autoAccept, cfg.Log),
	}

	s.setupMiddleware()
	s.setupRoutes()

	// No WriteTimeout: /api/stream holds its connection open.
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

func (s *Server) setupMiddleware() {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// Long-lived WebSocket, outside the request timeout
		s.displayHandler.RegisterStreamRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			r.Route("/system", func(r chi.Router) {
				r.Get("/status", s.systemHandlers.HandleSystemStatus)
				r.Post("/jobs/{name}", s.systemHandlers.HandleRunJob)
			})

			s.displayHandler.RegisterRoutes(r)
		})
	})
}

// Router exposes the configured router.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.port).Msg("Starting HTTP server")
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
