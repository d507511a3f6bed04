// Package apiserver provides the public JSON API HTTP server
package apiserver

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/alchemorsel/nutrition/internal/infrastructure/config"
	"github.com/alchemorsel/nutrition/internal/infrastructure/http/handlers"
	"github.com/alchemorsel/nutrition/internal/infrastructure/http/middleware"
	"github.com/alchemorsel/nutrition/internal/infrastructure/monitoring"
	"github.com/alchemorsel/nutrition/internal/ports/inbound"
	"github.com/alchemorsel/nutrition/pkg/healthcheck"
)

// compressionLevel is shared by the gzip, deflate and brotli encoders
const compressionLevel = 5

// Server represents the public nutrition API server
type Server struct {
	config  *config.Config
	logger  *zap.Logger
	server  *http.Server
	router  *chi.Mux
	service inbound.NutritionService
	health  *healthcheck.HealthCheck
	metrics *monitoring.MetricsCollector
}

// NewServer creates a new API server instance
func NewServer(
	cfg *config.Config,
	log *zap.Logger,
	service inbound.NutritionService,
	health *healthcheck.HealthCheck,
	metrics *monitoring.MetricsCollector,
) *Server {
	s := &Server{
		config:  cfg,
		logger:  log.Named("api-server"),
		service: service,
		health:  health,
		metrics: metrics,
	}

	s.router = s.setupRoutes()
	s.server = &http.Server{
		Addr:           cfg.Address(),
		Handler:        otelhttp.NewHandler(s.router, cfg.App.Name),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	return s
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID())
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(middleware.Recoverer(s.logger))
	r.Use(s.metrics.HTTPMiddleware)
	r.Use(middleware.Security())
	r.Use(middleware.CORS(s.config.Server.AllowedOrigins))
	r.Use(middleware.JSONOnly())

	// Backstop above ai.request_timeout, which the service enforces itself.
	r.Use(chimiddleware.Timeout(s.config.AI.RequestTimeout + 10*time.Second))
	if s.config.Server.EnableCompression {
		r.Use(newCompressor().Handler)
	}

	h := handlers.NewNutritionAPIHandlers(s.service, s.logger)
	docs := NewOpenAPIHandler(s.logger)

	r.Get("/api/nutrition", h.Analyze)
	r.Get("/nutrition", h.Analyze)
	r.Get("/api/openapi.yaml", docs.ServeOpenAPISpec)
	r.Method(http.MethodGet, "/health", s.health)

	return r
}

// newCompressor negotiates br in addition to chi's gzip and deflate
func newCompressor() *chimiddleware.Compressor {
	compressor := chimiddleware.NewCompressor(compressionLevel, "application/json", "application/x-yaml")
	compressor.SetEncoder("br", func(w io.Writer, level int) io.Writer {
		return brotli.NewWriterLevel(w, level)
	})
	return compressor
}

// Handler returns the fully wrapped HTTP handler
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the API server and blocks until it stops
func (s *Server) Start() error {
	s.logger.Info("Starting nutrition API server",
		zap.String("address", s.server.Addr),
		zap.String("environment", s.config.App.Environment),
	)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the API server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down nutrition API server")
	return s.server.Shutdown(ctx)
}
