// Package adminserver provides the operations HTTP server: metrics and health probes
package adminserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/alchemorsel/nutrition/internal/infrastructure/config"
	"github.com/alchemorsel/nutrition/internal/infrastructure/monitoring"
	"github.com/alchemorsel/nutrition/pkg/healthcheck"
)

// Server exposes /metrics and the health endpoints on their own port
type Server struct {
	logger *zap.Logger
	engine *gin.Engine
	server *http.Server
}

// NewServer creates the operations server
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	health *healthcheck.HealthCheck,
	metrics *monitoring.MetricsCollector,
) *Server {
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	// Scrapes are not counted in the HTTP metrics.
	if cfg.Monitoring.EnableMetrics {
		engine.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	probes := engine.Group("/health")
	probes.Use(metrics.GinMiddleware())
	probes.GET("", health.Handler())
	probes.GET("/live", health.LivenessHandler())
	probes.GET("/ready", health.ReadinessHandler())

	s := &Server{
		logger: logger.Named("admin-server"),
		engine: engine,
	}
	s.server = &http.Server{
		Addr:              cfg.MetricsAddress(),
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	return s
}

// Handler returns the gin engine
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start starts the operations server and blocks until it stops
func (s *Server) Start() error {
	s.logger.Info("Starting operations server", zap.String("address", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the operations server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down operations server")
	return s.server.Shutdown(ctx)
}
