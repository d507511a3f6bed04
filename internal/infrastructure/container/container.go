// Package container provides dependency injection using Uber FX
package container

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	appnutrition "github.com/alchemorsel/nutrition/internal/application/nutrition"
	"github.com/alchemorsel/nutrition/internal/infrastructure/ai"
	"github.com/alchemorsel/nutrition/internal/infrastructure/ai/ollama"
	"github.com/alchemorsel/nutrition/internal/infrastructure/ai/openai"
	"github.com/alchemorsel/nutrition/internal/infrastructure/config"
	"github.com/alchemorsel/nutrition/internal/infrastructure/http/adminserver"
	"github.com/alchemorsel/nutrition/internal/infrastructure/http/apiserver"
	"github.com/alchemorsel/nutrition/internal/infrastructure/monitoring"
	"github.com/alchemorsel/nutrition/internal/ports/inbound"
	"github.com/alchemorsel/nutrition/internal/ports/outbound"
	"github.com/alchemorsel/nutrition/pkg/healthcheck"
	"github.com/alchemorsel/nutrition/pkg/logger"
)

// ConfigPath is the explicit config file to load; empty searches the default locations
type ConfigPath string

// Module provides all dependency injection modules. The caller supplies a ConfigPath.
var Module = fx.Options(
	ConfigModule,
	LoggerModule,
	MonitoringModule,
	AIModule,
	ServiceModule,
	HealthModule,
	HTTPModule,
	LifecycleModule,
)

// ConfigModule provides configuration
var ConfigModule = fx.Provide(
	func(path ConfigPath) (*config.Config, error) {
		return config.Load(string(path))
	},
)

// LoggerModule provides logging
var LoggerModule = fx.Provide(
	func(cfg *config.Config) (*zap.Logger, error) {
		log, err := logger.New(logger.Config{
			Level:       cfg.App.LogLevel,
			Format:      cfg.App.LogFormat,
			Development: cfg.App.Debug,
		})
		if err != nil {
			return nil, err
		}
		return log.With(
			zap.String("service", cfg.App.Name),
			zap.String("version", cfg.App.Version),
		), nil
	},
)

// MonitoringModule provides metrics and tracing
var MonitoringModule = fx.Provide(
	monitoring.NewMetricsCollector,
	func(cfg *config.Config, log *zap.Logger) (*monitoring.TracingProvider, error) {
		return monitoring.NewTracingProvider(TracingConfig(cfg), log)
	},
)

// AIModule provides the instrumented AI provider
var AIModule = fx.Provide(
	func(
		cfg *config.Config,
		log *zap.Logger,
		metrics *monitoring.MetricsCollector,
		tracer *monitoring.TracingProvider,
	) (outbound.NutritionAI, error) {
		provider, err := ai.NewProvider(ProviderConfig(cfg), log)
		if err != nil {
			return nil, fmt.Errorf("failed to create AI provider: %w", err)
		}
		log.Info("AI provider configured",
			zap.String("provider", provider.Provider()),
			zap.String("model", provider.Model()),
		)
		return ai.NewInstrumentedProvider(provider, metrics, tracer), nil
	},
)

// ServiceModule provides application services
var ServiceModule = fx.Provide(
	func(cfg *config.Config) appnutrition.Config {
		return appnutrition.Config{
			RequestTimeout:        cfg.AI.RequestTimeout,
			MaxConcurrentLookups:  cfg.AI.MaxConcurrentLookups,
			EnableRecommendations: cfg.Features.EnableRecommendations,
		}
	},
	fx.Annotate(
		appnutrition.NewService,
		fx.As(new(inbound.NutritionService)),
	),
)

// HealthModule provides the health checks, backed by the AI provider
var HealthModule = fx.Provide(
	func(
		cfg *config.Config,
		log *zap.Logger,
		provider outbound.NutritionAI,
		metrics *monitoring.MetricsCollector,
	) *healthcheck.HealthCheck {
		health := healthcheck.New(cfg.App.Version, log)
		health.SetCacheTTL(cfg.Monitoring.HealthCacheTTL)

		healthMetrics := healthcheck.NewHealthMetrics(healthcheck.DefaultMetricsConfig(), metrics.Registry())
		health.Register("ai", healthcheck.WithMetrics(
			healthMetrics,
			"ai",
			ai.NewHealthChecker(provider, cfg.AI.ProviderTimeout, log),
		))
		return health
	},
)

// HTTPModule provides the public API server and the operations server
var HTTPModule = fx.Provide(
	apiserver.NewServer,
	adminserver.NewServer,
)

// LifecycleModule provides lifecycle hooks
var LifecycleModule = fx.Invoke(
	RegisterLifecycleHooks,
)

// RegisterLifecycleHooks registers application lifecycle hooks
func RegisterLifecycleHooks(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	cfg *config.Config,
	log *zap.Logger,
	metrics *monitoring.MetricsCollector,
	tracer *monitoring.TracingProvider,
	api *apiserver.Server,
	admin *adminserver.Server,
) {
	uptimeCtx, stopUptime := context.WithCancel(context.Background())

	serve := func(name string, start func() error) {
		go func() {
			if err := start(); err != nil {
				log.Error("Server stopped unexpectedly", zap.String("server", name), zap.Error(err))
				_ = shutdowner.Shutdown(fx.ExitCode(1))
			}
		}()
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting nutrition API",
				zap.String("environment", cfg.App.Environment),
				zap.String("address", cfg.Address()),
				zap.String("metrics_address", cfg.MetricsAddress()),
				zap.String("ai_provider", cfg.AI.Provider),
			)

			go metrics.StartUptimeCounter(uptimeCtx)
			serve("api", api.Start)
			serve("admin", admin.Start)

			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down nutrition API")
			stopUptime()

			if err := api.Shutdown(ctx); err != nil {
				log.Error("Failed to shutdown API server", zap.Error(err))
			}
			if err := admin.Shutdown(ctx); err != nil {
				log.Error("Failed to shutdown operations server", zap.Error(err))
			}
			if err := tracer.Shutdown(ctx); err != nil {
				log.Error("Failed to flush traces", zap.Error(err))
			}

			_ = log.Sync()

			return nil
		},
	})
}

// ProviderConfig maps the ai section onto the provider factory settings
func ProviderConfig(cfg *config.Config) ai.ProviderConfig {
	return ai.ProviderConfig{
		Provider: cfg.AI.Provider,
		Timeout:  cfg.AI.ProviderTimeout,
		OpenAI: openai.Config{
			APIKey:      cfg.AI.OpenAI.APIKey,
			BaseURL:     cfg.AI.OpenAI.BaseURL,
			Model:       cfg.AI.OpenAI.Model,
			Temperature: cfg.AI.Temperature,
			MaxTokens:   cfg.AI.MaxTokens,
			Timeout:     cfg.AI.ProviderTimeout,
		},
		Ollama: ollama.Config{
			BaseURL:     cfg.AI.Ollama.Host,
			Model:       cfg.AI.Ollama.Model,
			Temperature: cfg.AI.Temperature,
			Timeout:     cfg.AI.ProviderTimeout,
		},
	}
}

// TracingConfig maps the app and monitoring sections onto the tracer settings
func TracingConfig(cfg *config.Config) monitoring.TracingConfig {
	return monitoring.TracingConfig{
		ServiceName:       cfg.App.Name,
		ServiceVersion:    cfg.App.Version,
		Environment:       cfg.App.Environment,
		JaegerEndpoint:    cfg.Monitoring.JaegerEndpoint,
		OTLPTraceEndpoint: cfg.Monitoring.OTLPEndpoint,
		SamplingRate:      cfg.Monitoring.SamplingRate,
		Enabled:           cfg.Monitoring.EnableTracing,
	}
}
