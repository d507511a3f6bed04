// Package nutrition provides the application layer for nutrition lookups
package nutrition

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/alchemorsel/nutrition/internal/domain/nutrition"
	"github.com/alchemorsel/nutrition/internal/infrastructure/monitoring"
	"github.com/alchemorsel/nutrition/internal/ports/inbound"
	"github.com/alchemorsel/nutrition/internal/ports/outbound"
	apperrors "github.com/alchemorsel/nutrition/pkg/errors"
)

// Config tunes how an analysis talks to the AI provider
type Config struct {
	// RequestTimeout bounds a whole analysis, recommendations included. Zero disables it.
	RequestTimeout time.Duration
	// MaxConcurrentLookups caps in-flight item lookups; 1 keeps them strictly sequential.
	MaxConcurrentLookups  int
	EnableRecommendations bool
}

// DefaultConfig returns the settings used when nothing is configured
func DefaultConfig() Config {
	return Config{
		RequestTimeout:        60 * time.Second,
		MaxConcurrentLookups:  1,
		EnableRecommendations: true,
	}
}

// Service implements the nutrition lookup use case
type Service struct {
	ai      outbound.NutritionAI
	config  Config
	metrics *monitoring.MetricsCollector
	tracer  *monitoring.TracingProvider
	logger  *zap.Logger
}

var _ inbound.NutritionService = (*Service)(nil)

// NewService creates a new nutrition service
func NewService(
	ai outbound.NutritionAI,
	config Config,
	metrics *monitoring.MetricsCollector,
	tracer *monitoring.TracingProvider,
	logger *zap.Logger,
) *Service {
	if config.MaxConcurrentLookups < 1 {
		config.MaxConcurrentLookups = 1
	}
	if tracer == nil {
		tracer = monitoring.NewNoopTracingProvider()
	}
	namedLogger := logger.Named("nutrition-service")
	if metrics == nil {
		metrics = monitoring.NewMetricsCollector(namedLogger)
	}

	return &Service{
		ai:      ai,
		config:  config,
		metrics: metrics,
		tracer:  tracer,
		logger:  namedLogger,
	}
}

// Analyze splits query into food mentions, looks every item up, scales it by its
// quantity and aggregates the result in query order. A blank query is rejected
// before the provider is consulted.
func (s *Service) Analyze(ctx context.Context, query string) (*nutrition.Analysis, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperrors.NewMissingParameterError("q").WithCause(nutrition.ErrEmptyQuery)
	}

	start := time.Now()
	ctx, span := s.tracer.StartSpan(ctx, "nutrition.analyze",
		trace.WithAttributes(
			attribute.String("nutrition.query", query),
			attribute.String("ai.provider", s.ai.Provider()),
		),
	)
	defer span.End()

	if s.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.RequestTimeout)
		defer cancel()
	}

	analysis, err := s.analyze(ctx, query)
	if err != nil {
		appErr := s.classify(ctx, err)
		s.tracer.RecordError(ctx, appErr)
		s.metrics.AnalysisCompleted(string(appErr.Code), time.Since(start))
		s.logger.Warn("Nutrition analysis failed",
			zap.String("query", query),
			zap.String("code", string(appErr.Code)),
			zap.Error(err),
		)
		return nil, appErr
	}

	s.metrics.AnalysisCompleted("OK", time.Since(start))
	s.logger.Info("Nutrition analysis complete",
		zap.String("query", query),
		zap.Int("items", len(analysis.Items)),
		zap.Int("total_calories_kcal", analysis.TotalCaloriesKcal),
		zap.Duration("duration", time.Since(start)),
	)

	return analysis, nil
}

func (s *Service) analyze(ctx context.Context, query string) (*nutrition.Analysis, error) {
	mentions := nutrition.ParseFoodMentions(query)
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int("nutrition.items", len(mentions)))
	if len(mentions) == 0 {
		s.logger.Debug("Nothing to look up", zap.String("query", query), zap.Error(nutrition.ErrNoFoodMentions))
		return nutrition.NewAnalysis(nil), nil
	}

	items := make([]nutrition.Record, len(mentions))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.MaxConcurrentLookups)
	for i, mention := range mentions {
		i, mention := i, mention
		g.Go(func() error {
			record, err := s.lookup(gctx, mention)
			if err != nil {
				return err
			}
			items[i] = record
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	s.metrics.ItemsAnalyzed(len(items))

	analysis := nutrition.NewAnalysis(items)
	if !s.config.EnableRecommendations {
		return analysis, nil
	}

	recommendations, err := s.ai.RecommendDiet(ctx, analysis.Totals.Whole())
	if err != nil {
		return nil, err
	}
	if recommendations != nil {
		analysis.Recommendations = recommendations
	}

	return analysis, nil
}

func (s *Service) lookup(ctx context.Context, mention nutrition.FoodMention) (nutrition.Record, error) {
	// An earlier item already failed; the whole request is going to be discarded.
	if err := ctx.Err(); err != nil {
		return nutrition.Record{}, err
	}

	ctx, span := s.tracer.StartSpan(ctx, "nutrition.lookup",
		trace.WithAttributes(
			attribute.String("nutrition.food", mention.Name),
			attribute.Int("nutrition.quantity", mention.Quantity),
		),
	)
	defer span.End()

	raw, err := s.ai.EstimateNutrition(ctx, mention.Name)
	if err != nil {
		s.metrics.Lookup("error")
		s.tracer.RecordError(ctx, err)
		return nutrition.Record{}, err
	}

	if reason, ok := raw.InvalidFoodReason(); ok {
		s.metrics.Lookup("invalid_food")
		err := apperrors.NewInvalidFoodError(mention.Name, reason)
		s.tracer.RecordError(ctx, err)
		return nutrition.Record{}, err
	}

	s.metrics.Lookup("ok")
	return nutrition.Normalize(raw, mention.Name).Scale(mention.Quantity), nil
}

func (s *Service) classify(ctx context.Context, err error) *apperrors.AppError {
	if appErr, ok := apperrors.As(err); ok {
		return appErr
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperrors.NewUpstreamTimeoutError(s.ai.Provider(), err)
	}
	return apperrors.Wrap(err, "Nutrition analysis failed")
}
