// Package ai wires the text-generation providers used for nutrition lookups
package ai

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/alchemorsel/nutrition/internal/domain/nutrition"
	"github.com/alchemorsel/nutrition/internal/infrastructure/ai/llm"
	"github.com/alchemorsel/nutrition/internal/infrastructure/ai/ollama"
	"github.com/alchemorsel/nutrition/internal/infrastructure/ai/openai"
	"github.com/alchemorsel/nutrition/internal/infrastructure/monitoring"
	"github.com/alchemorsel/nutrition/internal/ports/outbound"
	apperrors "github.com/alchemorsel/nutrition/pkg/errors"
)

// ProviderConfig selects and configures one provider
type ProviderConfig struct {
	Provider string
	Timeout  time.Duration
	OpenAI   openai.Config
	Ollama   ollama.Config
}

// NewProvider builds the configured provider. There is no fallback: an unknown
// provider name is a configuration error.
func NewProvider(config ProviderConfig, logger *zap.Logger) (outbound.NutritionAI, error) {
	httpClient := llm.NewHTTPClient(config.Timeout)

	switch config.Provider {
	case "openai":
		return openai.NewClient(config.OpenAI, httpClient, logger), nil
	case "ollama", "":
		return ollama.NewClient(config.Ollama, httpClient, logger), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", config.Provider)
	}
}

// InstrumentedProvider records metrics and spans around every provider call
type InstrumentedProvider struct {
	next    outbound.NutritionAI
	metrics *monitoring.MetricsCollector
	tracer  *monitoring.TracingProvider
}

var _ outbound.NutritionAI = (*InstrumentedProvider)(nil)

// NewInstrumentedProvider wraps next with metrics and tracing
func NewInstrumentedProvider(next outbound.NutritionAI, metrics *monitoring.MetricsCollector, tracer *monitoring.TracingProvider) *InstrumentedProvider {
	if tracer == nil {
		tracer = monitoring.NewNoopTracingProvider()
	}
	return &InstrumentedProvider{next: next, metrics: metrics, tracer: tracer}
}

func (p *InstrumentedProvider) Provider() string { return p.next.Provider() }

func (p *InstrumentedProvider) Model() string { return p.next.Model() }

func (p *InstrumentedProvider) EstimateNutrition(ctx context.Context, foodName string) (*nutrition.RawRecord, error) {
	var raw *nutrition.RawRecord
	err := p.observe(ctx, "estimate_nutrition", func(ctx context.Context) error {
		var err error
		raw, err = p.next.EstimateNutrition(ctx, foodName)
		return err
	})
	return raw, err
}

func (p *InstrumentedProvider) RecommendDiet(ctx context.Context, totals nutrition.WholeTotals) ([]string, error) {
	var recommendations []string
	err := p.observe(ctx, "recommend_diet", func(ctx context.Context) error {
		var err error
		recommendations, err = p.next.RecommendDiet(ctx, totals)
		return err
	})
	return recommendations, err
}

func (p *InstrumentedProvider) HealthCheck(ctx context.Context) error {
	return p.observe(ctx, "health_check", p.next.HealthCheck)
}

func (p *InstrumentedProvider) observe(ctx context.Context, operation string, call func(context.Context) error) error {
	ctx, span := p.tracer.StartAISpan(ctx, p.next.Provider(), p.next.Model(), operation)
	defer span.End()

	start := time.Now()
	err := call(ctx)

	status := "success"
	if err != nil {
		status = string(apperrors.GetCode(err))
		p.tracer.RecordError(ctx, err)
	}
	if p.metrics != nil {
		p.metrics.AIRequest(p.next.Provider(), p.next.Model(), operation, status, time.Since(start))
		if err != nil {
			p.metrics.RecordError("ai", status)
		}
	}
	return err
}
