package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/alchemorsel/nutrition/internal/domain/nutrition"
	"github.com/alchemorsel/nutrition/internal/infrastructure/monitoring"
	apperrors "github.com/alchemorsel/nutrition/pkg/errors"
	"github.com/alchemorsel/nutrition/pkg/healthcheck"
)

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) EstimateNutrition(ctx context.Context, foodName string) (*nutrition.RawRecord, error) {
	args := m.Called(ctx, foodName)
	raw, _ := args.Get(0).(*nutrition.RawRecord)
	return raw, args.Error(1)
}

func (m *MockProvider) RecommendDiet(ctx context.Context, totals nutrition.WholeTotals) ([]string, error) {
	args := m.Called(ctx, totals)
	recommendations, _ := args.Get(0).([]string)
	return recommendations, args.Error(1)
}

func (m *MockProvider) HealthCheck(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockProvider) Provider() string { return "mock" }

func (m *MockProvider) Model() string { return "mock-1" }

func TestNewProvider(t *testing.T) {
	logger := zaptest.NewLogger(t)

	openaiProvider, err := NewProvider(ProviderConfig{Provider: "openai", Timeout: time.Second}, logger)
	require.NoError(t, err)
	assert.Equal(t, "openai", openaiProvider.Provider())

	ollamaProvider, err := NewProvider(ProviderConfig{Provider: "ollama"}, logger)
	require.NoError(t, err)
	assert.Equal(t, "ollama", ollamaProvider.Provider())
	assert.Equal(t, "llama3.2:3b", ollamaProvider.Model())

	_, err = NewProvider(ProviderConfig{Provider: "anthropic"}, logger)
	assert.Error(t, err)
}

func TestInstrumentedProvider_PassesThrough(t *testing.T) {
	next := &MockProvider{}
	metrics := monitoring.NewMetricsCollector(zap.NewNop())
	provider := NewInstrumentedProvider(next, metrics, nil)

	raw := &nutrition.RawRecord{FoodName: "Idli"}
	next.On("EstimateNutrition", mock.Anything, "idli").Return(raw, nil).Once()
	next.On("RecommendDiet", mock.Anything, nutrition.WholeTotals{Calories: 58}).
		Return(nil, apperrors.NewUpstreamUnavailableError("mock", 502, nil)).Once()

	got, err := provider.EstimateNutrition(context.Background(), "idli")
	require.NoError(t, err)
	assert.Same(t, raw, got)

	_, err = provider.RecommendDiet(context.Background(), nutrition.WholeTotals{Calories: 58})
	assert.True(t, apperrors.Is(err, apperrors.CodeUpstreamUnavailable))

	assert.Equal(t, "mock", provider.Provider())
	assert.Equal(t, "mock-1", provider.Model())
	next.AssertExpectations(t)

	families, err := metrics.Registry().Gather()
	require.NoError(t, err)
	statuses := map[string]float64{}
	for _, family := range families {
		if family.GetName() != "ai_requests_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "status" {
					statuses[label.GetValue()] += metric.GetCounter().GetValue()
				}
			}
		}
	}
	assert.Equal(t, map[string]float64{"success": 1, "UPSTREAM_UNAVAILABLE": 1}, statuses)

	errorSeries, err := testutil.GatherAndCount(metrics.Registry(), "error_rate_total")
	require.NoError(t, err)
	assert.Equal(t, 1, errorSeries)
}

func TestHealthChecker(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		provider := &MockProvider{}
		provider.On("HealthCheck", mock.Anything).Return(nil)

		check := NewHealthChecker(provider, time.Second, zap.NewNop()).Check(context.Background())

		assert.Equal(t, healthcheck.StatusHealthy, check.Status)
		assert.Equal(t, "ai", check.Name)
		assert.Equal(t, map[string]interface{}{"provider": "mock", "model": "mock-1"}, check.Metadata)
	})

	t.Run("unreachable", func(t *testing.T) {
		provider := &MockProvider{}
		provider.On("HealthCheck", mock.Anything).Return(errors.New("connection refused"))

		check := NewHealthChecker(provider, time.Second, zap.NewNop()).Check(context.Background())

		assert.Equal(t, healthcheck.StatusUnhealthy, check.Status)
		assert.Equal(t, "connection refused", check.Message)
	})

	t.Run("slow", func(t *testing.T) {
		provider := &MockProvider{}
		provider.On("HealthCheck", mock.Anything).
			Run(func(mock.Arguments) { time.Sleep(30 * time.Millisecond) }).
			Return(nil)

		check := NewHealthChecker(provider, 40*time.Millisecond, zap.NewNop()).Check(context.Background())

		assert.Equal(t, healthcheck.StatusDegraded, check.Status)
	})
}
