package ai

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/alchemorsel/nutrition/internal/ports/outbound"
	"github.com/alchemorsel/nutrition/pkg/healthcheck"
)

// HealthChecker reports whether the configured provider is reachable
type HealthChecker struct {
	provider outbound.NutritionAI
	timeout  time.Duration
	logger   *zap.Logger
}

var _ healthcheck.Checker = (*HealthChecker)(nil)

// NewHealthChecker creates a new AI health checker
func NewHealthChecker(provider outbound.NutritionAI, timeout time.Duration, logger *zap.Logger) *HealthChecker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HealthChecker{
		provider: provider,
		timeout:  timeout,
		logger:   logger.Named("ai-health"),
	}
}

// Check pings the provider. A provider that cannot be reached makes the service
// unhealthy, since no lookup can succeed without it.
func (h *HealthChecker) Check(ctx context.Context) healthcheck.Check {
	start := time.Now()
	check := healthcheck.Check{
		Name:        "ai",
		LastChecked: start,
		Metadata: map[string]interface{}{
			"provider": h.provider.Provider(),
			"model":    h.provider.Model(),
		},
	}

	healthCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	err := h.provider.HealthCheck(healthCtx)
	check.Duration = time.Since(start)
	if err != nil {
		h.logger.Warn("AI provider health check failed",
			zap.String("provider", h.provider.Provider()),
			zap.Error(err))
		check.Status = healthcheck.StatusUnhealthy
		check.Message = err.Error()
		return check
	}

	check.Status = healthcheck.StatusHealthy
	if check.Duration > h.timeout/2 {
		check.Status = healthcheck.StatusDegraded
		check.Message = "Provider is responding slowly"
	}
	return check
}
