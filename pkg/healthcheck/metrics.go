// Package healthcheck metrics integration
// Provides Prometheus metrics for health check monitoring
package healthcheck

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HealthMetrics provides Prometheus metrics for health checks
type HealthMetrics struct {
	checksTotal   *prometheus.CounterVec
	checkErrors   *prometheus.CounterVec
	checkDuration *prometheus.HistogramVec
	healthStatus  *prometheus.GaugeVec
}

// MetricsConfig holds configuration for metrics
type MetricsConfig struct {
	Namespace string
	Subsystem string
	Enabled   bool
}

// DefaultMetricsConfig returns default metrics configuration
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "nutrition",
		Subsystem: "healthcheck",
		Enabled:   true,
	}
}

// NewHealthMetrics registers the health check metrics with registerer
func NewHealthMetrics(config MetricsConfig, registerer prometheus.Registerer) *HealthMetrics {
	if !config.Enabled {
		return &HealthMetrics{}
	}
	factory := promauto.With(registerer)

	return &HealthMetrics{
		checksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Subsystem: config.Subsystem,
				Name:      "checks_total",
				Help:      "Total number of health checks performed",
			},
			[]string{"check_name", "status"},
		),
		checkErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Subsystem: config.Subsystem,
				Name:      "check_errors_total",
				Help:      "Total number of failed health checks",
			},
			[]string{"check_name"},
		),
		checkDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: config.Namespace,
				Subsystem: config.Subsystem,
				Name:      "check_duration_seconds",
				Help:      "Duration of health checks in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"check_name"},
		),
		healthStatus: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: config.Namespace,
				Subsystem: config.Subsystem,
				Name:      "status",
				Help:      "Current health status (0=unhealthy, 1=degraded, 2=healthy)",
			},
			[]string{"check_name"},
		),
	}
}

// RecordCheck records one execution of the named check
func (hm *HealthMetrics) RecordCheck(checkName string, status Status, duration time.Duration) {
	if hm == nil || hm.checksTotal == nil {
		return
	}

	hm.checksTotal.WithLabelValues(checkName, string(status)).Inc()
	hm.checkDuration.WithLabelValues(checkName).Observe(duration.Seconds())
	hm.healthStatus.WithLabelValues(checkName).Set(statusToFloat(status))
	if status == StatusUnhealthy {
		hm.checkErrors.WithLabelValues(checkName).Inc()
	}
}

func statusToFloat(status Status) float64 {
	switch status {
	case StatusHealthy:
		return 2
	case StatusDegraded:
		return 1
	default:
		return 0
	}
}

type measuredChecker struct {
	name    string
	metrics *HealthMetrics
	next    Checker
}

// Check implements Checker interface with metrics collection
func (m *measuredChecker) Check(ctx context.Context) Check {
	start := time.Now()
	check := m.next.Check(ctx)
	m.metrics.RecordCheck(m.name, check.Status, time.Since(start))
	return check
}

// WithMetrics wraps a checker so every run is recorded under name
func WithMetrics(metrics *HealthMetrics, name string, checker Checker) Checker {
	if metrics == nil || metrics.checksTotal == nil {
		return checker
	}
	return &measuredChecker{name: name, metrics: metrics, next: checker}
}
