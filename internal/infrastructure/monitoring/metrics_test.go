package monitoring

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMetricsCollector_CollectorsAreIndependent(t *testing.T) {
	first := NewMetricsCollector(zap.NewNop())
	second := NewMetricsCollector(zap.NewNop())

	first.Lookup("ok")

	assert.Equal(t, 1.0, testutil.ToFloat64(first.lookupsTotal.WithLabelValues("ok")))
	assert.Equal(t, 0.0, testutil.ToFloat64(second.lookupsTotal.WithLabelValues("ok")))
}

func TestMetricsCollector_NutritionMetrics(t *testing.T) {
	m := NewMetricsCollector(zap.NewNop())

	m.AnalysisCompleted("OK", 120*time.Millisecond)
	m.AnalysisCompleted("UPSTREAM_TIMEOUT", time.Minute)
	m.ItemsAnalyzed(3)
	m.Lookup("ok")
	m.Lookup("invalid_food")
	m.AIRequest("ollama", "llama3.2:3b", "estimate_nutrition", "success", time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.analysesTotal.WithLabelValues("OK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.analysesTotal.WithLabelValues("UPSTREAM_TIMEOUT")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.itemsAnalyzedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.lookupsTotal.WithLabelValues("invalid_food")))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		m.aiRequestsTotal.WithLabelValues("ollama", "llama3.2:3b", "estimate_nutrition", "success"),
	))
}

func TestMetricsCollector_HTTPMiddlewareUsesRoutePattern(t *testing.T) {
	m := NewMetricsCollector(zap.NewNop())
	r := chi.NewRouter()
	r.Use(m.HTTPMiddleware)
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"missing"}`))
	})

	for _, id := range []string{"1", "2"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/"+id, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/items/{id}", "404")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.errorRateTotal.WithLabelValues("http", "client_error")))
}

func TestMetricsCollector_GinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetricsCollector(zap.NewNop())
	engine := gin.New()
	engine.Use(m.GinMiddleware())
	engine.GET("/health/live", func(c *gin.Context) { c.Status(http.StatusServiceUnavailable) })

	engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/health/live", "503")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errorRateTotal.WithLabelValues("http", "server_error")))
}

func TestMetricsCollector_Handler(t *testing.T) {
	m := NewMetricsCollector(zap.NewNop())
	m.ItemsAnalyzed(2)
	rec := httptest.NewRecorder()

	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "nutrition_items_analyzed_total 2")
	assert.True(t, strings.Contains(rec.Body.String(), "go_goroutines"))
}

func TestMetricsCollector_UptimeCounterStops(t *testing.T) {
	m := NewMetricsCollector(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		m.StartUptimeCounter(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("uptime counter did not stop")
	}
}
