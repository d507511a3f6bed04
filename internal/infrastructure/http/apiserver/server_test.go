package apiserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/alchemorsel/nutrition/internal/domain/nutrition"
	"github.com/alchemorsel/nutrition/internal/infrastructure/config"
	"github.com/alchemorsel/nutrition/internal/infrastructure/monitoring"
	"github.com/alchemorsel/nutrition/pkg/healthcheck"
)

type mockNutritionService struct {
	mock.Mock
}

func (m *mockNutritionService) Analyze(ctx context.Context, query string) (*nutrition.Analysis, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*nutrition.Analysis), args.Error(1)
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "nutrition-api", Environment: "test"},
		Server: config.ServerConfig{
			Host:              "127.0.0.1",
			Port:              8080,
			ReadTimeout:       5 * time.Second,
			WriteTimeout:      5 * time.Second,
			IdleTimeout:       5 * time.Second,
			ShutdownTimeout:   5 * time.Second,
			AllowedOrigins:    []string{"*"},
			EnableCompression: true,
		},
		AI: config.AIConfig{RequestTimeout: time.Second},
	}
}

func newTestServer(t *testing.T) (*Server, *mockNutritionService, *monitoring.MetricsCollector) {
	logger := zaptest.NewLogger(t)
	service := &mockNutritionService{}
	metrics := monitoring.NewMetricsCollector(logger)
	health := healthcheck.New("1.0.0", logger)
	return NewServer(testConfig(), logger, service, health, metrics), service, metrics
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func sampleAnalysis() *nutrition.Analysis {
	return nutrition.NewAnalysis([]nutrition.Record{{
		FoodName:     "Idli",
		ServingSize:  "2 pieces",
		CaloriesKcal: 116,
		ProteinG:     4,
		CarbsG:       24,
		FatG:         0.4,
	}})
}

func TestServer_NutritionRoutes(t *testing.T) {
	for _, path := range []string{"/api/nutrition", "/nutrition"} {
		t.Run(path, func(t *testing.T) {
			server, service, _ := newTestServer(t)
			service.On("Analyze", mock.Anything, "2 idli").Return(sampleAnalysis(), nil).Once()

			rec := serve(server, httptest.NewRequest(http.MethodGet, path+"?q=2+idli", nil))

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

			var body nutrition.Analysis
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, 116, body.TotalCaloriesKcal)
			assert.Equal(t, "2 pieces", body.Items[0].ServingSize)
			service.AssertExpectations(t)
		})
	}
}

func TestServer_MissingQuery(t *testing.T) {
	server, service, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/nutrition", nil)
	req.Header.Set("X-Request-ID", "req-123")

	rec := serve(server, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
	assert.JSONEq(t,
		`{"error":"Missing ?q parameter","code":"MISSING_PARAMETER","request_id":"req-123"}`,
		rec.Body.String(),
	)
	service.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything)
}

func TestServer_Preflight(t *testing.T) {
	server, _, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/nutrition", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")

	rec := serve(server, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type", rec.Header().Get("Access-Control-Allow-Headers"))
}

func TestServer_BrotliCompression(t *testing.T) {
	server, service, _ := newTestServer(t)
	service.On("Analyze", mock.Anything, "idli").Return(sampleAnalysis(), nil).Once()
	req := httptest.NewRequest(http.MethodGet, "/api/nutrition?q=idli", nil)
	req.Header.Set("Accept-Encoding", "br")

	rec := serve(server, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "br", rec.Header().Get("Content-Encoding"))
	decoded, err := io.ReadAll(brotli.NewReader(rec.Body))
	require.NoError(t, err)
	var body nutrition.Analysis
	require.NoError(t, json.Unmarshal(decoded, &body))
	assert.Equal(t, "Idli", body.Items[0].FoodName)
}

func TestServer_PanicBecomesInternalError(t *testing.T) {
	server, service, _ := newTestServer(t)
	service.On("Analyze", mock.Anything, "idli").Run(func(mock.Arguments) {
		panic("boom")
	}).Return(nil, nil)

	rec := serve(server, httptest.NewRequest(http.MethodGet, "/api/nutrition?q=idli", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "INTERNAL_ERROR", body["code"])
}

func TestServer_HealthAndDocs(t *testing.T) {
	server, _, _ := newTestServer(t)

	rec := serve(server, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)

	rec = serve(server, httptest.NewRequest(http.MethodGet, "/api/openapi.yaml", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/nutrition:")
}

func TestServer_RecordsRouteMetrics(t *testing.T) {
	server, service, metrics := newTestServer(t)
	service.On("Analyze", mock.Anything, "idli").Return(sampleAnalysis(), nil)

	serve(server, httptest.NewRequest(http.MethodGet, "/api/nutrition?q=idli", nil))
	serve(server, httptest.NewRequest(http.MethodGet, "/api/nutrition?q=idli", nil))

	count, err := testutil.GatherAndCount(metrics.Registry(), "http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count, "both requests share one route series")
}
