package container

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/alchemorsel/nutrition/internal/infrastructure/config"
	"github.com/alchemorsel/nutrition/internal/infrastructure/http/apiserver"
	"github.com/alchemorsel/nutrition/internal/ports/inbound"
	"github.com/alchemorsel/nutrition/internal/ports/outbound"
	"github.com/alchemorsel/nutrition/pkg/healthcheck"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func writeConfig(t *testing.T, apiPort, metricsPort int) ConfigPath {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := fmt.Sprintf(`
app:
  environment: test
  log_level: error
server:
  host: 127.0.0.1
  port: %d
ai:
  provider: ollama
  ollama:
    host: http://127.0.0.1:1
monitoring:
  metrics_port: %d
`, apiPort, metricsPort)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return ConfigPath(path)
}

func TestModule_Validates(t *testing.T) {
	err := fx.ValidateApp(Module, fx.Supply(writeConfig(t, 18080, 19090)))

	assert.NoError(t, err)
}

func TestModule_ConstructsGraph(t *testing.T) {
	var (
		service  inbound.NutritionService
		provider outbound.NutritionAI
		health   *healthcheck.HealthCheck
		api      *apiserver.Server
	)

	app := fxtest.New(t,
		ConfigModule, LoggerModule, MonitoringModule, AIModule, ServiceModule, HealthModule, HTTPModule,
		fx.Supply(writeConfig(t, 18080, 19090)),
		fx.Populate(&service, &provider, &health, &api),
	)
	require.NoError(t, app.Err())

	assert.NotNil(t, service)
	assert.NotNil(t, api)
	assert.Equal(t, "ollama", provider.Provider())
	assert.Equal(t, "llama3.2:3b", provider.Model())
}

func TestModule_StartsAndStopsServers(t *testing.T) {
	metricsPort := freePort(t)
	app := fxtest.New(t, Module, fx.Supply(writeConfig(t, freePort(t), metricsPort)))

	app.RequireStart()
	defer app.RequireStop()

	url := fmt.Sprintf("http://127.0.0.1:%d/health/live", metricsPort)
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)
}

func TestProviderConfig(t *testing.T) {
	cfg := &config.Config{
		AI: config.AIConfig{
			Provider:        "openai",
			ProviderTimeout: 7 * time.Second,
			Temperature:     0.3,
			MaxTokens:       256,
			OpenAI:          config.OpenAIConfig{APIKey: "sk-test", BaseURL: "https://llm.internal/v1", Model: "gpt-4o"},
			Ollama:          config.OllamaConfig{Host: "http://ollama:11434", Model: "mistral"},
		},
	}

	pc := ProviderConfig(cfg)

	assert.Equal(t, "openai", pc.Provider)
	assert.Equal(t, 7*time.Second, pc.Timeout)
	assert.Equal(t, "sk-test", pc.OpenAI.APIKey)
	assert.Equal(t, 256, pc.OpenAI.MaxTokens)
	assert.Equal(t, 0.3, pc.OpenAI.Temperature)
	assert.Equal(t, "http://ollama:11434", pc.Ollama.BaseURL)
	assert.Equal(t, "mistral", pc.Ollama.Model)
}

func TestTracingConfig(t *testing.T) {
	cfg := &config.Config{
		App:        config.AppConfig{Name: "nutrition-api", Version: "1.2.3", Environment: "staging"},
		Monitoring: config.MonitoringConfig{EnableTracing: true, OTLPEndpoint: "otel:4318", SamplingRate: 0.5},
	}

	tc := TracingConfig(cfg)

	assert.True(t, tc.Enabled)
	assert.Equal(t, "nutrition-api", tc.ServiceName)
	assert.Equal(t, "otel:4318", tc.OTLPTraceEndpoint)
	assert.Equal(t, 0.5, tc.SamplingRate)
}
