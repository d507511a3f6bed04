// Package ollama provides Ollama integration for local AI inference
package ollama

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alchemorsel/nutrition/internal/domain/nutrition"
	"github.com/alchemorsel/nutrition/internal/infrastructure/ai/llm"
	apperrors "github.com/alchemorsel/nutrition/pkg/errors"
)

const providerName = "ollama"

// Config holds the connection settings for an Ollama server
type Config struct {
	BaseURL     string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// Client implements the NutritionAI port using the Ollama chat API
type Client struct {
	config Config
	client *http.Client
	logger *zap.Logger
}

// NewClient creates a new Ollama client
func NewClient(config Config, httpClient *http.Client, logger *zap.Logger) *Client {
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Model == "" {
		config.Model = "llama3.2:3b"
	}
	if httpClient == nil {
		httpClient = llm.NewHTTPClient(config.Timeout)
	}

	logger = logger.Named("ollama-client")
	logger.Info("Ollama client initialized",
		zap.String("base_url", config.BaseURL),
		zap.String("model", config.Model),
		zap.Duration("timeout", config.Timeout))

	return &Client{
		config: config,
		client: httpClient,
		logger: logger,
	}
}

// Ollama API structures
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Model    string                 `json:"model"`
	Messages []ChatMessage          `json:"messages"`
	Stream   bool                   `json:"stream"`
	Format   string                 `json:"format,omitempty"`
	Options  map[string]interface{} `json:"options,omitempty"`
}

type ChatResponse struct {
	Model        string      `json:"model"`
	Message      ChatMessage `json:"message"`
	Done         bool        `json:"done"`
	EvalCount    int         `json:"eval_count,omitempty"`
	EvalDuration int64       `json:"eval_duration,omitempty"`
}

type TagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

func (c *Client) Provider() string { return providerName }

func (c *Client) Model() string { return c.config.Model }

// EstimateNutrition asks the model for one serving of foodName
func (c *Client) EstimateNutrition(ctx context.Context, foodName string) (*nutrition.RawRecord, error) {
	content, err := c.chat(ctx, llm.NutritionSystemPrompt, llm.NutritionUserPrompt(foodName))
	if err != nil {
		return nil, err
	}
	return llm.DecodeNutrition(providerName, content)
}

// RecommendDiet asks the model for advice on the meal totals
func (c *Client) RecommendDiet(ctx context.Context, totals nutrition.WholeTotals) ([]string, error) {
	content, err := c.chat(ctx, llm.RecommendationSystemPrompt, llm.RecommendationUserPrompt(totals))
	if err != nil {
		return nil, err
	}
	return llm.DecodeRecommendations(providerName, content)
}

// HealthCheck verifies the server is up and the configured model is pulled
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/api/tags", nil)
	if err != nil {
		return err
	}

	var tags TagsResponse
	if err := llm.Do(ctx, c.client, providerName, req, &tags); err != nil {
		return err
	}
	for _, model := range tags.Models {
		if model.Name == c.config.Model || strings.TrimSuffix(model.Name, ":latest") == c.config.Model {
			return nil
		}
	}
	return apperrors.NewUpstreamUnavailableError(providerName, http.StatusOK,
		errors.New("model "+c.config.Model+" is not available"))
}

func (c *Client) chat(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	reqBody := ChatRequest{
		Model: c.config.Model,
		Messages: []ChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Stream: false,
		Format: "json",
		Options: map[string]interface{}{
			"temperature": c.config.Temperature,
		},
	}

	var chatResp ChatResponse
	if err := llm.PostJSON(ctx, c.client, providerName, c.config.BaseURL+"/api/chat", nil, reqBody, &chatResp); err != nil {
		c.logger.Warn("Ollama chat request failed", zap.Error(err))
		return "", err
	}

	if !chatResp.Done {
		return "", apperrors.NewUpstreamMalformedError(providerName, errors.New("incomplete response from Ollama"))
	}

	c.logger.Debug("Ollama chat completion successful",
		zap.String("model", chatResp.Model),
		zap.Int64("eval_duration", chatResp.EvalDuration),
		zap.Int("eval_count", chatResp.EvalCount))

	return chatResp.Message.Content, nil
}
