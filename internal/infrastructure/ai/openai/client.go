// Package openai provides an OpenAI-compatible chat completions provider
package openai

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

const providerName = "openai"

// Config holds the connection settings for an OpenAI-compatible API
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Client implements the NutritionAI port using the chat completions API
type Client struct {
	config Config
	client *http.Client
	logger *zap.Logger
}

// NewClient creates a new OpenAI client
func NewClient(config Config, httpClient *http.Client, logger *zap.Logger) *Client {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.openai.com/v1"
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Model == "" {
		config.Model = "gpt-4o-mini"
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = 500
	}
	if httpClient == nil {
		httpClient = llm.NewHTTPClient(config.Timeout)
	}

	logger = logger.Named("openai-client")
	logger.Info("OpenAI client initialized",
		zap.String("base_url", config.BaseURL),
		zap.String("model", config.Model))

	return &Client{
		config: config,
		client: httpClient,
		logger: logger,
	}
}

// OpenAI API structures
type ChatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

type ResponseFormat struct {
	Type string `json:"type"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionResponse struct {
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

type Choice struct {
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

func (c *Client) Provider() string { return providerName }

func (c *Client) Model() string { return c.config.Model }

// EstimateNutrition asks the model for one serving of foodName
func (c *Client) EstimateNutrition(ctx context.Context, foodName string) (*nutrition.RawRecord, error) {
	content, err := c.complete(ctx, llm.NutritionSystemPrompt, llm.NutritionUserPrompt(foodName))
	if err != nil {
		return nil, err
	}
	return llm.DecodeNutrition(providerName, content)
}

// RecommendDiet asks the model for advice on the meal totals
func (c *Client) RecommendDiet(ctx context.Context, totals nutrition.WholeTotals) ([]string, error) {
	content, err := c.complete(ctx, llm.RecommendationSystemPrompt, llm.RecommendationUserPrompt(totals))
	if err != nil {
		return nil, err
	}
	return llm.DecodeRecommendations(providerName, content)
}

// HealthCheck lists the available models, which needs a valid key but costs no tokens
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/models", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	return llm.Do(ctx, c.client, providerName, req, nil)
}

func (c *Client) complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	reqBody := ChatCompletionRequest{
		Model: c.config.Model,
		Messages: []Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature:    c.config.Temperature,
		MaxTokens:      c.config.MaxTokens,
		ResponseFormat: &ResponseFormat{Type: "json_object"},
	}

	var chatResp ChatCompletionResponse
	err := llm.PostJSON(ctx, c.client, providerName, c.config.BaseURL+"/chat/completions",
		map[string]string{"Authorization": "Bearer " + c.config.APIKey}, reqBody, &chatResp)
	if err != nil {
		c.logger.Warn("OpenAI API call failed", zap.Error(err))
		return "", err
	}

	if len(chatResp.Choices) == 0 {
		return "", apperrors.NewUpstreamMalformedError(providerName, errors.New("no response choices returned"))
	}

	c.logger.Debug("OpenAI API call successful",
		zap.Int("prompt_tokens", chatResp.Usage.PromptTokens),
		zap.Int("completion_tokens", chatResp.Usage.CompletionTokens),
		zap.Int("total_tokens", chatResp.Usage.TotalTokens),
	)

	return chatResp.Choices[0].Message.Content, nil
}
