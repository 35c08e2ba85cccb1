// Package deepinfra is the completion client for DeepInfra's
// OpenAI-compatible chat-completions API.
package deepinfra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/heartmarshall/songsmith-backend/internal/adapter/provider/retry"
	"github.com/heartmarshall/songsmith-backend/internal/config"
	"github.com/heartmarshall/songsmith-backend/internal/domain"
	"github.com/heartmarshall/songsmith-backend/internal/metrics"
)

const (
	providerName = "deepinfra"

	defaultTemperature = 0.7
	defaultMaxTokens   = 1024

	// maxErrorBody caps how much of a failed response is read for its message.
	maxErrorBody = 64 << 10
)

// modelEndpoints maps API model identifiers to DeepInfra model names.
var modelEndpoints = map[domain.Model]string{
	domain.ModelClaudeSonnet: "anthropic/claude-3-sonnet-20240229",
	domain.ModelGeminiPro:    "google/gemini-1.5-pro-latest",
}

// Client calls the DeepInfra chat-completions endpoint. It is safe for
// concurrent use.
type Client struct {
	baseURL      string
	apiKey       string
	defaultModel domain.Model
	strictModels bool
	httpClient   *http.Client
	retry        retry.Policy
	metrics      *metrics.Metrics
	log          *slog.Logger
}

// NewClient creates a Client from config. A missing API key is an error so
// misconfiguration fails at startup rather than on the first request.
// m may be nil.
func NewClient(cfg config.DeepInfraConfig, logger *slog.Logger, m *metrics.Metrics) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("deepinfra: api key is required")
	}

	defaultModel := domain.Model(cfg.DefaultModel)
	if !defaultModel.IsValid() {
		defaultModel = domain.ModelClaudeSonnet
	}

	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		defaultModel: defaultModel,
		strictModels: cfg.ModelPolicy == config.ModelPolicyStrict,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		retry:        retry.NewPolicy(cfg.MaxRetries),
		metrics:      m,
		log:          logger.With("adapter", providerName),
	}, nil
}

// chatRequest is the OpenAI-compatible request body.
type chatRequest struct {
	Model       string               `json:"model"`
	Messages    []domain.ChatMessage `json:"messages"`
	Temperature float64              `json:"temperature"`
	MaxTokens   int                  `json:"max_tokens"`
	Stream      bool                 `json:"stream"`
}

// chatResponse is the subset of a non-streaming response we read.
type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete performs a single-shot chat completion.
func (c *Client) Complete(ctx context.Context, req domain.CompletionRequest) (*domain.CompletionResponse, error) {
	endpoint, err := c.resolveModel(ctx, req.Model)
	if err != nil {
		return nil, err
	}

	body, err := encodeRequest(req, endpoint, false)
	if err != nil {
		return nil, err
	}

	c.log.DebugContext(ctx, "deepinfra request",
		slog.String("model", endpoint),
		slog.Int("messages", len(req.Messages)),
	)

	start := time.Now()
	result, err := retry.Do(ctx, c.retry, c.log, func() (*domain.CompletionResponse, error) {
		return c.complete(ctx, body, endpoint)
	})
	c.metrics.ObserveUpstream(providerName, "complete", err, time.Since(start))
	if err != nil {
		c.log.ErrorContext(ctx, "deepinfra request failed", slog.String("error", err.Error()))
		return nil, err
	}

	c.log.DebugContext(ctx, "deepinfra response",
		slog.String("id", result.ID),
		slog.Int("content_len", len(result.Content)),
	)

	return result, nil
}

func (c *Client) complete(ctx context.Context, body []byte, endpoint string) (*domain.CompletionResponse, error) {
	resp, err := c.post(ctx, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var data chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, &domain.UpstreamError{Provider: providerName, Err: fmt.Errorf("decode response: %w: %w", domain.ErrMalformedResponse, err)}
	}
	if len(data.Choices) == 0 {
		return nil, &domain.UpstreamError{Provider: providerName, Message: "response has no choices", Err: domain.ErrMalformedResponse}
	}

	result := &domain.CompletionResponse{
		ID:      data.ID,
		Content: data.Choices[0].Message.Content,
		Model:   data.Model,
	}
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	if result.Model == "" {
		result.Model = endpoint
	}
	return result, nil
}

// post sends one chat-completions request. On success the caller owns the
// response body; any non-2xx response is closed and returned as an
// *domain.UpstreamError.
func (c *Client) post(ctx context.Context, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("deepinfra: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.UpstreamError{Provider: providerName, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &domain.UpstreamError{
			Provider: providerName,
			Status:   resp.StatusCode,
			Message:  errorMessage(raw),
		}
	}

	return resp, nil
}

// resolveModel maps a model identifier to its provider endpoint. Unknown
// models fail in strict mode and fall back to the default model otherwise.
func (c *Client) resolveModel(ctx context.Context, m domain.Model) (string, error) {
	if endpoint, ok := modelEndpoints[m]; ok {
		return endpoint, nil
	}
	if c.strictModels {
		return "", domain.NewValidationError("model", fmt.Sprintf("unsupported model %q", m))
	}
	c.log.WarnContext(ctx, "unknown model, using default",
		slog.String("model", string(m)),
		slog.String("default", string(c.defaultModel)),
	)
	return modelEndpoints[c.defaultModel], nil
}

func encodeRequest(req domain.CompletionRequest, endpoint string, stream bool) ([]byte, error) {
	body := chatRequest{
		Model:       endpoint,
		Messages:    req.Messages,
		Temperature: defaultTemperature,
		MaxTokens:   defaultMaxTokens,
		Stream:      stream,
	}
	if req.Temperature != nil {
		body.Temperature = *req.Temperature
	}
	if req.MaxTokens != nil && *req.MaxTokens > 0 {
		body.MaxTokens = *req.MaxTokens
	}

	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("deepinfra: encode request: %w", err)
	}
	return b, nil
}

// errorMessage extracts the provider's error text from a failed response body.
func errorMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	for _, path := range []string{"error.message", "error", "detail.error", "detail"} {
		if v := gjson.GetBytes(body, path); v.Type == gjson.String && v.Str != "" {
			return v.Str
		}
	}
	return ""
}
