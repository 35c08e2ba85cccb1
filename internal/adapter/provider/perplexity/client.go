// Package perplexity is the research client for the Perplexity
// chat-completions API: theme research and single-word rhyme lookup.
package perplexity

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

	"github.com/tidwall/gjson"

	"github.com/heartmarshall/songsmith-backend/internal/adapter/provider/retry"
	"github.com/heartmarshall/songsmith-backend/internal/config"
	"github.com/heartmarshall/songsmith-backend/internal/domain"
	"github.com/heartmarshall/songsmith-backend/internal/metrics"
)

const (
	providerName = "perplexity"

	temperature  = 0.2
	maxErrorBody = 64 << 10

	defaultRhymeCount    = 20
	defaultResearchCount = 100
	defaultLanguage      = "english"
)

// Client calls the Perplexity chat-completions endpoint. It is safe for
// concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	retry      retry.Policy
	metrics    *metrics.Metrics
	log        *slog.Logger
}

// NewClient creates a Client from config. A missing API key is an error.
// m may be nil.
func NewClient(cfg config.PerplexityConfig, logger *slog.Logger, m *metrics.Metrics) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("perplexity: api key is required")
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		retry:      retry.NewPolicy(cfg.MaxRetries),
		metrics:    m,
		log:        logger.With("adapter", providerName),
	}, nil
}

type message struct {
	Role    domain.ChatRole `json:"role"`
	Content string          `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

// ResearchByTheme asks the provider to analyse popular songs on a theme.
// Malformed provider output never fails the call; see ParseResearch.
func (c *Client) ResearchByTheme(ctx context.Context, req domain.ResearchRequest) (*domain.ResearchResult, error) {
	if req.Language == "" {
		req.Language = defaultLanguage
	}
	if req.Count <= 0 {
		req.Count = defaultResearchCount
	}

	content, err := c.chat(ctx, "research", researchSystemPrompt, researchPrompt(req))
	if err != nil {
		return nil, err
	}

	result := ParseResearch(content, req.Theme)

	c.log.DebugContext(ctx, "perplexity research parsed",
		slog.String("theme", req.Theme),
		slog.Int("patterns", len(result.RhymePatterns)),
		slog.Int("common_rhymes", len(result.CommonRhymes)),
	)

	return result, nil
}

// FindRhymes asks the provider for up to count words rhyming with word.
// A count <= 0 means the default of 20.
func (c *Client) FindRhymes(ctx context.Context, word string, count int) ([]string, error) {
	if count <= 0 {
		count = defaultRhymeCount
	}

	content, err := c.chat(ctx, "find_rhymes", rhymeSystemPrompt, rhymePrompt(word, count))
	if err != nil {
		return nil, err
	}

	words := ParseRhymeList(content)

	c.log.DebugContext(ctx, "perplexity rhymes parsed",
		slog.String("word", word),
		slog.Int("requested", count),
		slog.Int("found", len(words)),
	)

	return words, nil
}

// chat sends a system+user conversation and returns the first choice's
// message content.
func (c *Client) chat(ctx context.Context, operation, system, user string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []message{
			{Role: domain.ChatRoleSystem, Content: system},
			{Role: domain.ChatRoleUser, Content: user},
		},
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("perplexity: encode request: %w", err)
	}

	c.log.DebugContext(ctx, "perplexity request", slog.String("operation", operation))

	start := time.Now()
	content, err := retry.Do(ctx, c.retry, c.log, func() (string, error) {
		return c.post(ctx, body)
	})
	c.metrics.ObserveUpstream(providerName, operation, err, time.Since(start))
	if err != nil {
		c.log.ErrorContext(ctx, "perplexity request failed",
			slog.String("operation", operation),
			slog.String("error", err.Error()),
		)
		return "", err
	}
	return content, nil
}

func (c *Client) post(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("perplexity: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &domain.UpstreamError{Provider: providerName, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &domain.UpstreamError{
			Provider: providerName,
			Status:   resp.StatusCode,
			Message:  gjson.GetBytes(raw, "error.message").String(),
		}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &domain.UpstreamError{Provider: providerName, Err: fmt.Errorf("read body: %w", err)}
	}

	choice := gjson.GetBytes(raw, "choices.0.message.content")
	if !choice.Exists() {
		return "", &domain.UpstreamError{Provider: providerName, Message: "response has no choices", Err: domain.ErrMalformedResponse}
	}
	return choice.String(), nil
}
