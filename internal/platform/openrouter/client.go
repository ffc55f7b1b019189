// Package openrouter sends chat completion requests to OpenRouter.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const DefaultBaseURL = "https://openrouter.ai/api/v1"

const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 2000
	maxResponseBytes   = 10 << 20

	// fallbackReply is used when a choice arrives without content.
	fallbackReply = "Извините, не удалось получить ответ."
)

var (
	ErrNotConfigured = errors.New("OPENROUTER_API_KEY не настроен")
	ErrEmptyResponse = errors.New("Пустой ответ от OpenRouter API")
)

type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("openrouter: status %d", e.StatusCode)
	}
	return fmt.Sprintf("openrouter: status %d: %s", e.StatusCode, e.Message)
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type response struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int     `json:"index"`
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage *Usage `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Completion is the assistant reply to a conversation.
type Completion struct {
	Message string `json:"message"`
	Model   string `json:"model,omitempty"`
	Usage   *Usage `json:"usage,omitempty"`
}

type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	SiteURL    string
	SiteName   string
	Timeout    time.Duration
	MaxRetries int
	Backoff    time.Duration
}

func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:     apiKey,
		BaseURL:    DefaultBaseURL,
		Model:      "deepseek/deepseek-chat",
		SiteName:   "ReadMind AI",
		Timeout:    60 * time.Second,
		MaxRetries: 2,
		Backoff:    time.Second,
	}
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *zap.Logger
}

func NewClient(cfg Config, log *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log,
	}
}

func (c *Client) Model() string { return c.cfg.Model }

// Complete sends the conversation and returns the first choice. 429 and 5xx
// answers are retried with exponential backoff; other upstream failures are
// returned as *APIError.
func (c *Client) Complete(ctx context.Context, messages []Message) (*Completion, error) {
	if c.cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}

	payload, err := json.Marshal(request{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: defaultTemperature,
		MaxTokens:   defaultMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	start := time.Now()
	var lastErr error
	for i := 0; i <= c.cfg.MaxRetries; i++ {
		if i > 0 {
			select {
			case <-time.After(c.cfg.Backoff * time.Duration(1<<uint(i-1))):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		out, retry, err := c.send(ctx, payload)
		if err == nil {
			c.log.Debug("completion received",
				zap.String("model", out.Model),
				zap.Duration("took", time.Since(start)),
				zap.Int("reply_len", len(out.Message)))
			return out, nil
		}
		if !retry {
			return nil, err
		}
		lastErr = err
		c.log.Warn("openrouter request failed, retrying", zap.Int("attempt", i+1), zap.Error(err))
	}
	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *Client) send(ctx context.Context, payload []byte) (*Completion, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("HTTP-Referer", c.cfg.SiteURL)
	req.Header.Set("X-Title", c.cfg.SiteName)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, fmt.Errorf("request failed: %w", err)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	resp.Body.Close()
	if err != nil {
		return nil, true, fmt.Errorf("read response: %w", err)
	}

	var parsed response
	decodeErr := json.Unmarshal(body, &parsed)

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if decodeErr == nil && parsed.Error != nil {
			apiErr.Message = parsed.Error.Message
		}
		retry := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, retry, apiErr
	}
	if decodeErr != nil {
		return nil, false, fmt.Errorf("parse response: %w", decodeErr)
	}
	if parsed.Error != nil {
		return nil, false, &APIError{StatusCode: http.StatusBadGateway, Message: parsed.Error.Message}
	}
	if len(parsed.Choices) == 0 {
		return nil, false, ErrEmptyResponse
	}

	reply := parsed.Choices[0].Message.Content
	if reply == "" {
		reply = fallbackReply
	}
	return &Completion{Message: reply, Model: parsed.Model, Usage: parsed.Usage}, false, nil
}
