// Package googlebooks is a small client for the Google Books v1 API.
package googlebooks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const DefaultBaseURL = "https://www.googleapis.com/books/v1"

const maxBodyBytes = 5 << 20

var (
	ErrNotFound      = errors.New("volume not found")
	ErrNotConfigured = errors.New("BOOKS_API_KEY не настроен")
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("google books: status %d", e.StatusCode)
	}
	return fmt.Sprintf("google books: status %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
	log        *zap.Logger
}

type Option func(*Client)

func WithBaseURL(u string) Option { return func(c *Client) { c.baseURL = u } }

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.httpClient = h } }

func WithLogger(l *zap.Logger) Option { return func(c *Client) { c.log = l } }

// WithRetries sets how many times a 429 or 5xx answer is retried and the
// first backoff delay, which doubles on every attempt.
func WithRetries(n int, backoff time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = n
		c.backoff = backoff
	}
}

func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		limiter:    rate.NewLimiter(rate.Limit(10), 5),
		maxRetries: 2,
		backoff:    time.Second,
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type SearchParams struct {
	Query        string
	StartIndex   int
	MaxResults   int
	OrderBy      string
	LangRestrict string
}

func (c *Client) SearchVolumes(ctx context.Context, p SearchParams) (*VolumesResponse, error) {
	q := url.Values{}
	q.Set("q", p.Query)
	q.Set("startIndex", strconv.Itoa(p.StartIndex))
	if p.MaxResults > 0 {
		q.Set("maxResults", strconv.Itoa(p.MaxResults))
	}
	if p.OrderBy != "" {
		q.Set("orderBy", p.OrderBy)
	}
	if p.LangRestrict != "" {
		q.Set("langRestrict", p.LangRestrict)
	}
	q.Set("printType", "books")

	var res VolumesResponse
	if err := c.get(ctx, "/volumes", q, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) GetVolume(ctx context.Context, id string) (*Volume, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	var v Volume
	if err := c.get(ctx, "/volumes/"+url.PathEscape(id), url.Values{}, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, target any) error {
	if c.apiKey == "" {
		return ErrNotConfigured
	}
	q.Set("key", c.apiKey)
	u := c.baseURL + path + "?" + q.Encode()

	var lastErr error
	for i := 0; i <= c.maxRetries; i++ {
		if i > 0 {
			backoff := c.backoff * time.Duration(1<<uint(i-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		retry, err := c.do(ctx, u, target)
		if err == nil {
			return nil
		}
		if !retry {
			return err
		}
		lastErr = err
		c.log.Warn("google books request failed, retrying",
			zap.String("path", path), zap.Int("attempt", i+1), zap.Error(err))
	}
	return fmt.Errorf("after %d retries: %w", c.maxRetries, lastErr)
}

func (c *Client) do(ctx context.Context, u string, target any) (retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return true, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return false, ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return true, apiError(resp.StatusCode, body)
	default:
		return false, apiError(resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, target); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}
	return false, nil
}

func apiError(status int, body []byte) *APIError {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	_ = json.Unmarshal(body, &payload)
	return &APIError{StatusCode: status, Message: payload.Error.Message}
}
