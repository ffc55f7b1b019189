// Package openlibrary looks book covers up on Open Library when the catalog
// has none.
package openlibrary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL  = "https://openlibrary.org"
	DefaultCoverURL = "https://covers.openlibrary.org"
)

var ErrNoCover = errors.New("no cover found")

type Client struct {
	httpClient *http.Client
	userAgent  string
	baseURL    string
	coverURL   string
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
}

func NewClient(userAgent string, rps int, maxRetries int) *Client {
	if rps <= 0 {
		rps = 1
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		userAgent:  userAgent,
		baseURL:    DefaultBaseURL,
		coverURL:   DefaultCoverURL,
		limiter:    rate.NewLimiter(rate.Every(time.Second/time.Duration(rps)), 1),
		maxRetries: maxRetries,
		backoff:    time.Second,
	}
}

// WithBaseURL points both the search API and the cover host at u.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = u
	c.coverURL = u
	return c
}

// searchResponse is the subset of search.json used for covers.
type searchResponse struct {
	NumFound int `json:"numFound"`
	Docs     []struct {
		Key         string   `json:"key"`
		Title       string   `json:"title"`
		AuthorNames []string `json:"author_name"`
		CoverID     int      `json:"cover_i"`
		ISBN        []string `json:"isbn"`
	} `json:"docs"`
}

// SearchCover returns a large cover URL for the best match of title and
// author. ErrNoCover is returned when nothing with a cover matches.
func (c *Client) SearchCover(ctx context.Context, title, author string) (string, error) {
	q := url.Values{}
	q.Set("title", title)
	if author != "" {
		q.Set("author", author)
	}
	q.Set("fields", "key,title,author_name,cover_i,isbn")
	q.Set("limit", "5")

	var res searchResponse
	if err := c.get(ctx, c.baseURL+"/search.json?"+q.Encode(), &res); err != nil {
		return "", err
	}
	for _, doc := range res.Docs {
		if doc.CoverID > 0 {
			return c.CoverURLByID(doc.CoverID), nil
		}
	}
	for _, doc := range res.Docs {
		if len(doc.ISBN) > 0 {
			return c.CoverURLByISBN(doc.ISBN[0]), nil
		}
	}
	return "", ErrNoCover
}

func (c *Client) CoverURLByID(id int) string {
	return fmt.Sprintf("%s/b/id/%d-L.jpg", c.coverURL, id)
}

func (c *Client) CoverURLByISBN(isbn string) string {
	isbn = strings.NewReplacer("-", "", " ", "").Replace(isbn)
	return fmt.Sprintf("%s/b/isbn/%s-L.jpg", c.coverURL, url.PathEscape(isbn))
}

func (c *Client) get(ctx context.Context, u string, target any) error {
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

		retry, err := c.fetch(ctx, u, target)
		if err == nil {
			return nil
		}
		if !retry {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("after %d retries: %w", c.maxRetries, lastErr)
}

func (c *Client) fetch(ctx context.Context, u string, target any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		retry := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return retry, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return false, json.NewDecoder(resp.Body).Decode(target)
}
