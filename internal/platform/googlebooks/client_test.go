package googlebooks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	opts = append([]Option{
		WithBaseURL(srv.URL),
		WithRetries(2, time.Millisecond),
		WithRateLimit(1000, 100),
	}, opts...)
	return NewClient("test-key", opts...)
}

func TestSearchVolumes(t *testing.T) {
	var gotQuery map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/volumes", r.URL.Path)
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"totalItems": 42, "items": [{"id": "abc", "volumeInfo": {"title": "Солярис", "authors": ["Станислав Лем"]}}]}`))
	})

	res, err := c.SearchVolumes(context.Background(), SearchParams{
		Query:        "Солярис+inauthor:Лем",
		StartIndex:   20,
		MaxResults:   20,
		OrderBy:      "relevance",
		LangRestrict: "ru",
	})

	require.NoError(t, err)
	assert.Equal(t, 42, res.TotalItems)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Станислав Лем", res.Items[0].VolumeInfo.Authors[0])
	assert.Equal(t, map[string]string{
		"q":            "Солярис+inauthor:Лем",
		"key":          "test-key",
		"startIndex":   "20",
		"maxResults":   "20",
		"orderBy":      "relevance",
		"langRestrict": "ru",
		"printType":    "books",
	}, gotQuery)
}

func TestGetVolume_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"The volume ID could not be found."}}`, http.StatusNotFound)
	})

	_, err := c.GetVolume(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGet_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"id": "abc", "volumeInfo": {"title": "Пикник на обочине"}}`))
	})

	v, err := c.GetVolume(context.Background(), "abc")

	require.NoError(t, err)
	assert.Equal(t, "Пикник на обочине", v.VolumeInfo.Title)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGet_GivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.GetVolume(context.Background(), "abc")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGet_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"Invalid value"}}`))
	})

	_, err := c.SearchVolumes(context.Background(), SearchParams{Query: "x"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Invalid value", apiErr.Message)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGet_NotConfigured(t *testing.T) {
	c := NewClient("")

	_, err := c.SearchVolumes(context.Background(), SearchParams{Query: "x"})

	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestGet_ContextCancelled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, WithRetries(3, time.Hour))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.GetVolume(ctx, "abc")

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestVolumeInfo_ISBN(t *testing.T) {
	info := VolumeInfo{IndustryIdentifiers: []IndustryIdentifier{
		{Type: "ISBN_10", Identifier: "5170908548"},
		{Type: "ISBN_13", Identifier: "9785170908547"},
	}}
	assert.Equal(t, "9785170908547", info.ISBN())
	assert.Equal(t, "", VolumeInfo{}.ISBN())
}

func TestPlainText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "  Роман о любви  ", "Роман о любви"},
		{"paragraphs", "<p>Первый абзац.</p><p>Второй <b>абзац</b>.</p>", "Первый абзац.\nВторой абзац."},
		{"line breaks", "Строка один<br>Строка два", "Строка один\nСтрока два"},
		{"entities", "Tom &amp; Jerry", "Tom & Jerry"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PlainText(tt.in))
		})
	}
}
