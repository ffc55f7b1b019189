package recommend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"readmind/internal/book"
	"readmind/internal/mention"
	"readmind/internal/platform/openlibrary"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeBooks struct {
	mu      sync.Mutex
	byQuery map[string]book.Book
	fail    map[string]error
	calls   []string
	delay   time.Duration
	active  atomic.Int32
	peak    atomic.Int32
}

func (f *fakeBooks) FindFirst(ctx context.Context, query string) (book.Book, error) {
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return book.Book{}, ctx.Err()
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, query)
	f.mu.Unlock()

	if err, ok := f.fail[query]; ok {
		return book.Book{}, err
	}
	if b, ok := f.byQuery[query]; ok {
		return b, nil
	}
	return book.Book{}, book.ErrNotFound
}

type fakeCovers struct {
	covers map[string]string
	calls  atomic.Int32
}

func (f *fakeCovers) SearchCover(_ context.Context, title, _ string) (string, error) {
	f.calls.Add(1)
	if c, ok := f.covers[title]; ok {
		return c, nil
	}
	return "", openlibrary.ErrNoCover
}

func TestResolver_Resolve(t *testing.T) {
	books := &fakeBooks{
		byQuery: map[string]book.Book{
			"Солярис Станислав Лем": {ID: "s1", Title: "Солярис", Cover: "https://books.google.com/c?id=s1&zoom=1"},
			"Пикник на обочине":     {ID: "p1", Title: "Пикник на обочине"},
		},
		fail: map[string]error{"Сломанная книга": errors.New("catalog down")},
	}
	covers := &fakeCovers{covers: map[string]string{"Пикник на обочине": "https://covers.openlibrary.org/b/id/1-L.jpg"}}
	r := NewResolver(nil, books, covers, zap.NewNop())

	text := mention.BlockStart + `[
		{"title": "Солярис", "author": "Станислав Лем"},
		{"title": "Пикник на обочине"},
		{"title": "Сломанная книга"},
		{"title": "Неизвестная"}
	]` + mention.BlockEnd

	items, err := r.Resolve(context.Background(), text)

	require.NoError(t, err)
	require.Len(t, items, 4)

	assert.Equal(t, "Солярис", items[0].Mention.Title)
	require.NotNil(t, items[0].Book)
	assert.Equal(t, "https://books.google.com/c?id=s1&zoom=2", items[0].CoverURL)

	require.NotNil(t, items[1].Book)
	assert.Equal(t, "https://covers.openlibrary.org/b/id/1-L.jpg", items[1].CoverURL)

	assert.Nil(t, items[2].Book)
	assert.Empty(t, items[2].CoverURL)
	assert.Nil(t, items[3].Book)

	assert.Equal(t, int32(3), covers.calls.Load())
}

func TestResolver_BoundedConcurrency(t *testing.T) {
	books := &fakeBooks{delay: 10 * time.Millisecond}
	r := NewResolver(nil, books, nil, nil)

	mentions := make([]mention.Mention, 12)
	for i := range mentions {
		mentions[i] = mention.Mention{Title: "Книга", SearchQuery: string(rune('a' + i))}
	}

	items, err := r.ResolveMentions(context.Background(), mentions)

	require.NoError(t, err)
	assert.Len(t, items, 12)
	for i, it := range items {
		assert.Equal(t, mentions[i].SearchQuery, it.Mention.SearchQuery)
	}
	assert.LessOrEqual(t, books.peak.Load(), int32(maxConcurrentLookups))
	assert.Len(t, books.calls, 12)
}

func TestResolver_Cancelled(t *testing.T) {
	books := &fakeBooks{delay: time.Second}
	r := NewResolver(nil, books, nil, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := r.ResolveMentions(ctx, []mention.Mention{{Title: "Солярис", SearchQuery: "Солярис"}})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestResolver_NoMentions(t *testing.T) {
	r := NewResolver(nil, &fakeBooks{}, nil, nil)

	items, err := r.Resolve(context.Background(), "Просто привет")

	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestHTTPHandler_Resolve(t *testing.T) {
	books := &fakeBooks{byQuery: map[string]book.Book{
		"Мастер и Маргарита Булгаков": {ID: "m1", Title: "Мастер и Маргарита"},
	}}
	h := NewHTTPHandler(NewResolver(nil, books, nil, nil), zap.NewNop())

	t.Run("success", func(t *testing.T) {
		body, _ := json.Marshal(map[string]string{"text": "Книга «Мастер и Маргарита» автор Булгаков"})
		w := httptest.NewRecorder()

		h.Resolve(w, httptest.NewRequest(http.MethodPost, "/api/recommendations", bytes.NewReader(body)))

		assert.Equal(t, http.StatusOK, w.Code)
		var env struct {
			Data resolveResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
		require.Len(t, env.Data.Items, 1)
		assert.Equal(t, "m1", env.Data.Items[0].Book.ID)
		assert.Equal(t, "Булгаков", env.Data.Mentions[0].Author)
	})

	t.Run("empty text", func(t *testing.T) {
		w := httptest.NewRecorder()

		h.Resolve(w, httptest.NewRequest(http.MethodPost, "/api/recommendations", bytes.NewReader([]byte(`{"text": ""}`))))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
