package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readmind/internal/mention"
	"readmind/internal/recommend"
)

const reply = `Советую:
---BOOKS_START---
[{"title": "Солярис", "author": "Станислав Лем"}, {"title": "Пикник на обочине", "author": "Стругацкие"}]
---BOOKS_END---`

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestParse_Stdin(t *testing.T) {
	out, err := execute(t, reply, "parse")
	require.NoError(t, err)

	var got []mention.Mention
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "Солярис Станислав Лем", got[0].SearchQuery)
	assert.Equal(t, "Стругацкие", got[1].Author)
}

func TestParse_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reply.txt")
	require.NoError(t, os.WriteFile(path, []byte("Книга «Мастер и Маргарита» автор Булгаков"), 0o644))

	out, err := execute(t, "", "parse", "--compact", path)
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(out, "\n"))
	var got []mention.Mention
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Булгаков", got[0].Author)
}

func TestParse_NothingFound(t *testing.T) {
	out, err := execute(t, "Привет, как дела?", "parse", "--compact")
	require.NoError(t, err)
	assert.Equal(t, "[]\n", out)
}

func TestParse_MissingFile(t *testing.T) {
	_, err := execute(t, "", "parse", filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

func TestParse_Resolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/volumes", r.URL.Path)
		assert.Equal(t, "k", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"totalItems": 1, "items": [{"id": "v1", "volumeInfo": {"title": "Найдено", "imageLinks": {"thumbnail": "https://example.com/c.jpg"}}}]}`))
	}))
	defer srv.Close()

	out, err := execute(t, reply, "parse", "--resolve", "--api-key", "k", "--books-url", srv.URL)
	require.NoError(t, err)

	var got []recommend.Item
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 2)
	require.NotNil(t, got[0].Book)
	assert.Equal(t, "v1", got[0].Book.ID)
	assert.Equal(t, "https://example.com/c.jpg", got[1].CoverURL)
}

func TestParse_ResolveWithoutKey(t *testing.T) {
	_, err := execute(t, reply, "parse", "--resolve", "--api-key", "")
	assert.Error(t, err)
}
