package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"readmind/internal/config"
	"readmind/internal/httpx"
	"readmind/internal/kvstore"
	"readmind/internal/platform/googlebooks"
	"readmind/internal/profile"
	"readmind/internal/testutil"
	"readmind/internal/user"
)

type testServer struct {
	handler  http.Handler
	users    *user.MockRepository
	profiles *profile.MockRepository
	token    string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/volumes":
			_, _ = w.Write([]byte(`{"totalItems": 1, "items": [{"id": "sol", "volumeInfo": {"title": "Солярис", "authors": ["Станислав Лем"], "imageLinks": {"thumbnail": "http://books.google.com/c.jpg"}}}]}`))
		case "/volumes/sol":
			_, _ = w.Write([]byte(`{"id": "sol", "volumeInfo": {"title": "Солярис"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(upstream.Close)

	cfg := config.Config{
		JWTSecret:          testutil.TestSecret,
		BooksAPIKey:        "test-key",
		KVDriver:           config.KVDriverMemory,
		CORSAllowedOrigins: []string{"http://localhost:3000"},
		RateLimitRPS:       1000,
		RateLimitBurst:     1000,
		MaxBodyBytes:       1 << 20,
	}

	ctrl := gomock.NewController(t)
	ts := &testServer{
		users:    user.NewMockRepository(ctrl),
		profiles: profile.NewMockRepository(ctrl),
	}

	kv := kvstore.NewMemoryStore()
	svc := newServices(cfg, zap.NewNop(), kv, ts.users, ts.profiles,
		googlebooks.WithBaseURL(upstream.URL),
		googlebooks.WithRetries(0, time.Millisecond),
	)
	limiter := httpx.NewRateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst)
	t.Cleanup(limiter.Stop)

	ts.handler = newRouter(cfg, zap.NewNop(), svc, limiter, map[string]httpx.Pinger{"kv": kv})

	ts.token = testutil.GenerateTestToken(testutil.TestSecret, testutil.TestUserID, testutil.TestUserEmail)
	return ts
}

func (ts *testServer) do(method, target, body string, authed bool) testutil.RecordResponse {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, bytes.NewBufferString(body))
		r.Header.Set("Content-Type", "application/json")
	}
	if authed {
		r.Header.Set("Authorization", "Bearer "+ts.token)
	}
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, r)
	return testutil.RecordHTTPResponse(w)
}

func TestRouter_Probes(t *testing.T) {
	ts := newTestServer(t)

	res := ts.do(http.MethodGet, "/healthz", "", false)
	assert.Equal(t, http.StatusOK, res.Code)
	assert.NotEmpty(t, res.Header.Get(httpx.RequestIDHeader))

	res = ts.do(http.MethodGet, "/readyz", "", false)
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "ok", res.Data()["kv"])
}

func TestRouter_PublicBooks(t *testing.T) {
	ts := newTestServer(t)

	res := ts.do(http.MethodGet, "/api/books?query=solaris", "", false)
	require.Equal(t, http.StatusOK, res.Code)
	assert.EqualValues(t, 1, res.Data()["total"])

	res = ts.do(http.MethodGet, "/api/books/sol", "", false)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "Солярис", res.Data()["title"])

	res = ts.do(http.MethodGet, "/api/books/missing", "", false)
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Equal(t, "Книга не найдена", res.ErrorMessage())

	res = ts.do(http.MethodDelete, "/api/books/sol", "", false)
	assert.Equal(t, http.StatusMethodNotAllowed, res.Code)
}

func TestRouter_Recommendations(t *testing.T) {
	ts := newTestServer(t)

	res := ts.do(http.MethodPost, "/api/recommendations", `{"text":"Почитайте «Солярис» от Станислава"}`, false)

	require.Equal(t, http.StatusOK, res.Code)
	items, _ := res.Data()["items"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, "https://books.google.com/c.jpg", item["cover_url"])
}

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t)

	for _, target := range []string{
		"/api/chats",
		"/api/bookmarks",
		"/api/onboarding",
		"/api/profile",
		"/api/auth/me",
	} {
		t.Run(target, func(t *testing.T) {
			res := ts.do(http.MethodGet, target, "", false)
			assert.Equal(t, http.StatusUnauthorized, res.Code)
		})
	}
}

func TestRouter_UserScopedStores(t *testing.T) {
	ts := newTestServer(t)

	res := ts.do(http.MethodPost, "/api/chats/init", "", true)
	require.Equal(t, http.StatusOK, res.Code)

	res = ts.do(http.MethodPost, "/api/bookmarks", `{"book_id":"sol","status":"reading"}`, true)
	require.Equal(t, http.StatusCreated, res.Code)

	res = ts.do(http.MethodGet, "/api/bookmarks/sol", "", true)
	require.Equal(t, http.StatusOK, res.Code)

	res = ts.do(http.MethodPut, "/api/onboarding/answers/level", `{"value":"Про"}`, true)
	require.Equal(t, http.StatusOK, res.Code)

	res = ts.do(http.MethodGet, "/api/guard?path=/books", "", true)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "/onboarding", res.Data()["redirect"])
}

func TestRouter_Guard_Anonymous(t *testing.T) {
	ts := newTestServer(t)

	res := ts.do(http.MethodGet, "/api/guard?path=/profile", "", false)

	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "/login?redirect=%2Fprofile", res.Data()["redirect"])
}

func TestRouter_Profile(t *testing.T) {
	ts := newTestServer(t)
	ts.profiles.EXPECT().Get(gomock.Any(), testutil.TestUserID).
		Return(profile.Profile{ID: testutil.TestUserID, Email: testutil.TestUserEmail}, nil)

	res := ts.do(http.MethodGet, "/api/profile", "", true)

	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, testutil.TestUserEmail, res.Data()["email"])
}

func TestRouter_LoginUnknownUser(t *testing.T) {
	ts := newTestServer(t)
	ts.users.EXPECT().GetByEmail(gomock.Any(), "nobody@example.com").Return(user.User{}, user.ErrNotFound)

	res := ts.do(http.MethodPost, "/api/auth/login", `{"email":"nobody@example.com","password":"secret1"}`, false)

	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, "Неверный email или пароль", res.ErrorMessage())
}

func TestRouter_CORSPreflight(t *testing.T) {
	ts := newTestServer(t)
	r := httptest.NewRequest(http.MethodOptions, "/api/profile", nil)
	r.Header.Set("Origin", "http://localhost:3000")
	r.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	w := httptest.NewRecorder()

	ts.handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.True(t, strings.Contains(w.Header().Get("Access-Control-Allow-Methods"), "PATCH"))
}
