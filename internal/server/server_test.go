package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoodini/yuv-ai-trends/internal/ai"
	"github.com/hoodini/yuv-ai-trends/internal/feed"
	"github.com/hoodini/yuv-ai-trends/internal/fetcher"
	"github.com/hoodini/yuv-ai-trends/internal/model"
	"github.com/hoodini/yuv-ai-trends/internal/pipeline"
	"github.com/hoodini/yuv-ai-trends/internal/store"
)

func init() { gin.SetMode(gin.TestMode) }

type stubFetcher struct {
	items []model.ContentItem
	err   error
	calls atomic.Int32
}

func (s *stubFetcher) Name() string { return "stub" }

func (s *stubFetcher) Fetch(context.Context, model.DigestType) ([]model.ContentItem, error) {
	s.calls.Add(1)
	return s.items, s.err
}

func newTestServer(t *testing.T, f *stubFetcher, opts ...Option) (*Server, *gin.Engine) {
	t.Helper()
	st := store.New(context.Background(), &store.MemoryPersister{})
	p := pipeline.New(st, []fetcher.Fetcher{f}, pipeline.WithEnricher(ai.NewEnricher(nil)))
	s := New(p, feed.NewBuilder(feed.Channel{Link: "https://trends.example.com"}), opts...)
	return s, s.Engine()
}

func sampleFetcher() *stubFetcher {
	return &stubFetcher{items: []model.ContentItem{
		{Source: model.SourceGitHubTrending, Name: "acme/agent", URL: "https://github.com/acme/agent", Description: "agent framework", Stars: 1200, Language: "Go"},
		{Source: model.SourceHuggingFacePapers, Name: "Scaling Laws", URL: "https://huggingface.co/papers/2401.00001", Upvotes: 40},
	}}
}

func do(r http.Handler, method, target string, body []byte, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	_, r := newTestServer(t, sampleFetcher())
	w := do(r, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","items":0}`, w.Body.String())
}

func TestRSSRefreshesEmptyStore(t *testing.T) {
	f := sampleFetcher()
	_, r := newTestServer(t, f)

	w := do(r, http.MethodGet, "/rss/daily", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/rss+xml; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "public, max-age=3600", w.Header().Get("Cache-Control"))
	assert.Contains(t, w.Body.String(), "<rss")
	assert.Contains(t, w.Body.String(), "acme/agent")
	assert.EqualValues(t, 1, f.calls.Load())

	// fresh store is served without another fetch
	w = do(r, http.MethodGet, "/rss/daily", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, f.calls.Load())

	w = do(r, http.MethodGet, "/rss/daily?force=true", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, f.calls.Load())
}

func TestRSSWeeklyCacheHeader(t *testing.T) {
	_, r := newTestServer(t, sampleFetcher())
	w := do(r, http.MethodGet, "/rss/weekly", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "public, max-age=21600", w.Header().Get("Cache-Control"))
}

func TestRSSUnknownDigest(t *testing.T) {
	f := sampleFetcher()
	_, r := newTestServer(t, f)
	w := do(r, http.MethodGet, "/rss/hourly", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, f.calls.Load())
}

func TestRSSServesStoredItemsWhenRefreshFails(t *testing.T) {
	f := &stubFetcher{err: errors.New("upstream down")}
	_, r := newTestServer(t, f)
	w := do(r, http.MethodGet, "/rss/monthly", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<channel>")
	assert.NotContains(t, w.Body.String(), "<item>")
}

func TestFeedJSONLimit(t *testing.T) {
	_, r := newTestServer(t, sampleFetcher())
	w := do(r, http.MethodGet, "/api/feed/daily?limit=1", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var doc feed.Document
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Len(t, doc.Items, 1)
	assert.Equal(t, 1, doc.Meta.Total)
	assert.Equal(t, model.DigestDaily, doc.Meta.DigestType)
	assert.Equal(t, "acme/agent", doc.Items[0].Title)

	w = do(r, http.MethodGet, "/api/feed/daily", nil, nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	require.Len(t, doc.Items, 2)
	assert.Equal(t, feed.DescriptionPlaceholder, doc.Items[1].Description)
}

func TestGenerate(t *testing.T) {
	_, r := newTestServer(t, sampleFetcher())
	body := []byte(`{"time_range":"weekly","limit":5,"disable_ai":true}`)
	w := do(r, http.MethodPost, "/api/generate", body, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var rep pipeline.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rep))
	assert.Equal(t, model.DigestWeekly, rep.DigestType)
	assert.Len(t, rep.Items, 2)
	assert.Equal(t, 2, rep.Stats.New)
	for _, it := range rep.Items {
		assert.Empty(t, it.AISummary)
	}
}

func TestGenerateDefaultsWithoutBody(t *testing.T) {
	_, r := newTestServer(t, sampleFetcher())
	w := do(r, http.MethodPost, "/api/generate", nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"digest_type":"daily"`)
}

func TestGenerateRejectsBadInput(t *testing.T) {
	_, r := newTestServer(t, sampleFetcher())
	for name, body := range map[string]string{
		"range": `{"time_range":"yearly"}`,
		"json":  `{"time_range":`,
	} {
		t.Run(name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/api/generate", []byte(body), nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestNewItems(t *testing.T) {
	s, r := newTestServer(t, sampleFetcher())
	_, err := s.pipeline.Run(context.Background(), model.DigestDaily, pipeline.Options{DisableAI: true})
	require.NoError(t, err)

	w := do(r, http.MethodGet, "/api/rss/new?since=2000-01-01T00:00:00Z&digest=daily", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var out struct {
		Items []model.StoredItem `json:"items"`
		Count int                `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, 2, out.Count)
	assert.Len(t, out.Items, 2)

	w = do(r, http.MethodGet, "/api/rss/new?since=2000-01-01T00:00:00Z&digest=weekly", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":0`)

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/api/rss/new", nil, nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/api/rss/new?since=yesterday", nil, nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/api/rss/new?since=2000-01-01T00:00:00Z&digest=x", nil, nil).Code)
}

func TestStatsAndClear(t *testing.T) {
	s, r := newTestServer(t, sampleFetcher(), WithAdminToken("s3cret"))
	_, err := s.pipeline.Run(context.Background(), model.DigestDaily, pipeline.Options{DisableAI: true})
	require.NoError(t, err)

	w := do(r, http.MethodGet, "/api/rss/stats", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats store.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.BySource[string(model.SourceGitHubTrending)])

	w = do(r, http.MethodPost, "/api/rss/clear", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = do(r, http.MethodPost, "/api/rss/clear", nil, map[string]string{adminHeader: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 2, s.store.Len())

	w = do(r, http.MethodPost, "/api/rss/clear", nil, map[string]string{adminHeader: "s3cret"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"cleared","removed":2}`, w.Body.String())
	assert.Zero(t, s.store.Len())
}

func TestClearOpenWithoutToken(t *testing.T) {
	_, r := newTestServer(t, sampleFetcher())
	w := do(r, http.MethodPost, "/api/rss/clear", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"cleared","removed":0}`, w.Body.String())
}
