package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoodini/yuv-ai-trends/internal/model"
)

const trendingPage = `<!DOCTYPE html><html><body>
<article class="Box-row">
  <h2 class="h3 lh-condensed"><a href="/openai/whisper"> openai / whisper </a></h2>
  <p class="col-9 color-fg-muted my-1 pr-4">
    Robust speech   recognition
  </p>
  <div>
    <span itemprop="programmingLanguage">Python</span>
    <a href="/openai/whisper/stargazers"> 12.3k</a>
    <a href="/openai/whisper/forks"> 1,204</a>
    <a class="topic-tag">speech</a><a class="topic-tag">asr</a>
    <span class="d-inline-block float-sm-right">1,021 stars today</span>
  </div>
</article>
<article class="Box-row">
  <h2 class="h3"><a href="/acme/tool">acme / tool</a></h2>
  <a href="/acme/tool/stargazers">87</a>
</article>
<article class="Box-row"><h2>no link</h2></article>
</body></html>`

const pythonPage = `<!DOCTYPE html><html><body>
<article class="Box-row">
  <h2><a href="/openai/whisper">openai / whisper</a></h2>
  <a href="/openai/whisper/stargazers">12,300</a>
</article>
<article class="Box-row">
  <h2><a href="/py/only">py / only</a></h2>
  <span itemprop="programmingLanguage">Python</span>
</article>
</body></html>`

func htmlHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, body)
	}
}

func TestGitHubTrending(t *testing.T) {
	var since atomic.Value
	mux := http.NewServeMux()
	mux.HandleFunc("/trending", func(w http.ResponseWriter, r *http.Request) {
		since.Store(r.URL.Query().Get("since"))
		htmlHandler(trendingPage)(w, r)
	})
	mux.HandleFunc("/trending/python", htmlHandler(pythonPage))
	mux.HandleFunc("/trending/typescript", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := NewGitHubTrending(srv.URL+"/trending", []string{"python", "typescript"}, HTTPOptions{Timeout: time.Second})
	items, err := f.Fetch(context.Background(), model.DigestWeekly)
	require.NoError(t, err)
	assert.Equal(t, "weekly", since.Load())

	require.Len(t, items, 3)
	w := items[0]
	assert.Equal(t, model.SourceGitHubTrending, w.Source)
	assert.Equal(t, "openai/whisper", w.Name)
	assert.Equal(t, "https://github.com/openai/whisper", w.URL)
	assert.Equal(t, "Robust speech recognition", w.Description)
	assert.Equal(t, 12300, w.Stars)
	assert.Equal(t, 1204, w.Forks)
	assert.Equal(t, 1021, w.StarsToday)
	assert.Equal(t, "Python", w.Language)
	assert.Equal(t, []string{"speech", "asr"}, w.Topics)
	assert.False(t, w.FetchedAt.IsZero())

	assert.Equal(t, "acme/tool", items[1].Name)
	assert.Equal(t, 87, items[1].Stars)
	assert.Equal(t, "Unknown", items[1].Language)
	assert.Equal(t, "py/only", items[2].Name)
}

func TestGitHubTrendingAllPagesFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewGitHubTrending(srv.URL, nil, HTTPOptions{}).Fetch(context.Background(), model.DigestDaily)
	assert.Error(t, err)
}

func TestGitHubExplore(t *testing.T) {
	page := `<html><body>`
	for i := 0; i < 12; i++ {
		page += fmt.Sprintf(`<article class="col-md-6"><h3><a href="/collections/c%d">Collection %d</a></h3><p>About %d</p></article>`, i, i, i)
	}
	page += `</body></html>`
	srv := httptest.NewServer(htmlHandler(page))
	defer srv.Close()

	items, err := NewGitHubExplore(srv.URL+"/explore", HTTPOptions{}).Fetch(context.Background(), model.DigestDaily)
	require.NoError(t, err)
	require.Len(t, items, exploreLimit)
	assert.Equal(t, "Collection 0", items[0].Name)
	assert.Equal(t, "https://github.com/collections/c0", items[0].URL)
	assert.Equal(t, "About 0", items[0].Description)
	assert.Equal(t, model.SourceGitHubExplore, items[0].Source)
}

func TestHFPapers(t *testing.T) {
	page := `<html><body>
<article>
  <h3><a href="/papers/2311.12345">Scaling Things</a></h3>
  <p class="text-sm">Ada, Grace</p>
  <div class="leading-none">42</div>
</article>
<article>
  <h3><a href="https://example.org/paper">External</a></h3>
  <time datetime="2026-02-03"></time>
</article>
<article><p>no heading</p></article>
<article><h3><a href="/papers/2401.00001">Over limit</a></h3></article>
</body></html>`
	srv := httptest.NewServer(htmlHandler(page))
	defer srv.Close()

	items, err := NewHFPapers(srv.URL+"/papers", 3, HTTPOptions{}).Fetch(context.Background(), model.DigestDaily)
	require.NoError(t, err)
	require.Len(t, items, 2)

	p := items[0]
	assert.Equal(t, "Scaling Things", p.Name)
	assert.Equal(t, "https://huggingface.co/papers/2311.12345", p.URL)
	assert.Equal(t, "Ada, Grace", p.Description)
	assert.Equal(t, 42, p.Upvotes)
	assert.Equal(t, "2311.12345", p.ArxivID)
	assert.Equal(t, "2023-11", p.PublishedDate)

	assert.Equal(t, "https://example.org/paper", items[1].URL)
	assert.Empty(t, items[1].ArxivID)
	assert.Equal(t, "2026-02-03", items[1].PublishedDate)
}

func TestHFSpaces(t *testing.T) {
	var query atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query.Store(r.URL.RawQuery)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[
  {"id":"acme/chat","likes":900,"sdk":"gradio","createdAt":"2025-07-01T10:00:00.000Z","cardData":{"short_description":"Chat with docs"}},
  {"id":"bob/demo","likes":12,"sdk":"streamlit"},
  {"id":"","likes":1}
]`)
	}))
	defer srv.Close()

	items, err := NewHFSpaces(srv.URL+"/api/spaces", 5, HTTPOptions{}).Fetch(context.Background(), model.DigestMonthly)
	require.NoError(t, err)
	assert.Contains(t, query.Load(), "sort=likes")
	assert.Contains(t, query.Load(), "limit=5")

	require.Len(t, items, 2)
	assert.Equal(t, "https://huggingface.co/spaces/acme/chat", items[0].URL)
	assert.Equal(t, "Chat with docs", items[0].Description)
	assert.Equal(t, 900, items[0].Likes)
	assert.Equal(t, "2025-07-01", items[0].PublishedDate)
	assert.Equal(t, "Interactive AI demo (streamlit) by bob", items[1].Description)
}

func TestHFSpacesBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error":`)
	}))
	defer srv.Close()
	_, err := NewHFSpaces(srv.URL, 0, HTTPOptions{}).Fetch(context.Background(), model.DigestDaily)
	assert.Error(t, err)
}

func TestCancelledContext(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		htmlHandler("<html></html>")(w, r)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewGitHubExplore(srv.URL, HTTPOptions{}).Fetch(ctx, model.DigestDaily)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), hits.Load())
}

func TestParseHelpers(t *testing.T) {
	assert.Equal(t, 12300, parseCount("12.3k"))
	assert.Equal(t, 1204, parseCount(" 1,204 "))
	assert.Equal(t, 2000000, parseCount("2M"))
	assert.Equal(t, 0, parseCount("n/a"))
	assert.Equal(t, 1021, leadingInt("1,021 stars today"))
	assert.Equal(t, 0, leadingInt("none"))

	id, date := arxivDate("https://arxiv.org/abs/2405.01234")
	assert.Equal(t, "2405.01234", id)
	assert.Equal(t, "2024-05", date)
	id, _ = arxivDate("https://example.com/1.2")
	assert.Empty(t, id)
}

type stubFetcher struct {
	name  string
	items []model.ContentItem
	err   error
}

func (s stubFetcher) Name() string { return s.name }
func (s stubFetcher) Fetch(context.Context, model.DigestType) ([]model.ContentItem, error) {
	return s.items, s.err
}

func TestFetchAllAndCollect(t *testing.T) {
	a := stubFetcher{name: "a", items: []model.ContentItem{{Name: "x", URL: "u1"}, {Name: "y", URL: "u2"}}}
	b := stubFetcher{name: "b", err: errors.New("down")}
	c := stubFetcher{name: "c", items: []model.ContentItem{{Name: "dup", URL: "u1"}, {Name: "no-url"}, {Name: "no-url-2"}}}

	results := FetchAll(context.Background(), model.DigestDaily, a, b, c)
	require.Len(t, results, 3)
	assert.Equal(t, "a", results[0].Source)
	var fe *FetchError
	require.ErrorAs(t, results[1].Err, &fe)
	assert.Equal(t, "b", fe.Source)
	assert.Contains(t, fe.Error(), "down")

	items := Collect(results, nil)
	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.Name
	}
	assert.Equal(t, []string{"x", "y", "no-url", "no-url-2"}, names)
	assert.Equal(t, map[string]int{"a": 2, "b": -1, "c": 3}, Counts(results))
}
