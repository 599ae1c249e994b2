package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/hoodini/yuv-ai-trends/internal/model"
)

// DefaultLanguages are scraped in addition to the overall trending page.
var DefaultLanguages = []string{"python", "jupyter-notebook", "typescript"}

// GitHubTrending scrapes github.com/trending for the overall page and each
// configured language.
type GitHubTrending struct {
	BaseURL   string
	Languages []string
	HTTP      HTTPOptions
	now       func() time.Time
}

func NewGitHubTrending(baseURL string, languages []string, o HTTPOptions) *GitHubTrending {
	if baseURL == "" {
		baseURL = githubURL + "/trending"
	}
	return &GitHubTrending{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		Languages: languages,
		HTTP:      o,
		now:       time.Now,
	}
}

func (g *GitHubTrending) Name() string { return string(model.SourceGitHubTrending) }

func (g *GitHubTrending) pages(digest model.DigestType) []string {
	q := "?since=" + url.QueryEscape(string(digest))
	out := []string{g.BaseURL + q}
	for _, lang := range g.Languages {
		out = append(out, g.BaseURL+"/"+url.PathEscape(lang)+q)
	}
	return out
}

// Fetch returns repositories deduplicated by URL. Failing pages are skipped;
// an error is returned only when no page could be read.
func (g *GitHubTrending) Fetch(ctx context.Context, digest model.DigestType) ([]model.ContentItem, error) {
	c := newCollector(ctx, g.HTTP)
	seen := map[string]bool{}
	var items []model.ContentItem

	c.OnHTML("article.Box-row", func(e *colly.HTMLElement) {
		it, ok := g.parseRepo(e)
		if !ok || seen[it.URL] {
			return
		}
		seen[it.URL] = true
		items = append(items, it)
	})

	pages := g.pages(digest)
	var errs []error
	for _, page := range pages {
		if err := visit(ctx, c, page); err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			slog.Warn("fetch: github trending page failed", "url", page, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", page, err))
		}
	}
	if len(errs) == len(pages) {
		return nil, errors.Join(errs...)
	}
	return items, nil
}

func (g *GitHubTrending) parseRepo(e *colly.HTMLElement) (model.ContentItem, bool) {
	link := e.DOM.Find("h2 a").First()
	href, ok := link.Attr("href")
	href = strings.TrimSpace(href)
	if !ok || href == "" {
		return model.ContentItem{}, false
	}
	lang := squash(e.ChildText(`span[itemprop="programmingLanguage"]`))
	if lang == "" {
		lang = "Unknown"
	}
	var topics []string
	e.ForEach("a.topic-tag", func(_ int, t *colly.HTMLElement) {
		if s := squash(t.Text); s != "" {
			topics = append(topics, s)
		}
	})
	return model.ContentItem{
		Source:      model.SourceGitHubTrending,
		Name:        strings.Trim(href, "/"),
		URL:         absolute(githubURL, href),
		Description: squash(e.ChildText("p")),
		Stars:       parseCount(e.ChildText(`a[href$="/stargazers"]`)),
		Forks:       parseCount(e.ChildText(`a[href$="/forks"]`)),
		StarsToday:  leadingInt(e.ChildText("span.float-sm-right")),
		Language:    lang,
		Topics:      topics,
		FetchedAt:   g.now().UTC(),
	}, true
}
