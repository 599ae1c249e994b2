package fetcher

import (
	"context"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/hoodini/yuv-ai-trends/internal/model"
)

const exploreLimit = 10

// GitHubExplore scrapes the featured collections of github.com/explore.
type GitHubExplore struct {
	URL  string
	HTTP HTTPOptions
	now  func() time.Time
}

func NewGitHubExplore(pageURL string, o HTTPOptions) *GitHubExplore {
	if pageURL == "" {
		pageURL = githubURL + "/explore"
	}
	return &GitHubExplore{URL: pageURL, HTTP: o, now: time.Now}
}

func (g *GitHubExplore) Name() string { return string(model.SourceGitHubExplore) }

// Fetch ignores the digest type; explore has no time window.
func (g *GitHubExplore) Fetch(ctx context.Context, _ model.DigestType) ([]model.ContentItem, error) {
	c := newCollector(ctx, g.HTTP)
	var items []model.ContentItem
	c.OnHTML("article.col-md-6", func(e *colly.HTMLElement) {
		if len(items) >= exploreLimit {
			return
		}
		link := e.DOM.Find("h3 a").First()
		href, ok := link.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		items = append(items, model.ContentItem{
			Source:      model.SourceGitHubExplore,
			Name:        squash(link.Text()),
			URL:         absolute(githubURL, href),
			Description: squash(e.ChildText("p")),
			FetchedAt:   g.now().UTC(),
		})
	})
	if err := visit(ctx, c, g.URL); err != nil {
		return nil, err
	}
	return items, nil
}
