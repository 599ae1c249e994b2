package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v53/github"
	"golang.org/x/oauth2"

	"github.com/hoodini/yuv-ai-trends/internal/model"
	"github.com/hoodini/yuv-ai-trends/internal/retry"
)

// DefaultTopics are searched when none are configured.
var DefaultTopics = []string{"machine-learning", "deep-learning", "llm", "generative-ai", "transformers"}

// GitHubSearch finds recently created repositories per topic through the
// GitHub search API. Results are reported as trending repositories so they
// share the repository scoring.
type GitHubSearch struct {
	client  *github.Client
	topics  []string
	perPage int
	now     func() time.Time
}

// NewGitHubSearch builds an authenticated client when token is set.
func NewGitHubSearch(token string, topics []string, perPage int) *GitHubSearch {
	var hc *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		hc = oauth2.NewClient(context.Background(), ts)
	}
	if len(topics) == 0 {
		topics = DefaultTopics
	}
	if perPage <= 0 {
		perPage = 10
	}
	return &GitHubSearch{client: github.NewClient(hc), topics: topics, perPage: perPage, now: time.Now}
}

// WithBaseURL points the client at another API root, e.g. GitHub Enterprise.
func (g *GitHubSearch) WithBaseURL(raw string) (*GitHubSearch, error) {
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("github search: base url: %w", err)
	}
	g.client.BaseURL = u
	return g, nil
}

func (g *GitHubSearch) Name() string { return "github_search" }

func (g *GitHubSearch) Fetch(ctx context.Context, digest model.DigestType) ([]model.ContentItem, error) {
	since := g.now().AddDate(0, 0, -digest.Days()).Format("2006-01-02")
	opts := &github.SearchOptions{
		Sort:        "stars",
		Order:       "desc",
		ListOptions: github.ListOptions{PerPage: g.perPage},
	}

	seen := map[string]bool{}
	var items []model.ContentItem
	var errs []error
	for _, topic := range g.topics {
		query := fmt.Sprintf("topic:%s created:>%s", topic, since)
		var res *github.RepositoriesSearchResult
		err := retry.Do(ctx, func(ctx context.Context) error {
			var apiErr error
			res, _, apiErr = g.client.Search.Repositories(ctx, query, opts)
			return classify(apiErr)
		}, retry.Attempts(3), retry.Backoff(time.Second, 10*time.Second))
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Warn("fetch: github search failed", "topic", topic, "err", err)
			errs = append(errs, fmt.Errorf("topic %s: %w", topic, err))
			continue
		}
		for _, r := range res.Repositories {
			it := repoItem(r, g.now())
			if it.URL == "" || seen[it.URL] {
				continue
			}
			seen[it.URL] = true
			items = append(items, it)
		}
	}
	if len(errs) == len(g.topics) {
		return nil, errors.Join(errs...)
	}
	return items, nil
}

// classify stops retrying on client errors other than rate limiting.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var rle *github.RateLimitError
	if errors.As(err, &rle) {
		return retry.Permanent(err)
	}
	var er *github.ErrorResponse
	if errors.As(err, &er) && er.Response != nil {
		code := er.Response.StatusCode
		if code >= 400 && code < 500 && code != http.StatusTooManyRequests {
			return retry.Permanent(err)
		}
	}
	return err
}

func repoItem(r *github.Repository, now time.Time) model.ContentItem {
	var created string
	if ts := r.GetCreatedAt(); !ts.IsZero() {
		created = ts.Format("2006-01-02")
	}
	return model.ContentItem{
		Source:        model.SourceGitHubTrending,
		Name:          r.GetFullName(),
		URL:           r.GetHTMLURL(),
		Description:   r.GetDescription(),
		Stars:         r.GetStargazersCount(),
		Forks:         r.GetForksCount(),
		Language:      r.GetLanguage(),
		Topics:        r.Topics,
		PublishedDate: created,
		FetchedAt:     now.UTC(),
	}
}
