// Package fetcher pulls raw items from the upstream trend sources.
package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hoodini/yuv-ai-trends/internal/model"

	"golang.org/x/sync/errgroup"
)

// Fetcher produces items from one upstream source.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, digest model.DigestType) ([]model.ContentItem, error)
}

// FetchError records a failed fetch for one source.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Result is the outcome of one fetcher run. Err is a *FetchError when set.
type Result struct {
	Source string
	Items  []model.ContentItem
	Err    error
	Took   time.Duration
}

// FetchAll runs every fetcher concurrently. A failing fetcher never cancels
// the others. Results keep the order of fetchers.
func FetchAll(ctx context.Context, digest model.DigestType, fetchers ...Fetcher) []Result {
	results := make([]Result, len(fetchers))
	var g errgroup.Group
	for i, f := range fetchers {
		g.Go(func() error {
			start := time.Now()
			items, err := f.Fetch(ctx, digest)
			r := Result{Source: f.Name(), Items: items, Took: time.Since(start)}
			if err != nil {
				r.Err = &FetchError{Source: f.Name(), Err: err}
			}
			results[i] = r
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Collect treats failed results as empty, logs them, and concatenates the
// rest. Items sharing a URL are kept once, first occurrence wins.
func Collect(results []Result, log *slog.Logger) []model.ContentItem {
	if log == nil {
		log = slog.Default()
	}
	seen := map[string]bool{}
	out := make([]model.ContentItem, 0)
	for _, r := range results {
		if r.Err != nil {
			log.Warn("fetch: source failed, treating as empty", "source", r.Source, "err", r.Err, "took", r.Took)
			continue
		}
		log.Info("fetch: source done", "source", r.Source, "items", len(r.Items), "took", r.Took)
		for _, it := range r.Items {
			if it.URL != "" {
				if seen[it.URL] {
					continue
				}
				seen[it.URL] = true
			}
			out = append(out, it)
		}
	}
	return out
}

// Counts maps each source name to its item count, -1 for failures.
func Counts(results []Result) map[string]int {
	m := make(map[string]int, len(results))
	for _, r := range results {
		if r.Err != nil {
			m[r.Source] = -1
			continue
		}
		m[r.Source] = len(r.Items)
	}
	return m
}
