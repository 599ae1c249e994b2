// Package pipeline runs one fetch, rank, enrich and ingest cycle.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/hoodini/yuv-ai-trends/internal/ai"
	"github.com/hoodini/yuv-ai-trends/internal/feed"
	"github.com/hoodini/yuv-ai-trends/internal/fetcher"
	"github.com/hoodini/yuv-ai-trends/internal/model"
	"github.com/hoodini/yuv-ai-trends/internal/ranking"
	"github.com/hoodini/yuv-ai-trends/internal/store"
)

const DefaultLimit = 50

// DefaultRefreshTimeout bounds a shared refresh run.
const DefaultRefreshTimeout = 5 * time.Minute

// Options tune a single run.
// Days overrides the digest window used for date filtering and scoring.
type Options struct {
	Limit     int
	Days      int
	DisableAI bool
}

// Stats summarizes a run.
type Stats struct {
	Total   int                  `json:"total"`
	Sources map[model.Source]int `json:"sources"`
	Fetched map[string]int       `json:"fetched"`
	New     int                  `json:"new"`
}

// Report is what a run produced.
type Report struct {
	DigestType model.DigestType     `json:"digest_type"`
	Items      []model.RankedItem   `json:"items"`
	Grouped    ranking.SourceGroups `json:"grouped_items"`
	NewItems   []model.StoredItem   `json:"new_items"`
	Stats      Stats                `json:"stats"`
	StartedAt  time.Time            `json:"started_at"`
	Took       time.Duration        `json:"took_ns"`
}

// Pipeline wires the fetchers, ranker, enricher and store.
type Pipeline struct {
	fetchers []fetcher.Fetcher
	ranker   *ranking.Ranker
	enricher *ai.Enricher
	store    *store.Store
	limit    int
	log      *slog.Logger
	now      func() time.Time

	refresh        singleflight.Group
	refreshTimeout time.Duration
}

type Option func(*Pipeline)

// WithEnricher enables summaries. Without it runs store items unsummarized.
func WithEnricher(e *ai.Enricher) Option { return func(p *Pipeline) { p.enricher = e } }

func WithRanker(r *ranking.Ranker) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.ranker = r
		}
	}
}

func WithLimit(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.limit = n
		}
	}
}

// WithRefreshTimeout bounds a shared refresh independently of the callers
// waiting on it.
func WithRefreshTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.refreshTimeout = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

func New(st *store.Store, fetchers []fetcher.Fetcher, opts ...Option) *Pipeline {
	p := &Pipeline{
		fetchers: fetchers,
		ranker:   ranking.NewRanker(nil),
		store:    st,
		limit:    DefaultLimit,
		log:      slog.Default(),
		now:      time.Now,

		refreshTimeout: DefaultRefreshTimeout,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Store exposes the item store the pipeline ingests into.
func (p *Pipeline) Store() *store.Store { return p.store }

// Run fetches every source, ranks the results, keeps the top items, enriches
// them when enabled and ingests them into the store. Failed sources count
// as empty; only a cancelled context is an error.
func (p *Pipeline) Run(ctx context.Context, digest model.DigestType, opts Options) (*Report, error) {
	start := p.now()
	limit := opts.Limit
	if limit <= 0 {
		limit = p.limit
	}
	days := digest.Days()
	if opts.Days > 0 {
		days = opts.Days
	}

	results := fetcher.FetchAll(ctx, digest, p.fetchers...)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	items := fetcher.Collect(results, p.log)
	items = ranking.FilterByDateRange(items, days, start)

	rep := &Report{
		DigestType: digest,
		Items:      []model.RankedItem{},
		Grouped:    ranking.GroupBySource(nil),
		NewItems:   []model.StoredItem{},
		Stats:      Stats{Sources: map[model.Source]int{}, Fetched: fetcher.Counts(results)},
		StartedAt:  start,
	}
	if len(items) == 0 {
		p.log.Warn("pipeline: no items fetched", "digest", digest)
		rep.Took = time.Since(start)
		return rep, nil
	}

	top := ranking.Top(p.ranker.Rank(items, days), limit)
	if p.enricher != nil && !opts.DisableAI {
		top = p.enricher.Enrich(ctx, top)
	}
	groups := ranking.GroupBySource(top)
	flat := groups.Flatten()

	rep.Items = flat
	rep.Grouped = groups
	rep.NewItems = p.store.Add(ctx, flat, digest)
	rep.Stats.Total = len(flat)
	rep.Stats.Sources = groups.Counts()
	rep.Stats.New = len(rep.NewItems)
	rep.Took = time.Since(start)

	p.log.Info("pipeline: run complete",
		"digest", digest, "fetched", len(items), "kept", len(flat), "new", len(rep.NewItems), "took", rep.Took)
	return rep, nil
}

// Refresh runs the pipeline for digest with default options. Concurrent
// callers for the same digest share one run and its report. The run is
// detached from the caller that started it and is bounded by the refresh
// timeout instead, so a caller that gives up only stops its own wait.
func (p *Pipeline) Refresh(ctx context.Context, digest model.DigestType) (*Report, error) {
	runCtx := context.WithoutCancel(ctx)
	ch := p.refresh.DoChan(string(digest), func() (any, error) {
		ctx, cancel := context.WithTimeout(runCtx, p.refreshTimeout)
		defer cancel()
		return p.Run(ctx, digest, Options{})
	})
	select {
	case <-ctx.Done():
		p.log.Debug("pipeline: stopped waiting for refresh", "digest", digest, "err", ctx.Err())
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			p.log.Debug("pipeline: joined in-flight refresh", "digest", digest)
		}
		return res.Val.(*Report), nil
	}
}

// EnsureFresh refreshes digest when the store has nothing for it, its newest
// item is stale, or force is set. It reports whether a refresh happened.
func (p *Pipeline) EnsureFresh(ctx context.Context, digest model.DigestType, force bool) (bool, error) {
	latest, ok := p.store.Latest(digest)
	if !feed.NeedsRefresh(digest, latest, ok, force, p.now()) {
		return false, nil
	}
	if _, err := p.Refresh(ctx, digest); err != nil {
		return false, err
	}
	return true, nil
}
