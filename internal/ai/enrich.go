package ai

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hoodini/yuv-ai-trends/internal/model"
	"github.com/hoodini/yuv-ai-trends/internal/store"
)

const DefaultWorkers = 3

// Cache stores encoded summaries by item guid.
type Cache interface {
	GetSummary(ctx context.Context, guid string) (string, bool, error)
	SetSummary(ctx context.Context, guid, summary string) error
}

// Enricher attaches summaries to ranked items with a bounded worker pool.
type Enricher struct {
	summarizer Summarizer
	cache      Cache
	workers    int
	batchDelay time.Duration
	namespace  string
	log        *slog.Logger
}

type EnricherOption func(*Enricher)

func WithCache(c Cache) EnricherOption { return func(e *Enricher) { e.cache = c } }

func WithWorkers(n int) EnricherOption {
	return func(e *Enricher) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithBatchDelay pauses between groups of workers-many calls, for providers
// with strict rate limits.
func WithBatchDelay(d time.Duration) EnricherOption { return func(e *Enricher) { e.batchDelay = d } }

func WithNamespace(ns string) EnricherOption { return func(e *Enricher) { e.namespace = ns } }

func WithLogger(l *slog.Logger) EnricherOption {
	return func(e *Enricher) {
		if l != nil {
			e.log = l
		}
	}
}

// NewEnricher returns an enricher. A nil summarizer produces local summaries
// only.
func NewEnricher(s Summarizer, opts ...EnricherOption) *Enricher {
	e := &Enricher{summarizer: s, workers: DefaultWorkers, namespace: store.DefaultNamespace, log: slog.Default()}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Enrich returns a copy of items with ai_summary and ai_trending_reason set.
// Order is preserved. A failing item gets a local summary and never aborts
// the batch.
func (e *Enricher) Enrich(ctx context.Context, items []model.RankedItem) []model.RankedItem {
	out := make([]model.RankedItem, len(items))
	copy(out, items)

	var g errgroup.Group
	g.SetLimit(e.workers)
	fallbacks := make([]bool, len(out))
	for i := range out {
		if i > 0 && e.batchDelay > 0 && i%e.workers == 0 {
			if !sleep(ctx, e.batchDelay) {
				// remaining items still get a summary, just without the network
				for j := i; j < len(out); j++ {
					apply(&out[j], LocalSummary(out[j].ContentItem))
					fallbacks[j] = true
				}
				break
			}
		}
		g.Go(func() error {
			s, fromAI := e.summarize(ctx, out[i].ContentItem)
			apply(&out[i], s)
			fallbacks[i] = !fromAI
			return nil
		})
	}
	_ = g.Wait()

	n := 0
	for _, f := range fallbacks {
		if f {
			n++
		}
	}
	e.log.Info("enrich: done", "items", len(out), "fallbacks", n, "workers", e.workers)
	return out
}

func apply(it *model.RankedItem, s Summary) {
	it.AISummary = s.Text()
	it.AITrendingReason = s.TrendingReason
	if it.AITrendingReason == "" {
		it.AITrendingReason = defaultTrending
	}
}

// summarize reports whether the summary came from the model or the cache.
func (e *Enricher) summarize(ctx context.Context, it model.ContentItem) (Summary, bool) {
	if e.summarizer == nil {
		return LocalSummary(it), false
	}
	guid := store.ComputeGUID(it, e.namespace)
	if s, ok := e.cached(ctx, guid); ok {
		return s, true
	}
	s, err := e.summarizer.Summarize(ctx, it)
	if err != nil {
		e.log.Warn("enrich: summarizer failed, using local summary", "item", it.Name, "err", err)
		return LocalSummary(it), false
	}
	if e.cache != nil {
		if b, err := json.Marshal(s); err == nil {
			if err := e.cache.SetSummary(ctx, guid, string(b)); err != nil {
				e.log.Warn("enrich: cache write failed", "guid", guid, "err", err)
			}
		}
	}
	return s, true
}

func (e *Enricher) cached(ctx context.Context, guid string) (Summary, bool) {
	if e.cache == nil {
		return Summary{}, false
	}
	raw, ok, err := e.cache.GetSummary(ctx, guid)
	if err != nil {
		e.log.Warn("enrich: cache read failed", "guid", guid, "err", err)
		return Summary{}, false
	}
	if !ok {
		return Summary{}, false
	}
	var s Summary
	if err := json.Unmarshal([]byte(raw), &s); err != nil || s.Empty() {
		return Summary{}, false
	}
	return s, true
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
