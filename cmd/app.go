package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hoodini/yuv-ai-trends/internal/ai"
	"github.com/hoodini/yuv-ai-trends/internal/config"
	"github.com/hoodini/yuv-ai-trends/internal/feed"
	"github.com/hoodini/yuv-ai-trends/internal/fetcher"
	"github.com/hoodini/yuv-ai-trends/internal/pipeline"
	"github.com/hoodini/yuv-ai-trends/internal/ranking"
	"github.com/hoodini/yuv-ai-trends/internal/redisclient"
	"github.com/hoodini/yuv-ai-trends/internal/storage"
	"github.com/hoodini/yuv-ai-trends/internal/store"
)

// app holds the components shared by the commands.
type app struct {
	cfg      config.Config
	store    *store.Store
	pipeline *pipeline.Pipeline
	feeds    *feed.Builder

	rdb     *redis.Client
	closers []func() error
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	a := &app{cfg: cfg}

	p, err := a.persister()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.store = store.New(ctx, p,
		store.WithNamespace(cfg.Store.Namespace),
		store.WithMaxAgeDays(cfg.Store.MaxAgeDays),
		store.WithIOTimeout(config.Duration(cfg.Store.IOTimeout, 10*time.Second)),
	)

	fetchers, err := buildFetchers(cfg.Sources)
	if err != nil {
		a.Close()
		return nil, err
	}
	ranker := ranking.NewRanker(ranking.NewScorer(ranking.Weights{
		Stars:    cfg.Scoring.Stars,
		Velocity: cfg.Scoring.Velocity,
		Recency:  cfg.Scoring.Recency,
	}))
	a.pipeline = pipeline.New(a.store, fetchers,
		pipeline.WithRanker(ranker),
		pipeline.WithEnricher(a.enricher()),
		pipeline.WithLimit(cfg.Digest.Limit),
		pipeline.WithRefreshTimeout(config.Duration(cfg.Sources.RefreshTimeout, pipeline.DefaultRefreshTimeout)),
	)
	a.feeds = feed.NewBuilder(feed.Channel{
		Title:       cfg.Server.FeedTitle,
		Description: cfg.Server.FeedDescription,
		Link:        cfg.Server.FeedLink,
		PublicURL:   cfg.Server.PublicURL,
	})
	return a, nil
}

// newMaintenanceApp builds an app whose store skips load-time eviction, so
// maintenance commands see and report the document as persisted.
func newMaintenanceApp(ctx context.Context, cfg config.Config) (*app, error) {
	cfg.Store.MaxAgeDays = 0
	return newApp(ctx, cfg)
}

func (a *app) redis() *redis.Client {
	if a.rdb == nil {
		a.rdb = redisclient.New(a.cfg.Redis)
		a.closers = append(a.closers, a.rdb.Close)
	}
	return a.rdb
}

func (a *app) persister() (store.Persister, error) {
	switch strings.ToLower(a.cfg.Store.Backend) {
	case "", "file":
		return store.NewFilePersister(a.cfg.Store.Path), nil
	case "redis":
		return storage.NewRedisSnapshotStore(a.redis(), a.cfg.Store.Key), nil
	case "postgres":
		pg, err := storage.NewPostgresSnapshotStore(a.cfg.Postgres.DSN, a.cfg.Store.Key)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pg.Close)
		return pg, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", a.cfg.Store.Backend)
	}
}

// enricher summarizes with OpenAI when a key is configured and falls back to
// local summaries otherwise.
func (a *app) enricher() *ai.Enricher {
	cfg := a.cfg.OpenAI
	opts := []ai.EnricherOption{
		ai.WithWorkers(cfg.Workers),
		ai.WithBatchDelay(config.Duration(cfg.BatchDelay, 0)),
		ai.WithNamespace(a.cfg.Store.Namespace),
	}
	var s ai.Summarizer
	if cfg.APIKey != "" {
		s = ai.NewOpenAI(ai.Config{APIKey: cfg.APIKey, Model: cfg.Model, BaseURL: cfg.BaseURL})
		if ttl := config.Duration(cfg.CacheTTL, 0); ttl > 0 {
			opts = append(opts, ai.WithCache(storage.NewSummaryCache(a.redis(), ttl)))
		}
	} else {
		slog.Info("openai api key not set, using local summaries")
	}
	return ai.NewEnricher(s, opts...)
}

func buildFetchers(cfg config.SourcesConfig) ([]fetcher.Fetcher, error) {
	o := fetcher.HTTPOptions{
		UserAgent: cfg.UserAgent,
		Timeout:   config.Duration(cfg.Timeout, fetcher.DefaultTimeout),
	}
	gh, hf := cfg.GitHub, cfg.HuggingFace
	fs := []fetcher.Fetcher{
		fetcher.NewGitHubTrending(gh.TrendingURL, gh.Languages, o),
		fetcher.NewGitHubExplore(gh.ExploreURL, o),
		fetcher.NewHFPapers(hf.PapersURL, hf.PapersLimit, o),
		fetcher.NewHFSpaces(hf.SpacesAPI, hf.SpacesLimit, o),
	}
	if gh.Token != "" {
		search := fetcher.NewGitHubSearch(gh.Token, gh.Topics, 10)
		if gh.APIURL != "" {
			var err error
			if search, err = search.WithBaseURL(gh.APIURL); err != nil {
				return nil, err
			}
		}
		fs = append(fs, search)
	}
	return fs, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slog.Warn("close failed", "err", err)
		}
	}
}
