package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hoodini/yuv-ai-trends/internal/digest"
	"github.com/hoodini/yuv-ai-trends/internal/model"
	"github.com/hoodini/yuv-ai-trends/internal/pipeline"
)

var digestOrder = []model.DigestType{model.DigestDaily, model.DigestWeekly, model.DigestMonthly}

// Refresher refreshes each digest on its cron spec and evicts old items from
// the store on EvictSpec. Digests with an empty spec are not scheduled.
type Refresher struct {
	Pipeline   *pipeline.Pipeline
	Specs      map[model.DigestType]string
	EvictSpec  string
	MaxAgeDays int
	// WarmUp refreshes stale digests once right after start.
	WarmUp bool
	// DigestDir, when set, receives a Markdown digest after each refresh.
	DigestDir     string
	DigestOptions digest.Options

	now func() time.Time
}

func (w *Refresher) Name() string { return "refresher" }

func (w *Refresher) Start(ctx context.Context) error {
	c := cron.New()
	if err := w.schedule(ctx, c); err != nil {
		return err
	}
	c.Start()
	slog.Info("refresher: scheduled", "entries", len(c.Entries()))

	if w.WarmUp {
		go w.warmUp(ctx)
	}

	<-ctx.Done()
	// wait for running jobs
	<-c.Stop().Done()
	return nil
}

func (w *Refresher) schedule(ctx context.Context, c *cron.Cron) error {
	for _, d := range digestOrder {
		spec := w.Specs[d]
		if spec == "" {
			continue
		}
		if _, err := c.AddFunc(spec, func() { w.refresh(ctx, d) }); err != nil {
			return fmt.Errorf("refresher: %s spec %q: %w", d, spec, err)
		}
	}
	if w.EvictSpec != "" && w.MaxAgeDays > 0 {
		if _, err := c.AddFunc(w.EvictSpec, func() { w.evict(ctx) }); err != nil {
			return fmt.Errorf("refresher: evict spec %q: %w", w.EvictSpec, err)
		}
	}
	return nil
}

func (w *Refresher) warmUp(ctx context.Context) {
	for _, d := range digestOrder {
		if w.Specs[d] == "" {
			continue
		}
		ran, err := w.Pipeline.EnsureFresh(ctx, d, false)
		if err != nil {
			slog.Warn("refresher: warm up failed", "digest", d, "err", err)
			continue
		}
		slog.Info("refresher: warm up", "digest", d, "refreshed", ran)
	}
}

func (w *Refresher) refresh(ctx context.Context, d model.DigestType) {
	rep, err := w.Pipeline.Refresh(ctx, d)
	if err != nil {
		slog.Error("refresher: refresh failed", "digest", d, "err", err)
		return
	}
	slog.Info("refresher: refreshed", "digest", d, "items", rep.Stats.Total, "new", rep.Stats.New)
	if w.DigestDir == "" || len(rep.Items) == 0 {
		return
	}
	path, err := digest.WriteFile(w.DigestDir, digest.FromReport(rep, w.DigestOptions, w.clock()))
	if err != nil {
		slog.Error("refresher: write digest failed", "digest", d, "err", err)
		return
	}
	slog.Info("refresher: wrote digest", "path", path)
}

func (w *Refresher) evict(ctx context.Context) {
	n := w.Pipeline.Store().EvictOlderThan(ctx, w.MaxAgeDays)
	slog.Info("refresher: evicted old items", "removed", n, "max_age_days", w.MaxAgeDays)
}

func (w *Refresher) clock() time.Time {
	if w.now != nil {
		return w.now()
	}
	return time.Now()
}
