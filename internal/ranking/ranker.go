package ranking

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/hoodini/yuv-ai-trends/internal/model"
)

// Ranker scores batches of items and orders them.
type Ranker struct {
	scorer *Scorer
}

// NewRanker creates a ranker backed by scorer. A nil scorer uses DefaultWeights.
func NewRanker(scorer *Scorer) *Ranker {
	if scorer == nil {
		scorer = NewScorer(DefaultWeights)
	}
	return &Ranker{scorer: scorer}
}

// Rank scores every item and returns them sorted by score, highest first.
// The sort is stable: items with equal scores keep their input order.
// The input slice is not modified.
func (r *Ranker) Rank(items []model.ContentItem, daysRange int) []model.RankedItem {
	out := make([]model.RankedItem, 0, len(items))
	for _, it := range items {
		score := r.scorer.Score(it, daysRange)
		out = append(out, model.RankedItem{
			ContentItem: it,
			Score:       score,
			ScoreLabel:  Label(score),
		})
	}
	sortByScore(out)
	return out
}

func sortByScore(items []model.RankedItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
}

// Top returns the first limit entries of an already sorted slice.
func Top(items []model.RankedItem, limit int) []model.RankedItem {
	if limit <= 0 {
		return []model.RankedItem{}
	}
	if limit >= len(items) {
		return items
	}
	return items[:limit]
}

// FilterByDateRange keeps items fetched within the last days. Items without
// a fetch timestamp are kept.
func FilterByDateRange(items []model.ContentItem, days int, now time.Time) []model.ContentItem {
	cutoff := now.AddDate(0, 0, -days)
	out := make([]model.ContentItem, 0, len(items))
	for _, it := range items {
		if it.FetchedAt.IsZero() || !it.FetchedAt.Before(cutoff) {
			out = append(out, it)
		}
	}
	return out
}

// SourceGroups partitions ranked items by source. Sources lists the groups
// in the order they were first encountered.
type SourceGroups struct {
	Sources []model.Source
	Items   map[model.Source][]model.RankedItem
}

// GroupBySource preserves relative order inside each group.
func GroupBySource(items []model.RankedItem) SourceGroups {
	g := SourceGroups{Items: map[model.Source][]model.RankedItem{}}
	for _, it := range items {
		src := it.Source
		if src == "" {
			src = "unknown"
		}
		if _, ok := g.Items[src]; !ok {
			g.Sources = append(g.Sources, src)
		}
		g.Items[src] = append(g.Items[src], it)
	}
	return g
}

// Flatten concatenates the groups and re-sorts them by score.
func (g SourceGroups) Flatten() []model.RankedItem {
	out := make([]model.RankedItem, 0, g.Len())
	for _, src := range g.Sources {
		out = append(out, g.Items[src]...)
	}
	sortByScore(out)
	return out
}

// Len is the total number of grouped items.
func (g SourceGroups) Len() int {
	n := 0
	for _, items := range g.Items {
		n += len(items)
	}
	return n
}

// Counts returns the number of items per source.
func (g SourceGroups) Counts() map[model.Source]int {
	out := make(map[model.Source]int, len(g.Items))
	for src, items := range g.Items {
		out[src] = len(items)
	}
	return out
}

func (g SourceGroups) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Items)
}
