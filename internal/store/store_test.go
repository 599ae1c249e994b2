package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoodini/yuv-ai-trends/internal/model"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
}

func trending(name string, stars, today int) model.RankedItem {
	return model.RankedItem{
		ContentItem: model.ContentItem{
			Source:     model.SourceGitHubTrending,
			Name:       name,
			URL:        "https://x/" + name,
			Stars:      stars,
			StarsToday: today,
		},
		Score: 10,
	}
}

func TestExampleScenario(t *testing.T) {
	ctx := context.Background()
	s := New(ctx, &MemoryPersister{})
	item := trending("a/b", 999, 5)

	added := s.Add(ctx, []model.RankedItem{item}, model.DigestDaily)
	require.Len(t, added, 1)
	assert.Equal(t, "https://x/a/b", added[0].GUID)

	again := s.Add(ctx, []model.RankedItem{item}, model.DigestDaily)
	assert.Empty(t, again)

	got := s.Get(Query{DigestType: model.DigestDaily, Limit: 10})
	require.Len(t, got, 1)
	assert.Equal(t, "https://x/a/b", got[0].GUID)
	assert.Equal(t, "a", got[0].Owner)
	assert.Equal(t, "b", got[0].RepoName)
	require.NotNil(t, got[0].Stars)
	assert.Equal(t, 999, *got[0].Stars)
	assert.Nil(t, got[0].Likes)
	assert.Nil(t, got[0].AISummary)
}

func TestAddIsIdempotentAndKeepsDiscoveryTime(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	s := New(ctx, &MemoryPersister{}, WithClock(clock.Now))
	items := []model.RankedItem{trending("a/one", 1, 0), trending("a/two", 2, 0)}

	first := s.Add(ctx, items, model.DigestDaily)
	require.Len(t, first, 2)

	clock.Advance(time.Hour)
	assert.Empty(t, s.Add(ctx, items, model.DigestWeekly))

	for _, it := range s.Get(Query{Limit: NoLimit}) {
		assert.Equal(t, model.FormatTimestamp(clock.t.Add(-time.Hour)), it.DiscoveredAt)
		assert.Equal(t, model.DigestDaily, it.DigestType)
	}
}

func TestAddDeduplicatesWithinBatch(t *testing.T) {
	ctx := context.Background()
	s := New(ctx, &MemoryPersister{})
	it := trending("a/b", 1, 0)
	added := s.Add(ctx, []model.RankedItem{it, it}, model.DigestDaily)
	assert.Len(t, added, 1)
	assert.Equal(t, 1, s.Len())
}

func TestAddPersistsOnlyWhenSomethingChanged(t *testing.T) {
	ctx := context.Background()
	p := &MemoryPersister{}
	s := New(ctx, p)
	s.Add(ctx, []model.RankedItem{trending("a/b", 1, 0)}, model.DigestDaily)
	s.Add(ctx, []model.RankedItem{trending("a/b", 1, 0)}, model.DigestDaily)
	assert.Equal(t, 1, p.Saves())
}

func TestPersistFailureKeepsMemoryState(t *testing.T) {
	ctx := context.Background()
	p := &MemoryPersister{Err: errors.New("disk full")}
	s := New(ctx, p)
	added := s.Add(ctx, []model.RankedItem{trending("a/b", 1, 0)}, model.DigestDaily)
	assert.Len(t, added, 1)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 0, p.Saves())
}

func TestGUIDFallback(t *testing.T) {
	it := model.ContentItem{Source: model.SourceHuggingFaceSpaces, Name: "demo"}
	g1 := ComputeGUID(it, "")
	g2 := ComputeGUID(it, DefaultNamespace)
	assert.Equal(t, g1, g2)
	assert.Regexp(t, `^urn:yuv-ai:[0-9a-f]{16}$`, g1)

	other := ComputeGUID(model.ContentItem{Source: model.SourceHuggingFaceSpaces, Name: "Demo"}, "")
	assert.NotEqual(t, g1, other, "names are not normalized")

	assert.Equal(t, "https://hf.co/x", ComputeGUID(model.ContentItem{Name: "x", URL: "https://hf.co/x"}, "ns"))
	assert.Regexp(t, `^urn:ns:`, ComputeGUID(it, "ns"))
}

func TestGetOrderingAndFilters(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	s := New(ctx, &MemoryPersister{}, WithClock(clock.Now))

	s.Add(ctx, []model.RankedItem{trending("a/old", 1, 0)}, model.DigestDaily)
	clock.Advance(time.Minute)
	s.Add(ctx, []model.RankedItem{trending("a/z", 1, 0), trending("a/m", 1, 0)}, model.DigestDaily)
	clock.Advance(time.Minute)
	s.Add(ctx, []model.RankedItem{trending("a/weekly", 1, 0)}, model.DigestWeekly)

	all := s.Get(Query{Limit: NoLimit})
	require.Len(t, all, 4)
	assert.Equal(t, "a/weekly", all[0].Title)
	assert.Equal(t, "a/m", all[1].Title, "equal timestamps are ordered by guid")
	assert.Equal(t, "a/z", all[2].Title)
	assert.Equal(t, "a/old", all[3].Title)

	daily := s.Get(Query{DigestType: model.DigestDaily, Limit: 2})
	require.Len(t, daily, 2)
	assert.Equal(t, "a/m", daily[0].Title)

	none := s.Get(Query{DigestType: model.DigestDaily})
	assert.NotNil(t, none)
	assert.Empty(t, none, "a zero limit truncates everything")

	since := clock.Now().Add(-time.Minute)
	recent := s.NewSince(since, model.DigestDaily)
	require.Len(t, recent, 2)
	for _, it := range recent {
		assert.NotEqual(t, "a/old", it.Title)
	}
}

func TestSinceExcludesUnparseableTimestamps(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	p := &MemoryPersister{}
	snap := NewSnapshot(map[string]model.StoredItem{
		"bad":  {GUID: "bad", Title: "bad", DigestType: model.DigestDaily, DiscoveredAt: "yesterday-ish"},
		"good": {GUID: "good", Title: "good", DigestType: model.DigestDaily, DiscoveredAt: model.FormatTimestamp(clock.t)},
	}, clock.t)
	require.NoError(t, p.Save(ctx, snap))

	s := New(ctx, p, WithClock(clock.Now))
	all := s.Get(Query{Limit: NoLimit})
	require.Len(t, all, 2)
	assert.Equal(t, "good", all[0].GUID)
	assert.Equal(t, "bad", all[1].GUID)

	since := clock.t.Add(-time.Hour)
	got := s.Get(Query{Since: &since, Limit: NoLimit})
	require.Len(t, got, 1)
	assert.Equal(t, "good", got[0].GUID)
}

func TestEvictOlderThan(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	p := &MemoryPersister{}
	s := New(ctx, p, WithClock(clock.Now))

	s.Add(ctx, []model.RankedItem{trending("a/old", 1, 0)}, model.DigestDaily)
	clock.Advance(10 * 24 * time.Hour)
	s.Add(ctx, []model.RankedItem{trending("a/new", 1, 0)}, model.DigestDaily)

	removed := s.EvictOlderThan(ctx, 7)
	assert.Equal(t, 1, removed)
	cutoff := clock.Now().Add(-7 * 24 * time.Hour)
	for _, it := range s.Get(Query{Limit: NoLimit}) {
		at, err := it.Discovered()
		require.NoError(t, err)
		assert.False(t, at.Before(cutoff))
	}
	assert.Equal(t, 0, s.EvictOlderThan(ctx, 7))
}

func TestLoadEvictsExpiredItems(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	p := &MemoryPersister{}
	old := model.FormatTimestamp(clock.t.Add(-40 * 24 * time.Hour))
	fresh := model.FormatTimestamp(clock.t.Add(-time.Hour))
	require.NoError(t, p.Save(ctx, NewSnapshot(map[string]model.StoredItem{
		"old":   {GUID: "old", DiscoveredAt: old},
		"fresh": {GUID: "fresh", DiscoveredAt: fresh},
		"weird": {GUID: "weird", DiscoveredAt: "not a time"},
	}, clock.t)))

	s := New(ctx, p, WithClock(clock.Now))
	assert.Equal(t, 2, s.Len())

	reloaded := New(ctx, p, WithClock(clock.Now))
	assert.Equal(t, 2, reloaded.Len(), "eviction was persisted")
}

func TestMalformedDocumentStartsEmpty(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "rss_items.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s := New(ctx, NewFilePersister(path))
	assert.Equal(t, 0, s.Len())

	added := s.Add(ctx, []model.RankedItem{trending("a/b", 1, 0)}, model.DigestDaily)
	assert.Len(t, added, 1)
}

func TestFilePersisterRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "rss_items.json")
	p := NewFilePersister(path)

	s := New(ctx, p)
	s.Add(ctx, []model.RankedItem{trending("a/b", 3, 1)}, model.DigestWeekly)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temp files left behind")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"last_updated"`)
	assert.Contains(t, string(raw), `"version": 1`)

	reloaded := New(ctx, p)
	got := reloaded.Get(Query{DigestType: model.DigestWeekly, Limit: NoLimit})
	require.Len(t, got, 1)
	assert.Equal(t, "https://x/a/b", got[0].GUID)
	assert.Equal(t, path, reloaded.Stats().StorePath)
}

func TestFilePersisterFileMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "rss_items.json")
	p := NewFilePersister(path)

	require.NoError(t, p.Save(ctx, NewSnapshot(nil, time.Now())))
	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), fi.Mode().Perm())

	require.NoError(t, os.Chmod(path, 0o640))
	require.NoError(t, p.Save(ctx, NewSnapshot(nil, time.Now())))
	fi, err = os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), fi.Mode().Perm(), "existing mode survives the rename")
}

func TestDecodeSnapshotWithoutVersion(t *testing.T) {
	snap, err := DecodeSnapshot([]byte(`{"items":{"g":{"guid":"g","title":"t"}},"last_updated":"2026-01-01T00:00:00"}`))
	require.NoError(t, err)
	assert.Equal(t, SnapshotVersion, snap.Version)
	assert.Contains(t, snap.Items, "g")

	_, err = DecodeSnapshot([]byte(`{"version":99,"items":{}}`))
	assert.Error(t, err)
}

func TestStatsAndClear(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	s := New(ctx, &MemoryPersister{}, WithClock(clock.Now))

	s.Add(ctx, []model.RankedItem{trending("a/b", 1, 0)}, model.DigestDaily)
	clock.Advance(time.Hour)
	paper := model.RankedItem{ContentItem: model.ContentItem{
		Source: model.SourceHuggingFacePapers, Name: "Attention", URL: "https://hf.co/papers/1", Upvotes: 4,
	}}
	s.Add(ctx, []model.RankedItem{paper}, model.DigestWeekly)

	st := s.Stats()
	assert.Equal(t, 2, st.Total)
	assert.Equal(t, 1, st.BySource["github_trending"])
	assert.Equal(t, 1, st.BySource["huggingface_papers"])
	assert.Equal(t, 1, st.ByDigestType["daily"])
	assert.Equal(t, 1, st.ByDigestType["weekly"])
	require.NotNil(t, st.OldestItem)
	require.NotNil(t, st.NewestItem)
	assert.True(t, st.NewestItem.Sub(*st.OldestItem) == time.Hour)
	assert.Equal(t, "memory", st.StorePath)

	latest, ok := s.Latest(model.DigestWeekly)
	assert.True(t, ok)
	assert.True(t, latest.Equal(clock.Now()))
	_, ok = s.Latest(model.DigestMonthly)
	assert.False(t, ok)

	assert.Equal(t, 2, s.Clear(ctx))
	assert.Equal(t, 0, s.Len())
	assert.Nil(t, s.Stats().OldestItem)
}

func TestConcurrentAddLosesNothing(t *testing.T) {
	ctx := context.Background()
	p := &MemoryPersister{}
	s := New(ctx, p)

	var wg sync.WaitGroup
	var mu sync.Mutex
	totalNew := 0
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			batch := make([]model.RankedItem, 0, 20)
			for i := 0; i < 20; i++ {
				// Workers overlap on half of their items.
				batch = append(batch, trending(fmt.Sprintf("o/%d", (w/2)*20+i), 1, 0))
			}
			n := len(s.Add(ctx, batch, model.DigestDaily))
			mu.Lock()
			totalNew += n
			mu.Unlock()
		}(w)
	}
	wg.Wait()

	assert.Equal(t, 80, s.Len())
	assert.Equal(t, 80, totalNew)

	reloaded := New(ctx, p)
	assert.Equal(t, 80, reloaded.Len())
}
