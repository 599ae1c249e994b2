package store

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/hoodini/yuv-ai-trends/internal/model"
)

const (
	// DefaultMaxAgeDays is the eviction horizon applied at load.
	DefaultMaxAgeDays = 30
	// NewItemsLimit bounds NewSince results.
	NewItemsLimit = 100
	// NoLimit makes Get return every match.
	NoLimit = -1

	defaultIOTimeout = 10 * time.Second
)

// Store is a deduplicating item store keyed by guid. Every mutation and the
// write that follows it happen under a single lock.
type Store struct {
	mu    sync.Mutex
	items map[string]model.StoredItem

	persister  Persister
	namespace  string
	maxAgeDays int
	ioTimeout  time.Duration
	now        func() time.Time
	log        *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

func WithNamespace(ns string) Option {
	return func(s *Store) {
		if ns != "" {
			s.namespace = ns
		}
	}
}

// WithMaxAgeDays sets the load-time eviction horizon. Zero disables it.
func WithMaxAgeDays(days int) Option {
	return func(s *Store) { s.maxAgeDays = days }
}

func WithIOTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.ioTimeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// Query selects stored items. Empty DigestType and nil Since disable their
// filters. Limit truncates the result, so zero yields nothing; use NoLimit
// for every match.
type Query struct {
	DigestType model.DigestType
	Since      *time.Time
	Limit      int
}

// Stats summarizes the store content.
type Stats struct {
	Total        int            `json:"total"`
	BySource     map[string]int `json:"by_source"`
	ByDigestType map[string]int `json:"by_digest_type"`
	OldestItem   *time.Time     `json:"oldest_item"`
	NewestItem   *time.Time     `json:"newest_item"`
	StorePath    string         `json:"store_path"`
}

// locator is implemented by persisters that can describe where they write.
type locator interface {
	Location() string
}

// New loads the persisted document and evicts expired items. A missing or
// unreadable document yields an empty store.
func New(ctx context.Context, p Persister, opts ...Option) *Store {
	if p == nil {
		p = &MemoryPersister{}
	}
	s := &Store{
		items:      map[string]model.StoredItem{},
		persister:  p,
		namespace:  DefaultNamespace,
		maxAgeDays: DefaultMaxAgeDays,
		ioTimeout:  defaultIOTimeout,
		now:        time.Now,
		log:        slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	s.load(ctx)
	if s.maxAgeDays > 0 {
		if n := s.EvictOlderThan(ctx, s.maxAgeDays); n > 0 {
			s.log.Info("store: evicted expired items at load", "count", n, "max_age_days", s.maxAgeDays)
		}
	}
	return s
}

func (s *Store) load(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.ioTimeout)
	defer cancel()
	snap, err := s.persister.Load(ctx)
	if err != nil {
		s.log.Warn("store: load failed, starting empty", "location", s.location(), "err", err)
		return
	}
	if snap == nil {
		return
	}
	for guid, it := range snap.Items {
		if it.GUID == "" {
			it.GUID = guid
		}
		s.items[guid] = it
	}
	s.log.Debug("store: loaded", "items", len(s.items), "last_updated", snap.LastUpdated)
}

func (s *Store) location() string {
	if l, ok := s.persister.(locator); ok {
		return l.Location()
	}
	return ""
}

// persistLocked writes the whole map. Callers hold s.mu. Failures are logged
// and the in-memory state is kept.
func (s *Store) persistLocked(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.ioTimeout)
	defer cancel()
	if err := s.persister.Save(ctx, NewSnapshot(s.items, s.now())); err != nil {
		s.log.Error("store: persist failed", "location", s.location(), "items", len(s.items), "err", err)
	}
}

// GUID returns the identity the store assigns to it.
func (s *Store) GUID(it model.ContentItem) string {
	return ComputeGUID(it, s.namespace)
}

// Add inserts the items not seen before and returns only those. Existing
// items are left untouched, including their discovery time.
func (s *Store) Add(ctx context.Context, items []model.RankedItem, digest model.DigestType) []model.StoredItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := model.FormatTimestamp(s.now())
	added := make([]model.StoredItem, 0)
	for _, it := range items {
		guid := ComputeGUID(it.ContentItem, s.namespace)
		if _, ok := s.items[guid]; ok {
			continue
		}
		st := newStoredItem(guid, it, digest, now)
		s.items[guid] = st
		added = append(added, st)
	}
	if len(added) > 0 {
		s.persistLocked(ctx)
		s.log.Info("store: added items", "digest", digest, "new", len(added), "total", len(s.items))
	}
	return added
}

func newStoredItem(guid string, it model.RankedItem, digest model.DigestType, discoveredAt string) model.StoredItem {
	title := it.Name
	if title == "" {
		title = "Untitled"
	}
	owner, repo := model.SplitRepoName(title)
	st := model.StoredItem{
		GUID:         guid,
		Title:        title,
		URL:          it.URL,
		Description:  it.Description,
		Source:       it.Source,
		DigestType:   digest,
		DiscoveredAt: discoveredAt,
		Score:        it.Score,
		RepoName:     repo,
		Owner:        owner,
	}
	isRepo := it.Source == model.SourceGitHubTrending
	st.Stars = optInt(it.Stars, isRepo)
	st.Forks = optInt(it.Forks, isRepo)
	st.Upvotes = optInt(it.Upvotes, it.Source == model.SourceHuggingFacePapers)
	st.Likes = optInt(it.Likes, it.Source == model.SourceHuggingFaceSpaces)
	st.Language = optString(it.Language)
	st.AISummary = optString(it.AISummary)
	return st
}

func optInt(v int, always bool) *int {
	if !always && v == 0 {
		return nil
	}
	return &v
}

func optString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

// Get returns matching items, most recently discovered first. Ties are
// ordered by guid. Items with an unreadable timestamp sort last and are
// dropped whenever Since is set.
func (s *Store) Get(q Query) []model.StoredItem {
	s.mu.Lock()
	type entry struct {
		item model.StoredItem
		at   time.Time
	}
	matches := make([]entry, 0, len(s.items))
	for _, it := range s.items {
		if q.DigestType != "" && it.DigestType != q.DigestType {
			continue
		}
		at, err := it.Discovered()
		if q.Since != nil && (err != nil || at.Before(*q.Since)) {
			continue
		}
		if err != nil {
			at = time.Time{}
		}
		matches = append(matches, entry{item: it, at: at})
	}
	s.mu.Unlock()

	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].at.Equal(matches[j].at) {
			return matches[i].at.After(matches[j].at)
		}
		return matches[i].item.GUID < matches[j].item.GUID
	})
	if q.Limit >= 0 && len(matches) > q.Limit {
		matches = matches[:q.Limit]
	}
	out := make([]model.StoredItem, len(matches))
	for i, m := range matches {
		out[i] = m.item
	}
	return out
}

// NewSince returns up to NewItemsLimit items discovered at or after since.
func (s *Store) NewSince(since time.Time, digest model.DigestType) []model.StoredItem {
	return s.Get(Query{DigestType: digest, Since: &since, Limit: NewItemsLimit})
}

// Latest reports the most recent discovery time for digest.
func (s *Store) Latest(digest model.DigestType) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest time.Time
	found := false
	for _, it := range s.items {
		if it.DigestType != digest {
			continue
		}
		at, err := it.Discovered()
		if err != nil {
			continue
		}
		if !found || at.After(latest) {
			latest, found = at, true
		}
	}
	return latest, found
}

// EvictOlderThan removes items discovered more than days ago and returns how
// many were removed. Items whose timestamp cannot be parsed are kept.
func (s *Store) EvictOlderThan(ctx context.Context, days int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-time.Duration(days) * 24 * time.Hour)
	removed := 0
	for guid, it := range s.items {
		at, err := it.Discovered()
		if err != nil {
			continue
		}
		if at.Before(cutoff) {
			delete(s.items, guid)
			removed++
		}
	}
	if removed > 0 {
		s.persistLocked(ctx)
	}
	return removed
}

// Stats counts items by source and digest type.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Stats{
		Total:        len(s.items),
		BySource:     map[string]int{},
		ByDigestType: map[string]int{},
		StorePath:    s.location(),
	}
	for _, it := range s.items {
		src := string(it.Source)
		if src == "" {
			src = "unknown"
		}
		st.BySource[src]++
		dt := string(it.DigestType)
		if dt == "" {
			dt = "unknown"
		}
		st.ByDigestType[dt]++

		at, err := it.Discovered()
		if err != nil {
			continue
		}
		if st.OldestItem == nil || at.Before(*st.OldestItem) {
			t := at
			st.OldestItem = &t
		}
		if st.NewestItem == nil || at.After(*st.NewestItem) {
			t := at
			st.NewestItem = &t
		}
	}
	return st
}

// Len returns the number of stored items.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Clear drops every item and persists the empty store. It returns the number
// of items removed.
func (s *Store) Clear(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.items)
	s.items = map[string]model.StoredItem{}
	s.persistLocked(ctx)
	s.log.Info("store: cleared", "removed", n)
	return n
}
