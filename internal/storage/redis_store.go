package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/hoodini/yuv-ai-trends/internal/store"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultSnapshotKey = "trends:store:snapshot"
	DefaultSummaryTTL  = 7 * 24 * time.Hour
)

// RedisSnapshotStore persists the item store document under a single key.
type RedisSnapshotStore struct {
	rdb *redis.Client
	key string
}

func NewRedisSnapshotStore(rdb *redis.Client, key string) *RedisSnapshotStore {
	if key == "" {
		key = DefaultSnapshotKey
	}
	return &RedisSnapshotStore{rdb: rdb, key: key}
}

func (s *RedisSnapshotStore) Load(ctx context.Context) (*store.Snapshot, error) {
	b, err := s.rdb.Get(ctx, s.key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis: get %s: %w", s.key, err)
	}
	return store.DecodeSnapshot(b)
}

func (s *RedisSnapshotStore) Save(ctx context.Context, snap *store.Snapshot) error {
	b, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}
	// no expiry; eviction happens item by item in the store
	return s.rdb.Set(ctx, s.key, b, 0).Err()
}

func (s *RedisSnapshotStore) Location() string {
	return "redis:" + s.key
}

func summaryKey(guid string) string {
	return fmt.Sprintf("trends:summary:%s", guid)
}

// SummaryCache remembers generated summaries by item guid so repeated
// refreshes do not pay for the same completion twice.
type SummaryCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSummaryCache(rdb *redis.Client, ttl time.Duration) *SummaryCache {
	if ttl <= 0 {
		ttl = DefaultSummaryTTL
	}
	return &SummaryCache{rdb: rdb, ttl: ttl}
}

// GetSummary returns the cached summary, reporting false when absent.
func (c *SummaryCache) GetSummary(ctx context.Context, guid string) (string, bool, error) {
	res, err := c.rdb.Get(ctx, summaryKey(guid)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return res, true, nil
}

func (c *SummaryCache) SetSummary(ctx context.Context, guid, summary string) error {
	if summary == "" {
		return nil
	}
	return c.rdb.Set(ctx, summaryKey(guid), summary, c.ttl).Err()
}
