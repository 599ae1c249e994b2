package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hoodini/yuv-ai-trends/internal/store"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// FeedSnapshot is one persisted store document. Several stores can share a
// table by using different names.
type FeedSnapshot struct {
	Name      string         `gorm:"primaryKey;size:64"`
	Version   int            `gorm:"not null"`
	Document  datatypes.JSON `gorm:"type:jsonb"`
	ItemCount int
	UpdatedAt time.Time
}

// PostgresSnapshotStore persists the item store document in a feed_snapshots row.
type PostgresSnapshotStore struct {
	db   *gorm.DB
	name string
}

// NewPostgresSnapshotStore connects and migrates the feed_snapshots table.
func NewPostgresSnapshotStore(dsn, name string) (*PostgresSnapshotStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := db.AutoMigrate(&FeedSnapshot{}); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return newPostgresSnapshotStore(db, name), nil
}

func newPostgresSnapshotStore(db *gorm.DB, name string) *PostgresSnapshotStore {
	if name == "" {
		name = "default"
	}
	return &PostgresSnapshotStore{db: db, name: name}
}

func (s *PostgresSnapshotStore) Load(ctx context.Context) (*store.Snapshot, error) {
	var row FeedSnapshot
	err := s.db.WithContext(ctx).Where("name = ?", s.name).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: load snapshot %s: %w", s.name, err)
	}
	return store.DecodeSnapshot(row.Document)
}

// Save upserts the row for this store name.
func (s *PostgresSnapshotStore) Save(ctx context.Context, snap *store.Snapshot) error {
	b, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}
	row := FeedSnapshot{
		Name:      s.name,
		Version:   snap.Version,
		Document:  datatypes.JSON(b),
		ItemCount: len(snap.Items),
	}
	return s.db.WithContext(ctx).Save(&row).Error
}

func (s *PostgresSnapshotStore) Location() string {
	return "postgres:feed_snapshots/" + s.name
}

func (s *PostgresSnapshotStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
