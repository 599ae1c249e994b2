package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hoodini/yuv-ai-trends/internal/model"
)

// SnapshotVersion is the current on-disk schema version.
const SnapshotVersion = 1

// Snapshot is the durable representation of the whole store.
type Snapshot struct {
	Version     int                         `json:"version"`
	Items       map[string]model.StoredItem `json:"items"`
	LastUpdated string                      `json:"last_updated"`
}

// NewSnapshot copies items into a snapshot stamped with now.
func NewSnapshot(items map[string]model.StoredItem, now time.Time) *Snapshot {
	cp := make(map[string]model.StoredItem, len(items))
	for k, v := range items {
		cp[k] = v
	}
	return &Snapshot{Version: SnapshotVersion, Items: cp, LastUpdated: model.FormatTimestamp(now)}
}

// DecodeSnapshot parses a snapshot document. Documents written before the
// version field existed are accepted as version 1.
func DecodeSnapshot(b []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Version == 0 {
		snap.Version = SnapshotVersion
	}
	if snap.Version > SnapshotVersion {
		return nil, fmt.Errorf("decode snapshot: unsupported version %d", snap.Version)
	}
	if snap.Items == nil {
		snap.Items = map[string]model.StoredItem{}
	}
	return &snap, nil
}

// Persister loads and writes the full store document. Load returns
// (nil, nil) when nothing has been written yet.
type Persister interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap *Snapshot) error
}

// FilePersister keeps the snapshot in a JSON file.
type FilePersister struct {
	Path string
}

func NewFilePersister(path string) *FilePersister {
	return &FilePersister{Path: path}
}

func (p *FilePersister) Load(ctx context.Context) (*Snapshot, error) {
	b, err := os.ReadFile(p.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return DecodeSnapshot(b)
}

// Save writes to a temp file in the same directory and renames it over the
// target so a crash mid-write never leaves a truncated store behind.
func (p *FilePersister) Save(ctx context.Context, snap *Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(p.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(p.Path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	// CreateTemp uses 0600; keep the mode of the file being replaced.
	mode := fs.FileMode(0o644)
	if fi, err := os.Stat(p.Path); err == nil {
		mode = fi.Mode().Perm()
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, p.Path)
}

// MemoryPersister keeps the last saved document in memory.
type MemoryPersister struct {
	mu    sync.Mutex
	data  []byte
	saves int
	// Err, when set, is returned from Save.
	Err error
}

func (p *MemoryPersister) Load(ctx context.Context) (*Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.data == nil {
		return nil, nil
	}
	return DecodeSnapshot(p.data)
}

func (p *MemoryPersister) Save(ctx context.Context, snap *Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	p.data = b
	p.saves++
	return nil
}

// Saves reports how many successful writes happened.
func (p *MemoryPersister) Saves() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saves
}

// SetRaw replaces the stored document, e.g. with a damaged one.
func (p *MemoryPersister) SetRaw(b []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data = b
}

// Location implements the optional location reporting used by Stats.
func (p *FilePersister) Location() string { return p.Path }

func (p *MemoryPersister) Location() string { return "memory" }
