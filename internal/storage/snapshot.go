package storage

import (
	"encoding/json"
	"fmt"

	"github.com/hoodini/yuv-ai-trends/internal/store"
)

func encodeSnapshot(snap *store.Snapshot) ([]byte, error) {
	if snap == nil {
		return nil, fmt.Errorf("encode snapshot: nil snapshot")
	}
	b, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return b, nil
}
