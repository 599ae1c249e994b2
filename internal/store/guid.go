package store

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/hoodini/yuv-ai-trends/internal/model"
)

// DefaultNamespace is used in fallback guids when none is configured.
const DefaultNamespace = "yuv-ai"

// ComputeGUID derives the stable identity of an item: its URL verbatim, or
// "urn:<namespace>:" followed by the first 16 hex chars of
// sha256(source + ":" + name). Names are hashed as-is, without case or
// whitespace normalization.
func ComputeGUID(it model.ContentItem, namespace string) string {
	if it.URL != "" {
		return it.URL
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}
	sum := sha256.Sum256([]byte(string(it.Source) + ":" + it.Name))
	return "urn:" + namespace + ":" + hex.EncodeToString(sum[:])[:16]
}
