package feed

import (
	"time"

	"github.com/hoodini/yuv-ai-trends/internal/model"
)

// Document is the structured companion of the RSS feed.
type Document struct {
	Items []model.StoredItem `json:"items"`
	Meta  Meta               `json:"meta"`
}

type Meta struct {
	DigestType  model.DigestType `json:"digest_type"`
	Total       int              `json:"total"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// JSON builds the structured document for items. Empty descriptions get the
// same placeholder as in the RSS rendering.
func (b *Builder) JSON(items []model.StoredItem, d model.DigestType) Document {
	if len(items) > MaxItems {
		items = items[:MaxItems]
	}
	out := make([]model.StoredItem, len(items))
	for i, it := range items {
		it.Description = Description(it)
		out[i] = it
	}
	return Document{
		Items: out,
		Meta: Meta{
			DigestType:  d,
			Total:       len(out),
			GeneratedAt: b.now().UTC(),
		},
	}
}
