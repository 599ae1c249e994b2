package model

import (
	"strings"
	"time"
)

// StoredItem is an item persisted by the item store. DiscoveredAt is kept as
// an RFC3339 string so a single damaged timestamp does not invalidate the
// whole document.
type StoredItem struct {
	GUID         string     `json:"guid"`
	Title        string     `json:"title"`
	URL          string     `json:"url"`
	Description  string     `json:"description"`
	Source       Source     `json:"source"`
	DigestType   DigestType `json:"digest_type"`
	DiscoveredAt string     `json:"discovered_at"`
	Score        float64    `json:"score"`

	Stars     *int    `json:"stars"`
	Forks     *int    `json:"forks"`
	Language  *string `json:"language"`
	Likes     *int    `json:"likes"`
	Upvotes   *int    `json:"upvotes"`
	AISummary *string `json:"ai_summary"`

	RepoName string `json:"repo_name"`
	Owner    string `json:"owner"`
}

// Discovered parses DiscoveredAt.
func (s StoredItem) Discovered() (time.Time, error) {
	return ParseTimestamp(s.DiscoveredAt)
}

// ParseTimestamp parses RFC3339 timestamps, also accepting a trailing "Z"
// and the offset-less form written by older stores.
func ParseTimestamp(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02T15:04:05.999999999", v, time.UTC)
}

// FormatTimestamp renders t the way StoredItem.DiscoveredAt expects.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// SplitRepoName splits "owner/repo" into its parts. Names without a
// separator have no owner.
func SplitRepoName(name string) (owner, repo string) {
	if !strings.Contains(name, "/") {
		return "", name
	}
	parts := strings.Split(name, "/")
	return parts[0], parts[len(parts)-1]
}
