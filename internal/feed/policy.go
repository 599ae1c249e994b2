package feed

import (
	"time"

	"github.com/hoodini/yuv-ai-trends/internal/model"
)

// MaxItems caps the number of entries in a rendered feed.
const MaxItems = 50

// TTLMinutes is the channel ttl hint for a digest type.
func TTLMinutes(d model.DigestType) int {
	switch d {
	case model.DigestWeekly:
		return 360
	case model.DigestMonthly:
		return 1440
	default:
		return 60
	}
}

// CacheMaxAge is the Cache-Control max-age, in seconds, for a digest type.
func CacheMaxAge(d model.DigestType) int {
	return TTLMinutes(d) * 60
}

// StaleAfter is how old the newest item of a digest may get before a feed
// request triggers a refresh.
func StaleAfter(d model.DigestType) time.Duration {
	switch d {
	case model.DigestWeekly:
		return 6 * time.Hour
	case model.DigestMonthly:
		return 24 * time.Hour
	default:
		return time.Hour
	}
}

// NeedsRefresh decides whether a fetch-and-ingest cycle should run before
// serving digest. ok reports whether the store holds any item for it.
func NeedsRefresh(d model.DigestType, latest time.Time, ok, force bool, now time.Time) bool {
	if force || !ok {
		return true
	}
	return now.Sub(latest) > StaleAfter(d)
}
