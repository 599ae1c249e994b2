package digest

import (
	"strings"
	"time"
)

// ExpandVars replaces {.CurrentDate} with now as YYYY-MM-DD (UTC).
func ExpandVars(s string, now time.Time) string {
	if !strings.Contains(s, "{.") {
		return s
	}
	return strings.ReplaceAll(s, "{.CurrentDate}", now.UTC().Format("2006-01-02"))
}
