package ai

import (
	"fmt"
	"strings"
)

const (
	notAvailable    = "Details not available."
	defaultTrending = "Trending in the AI/ML community."
)

// Summary is the structured explanation attached to an item.
type Summary struct {
	What           string `json:"what"`
	Solves         string `json:"solves"`
	How            string `json:"how"`
	TrendingReason string `json:"trending_reason"`
	// Fallback is set when the summary was built locally.
	Fallback bool `json:"fallback,omitempty"`
}

// Text renders the summary as the markdown block stored in ai_summary.
func (s Summary) Text() string {
	return fmt.Sprintf("**What:** %s\n\n**Solves:** %s\n\n**How:** %s", s.What, s.Solves, s.How)
}

// ParseSummary reads a WHAT/SOLVES/HOW completion. Lines that follow a
// section header are appended to that section.
func ParseSummary(text string) Summary {
	var s Summary
	var cur *string
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "WHAT:"):
			cur = &s.What
			s.What = strings.TrimSpace(strings.TrimPrefix(line, "WHAT:"))
		case strings.HasPrefix(line, "SOLVES:"):
			cur = &s.Solves
			s.Solves = strings.TrimSpace(strings.TrimPrefix(line, "SOLVES:"))
		case strings.HasPrefix(line, "HOW:"):
			cur = &s.How
			s.How = strings.TrimSpace(strings.TrimPrefix(line, "HOW:"))
		case cur != nil && line != "":
			*cur = strings.TrimSpace(*cur + " " + line)
		}
	}
	s.TrendingReason = strings.TrimSpace(s.What + " " + s.Solves)
	return s
}

// Empty reports whether no section could be read.
func (s Summary) Empty() bool {
	return s.What == "" && s.Solves == "" && s.How == ""
}
