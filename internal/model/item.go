package model

import "time"

// Source identifies where a content item was discovered.
type Source string

const (
	SourceGitHubTrending    Source = "github_trending"
	SourceGitHubExplore     Source = "github_explore"
	SourceHuggingFacePapers Source = "huggingface_papers"
	SourceHuggingFaceSpaces Source = "huggingface_spaces"
)

// Label returns the human readable name used as a feed category.
func (s Source) Label() string {
	switch s {
	case SourceGitHubTrending:
		return "GitHub Trending"
	case SourceGitHubExplore:
		return "GitHub Explore"
	case SourceHuggingFacePapers:
		return "Hugging Face Papers"
	case SourceHuggingFaceSpaces:
		return "Hugging Face Spaces"
	default:
		if s == "" {
			return "unknown"
		}
		return string(s)
	}
}

// ContentItem is a raw item produced by a fetcher. Numeric signals that a
// source does not provide stay zero.
type ContentItem struct {
	Source        Source    `json:"source"`
	Name          string    `json:"name"`
	URL           string    `json:"url"`
	Description   string    `json:"description"`
	Stars         int       `json:"stars,omitempty"`
	StarsToday    int       `json:"stars_today,omitempty"`
	Forks         int       `json:"forks,omitempty"`
	Upvotes       int       `json:"upvotes,omitempty"`
	Likes         int       `json:"likes,omitempty"`
	Language      string    `json:"language,omitempty"`
	Topics        []string  `json:"topics,omitempty"`
	SDK           string    `json:"sdk,omitempty"`
	ArxivID       string    `json:"arxiv_id,omitempty"`
	PublishedDate string    `json:"published_date,omitempty"`
	FetchedAt     time.Time `json:"fetched_at"`

	AISummary        string `json:"ai_summary,omitempty"`
	AITrendingReason string `json:"ai_trending_reason,omitempty"`
}

// ScoreLabel is the qualitative bucket of a score.
type ScoreLabel string

const (
	LabelNew     ScoreLabel = "New"
	LabelGrowing ScoreLabel = "Growing"
	LabelRising  ScoreLabel = "Rising"
	LabelHot     ScoreLabel = "Hot"
	LabelViral   ScoreLabel = "Viral"
)

// RankedItem decorates a content item with its score.
type RankedItem struct {
	ContentItem
	Score      float64    `json:"score"`
	ScoreLabel ScoreLabel `json:"score_label"`
}
