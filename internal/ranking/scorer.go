package ranking

import (
	"math"

	"github.com/hoodini/yuv-ai-trends/internal/model"
)

// Weights controls how the GitHub trending components are combined.
type Weights struct {
	Stars    float64
	Velocity float64
	Recency  float64
}

// DefaultWeights matches the historical scoring configuration.
var DefaultWeights = Weights{Stars: 0.4, Velocity: 0.3, Recency: 0.3}

// Scorer assigns a score in [0,100] to a single item.
type Scorer struct {
	weights Weights
}

// NewScorer creates a scorer with the given GitHub trending weights.
func NewScorer(w Weights) *Scorer {
	return &Scorer{weights: w}
}

// Score dispatches on the item source. Unknown sources score 0.
// daysRange is part of the scoring context; none of the current formulas
// depend on it because every source is already pre-filtered to its window.
func (s *Scorer) Score(it model.ContentItem, daysRange int) float64 {
	_ = daysRange
	switch it.Source {
	case model.SourceGitHubTrending:
		return s.scoreGitHubRepo(it)
	case model.SourceGitHubExplore:
		// curated collections get a flat base score
		return 70
	case model.SourceHuggingFacePapers:
		return scorePaper(it)
	case model.SourceHuggingFaceSpaces:
		return scoreSpace(it)
	}
	return 0
}

func (s *Scorer) scoreGitHubRepo(it model.ContentItem) float64 {
	starsScore := 0.0
	if it.Stars > 0 {
		starsScore = math.Min(math.Log10(float64(it.Stars)+1)*10, 50)
	}
	velocityScore := math.Min(float64(max0(it.StarsToday))*2, 30)
	recencyScore := 20.0

	total := starsScore*s.weights.Stars +
		velocityScore*s.weights.Velocity +
		recencyScore*s.weights.Recency
	return math.Min(total, 100)
}

func scorePaper(it model.ContentItem) float64 {
	upvoteScore := math.Min(float64(max0(it.Upvotes))*3, 50)
	recencyScore := 30.0
	return math.Min(upvoteScore*0.6+recencyScore*0.4, 100)
}

func scoreSpace(it model.ContentItem) float64 {
	likesScore := 0.0
	if it.Likes > 0 {
		likesScore = math.Min(math.Log10(float64(it.Likes)+1)*15, 50)
	}
	recencyScore := 30.0
	return math.Min(likesScore*0.5+recencyScore*0.5, 100)
}

// Label maps a score to its qualitative bucket; the highest threshold wins.
func Label(score float64) model.ScoreLabel {
	switch {
	case score >= 80:
		return model.LabelViral
	case score >= 65:
		return model.LabelHot
	case score >= 50:
		return model.LabelRising
	case score >= 35:
		return model.LabelGrowing
	default:
		return model.LabelNew
	}
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
