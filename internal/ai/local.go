package ai

import (
	"fmt"
	"strings"

	"github.com/hoodini/yuv-ai-trends/internal/model"
)

type keywordRule struct {
	words  []string
	solves string
}

// Evaluated in order; the first rule with a matching word wins.
var solvesRules = []keywordRule{
	{[]string{"train", "training", "fine-tune", "finetune"}, "Helps train and fine-tune machine learning models."},
	{[]string{"dataset", "data processing", "data pipeline"}, "Manages and processes data for ML workflows."},
	{[]string{"inference", "deploy", "serve", "production"}, "Deploys and serves models in production environments."},
	{[]string{"framework", "library", "sdk"}, "Provides reusable components and tools for developers."},
	{[]string{"leaderboard", "benchmark", "eval"}, "Provides benchmarking and evaluation for ML models."},
	{[]string{"diffusion", "flux", "stable", "image", "vision", "video", "visual", "comic", "art", "dalle", "midjourney"}, "Generates or processes visual content using AI."},
	{[]string{"music", "audio", "sound", "voice", "speech", "tts"}, "Generates or processes audio content using AI."},
	{[]string{"chat", "assistant", "agent", "bot", "llm", "gpt", "claude"}, "Enables conversational AI and intelligent assistance."},
	{[]string{"try-on", "virtual", "fashion", "clothing"}, "Provides virtual try-on or fashion visualization."},
	{[]string{"model", "ai", "ml", "neural", "transformer"}, "Advances AI/ML capabilities and research."},
	{[]string{"api", "server", "backend", "service"}, "Provides backend services and API infrastructure."},
	{[]string{"ui", "interface", "frontend", "web app", "dashboard"}, "Delivers user interface and visualization capabilities."},
	{[]string{"text", "nlp", "language", "translation"}, "Handles natural language processing tasks."},
}

type techRule struct {
	words []string
	name  string
	match func(it model.ContentItem) bool
}

var techRules = []techRule{
	{words: []string{"pytorch", "torch"}, name: "PyTorch"},
	{words: []string{"tensorflow", "keras"}, name: "TensorFlow"},
	{words: []string{"transformers", "huggingface"}, name: "Transformers"},
	{words: []string{"docker", "container"}, name: "Docker"},
	{words: []string{"api"}, name: "REST API"},
	{words: []string{"react"}, name: "React"},
	{words: []string{"python"}, name: "Python", match: func(it model.ContentItem) bool { return it.Language == "Python" }},
	{words: []string{"typescript"}, name: "TypeScript", match: func(it model.ContentItem) bool { return it.Language == "TypeScript" }},
	{words: []string{"gradio"}, name: "Gradio", match: func(it model.ContentItem) bool { return strings.EqualFold(it.SDK, "gradio") }},
	{words: []string{"streamlit"}, name: "Streamlit", match: func(it model.ContentItem) bool { return strings.EqualFold(it.SDK, "streamlit") }},
	{name: "Docker", match: func(it model.ContentItem) bool { return strings.EqualFold(it.SDK, "docker") }},
	{words: []string{"diffusion"}, name: "Diffusion models"},
	{words: []string{"llm", "gpt"}, name: "Large Language Models"},
}

// LocalSummary builds a summary from the item metadata alone. It is used
// when no model is configured or a completion fails.
func LocalSummary(it model.ContentItem) Summary {
	what := localWhat(it)
	reason := what
	if r := []rune(reason); len(r) > 150 {
		reason = string(r[:150])
	}
	return Summary{
		What:           what,
		Solves:         localSolves(it),
		How:            localHow(it),
		TrendingReason: reason,
		Fallback:       true,
	}
}

func localWhat(it model.ContentItem) string {
	if d := strings.TrimSpace(it.Description); d != "" {
		return d
	}
	_, short := model.SplitRepoName(it.Name)
	var parts []string
	switch it.Source {
	case model.SourceGitHubTrending:
		parts = append(parts, short+" - A trending GitHub repository")
		if it.Language != "" {
			parts = append(parts, "written in "+it.Language)
		}
		if it.Stars > 0 {
			parts = append(parts, fmt.Sprintf("with %s stars", thousands(it.Stars)))
		}
	case model.SourceHuggingFacePapers:
		parts = append(parts, it.Name+" - A research paper")
		if it.Upvotes > 0 {
			parts = append(parts, fmt.Sprintf("with %d upvotes on Hugging Face", it.Upvotes))
		}
	case model.SourceHuggingFaceSpaces:
		parts = append(parts, short+" - A Hugging Face Space")
		if it.SDK != "" {
			parts = append(parts, "built with "+it.SDK)
		}
		if it.Likes > 0 {
			parts = append(parts, fmt.Sprintf("(%s likes)", thousands(it.Likes)))
		}
	default:
		parts = append(parts, it.Name)
	}
	return strings.Join(parts, " ")
}

func localSolves(it model.ContentItem) string {
	text := strings.ToLower(it.Description)
	if text == "" {
		text = strings.ToLower(it.Name)
	}
	if text == "" {
		return "Details not available in source material."
	}
	for _, r := range solvesRules {
		if containsAny(text, r.words) {
			return r.solves
		}
	}
	switch it.Source {
	case model.SourceHuggingFaceSpaces:
		return "Provides an interactive demo of AI/ML capabilities."
	case model.SourceGitHubTrending:
		return "Open-source project gaining traction in the developer community."
	}
	return "Details not available in source material."
}

func localHow(it model.ContentItem) string {
	text := strings.ToLower(it.Description) + " " + strings.ToLower(it.Name)
	seen := map[string]bool{}
	var tech []string
	for _, r := range techRules {
		if !containsAny(text, r.words) && (r.match == nil || !r.match(it)) {
			continue
		}
		if seen[r.name] {
			continue
		}
		seen[r.name] = true
		tech = append(tech, r.name)
	}
	if len(tech) > 0 {
		if len(tech) > 3 {
			tech = tech[:3]
		}
		return "Built using " + strings.Join(tech, ", ") + " and related technologies."
	}
	switch it.Source {
	case model.SourceHuggingFaceSpaces:
		return "Deployed as an interactive demo on Hugging Face Spaces."
	case model.SourceHuggingFacePapers:
		return "Academic research paper with peer-reviewed methodology."
	case model.SourceGitHubTrending:
		return "Open-source implementation available on GitHub."
	}
	return "Technical details not provided in source material."
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

func thousands(n int) string {
	s := fmt.Sprint(n)
	if n < 0 {
		return s
	}
	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return b.String()
}
