package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hoodini/yuv-ai-trends/internal/model"
	"github.com/hoodini/yuv-ai-trends/internal/retry"

	openai "github.com/sashabaranov/go-openai"
)

// Summarizer explains a single item.
type Summarizer interface {
	Summarize(ctx context.Context, item model.ContentItem) (Summary, error)
}

// OpenAIClient implements Summarizer using the Chat Completions API.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

type Config struct {
	APIKey  string
	Model   string
	BaseURL string // optional, for compatible providers
}

const DefaultModel = "gpt-4o-mini"

func NewOpenAI(cfg Config) *OpenAIClient {
	cc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		cc.BaseURL = cfg.BaseURL
	}
	m := cfg.Model
	if m == "" {
		m = DefaultModel
	}
	return &OpenAIClient{client: openai.NewClientWithConfig(cc), model: m}
}

const systemPrompt = `You are analyzing trending AI/ML content. Based ONLY on the provided information, generate a practical, structured analysis in three sections:

1. WHAT: a clear, concise description (1-2 sentences) of what this project, paper or space is: its core technology, framework or research focus. Be specific and technical.
2. SOLVES: 1-2 sentences on the problem it solves, the use case it addresses or the gap it fills in the AI/ML ecosystem.
3. HOW: 1-2 sentences on the key technical approach or what makes it stand out.

Only describe what is explicitly stated. Do not invent features. If a section cannot be answered, write "Details not provided in source material."

Format your response exactly as:
WHAT: [description]
SOLVES: [problem/use case]
HOW: [approach/methodology]`

// Summarize asks the model for a WHAT/SOLVES/HOW breakdown of item.
func (o *OpenAIClient) Summarize(ctx context.Context, item model.ContentItem) (Summary, error) {
	// set timeout to 60s for item-level summary
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	var out string
	err := retry.Do(ctx, func(ctx context.Context) error {
		var err error
		out, err = o.create(ctx, systemPrompt, itemPrompt(item))
		return classify(err)
	}, retry.Attempts(3), retry.Backoff(2*time.Second, 15*time.Second))
	if err != nil {
		slog.Error("openai: summarize item error", "item", item.Name, "err", err)
		return Summary{}, err
	}
	s := ParseSummary(out)
	if s.Empty() {
		return Summary{}, fmt.Errorf("openai: unparseable completion for %s", item.Name)
	}
	return s, nil
}

func itemPrompt(it model.ContentItem) string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "Project: %s\nDescription: %s\nContext:\n", it.Name, truncate(it.Description, 1000))
	switch it.Source {
	case model.SourceGitHubTrending:
		fmt.Fprintf(b, "GitHub repository with %d stars (+%d today)\n", it.Stars, it.StarsToday)
		if it.Language != "" {
			fmt.Fprintf(b, "Language: %s\n", it.Language)
		}
		if len(it.Topics) > 0 {
			topics := it.Topics
			if len(topics) > 5 {
				topics = topics[:5]
			}
			fmt.Fprintf(b, "Topics: %s\n", strings.Join(topics, ", "))
		}
	case model.SourceHuggingFacePapers:
		fmt.Fprintf(b, "Research paper with %d upvotes\n", it.Upvotes)
		if it.PublishedDate != "" {
			fmt.Fprintf(b, "Published: %s\n", it.PublishedDate)
		}
	case model.SourceHuggingFaceSpaces:
		fmt.Fprintf(b, "Hugging Face Space with %d likes\n", it.Likes)
		if it.SDK != "" {
			fmt.Fprintf(b, "SDK: %s\n", it.SDK)
		}
	case model.SourceGitHubExplore:
		b.WriteString("GitHub Explore collection\n")
	}
	return b.String()
}

func (o *OpenAIClient) create(ctx context.Context, system, user string) (string, error) {
	// Default timeout guard, if caller didn't set one
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 120*time.Second)
		defer cancel()
	}
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		MaxTokens:   300,
		Temperature: 0.4,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// classify keeps retrying rate limits and server errors only.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500 {
			return err
		}
		return retry.Permanent(err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode >= 400 && reqErr.HTTPStatusCode < 500 &&
		reqErr.HTTPStatusCode != http.StatusTooManyRequests {
		return retry.Permanent(err)
	}
	return err
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if r := []rune(s); len(r) > n {
		return string(r[:n])
	}
	return s
}
