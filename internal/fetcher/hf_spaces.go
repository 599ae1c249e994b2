package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/hoodini/yuv-ai-trends/internal/model"
)

const DefaultSpacesLimit = 20

// HFSpaces lists the most liked Spaces through the Hub API.
type HFSpaces struct {
	APIURL string
	Limit  int
	HTTP   HTTPOptions
	now    func() time.Time
}

func NewHFSpaces(apiURL string, limit int, o HTTPOptions) *HFSpaces {
	if apiURL == "" {
		apiURL = huggingfaceURL + "/api/spaces"
	}
	if limit <= 0 {
		limit = DefaultSpacesLimit
	}
	return &HFSpaces{APIURL: apiURL, Limit: limit, HTTP: o, now: time.Now}
}

func (h *HFSpaces) Name() string { return string(model.SourceHuggingFaceSpaces) }

type hubSpace struct {
	ID        string `json:"id"`
	Likes     int    `json:"likes"`
	SDK       string `json:"sdk"`
	CreatedAt string `json:"createdAt"`
	CardData  struct {
		ShortDescription string `json:"short_description"`
		Description      string `json:"description"`
		Title            string `json:"title"`
	} `json:"cardData"`
}

func (h *HFSpaces) Fetch(ctx context.Context, _ model.DigestType) ([]model.ContentItem, error) {
	q := url.Values{}
	q.Set("sort", "likes")
	q.Set("direction", "-1")
	q.Set("limit", strconv.Itoa(h.Limit))
	q.Set("full", "true")

	c := newCollector(ctx, h.HTTP)
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "application/json")
	})
	var (
		spaces   []hubSpace
		parseErr error
	)
	c.OnResponse(func(r *colly.Response) {
		if err := json.Unmarshal(r.Body, &spaces); err != nil {
			parseErr = fmt.Errorf("decode spaces: %w", err)
		}
	})
	if err := visit(ctx, c, h.APIURL+"?"+q.Encode()); err != nil {
		return nil, err
	}
	if parseErr != nil {
		return nil, parseErr
	}

	now := h.now().UTC()
	items := make([]model.ContentItem, 0, len(spaces))
	for _, s := range spaces {
		if s.ID == "" {
			continue
		}
		items = append(items, model.ContentItem{
			Source:        model.SourceHuggingFaceSpaces,
			Name:          s.ID,
			URL:           huggingfaceURL + "/spaces/" + s.ID,
			Description:   spaceDescription(s),
			Likes:         s.Likes,
			SDK:           s.SDK,
			PublishedDate: day(s.CreatedAt),
			FetchedAt:     now,
		})
		if len(items) >= h.Limit {
			break
		}
	}
	return items, nil
}

func spaceDescription(s hubSpace) string {
	for _, d := range []string{s.CardData.ShortDescription, s.CardData.Description, s.CardData.Title} {
		if d = strings.TrimSpace(d); d != "" {
			return d
		}
	}
	owner, _, ok := strings.Cut(s.ID, "/")
	if !ok || owner == "" {
		return ""
	}
	sdk := ""
	if s.SDK != "" {
		sdk = " (" + s.SDK + ")"
	}
	return "Interactive AI demo" + sdk + " by " + owner
}

func day(ts string) string {
	if len(ts) >= 10 {
		return ts[:10]
	}
	return ""
}
