package feed

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hoodini/yuv-ai-trends/internal/model"
)

const (
	// DescriptionPlaceholder replaces empty item descriptions.
	DescriptionPlaceholder = "No description available"
	DefaultGenerator       = "yuv-ai-trends"

	atomNS   = "http://www.w3.org/2005/Atom"
	trendsNS = "https://github.com/hoodini/yuv-ai-trends/ns"
)

// Channel holds the feed-level metadata.
type Channel struct {
	Title       string
	Description string
	Link        string
	// PublicURL is the externally reachable base used for the atom self link.
	PublicURL string
	Generator string
}

// Builder renders stored items as RSS or JSON documents.
type Builder struct {
	ch  Channel
	now func() time.Time
}

func NewBuilder(ch Channel) *Builder {
	if ch.Title == "" {
		ch.Title = "AI Trends"
	}
	if ch.Generator == "" {
		ch.Generator = DefaultGenerator
	}
	return &Builder{ch: ch, now: time.Now}
}

// WithClock returns a copy of b that uses now for build timestamps.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	cp := *b
	cp.now = now
	return &cp
}

type rssDoc struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	AtomNS  string     `xml:"xmlns:atom,attr"`
	Trends  string     `xml:"xmlns:trends,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	Language      string    `xml:"language"`
	LastBuildDate string    `xml:"lastBuildDate"`
	Generator     string    `xml:"generator"`
	TTL           int       `xml:"ttl"`
	AtomLink      atomLink  `xml:"atom:link"`
	Category      string    `xml:"category"`
	Items         []rssItem `xml:"item"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type rssGUID struct {
	IsPermaLink bool   `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

type rssItem struct {
	Title       string  `xml:"title"`
	Link        string  `xml:"link"`
	GUID        rssGUID `xml:"guid"`
	Description string  `xml:"description"`
	Category    string  `xml:"category"`
	PubDate     string  `xml:"pubDate"`

	Stars     *int   `xml:"trends:stars,omitempty"`
	Forks     *int   `xml:"trends:forks,omitempty"`
	Language  string `xml:"trends:language,omitempty"`
	Likes     *int   `xml:"trends:likes,omitempty"`
	Upvotes   *int   `xml:"trends:upvotes,omitempty"`
	Score     string `xml:"trends:score"`
	AISummary string `xml:"trends:ai_summary,omitempty"`
	Owner     string `xml:"trends:owner,omitempty"`
	RepoName  string `xml:"trends:repo_name,omitempty"`
}

// SelfLink is the canonical URL of the RSS document for digest.
func (b *Builder) SelfLink(d model.DigestType) string {
	base := strings.TrimRight(b.ch.PublicURL, "/")
	if base == "" {
		base = strings.TrimRight(b.ch.Link, "/")
	}
	return base + "/rss/" + string(d)
}

// RSS renders at most MaxItems items as an RSS 2.0 document.
func (b *Builder) RSS(items []model.StoredItem, d model.DigestType) ([]byte, error) {
	now := b.now().UTC()
	if len(items) > MaxItems {
		items = items[:MaxItems]
	}
	doc := rssDoc{
		Version: "2.0",
		AtomNS:  atomNS,
		Trends:  trendsNS,
		Channel: rssChannel{
			Title:         fmt.Sprintf("%s - %s Digest", b.ch.Title, d.Title()),
			Link:          b.ch.Link,
			Description:   b.ch.Description,
			Language:      "en-us",
			LastBuildDate: now.Format(time.RFC1123Z),
			Generator:     b.ch.Generator,
			TTL:           TTLMinutes(d),
			AtomLink:      atomLink{Href: b.SelfLink(d), Rel: "self", Type: "application/rss+xml"},
			Category:      string(d),
			Items:         make([]rssItem, 0, len(items)),
		},
	}
	for _, it := range items {
		doc.Channel.Items = append(doc.Channel.Items, rssEntry(it, now))
	}
	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("feed: marshal rss: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

func rssEntry(it model.StoredItem, now time.Time) rssItem {
	pub, err := it.Discovered()
	if err != nil {
		pub = now
	}
	e := rssItem{
		Title:       it.Title,
		Link:        it.URL,
		GUID:        rssGUID{IsPermaLink: isURL(it.GUID), Value: it.GUID},
		Description: Description(it),
		Category:    it.Source.Label(),
		PubDate:     pub.UTC().Format(time.RFC1123Z),
		Stars:       it.Stars,
		Forks:       it.Forks,
		Likes:       it.Likes,
		Upvotes:     it.Upvotes,
		Score:       strconv.FormatFloat(it.Score, 'f', 1, 64),
		Owner:       it.Owner,
		RepoName:    it.RepoName,
	}
	if it.Language != nil {
		e.Language = *it.Language
	}
	if it.AISummary != nil {
		e.AISummary = *it.AISummary
	}
	return e
}

// Description returns the item description or the placeholder.
func Description(it model.StoredItem) string {
	if d := strings.TrimSpace(it.Description); d != "" {
		return d
	}
	return DescriptionPlaceholder
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
