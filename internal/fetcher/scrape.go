package fetcher

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
)

const (
	DefaultUserAgent = "Mozilla/5.0 (compatible; yuv-ai-trends/1.0)"
	DefaultTimeout   = 10 * time.Second

	githubURL      = "https://github.com"
	huggingfaceURL = "https://huggingface.co"
)

// HTTPOptions are shared by the scraping fetchers.
type HTTPOptions struct {
	UserAgent string
	Timeout   time.Duration
}

func (o HTTPOptions) withDefaults() HTTPOptions {
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return o
}

// newCollector returns a synchronous collector that stops issuing requests
// once ctx is done.
func newCollector(ctx context.Context, o HTTPOptions) *colly.Collector {
	o = o.withDefaults()
	c := colly.NewCollector(
		colly.UserAgent(o.UserAgent),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(o.Timeout)
	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
		}
	})
	return c
}

var (
	firstNumber = regexp.MustCompile(`\d[\d,]*`)
	spaces      = regexp.MustCompile(`\s+`)
)

// parseCount parses counters such as "1,234" or "12.3k".
func parseCount(text string) int {
	text = strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	if text == "" {
		return 0
	}
	multiplier := 1.0
	switch {
	case strings.HasSuffix(text, "k"), strings.HasSuffix(text, "K"):
		multiplier = 1000
		text = text[:len(text)-1]
	case strings.HasSuffix(text, "m"), strings.HasSuffix(text, "M"):
		multiplier = 1_000_000
		text = text[:len(text)-1]
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0
	}
	return int(f * multiplier)
}

// leadingInt returns the first integer in text, ignoring thousands separators.
func leadingInt(text string) int {
	m := firstNumber.FindString(text)
	if m == "" {
		return 0
	}
	n, _ := strconv.Atoi(strings.ReplaceAll(m, ",", ""))
	return n
}

func squash(s string) string {
	return strings.TrimSpace(spaces.ReplaceAllString(s, " "))
}

func absolute(base, href string) string {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return base + href
}

// visit fetches link and reports ctx's error when the request was aborted.
func visit(ctx context.Context, c *colly.Collector, link string) error {
	err := c.Visit(link)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
