package fetcher

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/hoodini/yuv-ai-trends/internal/model"
)

const DefaultPapersLimit = 20

var arxivID = regexp.MustCompile(`(\d+\.\d+)`)

// HFPapers scrapes the Hugging Face daily papers page.
type HFPapers struct {
	URL   string
	Limit int
	HTTP  HTTPOptions
	now   func() time.Time
}

func NewHFPapers(pageURL string, limit int, o HTTPOptions) *HFPapers {
	if pageURL == "" {
		pageURL = huggingfaceURL + "/papers"
	}
	if limit <= 0 {
		limit = DefaultPapersLimit
	}
	return &HFPapers{URL: pageURL, Limit: limit, HTTP: o, now: time.Now}
}

func (h *HFPapers) Name() string { return string(model.SourceHuggingFacePapers) }

func (h *HFPapers) Fetch(ctx context.Context, _ model.DigestType) ([]model.ContentItem, error) {
	c := newCollector(ctx, h.HTTP)
	var items []model.ContentItem
	seen := 0
	c.OnHTML("article", func(e *colly.HTMLElement) {
		// the limit counts articles, parsed or not
		if seen >= h.Limit {
			return
		}
		seen++
		if it, ok := h.parsePaper(e); ok {
			items = append(items, it)
		}
	})
	if err := visit(ctx, c, h.URL); err != nil {
		return nil, err
	}
	return items, nil
}

func (h *HFPapers) parsePaper(e *colly.HTMLElement) (model.ContentItem, bool) {
	heading := e.DOM.Find("h3").First()
	href, ok := heading.Find("a").First().Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return model.ContentItem{}, false
	}
	link := absolute(huggingfaceURL, href)
	it := model.ContentItem{
		Source:      model.SourceHuggingFacePapers,
		Name:        squash(heading.Text()),
		URL:         link,
		Description: squash(e.ChildText("p.text-sm")),
		Upvotes:     leadingInt(e.DOM.Find("div.leading-none").First().Text()),
		FetchedAt:   h.now().UTC(),
	}
	it.ArxivID, it.PublishedDate = arxivDate(link)
	if it.PublishedDate == "" {
		it.PublishedDate = strings.TrimSpace(e.ChildAttr("time", "datetime"))
	}
	return it, true
}

// arxivDate extracts an arXiv id (YYMM.NNNNN) from a paper link and derives
// the "20YY-MM" publication month from it.
func arxivDate(link string) (id, published string) {
	if !strings.Contains(link, "arxiv.org") && !strings.Contains(link, "/papers/") {
		return "", ""
	}
	id = arxivID.FindString(link)
	if id == "" {
		return "", ""
	}
	ym := strings.SplitN(id, ".", 2)[0]
	if len(ym) == 4 {
		published = "20" + ym[:2] + "-" + ym[2:]
	}
	return id, published
}
