// Package digest renders ranked items as Markdown documents with YAML
// frontmatter and reads them back.
package digest

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hoodini/yuv-ai-trends/internal/model"
	"github.com/hoodini/yuv-ai-trends/internal/pipeline"
)

type Item struct {
	Title       string
	URL         string
	Description string
	Summary     string
	Meta        string
}

type Section struct {
	Source model.Source
	Title  string
	Items  []Item
}

type Data struct {
	Title      string
	Slug       string
	Datetime   string
	Range      model.DigestType
	Total      int
	Sources    map[string]int
	Preface    string
	Postscript string
	Sections   []Section
}

type frontmatter struct {
	Title    string `yaml:"title"`
	Slug     string `yaml:"slug"`
	Datetime string `yaml:"datetime"`
	Range    string `yaml:"range"`
	Stats    struct {
		Total   int            `yaml:"total"`
		Sources map[string]int `yaml:"sources,omitempty"`
	} `yaml:"stats"`
}

//go:embed digest.tmpl
var bodyTpl string

var body = template.Must(template.New("digest").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(bodyTpl))

// Render writes d as frontmatter followed by the Markdown body.
func Render(d Data) (string, error) {
	var fm frontmatter
	fm.Title = d.Title
	fm.Slug = d.Slug
	fm.Datetime = d.Datetime
	fm.Range = string(d.Range)
	fm.Stats.Total = d.Total
	fm.Stats.Sources = d.Sources

	head, err := yaml.Marshal(fm)
	if err != nil {
		return "", fmt.Errorf("digest: frontmatter: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(head)
	buf.WriteString("---\n\n")
	if err := body.Execute(&buf, d); err != nil {
		return "", fmt.Errorf("digest: body: %w", err)
	}
	return buf.String(), nil
}

// Options customize FromReport.
type Options struct {
	Title      string
	Preface    string
	Postscript string
	Limit      int
}

// FromReport builds digest data from a pipeline report, one section per
// source in the order the sources first appear.
func FromReport(rep *pipeline.Report, o Options, now time.Time) Data {
	now = now.UTC()
	title := strings.TrimSpace(ExpandVars(o.Title, now))
	if title == "" {
		title = fmt.Sprintf("AI Trends %s Digest %s", rep.DigestType.Title(), now.Format("2006-01-02"))
	}
	d := Data{
		Title:      title,
		Slug:       strings.TrimSuffix(Filename(rep.DigestType, now), ".md"),
		Datetime:   now.Format("2006-01-02 15:04"),
		Range:      rep.DigestType,
		Sources:    map[string]int{},
		Preface:    ExpandVars(o.Preface, now),
		Postscript: ExpandVars(o.Postscript, now),
	}
	left := o.Limit
	if left <= 0 {
		left = len(rep.Items)
	}
	for _, src := range rep.Grouped.Sources {
		items := rep.Grouped.Items[src]
		if left <= 0 {
			break
		}
		if len(items) > left {
			items = items[:left]
		}
		left -= len(items)
		sec := Section{Source: src, Title: src.Label(), Items: make([]Item, 0, len(items))}
		for _, it := range items {
			sec.Items = append(sec.Items, itemFrom(it))
		}
		d.Sections = append(d.Sections, sec)
		d.Sources[string(src)] = len(items)
		d.Total += len(items)
	}
	return d
}

func itemFrom(it model.RankedItem) Item {
	desc := strings.TrimSpace(it.Description)
	if desc == "" {
		desc = "No description available"
	}
	return Item{
		Title:       it.Name,
		URL:         it.URL,
		Description: desc,
		Summary:     strings.TrimSpace(it.AISummary),
		Meta:        meta(it),
	}
}

func meta(it model.RankedItem) string {
	parts := []string{fmt.Sprintf("Score: %.1f (%s)", it.Score, it.ScoreLabel)}
	switch it.Source {
	case model.SourceGitHubTrending, model.SourceGitHubExplore:
		parts = append(parts, "Stars: "+thousands(it.Stars))
		if it.StarsToday > 0 {
			parts = append(parts, "Today: +"+thousands(it.StarsToday))
		}
		if it.Language != "" {
			parts = append(parts, "Language: "+it.Language)
		}
	case model.SourceHuggingFacePapers:
		parts = append(parts, "Upvotes: "+thousands(it.Upvotes))
	case model.SourceHuggingFaceSpaces:
		parts = append(parts, "Likes: "+thousands(it.Likes))
		if it.SDK != "" {
			parts = append(parts, "SDK: "+it.SDK)
		}
	}
	return strings.Join(parts, " | ")
}

func thousands(n int) string {
	s := strconv.Itoa(n)
	if n < 0 {
		return "-" + thousands(-n)
	}
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return s
}

// Filename is "<digest>-YYYYMMDD.md".
func Filename(d model.DigestType, now time.Time) string {
	return fmt.Sprintf("%s-%s.md", d, now.UTC().Format("20060102"))
}

// WriteFile renders d into dir, creating it when needed, and returns the
// written path.
func WriteFile(dir string, d Data) (string, error) {
	out, err := Render(d)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, d.Slug+".md")
	if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
		return "", err
	}
	return path, nil
}
