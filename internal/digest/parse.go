package digest

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrUnterminatedFrontmatter = errors.New("digest: unterminated frontmatter")

// Document is a Markdown file split into its frontmatter and body.
type Document struct {
	Frontmatter map[string]any
	Body        string
}

// String returns a frontmatter value formatted as text, or "".
func (d Document) String(key string) string {
	v, ok := d.Frontmatter[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func ParseFile(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads an optional frontmatter block delimited by "---" lines at the
// top of the input. Everything after the closing delimiter is the body.
func Parse(r io.Reader) (Document, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Document{}, err
	}
	text := strings.ReplaceAll(string(raw), "\r\n", "\n")
	doc := Document{Frontmatter: map[string]any{}}

	if !strings.HasPrefix(text, "---\n") {
		doc.Body = text
		return doc, nil
	}
	lines := strings.SplitAfter(text[len("---\n"):], "\n")
	for i, l := range lines {
		if strings.TrimSpace(l) != "---" {
			continue
		}
		head := strings.Join(lines[:i], "")
		if err := yaml.Unmarshal([]byte(head), &doc.Frontmatter); err != nil {
			return Document{}, fmt.Errorf("digest: frontmatter: %w", err)
		}
		if doc.Frontmatter == nil {
			doc.Frontmatter = map[string]any{}
		}
		doc.Body = strings.Join(lines[i+1:], "")
		return doc, nil
	}
	return Document{}, ErrUnterminatedFrontmatter
}
