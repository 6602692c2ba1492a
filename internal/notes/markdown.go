package notes

import (
	"bytes"

	"github.com/yuin/goldmark"
)

// Markdown renders note content. goldmark's default renderer drops raw
// HTML and dangerous link targets, so the output is safe to embed.
type Markdown struct {
	md goldmark.Markdown
}

func NewMarkdown() *Markdown {
	return &Markdown{md: goldmark.New()}
}

// Render converts markdown content to HTML. ok is false when conversion
// failed and the caller should fall back to escaped text.
func (m *Markdown) Render(content string) (html string, ok bool) {
	var buf bytes.Buffer
	if err := m.md.Convert([]byte(content), &buf); err != nil {
		return "", false
	}
	return buf.String(), true
}
