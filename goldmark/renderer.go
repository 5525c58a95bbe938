// Package goldmark renders converted Markdown as HTML for --format html.
package goldmark

import (
	"bytes"
	"fmt"

	"github.com/nesalia/fresh"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

var _ fresh.Renderer = (*Renderer)(nil)

// Renderer converts Markdown to an HTML fragment with GitHub Flavored
// Markdown extensions. Raw HTML in the input is escaped.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer creates a new Renderer.
func NewRenderer() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		),
	}
}

// Render converts markdown to HTML.
func (r *Renderer) Render(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

// Outline parses markdown and lists its headings. Headings inside code
// blocks are not headings to the parser and are skipped. Duplicate titles
// get numbered anchors, as in Render.
func (r *Renderer) Outline(markdown string) []fresh.Section {
	src := []byte(markdown)
	doc := r.md.Parser().Parse(text.NewReader(src))

	var sections []fresh.Section
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		h, ok := n.(*ast.Heading)
		if !ok || !entering {
			return ast.WalkContinue, nil
		}
		s := fresh.Section{Level: h.Level, Title: string(h.Text(src))}
		if id, ok := h.AttributeString("id"); ok {
			if b, ok := id.([]byte); ok {
				s.Anchor = string(b)
			}
		}
		sections = append(sections, s)
		return ast.WalkSkipChildren, nil
	})
	return sections
}
