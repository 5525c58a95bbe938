package crawl

import (
	"strings"

	"github.com/nesalia/fresh"
)

// DegradedNotice is appended below the title when a page yields no
// extractable content.
const DegradedNotice = "_No main content could be extracted from this page._"

// Markdown is the converted content of one page.
type Markdown struct {
	Title    string
	Content  string
	Degraded bool
}

// MarkdownPipeline runs content extraction followed by conversion.
type MarkdownPipeline struct {
	Extractor fresh.Extractor
	Converter fresh.Converter

	// Title reads the document title. It names degraded pages when the
	// extractor fails or reports no title. Optional.
	Title func(html string) string
}

// Convert turns a raw HTML page into Markdown. When no content region is
// found, or it converts to nothing, the result is degraded to the page
// title followed by DegradedNotice rather than failing.
func (p *MarkdownPipeline) Convert(html string) (*Markdown, error) {
	if strings.TrimSpace(html) == "" {
		return degraded(""), nil
	}

	extracted, err := p.Extractor.Extract(html)
	if err != nil {
		if fresh.ErrorCode(err) == fresh.EINVALID {
			return degraded(p.fallbackTitle(html)), nil
		}
		return nil, err
	}
	title := strings.TrimSpace(extracted.Title)
	if title == "" {
		title = p.fallbackTitle(html)
	}
	if strings.TrimSpace(extracted.ContentHTML) == "" {
		return degraded(title), nil
	}

	md, err := p.Converter.Convert(extracted.ContentHTML)
	if err != nil {
		if fresh.ErrorCode(err) == fresh.EINVALID {
			return degraded(title), nil
		}
		return nil, err
	}
	md = strings.TrimSpace(md)
	if md == "" {
		return degraded(title), nil
	}

	return &Markdown{Title: title, Content: md}, nil
}

func (p *MarkdownPipeline) fallbackTitle(html string) string {
	if p.Title == nil {
		return ""
	}
	return strings.TrimSpace(p.Title(html))
}

func degraded(title string) *Markdown {
	if title == "" {
		title = "Untitled"
	}
	return &Markdown{
		Title:    title,
		Content:  "# " + title + "\n\n" + DegradedNotice,
		Degraded: true,
	}
}
