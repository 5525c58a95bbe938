// Package trafilatura provides an alternative content extractor backed by
// go-trafilatura.
package trafilatura

import (
	"bytes"
	"strings"

	"github.com/markusmobius/go-trafilatura"
	"github.com/nesalia/fresh"
	"golang.org/x/net/html"
)

var _ fresh.Extractor = (*Extractor)(nil)

// Extractor wraps go-trafilatura to extract main content from HTML.
type Extractor struct {
	opts trafilatura.Options
}

// NewExtractor creates a new Extractor with fallback extractors enabled
// and links kept in the content.
func NewExtractor() *Extractor {
	return &Extractor{
		opts: trafilatura.Options{
			EnableFallback:  true,
			ExcludeComments: true,
			IncludeLinks:    true,
		},
	}
}

// Extract processes raw HTML and returns the main content. Pages where
// trafilatura finds nothing worth keeping yield an EINVALID error so the
// caller can degrade.
func (e *Extractor) Extract(rawHTML string) (*fresh.ExtractResult, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, fresh.Errorf(fresh.EINVALID, "empty HTML input")
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), e.opts)
	if err != nil {
		return nil, fresh.Errorf(fresh.EINVALID, "no extractable content: %v", err)
	}

	out := &fresh.ExtractResult{Title: strings.TrimSpace(result.Metadata.Title)}
	if result.ContentNode != nil {
		var buf bytes.Buffer
		if err := html.Render(&buf, result.ContentNode); err != nil {
			return nil, err
		}
		out.ContentHTML = buf.String()
	}
	return out, nil
}
