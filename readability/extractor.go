// Package readability implements the "readability" extractor on top of
// go-readability, the Mozilla Readability port.
package readability

import (
	"strings"

	"github.com/go-shiori/go-readability"
	"github.com/nesalia/fresh"
)

var _ fresh.Extractor = (*Extractor)(nil)

type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the article readability scores highest. Failures are
// EINVALID so the crawl degrades the page rather than failing it.
func (e *Extractor) Extract(rawHTML string) (*fresh.ExtractResult, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, fresh.Errorf(fresh.EINVALID, "empty HTML input")
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), nil)
	if err != nil {
		return nil, fresh.Errorf(fresh.EINVALID, "no readable content: %v", err)
	}
	return &fresh.ExtractResult{
		Title:       strings.TrimSpace(article.Title),
		ContentHTML: article.Content,
	}, nil
}
