package mock

import "github.com/nesalia/fresh"

var _ fresh.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of fresh.Extractor.
type Extractor struct {
	ExtractFn func(html string) (*fresh.ExtractResult, error)
}

func (e *Extractor) Extract(html string) (*fresh.ExtractResult, error) {
	return e.ExtractFn(html)
}
