package mock

import "github.com/nesalia/fresh"

var _ fresh.LinkSelector = (*LinkSelector)(nil)

// LinkSelector is a mock implementation of fresh.LinkSelector.
type LinkSelector struct {
	ExtractLinksFn func(html string, baseURL string) ([]fresh.DiscoveredLink, error)
	NameFn         func() string
}

func (s *LinkSelector) ExtractLinks(html string, baseURL string) ([]fresh.DiscoveredLink, error) {
	return s.ExtractLinksFn(html, baseURL)
}

func (s *LinkSelector) Name() string {
	if s.NameFn == nil {
		return "mock"
	}
	return s.NameFn()
}

var _ fresh.FrameworkDetector = (*FrameworkDetector)(nil)

// FrameworkDetector is a mock implementation of fresh.FrameworkDetector.
type FrameworkDetector struct {
	DetectFn func(html string) fresh.Framework
}

func (d *FrameworkDetector) Detect(html string) fresh.Framework {
	return d.DetectFn(html)
}
