package mock

import (
	"context"

	"github.com/nesalia/fresh"
)

var _ fresh.SitemapService = (*SitemapService)(nil)

// SitemapService is a mock implementation of fresh.SitemapService.
type SitemapService struct {
	DiscoverURLsFn func(ctx context.Context, baseURL string, filter *fresh.URLFilter) ([]string, error)
}

func (s *SitemapService) DiscoverURLs(ctx context.Context, baseURL string, filter *fresh.URLFilter) ([]string, error) {
	return s.DiscoverURLsFn(ctx, baseURL, filter)
}

var _ fresh.RobotsService = (*RobotsService)(nil)

// RobotsService is a mock implementation of fresh.RobotsService.
type RobotsService struct {
	RulesFn func(ctx context.Context, rawURL string) (*fresh.RobotsRules, error)
}

func (s *RobotsService) Rules(ctx context.Context, rawURL string) (*fresh.RobotsRules, error) {
	return s.RulesFn(ctx, rawURL)
}
