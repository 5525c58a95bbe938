package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/nesalia/fresh"
)

var _ fresh.SitemapService = (*LoggingSitemapService)(nil)

// LoggingSitemapService wraps a SitemapService and logs discovery results.
type LoggingSitemapService struct {
	next   fresh.SitemapService
	logger *slog.Logger
}

// NewLoggingSitemapService creates a new logging sitemap service decorator.
func NewLoggingSitemapService(next fresh.SitemapService, logger *slog.Logger) *LoggingSitemapService {
	return &LoggingSitemapService{next: next, logger: logger}
}

// DiscoverURLs delegates to the wrapped service and logs the result.
func (s *LoggingSitemapService) DiscoverURLs(ctx context.Context, baseURL string, filter *fresh.URLFilter) (urls []string, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("sitemap discovery", "url", baseURL, "count", len(urls), "duration", time.Since(begin), "err", err)
	}(time.Now())
	return s.next.DiscoverURLs(ctx, baseURL, filter)
}

var _ fresh.Discoverer = (*LoggingDiscoverer)(nil)

// LoggingDiscoverer wraps a Discoverer and logs the manifest it returns.
type LoggingDiscoverer struct {
	next   fresh.Discoverer
	logger *slog.Logger
}

// NewLoggingDiscoverer creates a new logging discoverer decorator.
func NewLoggingDiscoverer(next fresh.Discoverer, logger *slog.Logger) *LoggingDiscoverer {
	return &LoggingDiscoverer{next: next, logger: logger}
}

// Discover delegates to the wrapped discoverer and logs the manifest source
// and size.
func (d *LoggingDiscoverer) Discover(ctx context.Context, rootURL string) (m *fresh.Manifest, err error) {
	defer func(begin time.Time) {
		var source fresh.ManifestSource
		var count int
		if m != nil {
			source, count = m.Source, len(m.Pages)
		}
		d.logger.Debug("discover", "url", rootURL, "source", source, "count", count, "duration", time.Since(begin), "err", err)
	}(time.Now())
	return d.next.Discover(ctx, rootURL)
}
