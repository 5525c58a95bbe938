package http

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/beevik/etree"
	"github.com/nesalia/fresh"
)

// WellKnownSitemapPaths are tried in order when robots.txt declares no
// sitemap.
var WellKnownSitemapPaths = []string{"/sitemap.xml", "/sitemap_index.xml", "/sitemap-index.xml"}

const (
	maxSitemapDepth = 5
	maxSitemapSize  = 50 << 20
)

// Ensure SitemapService implements fresh.SitemapService.
var _ fresh.SitemapService = (*SitemapService)(nil)

// SitemapService discovers URLs from website sitemaps via HTTP.
type SitemapService struct {
	fetcher fresh.Fetcher
	robots  fresh.RobotsService
}

// SitemapOption configures a SitemapService.
type SitemapOption func(*SitemapService)

// WithRobots shares a RobotsService so robots.txt is fetched once per host.
func WithRobots(robots fresh.RobotsService) SitemapOption {
	return func(s *SitemapService) {
		s.robots = robots
	}
}

// NewSitemapService creates a new SitemapService that fetches through
// fetcher. If fetcher is nil, a default Fetcher is used.
func NewSitemapService(fetcher fresh.Fetcher, opts ...SitemapOption) *SitemapService {
	if fetcher == nil {
		fetcher = NewFetcher()
	}
	s := &SitemapService{fetcher: fetcher}
	for _, opt := range opts {
		opt(s)
	}
	if s.robots == nil {
		s.robots = NewRobotsService(fetcher)
	}
	return s
}

// DiscoverURLs finds all URLs from a site's sitemap.
// Returns an empty slice (not nil) if no sitemaps are found. Sitemaps that
// fail to download or parse are skipped; only context errors are returned.
//
// When baseURL has a non-root path (e.g., https://example.com/docs/),
// only URLs with paths starting with that prefix are returned.
func (s *SitemapService) DiscoverURLs(ctx context.Context, baseURL string, filter *fresh.URLFilter) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fresh.Errorf(fresh.EINVALID, "invalid base URL: %v", err)
	}

	pathPrefix := base.Path
	if pathPrefix == "/" {
		pathPrefix = ""
	}

	// Sitemaps live at the root of the host.
	sitemapBase := &url.URL{Scheme: base.Scheme, Host: base.Host, Path: "/"}

	rules, err := s.robots.Rules(ctx, sitemapBase.String())
	if err != nil {
		return nil, err
	}

	// Declared sitemaps come first. If none of them yields a URL (stale
	// Sitemap: lines are common) the well-known locations are tried in turn
	// until one does.
	seenSitemaps := make(map[string]bool)
	var found []string
	for _, loc := range rules.Sitemaps {
		urls, err := s.processSitemap(ctx, resolve(sitemapBase, loc), seenSitemaps, 0)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		found = append(found, urls...)
	}
	for _, p := range WellKnownSitemapPaths {
		if len(found) > 0 {
			break
		}
		urls, err := s.processSitemap(ctx, resolve(sitemapBase, p), seenSitemaps, 0)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		found = urls
	}

	result := []string{}
	seenURLs := make(map[string]bool)
	for _, u := range found {
		if seenURLs[u] {
			continue
		}
		seenURLs[u] = true
		if pathPrefix != "" && !matchesPathPrefix(u, pathPrefix) {
			continue
		}
		if !filter.Match(u) {
			continue
		}
		result = append(result, u)
	}
	return result, nil
}

// matchesPathPrefix checks if a URL's path starts with the given prefix,
// respecting path boundaries (e.g., /docs matches /docs and /docs/intro but
// not /documentation).
func matchesPathPrefix(rawURL, prefix string) bool {
	ref, err := fresh.Canonicalize(rawURL)
	if err != nil {
		return false
	}
	return ref.HasPathPrefix(prefix)
}

// processSitemap fetches and parses a sitemap, handling both urlset and sitemapindex.
func (s *SitemapService) processSitemap(ctx context.Context, sitemapURL string, seen map[string]bool, depth int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if seen[sitemapURL] || depth > maxSitemapDepth {
		return nil, nil
	}
	seen[sitemapURL] = true

	body, err := s.fetchSitemap(ctx, sitemapURL)
	if err != nil {
		return nil, err
	}

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(body); err != nil {
		return nil, fmt.Errorf("parsing sitemap XML %s: %w", sitemapURL, err)
	}

	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("empty sitemap XML %s", sitemapURL)
	}

	base, _ := url.Parse(sitemapURL)
	switch root.Tag {
	case "sitemapindex":
		return s.processSitemapIndex(ctx, base, root, seen, depth)
	case "urlset":
		return parseURLSet(base, root), nil
	}
	return nil, fmt.Errorf("unexpected sitemap root <%s> in %s", root.Tag, sitemapURL)
}

// processSitemapIndex processes a <sitemapindex> element recursively.
// Child sitemaps that fail are skipped.
func (s *SitemapService) processSitemapIndex(ctx context.Context, base *url.URL, root *etree.Element, seen map[string]bool, depth int) ([]string, error) {
	var allURLs []string

	for _, sitemap := range root.SelectElements("sitemap") {
		loc := sitemap.SelectElement("loc")
		if loc == nil {
			continue
		}
		sitemapURL := strings.TrimSpace(loc.Text())
		if sitemapURL == "" {
			continue
		}

		urls, err := s.processSitemap(ctx, resolve(base, sitemapURL), seen, depth+1)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		allURLs = append(allURLs, urls...)
	}

	return allURLs, nil
}

// parseURLSet extracts URLs from a <urlset> element. Relative locations are
// resolved against the sitemap's own URL.
func parseURLSet(base *url.URL, root *etree.Element) []string {
	var urls []string
	for _, urlEl := range root.SelectElements("url") {
		loc := urlEl.SelectElement("loc")
		if loc == nil {
			continue
		}
		u := strings.TrimSpace(loc.Text())
		if u != "" {
			urls = append(urls, resolve(base, u))
		}
	}
	return urls
}

// fetchSitemap downloads a sitemap, transparently decompressing gzip
// content whether or not the server labelled it.
func (s *SitemapService) fetchSitemap(ctx context.Context, sitemapURL string) (io.Reader, error) {
	resp, err := s.fetcher.Fetch(ctx, &fresh.FetchRequest{URL: sitemapURL})
	if err != nil {
		return nil, err
	}

	if !bytes.HasPrefix(resp.Body, []byte{0x1f, 0x8b}) {
		return bytes.NewReader(resp.Body), nil
	}

	zr, err := gzip.NewReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("opening gzip sitemap %s: %w", sitemapURL, err)
	}
	defer zr.Close()

	data, err := io.ReadAll(io.LimitReader(zr, maxSitemapSize))
	if err != nil {
		return nil, fmt.Errorf("decompressing sitemap %s: %w", sitemapURL, err)
	}
	return bytes.NewReader(data), nil
}

func resolve(base *url.URL, ref string) string {
	if base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}
