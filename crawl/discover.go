package crawl

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/nesalia/fresh"
	"golang.org/x/sync/errgroup"
)

// Discovery defaults.
const (
	DefaultMaxPages    = 100
	DefaultMaxDepth    = 3
	DefaultConcurrency = 4

	// frontierFalsePositiveRate is the Bloom filter target; the exact set
	// in Frontier makes false positives harmless.
	frontierFalsePositiveRate = 0.01
)

// Ensure Discoverer implements fresh.Discoverer.
var _ fresh.Discoverer = (*Discoverer)(nil)

// Discoverer builds a manifest from the site's sitemap, falling back to a
// breadth-first link crawl from the root when the sitemap yields nothing.
type Discoverer struct {
	Sitemaps     fresh.SitemapService
	Robots       fresh.RobotsService
	Loader       *Loader
	LinkSelector fresh.LinkSelector
	// Manifests, when set, serves a manifest discovered earlier the same
	// UTC day and stores new ones.
	Manifests fresh.ManifestStore
	Filter    *fresh.URLFilter

	// Zero values select the package defaults.
	Concurrency int
	MaxPages    int
	MaxDepth    int
	// Refresh ignores stored manifests.
	Refresh bool
	// IgnoreRobots disables robots.txt Disallow rules.
	IgnoreRobots bool
	Now          func() time.Time
}

func (d *Discoverer) now() time.Time {
	if d.Now == nil {
		return time.Now()
	}
	return d.Now()
}

// Discover returns the manifest for rootURL. Pages keep first-discovery
// order and never repeat. A *fresh.DiscoveryError is returned when both the
// sitemap and the crawl come up empty.
func (d *Discoverer) Discover(ctx context.Context, rootURL string) (*fresh.Manifest, error) {
	root, err := fresh.Canonicalize(rootURL)
	if err != nil {
		return nil, err
	}

	if d.Manifests != nil && !d.Refresh {
		if m, err := d.Manifests.FindManifest(ctx, root, d.now()); err == nil {
			return m, nil
		}
	}

	var rules *fresh.RobotsRules
	if d.Robots != nil && !d.IgnoreRobots {
		if rules, err = d.Robots.Rules(ctx, root.String()); err != nil {
			return nil, err
		}
	}

	scope := scope{root: root, filter: d.Filter, robots: rules}

	pages, err := d.fromSitemap(ctx, scope)
	if err != nil {
		return nil, err
	}
	source := fresh.ManifestSourceSitemap

	var crawlErr error
	if len(pages) == 0 {
		source = fresh.ManifestSourceCrawl
		pages, crawlErr = d.crawl(ctx, scope)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	if len(pages) == 0 {
		return nil, &fresh.DiscoveryError{RootURL: root.String(), Err: crawlErr}
	}

	m := &fresh.Manifest{
		RootURL:      root,
		Pages:        pages,
		Source:       source,
		DiscoveredAt: d.now().UTC(),
	}
	if d.Manifests != nil {
		// A manifest that cannot be stored is rediscovered next run.
		_ = d.Manifests.SaveManifest(ctx, m)
	}
	return m, nil
}

func (d *Discoverer) fromSitemap(ctx context.Context, sc scope) ([]fresh.PageRef, error) {
	if d.Sitemaps == nil {
		return nil, nil
	}
	urls, err := d.Sitemaps.DiscoverURLs(ctx, sc.root.String(), d.Filter)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, nil
	}

	seen := make(map[fresh.PageRef]struct{}, len(urls))
	pages := make([]fresh.PageRef, 0, len(urls))
	for _, u := range urls {
		ref, ok := sc.accept(u)
		if !ok {
			continue
		}
		if _, dup := seen[ref]; dup {
			continue
		}
		seen[ref] = struct{}{}
		pages = append(pages, ref)
		if d.MaxPages > 0 && len(pages) >= d.MaxPages {
			break
		}
	}
	return pages, nil
}

// visit is the outcome of fetching one page during the crawl.
type visit struct {
	final fresh.PageRef
	links []fresh.DiscoveredLink
	html  bool
	err   error
}

// crawl runs a level-synchronous breadth-first crawl: every page of depth k
// is fetched, concurrently, before any page of depth k+1. Results of a level
// are merged in frontier order, so the page order does not depend on which
// fetch finishes first. The returned error is the root's failure, if any.
func (d *Discoverer) crawl(ctx context.Context, sc scope) ([]fresh.PageRef, error) {
	maxPages := d.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	maxDepth := d.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	concurrency := d.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	frontier := NewFrontier(uint(maxPages)*50, frontierFalsePositiveRate)
	frontier.Push(fresh.DiscoveredLink{URL: sc.root.String(), Priority: fresh.PriorityNavigation})

	var (
		pages   []fresh.PageRef
		rootErr error
	)
	for depth := 0; depth <= maxDepth && len(pages) < maxPages; depth++ {
		level := frontier.Drain()
		if len(level) == 0 {
			break
		}

		visits := make([]visit, len(level))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(concurrency)
		for i, link := range level {
			g.Go(func() error {
				visits[i] = d.visit(gctx, fresh.PageRef(link.URL))
				return nil
			})
		}
		_ = g.Wait()
		if err := ctx.Err(); err != nil {
			return pages, err
		}

		for i, v := range visits {
			if v.err != nil {
				if depth == 0 {
					rootErr = v.err
				}
				continue
			}
			requested := fresh.PageRef(level[i].URL)
			if v.final != requested && !frontier.Visit(v.final) {
				continue
			}
			if !v.html {
				continue
			}
			if depth == 0 {
				// A redirected root moves the whole crawl scope.
				sc.root = v.final
			} else if _, ok := sc.accept(v.final.String()); !ok {
				continue
			}
			if len(pages) < maxPages {
				pages = append(pages, v.final)
			}
			if depth == maxDepth {
				continue
			}
			for _, link := range v.links {
				if _, ok := sc.accept(link.URL); !ok {
					continue
				}
				link.Depth = depth + 1
				frontier.Push(link)
			}
		}
	}
	return pages, rootErr
}

func (d *Discoverer) visit(ctx context.Context, ref fresh.PageRef) visit {
	loaded, err := d.Loader.Load(ctx, ref, nil)
	if err != nil {
		return visit{err: err}
	}
	v := visit{final: loaded.Page, html: isHTML(loaded.ContentType)}
	if !v.html || d.LinkSelector == nil {
		return v
	}
	links, err := d.LinkSelector.ExtractLinks(string(loaded.Body), loaded.Page.String())
	if err != nil {
		return v
	}
	sort.SliceStable(links, func(i, j int) bool { return links[i].Priority > links[j].Priority })
	v.links = links
	return v
}

// scope decides which URLs belong to a crawl of root: same host, under the
// root path, passing the filter and allowed by robots.txt.
type scope struct {
	root   fresh.PageRef
	filter *fresh.URLFilter
	robots *fresh.RobotsRules
}

func (s scope) accept(rawURL string) (fresh.PageRef, bool) {
	ref, err := fresh.Canonicalize(rawURL)
	if err != nil {
		return "", false
	}
	if ref.Host() != s.root.Host() {
		return "", false
	}
	if !ref.HasPathPrefix(s.root.Path()) {
		return "", false
	}
	if ref != s.root && !s.filter.Match(ref.String()) {
		return "", false
	}
	if !s.robots.Allowed(ref.Path()) {
		return "", false
	}
	return ref, true
}

// isHTML reports whether a Content-Type names an HTML document. An absent
// type is assumed to be HTML.
func isHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml")
}

// IsDiscoveryError reports whether err means nothing was discovered.
func IsDiscoveryError(err error) bool {
	var de *fresh.DiscoveryError
	return errors.As(err, &de)
}
