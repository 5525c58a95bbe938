package goquery

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/nesalia/fresh"
)

var _ fresh.LinkSelector = (*LinkSelector)(nil)

// selectorConfig defines a CSS selector with its priority and source label.
type selectorConfig struct {
	selector string
	priority fresh.LinkPriority
	source   string
}

// genericLinks uses common HTML patterns that work across frameworks.
var genericLinks = []selectorConfig{
	{".toc a[href], .table-of-contents a[href], .sidebar a[href], aside a[href]", fresh.PriorityTOC, "toc"},
	{"nav a[href], [role='navigation'] a[href], .nav a[href], .menu a[href], .navbar a[href]", fresh.PriorityNavigation, "nav"},
	{"main a[href], article a[href], .content a[href], .doc-content a[href]", fresh.PriorityContent, "content"},
	{"footer a[href], .footer a[href]", fresh.PriorityFooter, "footer"},
}

// frameworkLinks targets the navigation regions of known generators. They
// run before genericLinks, whose matches only fill in what these missed.
var frameworkLinks = map[fresh.Framework][]selectorConfig{
	fresh.FrameworkDocusaurus: {
		{".table-of-contents a[href]", fresh.PriorityTOC, "toc"},
		{".theme-doc-sidebar-container a[href]", fresh.PriorityNavigation, "sidebar"},
		{"nav.navbar a[href]", fresh.PriorityNavigation, "navbar"},
	},
	fresh.FrameworkMkDocs: {
		{".md-sidebar--secondary a[href], [data-md-component='toc'] a[href]", fresh.PriorityTOC, "toc"},
		{".md-nav--primary a[href], [data-md-component='navigation'] a[href]", fresh.PriorityNavigation, "nav"},
		{".md-content a[href]", fresh.PriorityContent, "content"},
	},
	fresh.FrameworkSphinx: {
		{".toctree-wrapper a[href], #localtoc a[href]", fresh.PriorityTOC, "toc"},
		{".wy-nav-side a[href], .wy-menu-vertical a[href], .sphinxsidebar a[href]", fresh.PriorityNavigation, "nav"},
		{".document a[href], .body a[href]", fresh.PriorityContent, "content"},
	},
	fresh.FrameworkVitePress: {
		{".VPDocAsideOutline a[href]", fresh.PriorityTOC, "toc"},
		{".VPSidebar a[href]", fresh.PriorityNavigation, "sidebar"},
		{".VPNav a[href]", fresh.PriorityNavigation, "nav"},
		{".VPDoc a[href]", fresh.PriorityContent, "content"},
	},
	fresh.FrameworkVuePress: {
		{".sidebar-links a[href], .sidebar a[href]", fresh.PriorityNavigation, "sidebar"},
		{".theme-default-content a[href]", fresh.PriorityContent, "content"},
	},
	fresh.FrameworkGitBook: {
		{"[data-testid='page.desktopTableOfContents'] a[href]", fresh.PriorityTOC, "toc"},
		{"[data-testid='space.sidebar'] a[href]", fresh.PriorityNavigation, "sidebar"},
		{"[data-testid='space.header'] a[href]", fresh.PriorityNavigation, "header"},
		{"[data-testid='page.contentEditor'] a[href]", fresh.PriorityContent, "content"},
	},
	fresh.FrameworkNextra: {
		{".nextra-toc a[href]", fresh.PriorityTOC, "toc"},
		{".nextra-sidebar a[href]", fresh.PriorityNavigation, "sidebar"},
		{".nextra-navbar a[href]", fresh.PriorityNavigation, "navbar"},
	},
}

// LinkSelector extracts prioritized same-host links from documentation
// pages. The framework is detected per page; its selectors run first,
// then the generic ones, and finally any anchor under the base URL's path
// is picked up with PriorityFallback so sites with non-semantic markup are
// still crawlable.
type LinkSelector struct {
	detector *Detector
}

// NewLinkSelector creates a new LinkSelector.
func NewLinkSelector() *LinkSelector {
	return &LinkSelector{detector: NewDetector()}
}

// Name returns the selector's identifier.
func (s *LinkSelector) Name() string {
	return "goquery"
}

// ExtractLinks parses HTML and returns discovered links in document order.
// Links are deduplicated by URL, keeping the highest priority version.
// External, non-HTTP, anchor-only and self-referential links are dropped.
func (s *LinkSelector) ExtractLinks(html string, baseURL string) ([]fresh.DiscoveredLink, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fresh.Errorf(fresh.EINVALID, "invalid base URL: %v", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fresh.Errorf(fresh.EINVALID, "failed to parse HTML: %v", err)
	}

	c := &linkCollector{base: base, seen: make(map[string]int)}
	for _, cfg := range frameworkLinks[s.detector.detect(doc)] {
		c.collect(doc, cfg)
	}
	for _, cfg := range genericLinks {
		c.collect(doc, cfg)
	}
	c.collectFallback(doc)

	return c.links, nil
}

type linkCollector struct {
	base  *url.URL
	seen  map[string]int
	links []fresh.DiscoveredLink
}

func (c *linkCollector) collect(doc *goquery.Document, cfg selectorConfig) {
	doc.Find(cfg.selector).Each(func(_ int, sel *goquery.Selection) {
		if resolved, ok := c.resolve(sel); ok {
			c.add(fresh.DiscoveredLink{
				URL:      resolved,
				Priority: cfg.priority,
				Text:     strings.TrimSpace(sel.Text()),
				Source:   cfg.source,
			})
		}
	})
}

// collectFallback adds every anchor under the base URL's path.
func (c *linkCollector) collectFallback(doc *goquery.Document) {
	basePath := strings.TrimSuffix(c.base.Path, "/")
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		resolved, ok := c.resolve(sel)
		if !ok {
			return
		}
		u, err := url.Parse(resolved)
		if err != nil {
			return
		}
		if basePath != "" && u.Path != basePath && !strings.HasPrefix(u.Path, basePath+"/") {
			return
		}
		c.add(fresh.DiscoveredLink{
			URL:      resolved,
			Priority: fresh.PriorityFallback,
			Text:     strings.TrimSpace(sel.Text()),
			Source:   "fallback",
		})
	})
}

func (c *linkCollector) add(link fresh.DiscoveredLink) {
	if idx, ok := c.seen[link.URL]; ok {
		if link.Priority > c.links[idx].Priority {
			c.links[idx] = link
		}
		return
	}
	c.seen[link.URL] = len(c.links)
	c.links = append(c.links, link)
}

// resolve returns the absolute same-host URL of an anchor, fragment
// stripped.
func (c *linkCollector) resolve(sel *goquery.Selection) (string, bool) {
	href := strings.TrimSpace(sel.AttrOr("href", ""))
	if href == "" || strings.HasPrefix(href, "#") || isNonHTTPLink(href) {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	resolved := c.base.ResolveReference(ref)
	resolved.Fragment = ""
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}
	if resolved.Host != c.base.Host {
		return "", false
	}

	self := *c.base
	self.Fragment = ""
	if resolved.String() == self.String() {
		return "", false
	}
	return resolved.String(), true
}

// isNonHTTPLink checks if a href is a non-HTTP link that should be skipped.
func isNonHTTPLink(href string) bool {
	href = strings.ToLower(href)
	for _, scheme := range []string{"javascript:", "mailto:", "tel:", "data:"} {
		if strings.HasPrefix(href, scheme) {
			return true
		}
	}
	return false
}
