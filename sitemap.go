package fresh

import (
	"context"
	"regexp"
	"strings"
)

// SitemapService discovers URLs from website sitemaps.
type SitemapService interface {
	// DiscoverURLs finds all URLs from a site's sitemap.
	// It first checks robots.txt for sitemap directives, then falls back
	// to the well-known sitemap locations. Sitemap indexes are resolved
	// recursively and gzip-compressed sitemaps are decompressed.
	//
	// Only URLs under baseURL's path are returned.
	// The filter can be used to include/exclude URLs by pattern.
	// If filter is nil, all URLs are returned.
	DiscoverURLs(ctx context.Context, baseURL string, filter *URLFilter) ([]string, error)
}

// URLFilter specifies patterns for including/excluding URLs.
type URLFilter struct {
	// Include patterns - if set, only URLs matching at least one pattern are included.
	Include []*regexp.Regexp

	// Exclude patterns - URLs matching any pattern are excluded.
	// Exclude is applied after Include.
	Exclude []*regexp.Regexp
}

// Match returns true if the URL passes the filter.
// If the filter is nil, all URLs pass.
func (f *URLFilter) Match(url string) bool {
	if f == nil {
		return true
	}

	if len(f.Include) > 0 {
		matched := false
		for _, re := range f.Include {
			if re.MatchString(url) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	for _, re := range f.Exclude {
		if re.MatchString(url) {
			return false
		}
	}

	return true
}

// DefaultExcludePatterns match whole path segments of pages that are rarely
// documentation. Canonical PageRefs drop the trailing slash, so a section
// index such as /blog must match as well as /blog/post.
var DefaultExcludePatterns = []string{
	segment("blog"), segment("news"), segment("changelog"), segment("community"), segment("about"),
	segment("contact"), segment("pricing"), segment("legal"), segment("terms"), segment("privacy"),
	`/404(\.html)?$`, `/500(\.html)?$`,
}

func segment(name string) string {
	return "/" + name + "([/?#]|$)"
}

// NewURLFilter compiles include and exclude regular expressions.
// Returns EINVALID naming the first pattern that fails to compile.
func NewURLFilter(include, exclude []string) (*URLFilter, error) {
	f := &URLFilter{}
	for _, p := range include {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, Errorf(EINVALID, "invalid include pattern %q: %v", p, err)
		}
		f.Include = append(f.Include, re)
	}
	for _, p := range exclude {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, Errorf(EINVALID, "invalid exclude pattern %q: %v", p, err)
		}
		f.Exclude = append(f.Exclude, re)
	}
	return f, nil
}

// GlobToRegexp converts a URL glob into an anchored regular expression.
// "**" matches across path segments, "*" matches within one segment and
// "?" matches a single character.
func GlobToRegexp(glob string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	for i := 0; i < len(glob); i++ {
		c := glob[i]
		switch {
		case c == '*' && i+1 < len(glob) && glob[i+1] == '*':
			b.WriteString(".*")
			i++
		case c == '*':
			b.WriteString("[^/]*")
		case c == '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	b.WriteString("$")
	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, Errorf(EINVALID, "invalid glob %q: %v", glob, err)
	}
	return re, nil
}

// RobotsRules holds the robots.txt directives that apply to fresh.
type RobotsRules struct {
	Sitemaps []string
	Allow    []string
	Disallow []string
}

// Allowed reports whether path may be crawled. The longest matching rule
// wins and Allow wins a tie. Patterns support "*" wildcards and a trailing
// "$" anchor. Nil rules allow everything.
func (r *RobotsRules) Allowed(path string) bool {
	if r == nil {
		return true
	}
	best, allowed := -1, true
	for _, p := range r.Disallow {
		if len(p) > best && robotsMatch(p, path) {
			best, allowed = len(p), false
		}
	}
	for _, p := range r.Allow {
		if len(p) >= best && robotsMatch(p, path) {
			best, allowed = len(p), true
		}
	}
	return allowed
}

func robotsMatch(pattern, path string) bool {
	if pattern == "" {
		return false
	}
	anchored := strings.HasSuffix(pattern, "$")
	pattern = strings.TrimSuffix(pattern, "$")
	if !strings.Contains(pattern, "*") {
		if anchored {
			return path == pattern
		}
		return strings.HasPrefix(path, pattern)
	}
	expr := "^" + strings.ReplaceAll(regexp.QuoteMeta(pattern), `\*`, ".*")
	if anchored {
		expr += "$"
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return false
	}
	return re.MatchString(path)
}

// RobotsService reads and caches robots.txt rules per host.
type RobotsService interface {
	// Rules returns the rules for the host of rawURL. A missing or
	// unreachable robots.txt yields empty rules, not an error.
	Rules(ctx context.Context, rawURL string) (*RobotsRules, error)
}
