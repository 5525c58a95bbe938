package fresh

import (
	"net"
	"net/url"
	"path"
	"regexp"
	"strings"
	"unicode"
)

// PageRef is the canonical form of a page URL. Two raw URLs that refer to
// the same page canonicalize to the same PageRef, and canonicalizing a
// PageRef again yields the same value.
//
// The canonical form has a lower-case http or https scheme, a lower-case
// host without a default port, no userinfo, query or fragment, a path with
// dot segments resolved and duplicate slashes collapsed, and no trailing
// slash except for the root path "/".
type PageRef string

// Canonicalize parses raw and returns its canonical PageRef.
// Returns EINVALID if raw is not an absolute http(s) URL.
func Canonicalize(raw string) (PageRef, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", Errorf(EINVALID, "invalid URL %q: %v", raw, err)
	}
	return CanonicalizeURL(u)
}

// CanonicalizeURL returns the canonical PageRef for an already parsed URL.
func CanonicalizeURL(u *url.URL) (PageRef, error) {
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", Errorf(EINVALID, "unsupported URL scheme %q in %q", u.Scheme, u.String())
	}
	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" {
		return "", Errorf(EINVALID, "URL %q has no host", u.String())
	}

	port := u.Port()
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}
	switch {
	case port != "":
		host = net.JoinHostPort(host, port)
	case strings.Contains(host, ":"):
		host = "[" + host + "]"
	}

	canonical := url.URL{
		Scheme: scheme,
		Host:   host,
		Path:   cleanPath(u.Path),
	}
	return PageRef(canonical.String()), nil
}

// cleanPath resolves dot segments, collapses duplicate slashes and strips
// the trailing slash. The empty path becomes "/".
func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// MustCanonicalize is like Canonicalize but panics on error.
// It is intended for constants and tests.
func MustCanonicalize(raw string) PageRef {
	ref, err := Canonicalize(raw)
	if err != nil {
		panic(err)
	}
	return ref
}

// String returns the canonical URL.
func (r PageRef) String() string { return string(r) }

// URL returns the parsed canonical URL.
func (r PageRef) URL() *url.URL {
	u, err := url.Parse(string(r))
	if err != nil {
		return &url.URL{}
	}
	return u
}

// Host returns the host, including a non-default port.
func (r PageRef) Host() string { return r.URL().Host }

// Path returns the decoded path. It is always at least "/".
func (r PageRef) Path() string {
	if p := r.URL().Path; p != "" {
		return p
	}
	return "/"
}

// HasPathPrefix reports whether the page lives under prefix on a segment
// boundary: "/docs" matches "/docs" and "/docs/intro" but not "/docsearch".
// An empty prefix or "/" matches every path.
func (r PageRef) HasPathPrefix(prefix string) bool {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		return true
	}
	p := r.Path()
	if p == prefix {
		return true
	}
	return strings.HasPrefix(p, prefix+"/")
}

var (
	camelBoundary = regexp.MustCompile(`([a-z])([A-Z])`)
	versionWord   = regexp.MustCompile(`\bV\d+\b`)
)

// Name derives a human readable page name from the last meaningful path
// segment. Both "/guides/getting-started" and "/guides/gettingStarted/index.html"
// yield "Getting Started". Version words such as "V2" are dropped, and a
// path with nothing left yields the host.
func (r PageRef) Name() string {
	segments := strings.Split(strings.Trim(r.Path(), "/"), "/")
	last := ""
	for i := len(segments) - 1; i >= 0; i-- {
		seg := segments[i]
		if isIndexSegment(seg) {
			continue
		}
		last = seg
		break
	}
	last = strings.TrimSuffix(strings.TrimSuffix(last, ".html"), ".htm")
	if unescaped, err := url.PathUnescape(last); err == nil {
		last = unescaped
	}

	name := strings.NewReplacer("-", " ", "_", " ").Replace(last)
	name = camelBoundary.ReplaceAllString(name, "$1 $2")
	words := strings.Fields(name)
	for i, w := range words {
		words[i] = titleWord(w)
	}
	name = strings.Join(strings.Fields(versionWord.ReplaceAllString(strings.Join(words, " "), "")), " ")
	if name == "" {
		return r.URL().Hostname()
	}
	return name
}

func isIndexSegment(seg string) bool {
	switch seg {
	case "", "index", "index.html", "index.htm":
		return true
	}
	return false
}

func titleWord(w string) string {
	runes := []rune(strings.ToLower(w))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
