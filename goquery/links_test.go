package goquery_test

import (
	"testing"

	"github.com/nesalia/fresh"
	"github.com/nesalia/fresh/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linkURLs(links []fresh.DiscoveredLink) []string {
	urls := make([]string, len(links))
	for i, l := range links {
		urls[i] = l.URL
	}
	return urls
}

func TestLinkSelector_Name(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "goquery", goquery.NewLinkSelector().Name())
}

func TestLinkSelector_ExtractLinks(t *testing.T) {
	t.Parallel()

	t.Run("assigns priority by page region", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
<nav><a href="/docs/nav">Nav</a></nav>
<div class="toc"><a href="/docs/toc">TOC</a></div>
<main><a href="/docs/content">Content</a></main>
<footer><a href="/docs/footer">Footer</a></footer>
</body></html>`

		links, err := goquery.NewLinkSelector().ExtractLinks(html, "https://example.com/docs/")
		require.NoError(t, err)
		require.Len(t, links, 4)

		byURL := make(map[string]fresh.DiscoveredLink)
		for _, l := range links {
			byURL[l.URL] = l
		}
		assert.Equal(t, fresh.PriorityNavigation, byURL["https://example.com/docs/nav"].Priority)
		assert.Equal(t, fresh.PriorityTOC, byURL["https://example.com/docs/toc"].Priority)
		assert.Equal(t, fresh.PriorityContent, byURL["https://example.com/docs/content"].Priority)
		assert.Equal(t, fresh.PriorityFooter, byURL["https://example.com/docs/footer"].Priority)
		assert.Equal(t, "Nav", byURL["https://example.com/docs/nav"].Text)
	})

	t.Run("keeps highest priority for duplicates", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
<main><a href="/docs/a">In content</a></main>
<aside><a href="/docs/a#intro">In sidebar</a></aside>
</body></html>`

		links, err := goquery.NewLinkSelector().ExtractLinks(html, "https://example.com/docs")
		require.NoError(t, err)
		require.Len(t, links, 1)
		assert.Equal(t, "https://example.com/docs/a", links[0].URL)
		assert.Equal(t, fresh.PriorityTOC, links[0].Priority)
	})

	t.Run("drops external, non-HTTP, anchor-only and self links", func(t *testing.T) {
		t.Parallel()

		html := `<html><body><main>
<a href="https://other.com/docs/x">External</a>
<a href="https://sub.example.com/docs/x">Subdomain</a>
<a href="mailto:docs@example.com">Mail</a>
<a href="javascript:void(0)">JS</a>
<a href="tel:123">Tel</a>
<a href="#section">Anchor</a>
<a href="/docs/page">Self</a>
<a href="">Empty</a>
<a href="ftp://example.com/docs/file">FTP</a>
<a href="guide">Relative</a>
</main></body></html>`

		links, err := goquery.NewLinkSelector().ExtractLinks(html, "https://example.com/docs/page")
		require.NoError(t, err)
		assert.Equal(t, []string{"https://example.com/docs/guide"}, linkURLs(links))
	})

	t.Run("falls back to any anchor under the base path", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
<div class="grid"><a href="/docs/one">One</a><a href="/blog/post">Blog</a><a href="/docsearch">Search</a></div>
</body></html>`

		links, err := goquery.NewLinkSelector().ExtractLinks(html, "https://example.com/docs")
		require.NoError(t, err)
		require.Len(t, links, 1)
		assert.Equal(t, "https://example.com/docs/one", links[0].URL)
		assert.Equal(t, fresh.PriorityFallback, links[0].Priority)
		assert.Equal(t, "fallback", links[0].Source)
	})

	t.Run("uses framework selectors when detected", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
<div class="theme-doc-sidebar-container"><a href="/docs/sidebar">Sidebar</a></div>
<div class="table-of-contents"><a href="/docs/guide#usage">Usage</a></div>
</body></html>`

		links, err := goquery.NewLinkSelector().ExtractLinks(html, "https://example.com/docs/guide")
		require.NoError(t, err)
		require.Len(t, links, 1)
		assert.Equal(t, "https://example.com/docs/sidebar", links[0].URL)
		assert.Equal(t, "sidebar", links[0].Source)
		assert.Equal(t, fresh.PriorityNavigation, links[0].Priority)
	})

	t.Run("keeps document order of first occurrence", func(t *testing.T) {
		t.Parallel()

		html := `<html><body><main>
<a href="/c">C</a><a href="/a">A</a><a href="/b">B</a><a href="/a">A again</a>
</main></body></html>`

		links, err := goquery.NewLinkSelector().ExtractLinks(html, "https://example.com/")
		require.NoError(t, err)
		assert.Equal(t, []string{"https://example.com/c", "https://example.com/a", "https://example.com/b"}, linkURLs(links))
	})

	t.Run("rejects invalid base URL", func(t *testing.T) {
		t.Parallel()

		_, err := goquery.NewLinkSelector().ExtractLinks("<a href='/x'>x</a>", "://bad")
		assert.Equal(t, fresh.EINVALID, fresh.ErrorCode(err))
	})
}
