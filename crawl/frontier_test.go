package crawl_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/nesalia/fresh"
	"github.com/nesalia/fresh/crawl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrontier_Push_rejects_duplicate_URLs(t *testing.T) {
	t.Parallel()

	f := crawl.NewFrontier(1000, 0.01)

	assert.True(t, f.Push(fresh.DiscoveredLink{URL: "https://example.com/docs/page1"}))
	assert.False(t, f.Push(fresh.DiscoveredLink{URL: "https://example.com/docs/page1"}))
}

func TestFrontier_Push_canonicalizes_before_dedup(t *testing.T) {
	t.Parallel()

	f := crawl.NewFrontier(1000, 0.01)

	assert.True(t, f.Push(fresh.DiscoveredLink{URL: "https://example.com/docs/page1"}))
	assert.False(t, f.Push(fresh.DiscoveredLink{URL: "HTTPS://EXAMPLE.com:443/docs/page1/#section"}))
	assert.False(t, f.Push(fresh.DiscoveredLink{URL: "https://example.com/docs/./page1?utm=x"}))
	assert.False(t, f.Push(fresh.DiscoveredLink{URL: "mailto:docs@example.com"}))
	assert.Equal(t, 1, f.Len())
}

func TestFrontier_Pop_returns_links_in_insertion_order(t *testing.T) {
	t.Parallel()

	f := crawl.NewFrontier(1000, 0.01)

	f.Push(fresh.DiscoveredLink{URL: "https://example.com/footer", Priority: fresh.PriorityFooter})
	f.Push(fresh.DiscoveredLink{URL: "https://example.com/nav", Priority: fresh.PriorityNavigation, Depth: 1})

	link, ok := f.Pop()
	require.True(t, ok)
	assert.Equal(t, "https://example.com/footer", link.URL)

	link, ok = f.Pop()
	require.True(t, ok)
	assert.Equal(t, "https://example.com/nav", link.URL)
	assert.Equal(t, 1, link.Depth)

	_, ok = f.Pop()
	assert.False(t, ok, "pop on empty frontier should return false")
}

func TestFrontier_Drain(t *testing.T) {
	t.Parallel()

	f := crawl.NewFrontier(1000, 0.01)
	f.Push(fresh.DiscoveredLink{URL: "https://example.com/a"})
	f.Push(fresh.DiscoveredLink{URL: "https://example.com/b"})

	links := f.Drain()

	require.Len(t, links, 2)
	assert.Equal(t, "https://example.com/a", links[0].URL)
	assert.Equal(t, 0, f.Len())
	assert.True(t, f.Seen("https://example.com/a"), "drained links stay seen")
}

func TestFrontier_Visit_marks_without_queueing(t *testing.T) {
	t.Parallel()

	f := crawl.NewFrontier(1000, 0.01)

	assert.True(t, f.Visit(fresh.MustCanonicalize("https://example.com/final")))
	assert.False(t, f.Visit(fresh.MustCanonicalize("https://example.com/final")))
	assert.Equal(t, 0, f.Len())
	assert.False(t, f.Push(fresh.DiscoveredLink{URL: "https://example.com/final/"}))
}

func TestFrontier_Seen(t *testing.T) {
	t.Parallel()

	f := crawl.NewFrontier(1000, 0.01)

	assert.False(t, f.Seen("https://example.com/a"))
	f.Push(fresh.DiscoveredLink{URL: "https://example.com/a"})
	assert.True(t, f.Seen("https://example.com/a#top"))
	f.Pop()
	assert.True(t, f.Seen("https://example.com/a"), "popped URLs stay seen")
	assert.False(t, f.Seen("not a url"))
}

func TestFrontier_no_false_duplicates_under_saturation(t *testing.T) {
	t.Parallel()

	// A tiny, saturated filter reports nearly everything as present; the
	// exact set must still admit every distinct URL.
	f := crawl.NewFrontier(10, 0.5)

	const n = 2000
	for i := range n {
		require.True(t, f.Push(fresh.DiscoveredLink{URL: fmt.Sprintf("https://example.com/p/%d", i)}), i)
	}
	assert.Equal(t, n, f.Len())
}

func TestFrontier_concurrent_push(t *testing.T) {
	t.Parallel()

	f := crawl.NewFrontier(10000, 0.01)

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 500 {
				// Every worker pushes the same 500 URLs.
				if f.Push(fresh.DiscoveredLink{URL: fmt.Sprintf("https://example.com/%d", i)}) {
					mu.Lock()
					accepted++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 500, accepted)
	assert.Equal(t, 500, f.Len())
}
