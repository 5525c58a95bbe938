package crawl

import (
	"sync"

	"github.com/nesalia/fresh"
	"github.com/nesalia/fresh/bloom"
)

// Compile-time interface verification.
var _ fresh.URLFrontier = (*Frontier)(nil)

// Frontier is an in-memory breadth-first URL queue. URLs are canonicalized
// before deduplication. The Bloom filter answers most "never seen" checks
// and an exact set confirms its positives, so no page is dropped as a false
// duplicate. It is safe for concurrent use by multiple goroutines.
type Frontier struct {
	mu    sync.Mutex
	seen  *bloom.Filter
	exact map[fresh.PageRef]struct{}
	queue []fresh.DiscoveredLink
}

// NewFrontier creates a new Frontier sized for n expected URLs
// with the given false positive rate for the Bloom filter.
func NewFrontier(n uint, fpRate float64) *Frontier {
	return &Frontier{
		seen:  bloom.NewFilter(n, fpRate),
		exact: make(map[fresh.PageRef]struct{}),
	}
}

// Push canonicalizes the link's URL and queues it.
// Returns false if the URL is invalid or has already been seen.
func (f *Frontier) Push(link fresh.DiscoveredLink) bool {
	ref, err := fresh.Canonicalize(link.URL)
	if err != nil {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.markLocked(ref) {
		return false
	}
	link.URL = ref.String()
	f.queue = append(f.queue, link)
	return true
}

// Visit marks ref as seen without queueing it. It returns false if ref was
// already seen. Redirect targets are recorded this way so later links to
// them are not fetched again.
func (f *Frontier) Visit(ref fresh.PageRef) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.markLocked(ref)
}

func (f *Frontier) markLocked(ref fresh.PageRef) bool {
	if f.seen.TestAndAdd(ref.String()) {
		if _, ok := f.exact[ref]; ok {
			return false
		}
	}
	f.exact[ref] = struct{}{}
	return true
}

// Pop returns the oldest queued link.
// The bool result is false if the frontier is empty.
func (f *Frontier) Pop() (fresh.DiscoveredLink, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.queue) == 0 {
		return fresh.DiscoveredLink{}, false
	}
	link := f.queue[0]
	f.queue[0] = fresh.DiscoveredLink{}
	f.queue = f.queue[1:]
	return link, true
}

// Drain removes and returns every queued link in FIFO order.
func (f *Frontier) Drain() []fresh.DiscoveredLink {
	f.mu.Lock()
	defer f.mu.Unlock()

	links := f.queue
	f.queue = nil
	return links
}

// Len returns the number of URLs in the queue.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}

// Seen returns true if the URL has been processed or queued.
func (f *Frontier) Seen(rawURL string) bool {
	ref, err := fresh.Canonicalize(rawURL)
	if err != nil {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.seen.Test(ref.String()) {
		return false
	}
	_, ok := f.exact[ref]
	return ok
}
