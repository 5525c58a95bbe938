package fresh

// URLFrontier is the breadth-first queue behind crawl discovery. URLs are
// compared by their canonical PageRef form, so a link is queued at most once
// no matter how it was spelled.
type URLFrontier interface {
	// Push queues link and reports whether it was new.
	Push(link DiscoveredLink) bool

	// Pop removes the next link in FIFO order. ok is false when empty.
	Pop() (link DiscoveredLink, ok bool)

	Len() int

	// Seen reports whether url was ever pushed.
	Seen(url string) bool
}
