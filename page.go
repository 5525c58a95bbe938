package fresh

import (
	"context"
	"encoding/json"
	"time"
)

// PageState is a step in the life of one page during a run.
type PageState int

// Page states in the order a page normally moves through them.
// CacheHit and CacheStale skip to Extracting and Fetching respectively;
// FetchFailed is terminal.
const (
	StatePending PageState = iota
	StateCacheCheck
	StateCacheHit
	StateCacheStale
	StateCacheMiss
	StateFetching
	StateFetched
	StateFetchFailed
	StateExtracting
	StateDone
)

var pageStateNames = [...]string{
	StatePending:     "pending",
	StateCacheCheck:  "cache_check",
	StateCacheHit:    "cache_hit",
	StateCacheStale:  "cache_stale",
	StateCacheMiss:   "cache_miss",
	StateFetching:    "fetching",
	StateFetched:     "fetched",
	StateFetchFailed: "fetch_failed",
	StateExtracting:  "extracting",
	StateDone:        "done",
}

func (s PageState) String() string {
	if s < 0 || int(s) >= len(pageStateNames) {
		return "unknown"
	}
	return pageStateNames[s]
}

// Terminal reports whether no further transition follows s.
func (s PageState) Terminal() bool {
	return s == StateDone || s == StateFetchFailed
}

// CrawlResult is the outcome for one page.
type CrawlResult struct {
	Page     PageRef
	Title    string
	Markdown string
	// Links are the same-host pages the page links to, canonicalized and
	// deduplicated in document order.
	Links     []PageRef
	// Sections is the heading outline of Markdown. It is only filled
	// for JSON output.
	Sections  []Section
	FromCache bool
	// Degraded is set when no content region was found and Markdown holds
	// only the title and a notice.
	Degraded bool
	State    PageState
	Err      error
}

// MarshalJSON encodes the result with its error as a message string.
func (r *CrawlResult) MarshalJSON() ([]byte, error) {
	type result struct {
		Page      PageRef   `json:"page"`
		Title     string    `json:"title,omitempty"`
		Markdown  string    `json:"markdown,omitempty"`
		Links     []PageRef `json:"links,omitempty"`
		Sections  []Section `json:"sections,omitempty"`
		FromCache bool      `json:"fromCache"`
		Degraded  bool      `json:"degraded,omitempty"`
		State     string    `json:"state"`
		Error     string    `json:"error,omitempty"`
	}
	out := result{
		Page:      r.Page,
		Title:     r.Title,
		Markdown:  r.Markdown,
		Links:     r.Links,
		Sections:  r.Sections,
		FromCache: r.FromCache,
		Degraded:  r.Degraded,
		State:     r.State.String(),
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return json.Marshal(out)
}

// Page represents a converted documentation page ready to be written out.
type Page struct {
	URL       string
	Title     string
	Content   string
	FetchedAt time.Time
	Degraded  bool
}

// PageStore persists pages to storage with atomic semantics.
// Save writes to a temporary location; Commit makes changes permanent;
// Abort discards pending changes.
type PageStore interface {
	Save(ctx context.Context, page *Page) error
	Commit() error
	Abort() error
}
