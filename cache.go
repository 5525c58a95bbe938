package fresh

import (
	"context"
	"time"
)

// DefaultCacheTTL is how long a cached page is served without contacting
// the origin.
const DefaultCacheTTL = 24 * time.Hour

// CacheEntry is a cached HTTP response for one page.
type CacheEntry struct {
	// Key is the canonical URL the entry was requested as.
	Key PageRef

	// URL is the final URL after redirects.
	URL string

	StatusCode   int
	ContentType  string
	ETag         string
	LastModified string
	FetchedAt    time.Time
	TTL          time.Duration
	Body         []byte
}

// Fresh reports whether the entry is still within its TTL at now.
func (e *CacheEntry) Fresh(now time.Time) bool {
	return now.Sub(e.FetchedAt) < e.TTL
}

// Revalidatable reports whether the entry carries a validator that allows
// a conditional request once it is stale.
func (e *CacheEntry) Revalidatable() bool {
	return e.ETag != "" || e.LastModified != ""
}

// CacheStore persists fetched pages keyed by their canonical URL.
// Implementations must be safe for concurrent use; concurrent writers of
// the same key resolve to last-writer-wins and never leave a torn entry.
type CacheStore interface {
	// Get returns the entry for ref regardless of freshness.
	// Returns ENOTFOUND if no entry exists and ECORRUPT if the stored
	// entry cannot be read back.
	Get(ctx context.Context, ref PageRef) (*CacheEntry, error)

	// Put stores the entry under entry.Key, replacing any previous one.
	Put(ctx context.Context, entry *CacheEntry) error

	// Invalidate removes the entry for ref. Removing a missing entry is
	// not an error.
	Invalidate(ctx context.Context, ref PageRef) error

	// Clear removes every entry.
	Clear(ctx context.Context) error
}
