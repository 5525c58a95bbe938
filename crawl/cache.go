package crawl

import (
	"context"
	"time"

	"github.com/nesalia/fresh"
)

// CacheStatus is the outcome of a cache lookup.
type CacheStatus int

// Cache lookup outcomes.
const (
	CacheMiss CacheStatus = iota
	CacheHit
	// CacheStale means the entry expired but can be revalidated with a
	// conditional request.
	CacheStale
)

func (s CacheStatus) String() string {
	switch s {
	case CacheHit:
		return "hit"
	case CacheStale:
		return "stale"
	}
	return "miss"
}

// Cache applies freshness policy on top of a fresh.CacheStore.
type Cache struct {
	Store fresh.CacheStore
	TTL   time.Duration
	// Bypass skips reads; responses are still written.
	Bypass bool
	Now    func() time.Time
}

// NewCache creates a Cache with the given TTL.
func NewCache(store fresh.CacheStore, ttl time.Duration) *Cache {
	return &Cache{Store: store, TTL: ttl, Now: time.Now}
}

func (c *Cache) now() time.Time {
	if c == nil || c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

// Lookup returns the cached entry for ref and its status. Missing, corrupt
// and unreadable entries all count as a miss, as does an expired entry
// without validators.
func (c *Cache) Lookup(ctx context.Context, ref fresh.PageRef) (*fresh.CacheEntry, CacheStatus) {
	if c == nil || c.Store == nil || c.Bypass {
		return nil, CacheMiss
	}
	entry, err := c.Store.Get(ctx, ref)
	if err != nil {
		return nil, CacheMiss
	}
	if entry.Fresh(c.now()) {
		return entry, CacheHit
	}
	if entry.Revalidatable() {
		return entry, CacheStale
	}
	return nil, CacheMiss
}

// Save stores the entry, stamping it with the cache TTL when it has none.
func (c *Cache) Save(ctx context.Context, entry *fresh.CacheEntry) error {
	if c == nil || c.Store == nil {
		return nil
	}
	if entry.TTL == 0 {
		entry.TTL = c.TTL
	}
	if entry.FetchedAt.IsZero() {
		entry.FetchedAt = c.now()
	}
	return c.Store.Put(ctx, entry)
}
