package crawl

import (
	"context"

	"github.com/nesalia/fresh"
)

// Loaded is a page body obtained from the cache or the network.
type Loaded struct {
	// Page is the canonical final URL after redirects.
	Page        fresh.PageRef
	Body        []byte
	ContentType string
	FromCache   bool
}

// StateFunc observes page state transitions.
type StateFunc func(fresh.PageState)

// Loader reads pages through the cache, fetching on a miss and writing the
// response back. Stale entries are revalidated with a conditional request.
type Loader struct {
	Fetcher fresh.Fetcher
	Cache   *Cache
}

// Load returns the body for ref. observe may be nil.
func (l *Loader) Load(ctx context.Context, ref fresh.PageRef, observe StateFunc) (*Loaded, error) {
	if observe == nil {
		observe = func(fresh.PageState) {}
	}

	observe(fresh.StateCacheCheck)
	entry, status := l.Cache.Lookup(ctx, ref)

	req := &fresh.FetchRequest{URL: ref.String()}
	switch status {
	case CacheHit:
		observe(fresh.StateCacheHit)
		return loadedFromEntry(entry), nil
	case CacheStale:
		observe(fresh.StateCacheStale)
		req.ETag = entry.ETag
		req.LastModified = entry.LastModified
	default:
		observe(fresh.StateCacheMiss)
	}

	observe(fresh.StateFetching)
	resp, err := l.Fetcher.Fetch(ctx, req)
	if err != nil {
		observe(fresh.StateFetchFailed)
		return nil, err
	}

	if resp.NotModified && entry != nil {
		refreshed := *entry
		refreshed.FetchedAt = l.Cache.now()
		refreshed.TTL = 0
		if etag := resp.Header.Get("ETag"); etag != "" {
			refreshed.ETag = etag
		}
		_ = l.Cache.Save(ctx, &refreshed)
		observe(fresh.StateFetched)
		return loadedFromEntry(&refreshed), nil
	}

	final, err := fresh.Canonicalize(resp.URL)
	if err != nil {
		final = ref
	}

	// A partial response from an aborted run is never cached.
	if ctx.Err() == nil {
		_ = l.Cache.Save(ctx, &fresh.CacheEntry{
			Key:          ref,
			URL:          resp.URL,
			StatusCode:   resp.StatusCode,
			ContentType:  resp.ContentType(),
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
			Body:         resp.Body,
		})
	}

	observe(fresh.StateFetched)
	return &Loaded{
		Page:        final,
		Body:        resp.Body,
		ContentType: resp.ContentType(),
	}, nil
}

func loadedFromEntry(e *fresh.CacheEntry) *Loaded {
	final, err := fresh.Canonicalize(e.URL)
	if err != nil {
		final = e.Key
	}
	return &Loaded{
		Page:        final,
		Body:        e.Body,
		ContentType: e.ContentType,
		FromCache:   true,
	}
}
