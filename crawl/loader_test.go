package crawl_test

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nesalia/fresh"
	"github.com/nesalia/fresh/crawl"
	"github.com/nesalia/fresh/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_Load(t *testing.T) {
	t.Parallel()

	ref := fresh.MustCanonicalize("https://example.com/docs/a")

	t.Run("second load is served from cache without fetching", func(t *testing.T) {
		t.Parallel()

		s := &site{pages: map[string]string{ref.String(): "<p>hi</p>"}}
		l := &crawl.Loader{Fetcher: s.fetcher(), Cache: crawl.NewCache(newMemoryCache(), time.Hour)}

		var states []fresh.PageState
		first, err := l.Load(context.Background(), ref, func(st fresh.PageState) { states = append(states, st) })
		require.NoError(t, err)
		assert.False(t, first.FromCache)
		assert.Equal(t, []fresh.PageState{fresh.StateCacheCheck, fresh.StateCacheMiss, fresh.StateFetching, fresh.StateFetched}, states)

		states = nil
		second, err := l.Load(context.Background(), ref, func(st fresh.PageState) { states = append(states, st) })
		require.NoError(t, err)
		assert.True(t, second.FromCache)
		assert.Equal(t, "<p>hi</p>", string(second.Body))
		assert.Equal(t, "text/html; charset=utf-8", second.ContentType)
		assert.Equal(t, []fresh.PageState{fresh.StateCacheCheck, fresh.StateCacheHit}, states)
		assert.Equal(t, int32(1), s.fetches.Load())
	})

	t.Run("bypass fetches but still writes", func(t *testing.T) {
		t.Parallel()

		s := &site{pages: map[string]string{ref.String(): "<p>v1</p>"}}
		store := newMemoryCache()
		cache := crawl.NewCache(store, time.Hour)
		l := &crawl.Loader{Fetcher: s.fetcher(), Cache: cache}

		_, err := l.Load(context.Background(), ref, nil)
		require.NoError(t, err)

		cache.Bypass = true
		s.pages[ref.String()] = "<p>v2</p>"
		got, err := l.Load(context.Background(), ref, nil)
		require.NoError(t, err)
		assert.False(t, got.FromCache)
		assert.Equal(t, "<p>v2</p>", string(got.Body))
		assert.Equal(t, int32(2), s.fetches.Load())

		stored, err := store.Get(context.Background(), ref)
		require.NoError(t, err)
		assert.Equal(t, "<p>v2</p>", string(stored.Body))
	})

	t.Run("revalidates stale entry with conditional request", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		cache := crawl.NewCache(newMemoryCache(), time.Minute)
		cache.Now = func() time.Time { return now }

		var calls atomic.Int32
		fetcher := &mock.Fetcher{
			FetchFn: func(_ context.Context, req *fresh.FetchRequest) (*fresh.FetchResponse, error) {
				if calls.Add(1) == 1 {
					return &fresh.FetchResponse{
						URL:        req.URL,
						StatusCode: http.StatusOK,
						Header:     http.Header{"Etag": []string{`"v1"`}},
						Body:       []byte("cached body"),
					}, nil
				}
				assert.Equal(t, `"v1"`, req.ETag)
				return &fresh.FetchResponse{URL: req.URL, StatusCode: http.StatusNotModified, NotModified: true}, nil
			},
		}
		l := &crawl.Loader{Fetcher: fetcher, Cache: cache}

		_, err := l.Load(context.Background(), ref, nil)
		require.NoError(t, err)

		now = now.Add(time.Hour)
		var states []fresh.PageState
		got, err := l.Load(context.Background(), ref, func(st fresh.PageState) { states = append(states, st) })
		require.NoError(t, err)
		assert.True(t, got.FromCache)
		assert.Equal(t, "cached body", string(got.Body))
		assert.Contains(t, states, fresh.StateCacheStale)

		// The refreshed entry is fresh again.
		_, status := cache.Lookup(context.Background(), ref)
		assert.Equal(t, crawl.CacheHit, status)
	})

	t.Run("reports canonical final URL after redirect", func(t *testing.T) {
		t.Parallel()

		fetcher := &mock.Fetcher{
			FetchFn: func(_ context.Context, _ *fresh.FetchRequest) (*fresh.FetchResponse, error) {
				return &fresh.FetchResponse{URL: "https://example.com/docs/b/", StatusCode: http.StatusOK}, nil
			},
		}
		l := &crawl.Loader{Fetcher: fetcher, Cache: crawl.NewCache(newMemoryCache(), time.Hour)}

		got, err := l.Load(context.Background(), ref, nil)
		require.NoError(t, err)
		assert.Equal(t, fresh.MustCanonicalize("https://example.com/docs/b"), got.Page)
	})

	t.Run("fetch failure is terminal", func(t *testing.T) {
		t.Parallel()

		s := &site{pages: map[string]string{}}
		l := &crawl.Loader{Fetcher: s.fetcher(), Cache: crawl.NewCache(newMemoryCache(), time.Hour)}

		var last fresh.PageState
		_, err := l.Load(context.Background(), ref, func(st fresh.PageState) { last = st })

		var fe *fresh.FetchError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, http.StatusNotFound, fe.StatusCode)
		assert.Equal(t, fresh.StateFetchFailed, last)
	})

	t.Run("works without a cache", func(t *testing.T) {
		t.Parallel()

		s := &site{pages: map[string]string{ref.String(): "x"}}
		l := &crawl.Loader{Fetcher: s.fetcher()}

		for range 2 {
			_, err := l.Load(context.Background(), ref, nil)
			require.NoError(t, err)
		}
		assert.Equal(t, int32(2), s.fetches.Load())
	})
}
