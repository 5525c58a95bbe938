package crawl_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nesalia/fresh"
	"github.com/nesalia/fresh/crawl"
	"github.com/nesalia/fresh/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_Lookup(t *testing.T) {
	t.Parallel()

	ref := fresh.MustCanonicalize("https://example.com/docs/a")
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("hit within ttl and miss after", func(t *testing.T) {
		t.Parallel()

		now := start
		c := crawl.NewCache(newMemoryCache(), time.Hour)
		c.Now = func() time.Time { return now }

		require.NoError(t, c.Save(context.Background(), &fresh.CacheEntry{Key: ref, Body: []byte("body")}))

		entry, status := c.Lookup(context.Background(), ref)
		assert.Equal(t, crawl.CacheHit, status)
		assert.Equal(t, []byte("body"), entry.Body)

		now = start.Add(time.Hour)
		entry, status = c.Lookup(context.Background(), ref)
		assert.Equal(t, crawl.CacheMiss, status)
		assert.Nil(t, entry)
	})

	t.Run("expired entry with validators is stale", func(t *testing.T) {
		t.Parallel()

		now := start
		c := crawl.NewCache(newMemoryCache(), time.Minute)
		c.Now = func() time.Time { return now }

		require.NoError(t, c.Save(context.Background(), &fresh.CacheEntry{Key: ref, ETag: `"abc"`}))

		now = start.Add(2 * time.Minute)
		entry, status := c.Lookup(context.Background(), ref)
		assert.Equal(t, crawl.CacheStale, status)
		assert.Equal(t, `"abc"`, entry.ETag)
	})

	t.Run("bypass never reads", func(t *testing.T) {
		t.Parallel()

		store := &mock.CacheStore{
			GetFn: func(context.Context, fresh.PageRef) (*fresh.CacheEntry, error) {
				t.Fatal("Get must not be called when bypassing")
				return nil, nil
			},
		}
		c := crawl.NewCache(store, time.Hour)
		c.Bypass = true

		_, status := c.Lookup(context.Background(), ref)
		assert.Equal(t, crawl.CacheMiss, status)
	})

	t.Run("corrupt entry counts as miss", func(t *testing.T) {
		t.Parallel()

		store := &mock.CacheStore{
			GetFn: func(context.Context, fresh.PageRef) (*fresh.CacheEntry, error) {
				return nil, fresh.Errorf(fresh.ECORRUPT, "truncated entry")
			},
		}

		_, status := crawl.NewCache(store, time.Hour).Lookup(context.Background(), ref)
		assert.Equal(t, crawl.CacheMiss, status)
	})

	t.Run("nil cache is always a miss", func(t *testing.T) {
		t.Parallel()

		var c *crawl.Cache
		_, status := c.Lookup(context.Background(), ref)
		assert.Equal(t, crawl.CacheMiss, status)
		assert.NoError(t, c.Save(context.Background(), &fresh.CacheEntry{Key: ref}))
	})

	t.Run("save reports store errors", func(t *testing.T) {
		t.Parallel()

		store := &mock.CacheStore{
			PutFn: func(context.Context, *fresh.CacheEntry) error { return errors.New("disk full") },
		}

		err := crawl.NewCache(store, time.Hour).Save(context.Background(), &fresh.CacheEntry{Key: ref})
		assert.EqualError(t, err, "disk full")
	})
}

func TestCacheStatus_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "hit", crawl.CacheHit.String())
	assert.Equal(t, "stale", crawl.CacheStale.String())
	assert.Equal(t, "miss", crawl.CacheMiss.String())
}
