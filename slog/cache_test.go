package slog_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/nesalia/fresh"
	"github.com/nesalia/fresh/mock"
	freshslog "github.com/nesalia/fresh/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingCacheStore(t *testing.T) {
	t.Parallel()

	ref := fresh.MustCanonicalize("https://example.com/docs/a")

	t.Run("logs hits with size", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.CacheStore{
			GetFn: func(_ context.Context, r fresh.PageRef) (*fresh.CacheEntry, error) {
				return &fresh.CacheEntry{Key: r, Body: []byte("hello")}, nil
			},
		}

		store := freshslog.NewLoggingCacheStore(inner, debugLogger(&buf))
		entry, err := store.Get(context.Background(), ref)

		require.NoError(t, err)
		assert.Equal(t, ref, entry.Key)
		assert.Contains(t, buf.String(), "cache get")
		assert.Contains(t, buf.String(), "url=https://example.com/docs/a")
		assert.Contains(t, buf.String(), "bytes=5")
	})

	t.Run("logs misses at debug level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.CacheStore{
			GetFn: func(_ context.Context, r fresh.PageRef) (*fresh.CacheEntry, error) {
				return nil, fresh.Errorf(fresh.ENOTFOUND, "no entry")
			},
		}

		store := freshslog.NewLoggingCacheStore(inner, debugLogger(&buf))
		_, err := store.Get(context.Background(), ref)

		assert.Equal(t, fresh.ENOTFOUND, fresh.ErrorCode(err))
		assert.Contains(t, buf.String(), "level=DEBUG")
		assert.Contains(t, buf.String(), "miss=true")
	})

	t.Run("warns on corrupt entries", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.CacheStore{
			GetFn: func(_ context.Context, r fresh.PageRef) (*fresh.CacheEntry, error) {
				return nil, fresh.Errorf(fresh.ECORRUPT, "bad header")
			},
		}

		store := freshslog.NewLoggingCacheStore(inner, debugLogger(&buf))
		_, err := store.Get(context.Background(), ref)

		assert.Equal(t, fresh.ECORRUPT, fresh.ErrorCode(err))
		assert.Contains(t, buf.String(), "level=WARN")
	})

	t.Run("warns on failed writes", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
		inner := &mock.CacheStore{
			PutFn: func(_ context.Context, e *fresh.CacheEntry) error {
				return errors.New("disk full")
			},
		}

		store := freshslog.NewLoggingCacheStore(inner, logger)
		err := store.Put(context.Background(), &fresh.CacheEntry{Key: ref, Body: []byte("abc")})

		require.Error(t, err)
		assert.Contains(t, buf.String(), "level=WARN")
		assert.Contains(t, buf.String(), `err="disk full"`)
		assert.Contains(t, buf.String(), "bytes=3")
	})

	t.Run("successful writes stay quiet at warn level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
		inner := &mock.CacheStore{
			PutFn: func(_ context.Context, e *fresh.CacheEntry) error { return nil },
		}

		store := freshslog.NewLoggingCacheStore(inner, logger)

		require.NoError(t, store.Put(context.Background(), &fresh.CacheEntry{Key: ref}))
		assert.Empty(t, buf.String())
	})

	t.Run("delegates invalidate and clear", func(t *testing.T) {
		t.Parallel()

		var invalidated fresh.PageRef
		cleared := false
		inner := &mock.CacheStore{
			InvalidateFn: func(_ context.Context, r fresh.PageRef) error {
				invalidated = r
				return nil
			},
			ClearFn: func(_ context.Context) error {
				cleared = true
				return nil
			},
		}

		var buf bytes.Buffer
		store := freshslog.NewLoggingCacheStore(inner, debugLogger(&buf))

		require.NoError(t, store.Invalidate(context.Background(), ref))
		require.NoError(t, store.Clear(context.Background()))
		assert.Equal(t, ref, invalidated)
		assert.True(t, cleared)
		assert.Contains(t, buf.String(), "cache clear")
	})
}
