package slog_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nesalia/fresh"
	"github.com/nesalia/fresh/mock"
	freshslog "github.com/nesalia/fresh/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingSitemapService_DiscoverURLs(t *testing.T) {
	t.Parallel()

	t.Run("logs discovery with count and duration", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.SitemapService{
			DiscoverURLsFn: func(ctx context.Context, baseURL string, filter *fresh.URLFilter) ([]string, error) {
				return []string{"https://example.com/a", "https://example.com/b"}, nil
			},
		}

		svc := freshslog.NewLoggingSitemapService(inner, debugLogger(&buf))
		urls, err := svc.DiscoverURLs(context.Background(), "https://example.com", nil)

		require.NoError(t, err)
		assert.Len(t, urls, 2)
		output := buf.String()
		assert.Contains(t, output, "sitemap discovery")
		assert.Contains(t, output, "url=https://example.com")
		assert.Contains(t, output, "count=2")
		assert.Contains(t, output, "duration=")
	})

	t.Run("logs error on failure", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.SitemapService{
			DiscoverURLsFn: func(ctx context.Context, baseURL string, filter *fresh.URLFilter) ([]string, error) {
				return nil, errors.New("connection failed")
			},
		}

		svc := freshslog.NewLoggingSitemapService(inner, debugLogger(&buf))
		_, err := svc.DiscoverURLs(context.Background(), "https://example.com", nil)

		require.Error(t, err)
		assert.Contains(t, buf.String(), "count=0")
		assert.Contains(t, buf.String(), `err="connection failed"`)
	})

	t.Run("passes filter through", func(t *testing.T) {
		t.Parallel()

		filter, err := fresh.NewURLFilter([]string{"/docs/"}, nil)
		require.NoError(t, err)
		var got *fresh.URLFilter
		inner := &mock.SitemapService{
			DiscoverURLsFn: func(ctx context.Context, baseURL string, f *fresh.URLFilter) ([]string, error) {
				got = f
				return nil, nil
			},
		}

		var buf bytes.Buffer
		svc := freshslog.NewLoggingSitemapService(inner, debugLogger(&buf))
		_, err = svc.DiscoverURLs(context.Background(), "https://example.com", filter)

		require.NoError(t, err)
		assert.Same(t, filter, got)
	})
}

func TestLoggingDiscoverer_Discover(t *testing.T) {
	t.Parallel()

	t.Run("logs manifest source and size", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.Discoverer{
			DiscoverFn: func(ctx context.Context, rootURL string) (*fresh.Manifest, error) {
				return &fresh.Manifest{
					RootURL:      fresh.MustCanonicalize(rootURL),
					Pages:        []fresh.PageRef{fresh.MustCanonicalize(rootURL + "/a")},
					Source:       fresh.ManifestSourceCrawl,
					DiscoveredAt: time.Now(),
				}, nil
			},
		}

		d := freshslog.NewLoggingDiscoverer(inner, debugLogger(&buf))
		m, err := d.Discover(context.Background(), "https://example.com/docs")

		require.NoError(t, err)
		assert.Len(t, m.Pages, 1)
		assert.Contains(t, buf.String(), "msg=discover")
		assert.Contains(t, buf.String(), "source=crawl")
		assert.Contains(t, buf.String(), "count=1")
	})

	t.Run("logs discovery errors", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.Discoverer{
			DiscoverFn: func(ctx context.Context, rootURL string) (*fresh.Manifest, error) {
				return nil, &fresh.DiscoveryError{RootURL: rootURL}
			},
		}

		d := freshslog.NewLoggingDiscoverer(inner, debugLogger(&buf))
		_, err := d.Discover(context.Background(), "https://example.com/docs")

		assert.Equal(t, fresh.EDISCOVERY, fresh.ErrorCode(err))
		assert.Contains(t, buf.String(), "count=0")
		assert.Contains(t, buf.String(), "err=")
	})
}
