package crawl_test

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/nesalia/fresh"
	"github.com/nesalia/fresh/mock"
)

// newMemoryCache returns a mock.CacheStore backed by a map.
func newMemoryCache() *mock.CacheStore {
	var mu sync.Mutex
	entries := make(map[fresh.PageRef]fresh.CacheEntry)

	return &mock.CacheStore{
		GetFn: func(_ context.Context, ref fresh.PageRef) (*fresh.CacheEntry, error) {
			mu.Lock()
			defer mu.Unlock()
			e, ok := entries[ref]
			if !ok {
				return nil, fresh.Errorf(fresh.ENOTFOUND, "no entry for %s", ref)
			}
			return &e, nil
		},
		PutFn: func(_ context.Context, e *fresh.CacheEntry) error {
			mu.Lock()
			defer mu.Unlock()
			entries[e.Key] = *e
			return nil
		},
		InvalidateFn: func(_ context.Context, ref fresh.PageRef) error {
			mu.Lock()
			defer mu.Unlock()
			delete(entries, ref)
			return nil
		},
		ClearFn: func(context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			clear(entries)
			return nil
		},
	}
}

// site is a fake origin serving fixed HTML pages by URL.
type site struct {
	pages   map[string]string
	fetches atomic.Int32
}

func (s *site) fetcher() *mock.Fetcher {
	return &mock.Fetcher{
		FetchFn: func(_ context.Context, req *fresh.FetchRequest) (*fresh.FetchResponse, error) {
			s.fetches.Add(1)
			body, ok := s.pages[req.URL]
			if !ok {
				return nil, &fresh.FetchError{URL: req.URL, Kind: fresh.FailureHTTP, StatusCode: http.StatusNotFound}
			}
			return &fresh.FetchResponse{
				URL:        req.URL,
				StatusCode: http.StatusOK,
				Header:     http.Header{"Content-Type": []string{"text/html; charset=utf-8"}},
				Body:       []byte(body),
			}, nil
		},
	}
}
