package mock

import (
	"context"

	"github.com/nesalia/fresh"
)

var _ fresh.CacheStore = (*CacheStore)(nil)

// CacheStore is a mock implementation of fresh.CacheStore.
type CacheStore struct {
	GetFn        func(ctx context.Context, ref fresh.PageRef) (*fresh.CacheEntry, error)
	PutFn        func(ctx context.Context, entry *fresh.CacheEntry) error
	InvalidateFn func(ctx context.Context, ref fresh.PageRef) error
	ClearFn      func(ctx context.Context) error
}

func (s *CacheStore) Get(ctx context.Context, ref fresh.PageRef) (*fresh.CacheEntry, error) {
	return s.GetFn(ctx, ref)
}

func (s *CacheStore) Put(ctx context.Context, entry *fresh.CacheEntry) error {
	return s.PutFn(ctx, entry)
}

func (s *CacheStore) Invalidate(ctx context.Context, ref fresh.PageRef) error {
	return s.InvalidateFn(ctx, ref)
}

func (s *CacheStore) Clear(ctx context.Context) error {
	return s.ClearFn(ctx)
}
