package mock

import (
	"context"

	"github.com/nesalia/fresh"
)

var _ fresh.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of fresh.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, req *fresh.FetchRequest) (*fresh.FetchResponse, error)
	CloseFn func() error
}

func (f *Fetcher) Fetch(ctx context.Context, req *fresh.FetchRequest) (*fresh.FetchResponse, error) {
	return f.FetchFn(ctx, req)
}

func (f *Fetcher) Close() error {
	if f.CloseFn == nil {
		return nil
	}
	return f.CloseFn()
}
