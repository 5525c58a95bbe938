package mock

import (
	"context"

	"github.com/nesalia/fresh"
)

var _ fresh.PageStore = (*PageStore)(nil)

// PageStore is a mock implementation of fresh.PageStore.
type PageStore struct {
	SaveFn   func(ctx context.Context, page *fresh.Page) error
	CommitFn func() error
	AbortFn  func() error
}

func (s *PageStore) Save(ctx context.Context, page *fresh.Page) error {
	return s.SaveFn(ctx, page)
}

func (s *PageStore) Commit() error {
	return s.CommitFn()
}

func (s *PageStore) Abort() error {
	return s.AbortFn()
}
