package mock

import (
	"context"

	"github.com/nesalia/fresh"
)

var _ fresh.URLFrontier = (*URLFrontier)(nil)

// URLFrontier is a mock implementation of fresh.URLFrontier.
type URLFrontier struct {
	PushFn func(link fresh.DiscoveredLink) bool
	PopFn  func() (fresh.DiscoveredLink, bool)
	LenFn  func() int
	SeenFn func(url string) bool
}

func (f *URLFrontier) Push(link fresh.DiscoveredLink) bool {
	return f.PushFn(link)
}

func (f *URLFrontier) Pop() (fresh.DiscoveredLink, bool) {
	return f.PopFn()
}

func (f *URLFrontier) Len() int {
	return f.LenFn()
}

func (f *URLFrontier) Seen(url string) bool {
	return f.SeenFn(url)
}

var _ fresh.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter is a mock implementation of fresh.DomainLimiter.
type DomainLimiter struct {
	WaitFn func(ctx context.Context, domain string) error
}

func (l *DomainLimiter) Wait(ctx context.Context, domain string) error {
	return l.WaitFn(ctx, domain)
}
