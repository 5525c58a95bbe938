package crawl

import (
	"context"
	"sync"
	"time"

	"github.com/nesalia/fresh"
	"golang.org/x/time/rate"
)

// DefaultInterval is the default minimum spacing between two requests to
// the same host.
const DefaultInterval = 500 * time.Millisecond

var _ fresh.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter keeps one token bucket per host with a rate of one request
// per interval and a burst of 1. Hosts do not share buckets, so requests to
// different hosts proceed independently.
type DomainLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
}

// NewDomainLimiter creates a DomainLimiter with the given per-host interval.
// A zero interval disables per-host spacing.
func NewDomainLimiter(interval time.Duration) *DomainLimiter {
	return &DomainLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Every(interval),
	}
}

func (d *DomainLimiter) limiter(domain string) *rate.Limiter {
	d.mu.Lock()
	defer d.mu.Unlock()
	l, ok := d.limiters[domain]
	if !ok {
		l = rate.NewLimiter(d.limit, 1)
		d.limiters[domain] = l
	}
	return l
}

// Wait blocks until a request to domain may start. On cancellation the
// reserved token is handed back and the context error is returned.
func (d *DomainLimiter) Wait(ctx context.Context, domain string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r := d.limiter(domain).Reserve()
	delay := r.Delay()
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		r.Cancel()
		return ctx.Err()
	}
}
