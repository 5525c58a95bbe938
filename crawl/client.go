package crawl

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/nesalia/fresh"
)

// RetryPolicy controls how transient fetch failures are retried.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultRetryPolicy retries up to 3 times with delays of 1s, 2s, 4s,
// capped at 30s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		MaxDelay:   30 * time.Second,
	}
}

// Backoff returns the delay before retry number attempt (0-based):
// BaseDelay doubled per attempt and capped at MaxDelay.
func Backoff(p RetryPolicy, attempt int) time.Duration {
	if p.BaseDelay <= 0 {
		return 0
	}
	d := p.BaseDelay
	for i := 0; i < attempt; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// FetchState is the state of one request inside Client.
type FetchState int

// Client request states.
const (
	FetchPending FetchState = iota
	FetchInFlight
	FetchBackingOff
	FetchSucceeded
	FetchFailed
)

// RetryFunc is notified before each retry.
type RetryFunc func(url string, attempt int, delay time.Duration, err error)

// Ensure Client implements fresh.Fetcher.
var _ fresh.Fetcher = (*Client)(nil)

// Client wraps a single-attempt Fetcher with per-host politeness and
// retries. Every attempt, retries included, passes through the Limiter.
type Client struct {
	Fetcher fresh.Fetcher
	Limiter fresh.DomainLimiter
	Policy  RetryPolicy
	OnRetry RetryFunc
}

// NewClient creates a Client.
func NewClient(fetcher fresh.Fetcher, limiter fresh.DomainLimiter, policy RetryPolicy) *Client {
	return &Client{Fetcher: fetcher, Limiter: limiter, Policy: policy}
}

// Fetch performs the request, retrying transient failures with exponential
// backoff. A server Retry-After hint replaces the computed delay, still
// capped at MaxDelay. The last error is returned once retries run out.
func (c *Client) Fetch(ctx context.Context, req *fresh.FetchRequest) (*fresh.FetchResponse, error) {
	var (
		state   = FetchPending
		attempt int
		delay   time.Duration
		resp    *fresh.FetchResponse
		lastErr error
	)

	for {
		switch state {
		case FetchPending:
			state = FetchInFlight

		case FetchInFlight:
			if err := c.wait(ctx, req.URL); err != nil {
				if lastErr != nil {
					return nil, lastErr
				}
				return nil, err
			}
			resp, lastErr = c.Fetcher.Fetch(ctx, req)
			switch {
			case lastErr == nil:
				state = FetchSucceeded
			case ctx.Err() != nil || !retryable(lastErr) || attempt >= c.Policy.MaxRetries:
				state = FetchFailed
			default:
				delay = c.retryDelay(attempt, lastErr)
				if c.OnRetry != nil {
					c.OnRetry(req.URL, attempt+1, delay, lastErr)
				}
				attempt++
				state = FetchBackingOff
			}

		case FetchBackingOff:
			if err := sleep(ctx, delay); err != nil {
				return nil, lastErr
			}
			state = FetchInFlight

		case FetchSucceeded:
			return resp, nil

		case FetchFailed:
			return nil, lastErr
		}
	}
}

// Close closes the underlying Fetcher.
func (c *Client) Close() error {
	return c.Fetcher.Close()
}

func (c *Client) wait(ctx context.Context, rawURL string) error {
	if c.Limiter == nil {
		return ctx.Err()
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fresh.Errorf(fresh.EINVALID, "invalid URL %q: %v", rawURL, err)
	}
	return c.Limiter.Wait(ctx, u.Host)
}

func (c *Client) retryDelay(attempt int, err error) time.Duration {
	var fe *fresh.FetchError
	if errors.As(err, &fe) && fe.RetryAfter > 0 {
		if c.Policy.MaxDelay > 0 && fe.RetryAfter > c.Policy.MaxDelay {
			return c.Policy.MaxDelay
		}
		return fe.RetryAfter
	}
	return Backoff(c.Policy, attempt)
}

func retryable(err error) bool {
	var fe *fresh.FetchError
	return errors.As(err, &fe) && fe.Transient()
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
