package fresh

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// FetchRequest describes a single GET request. ETag and LastModified are
// sent as conditional validators when set.
type FetchRequest struct {
	URL          string
	ETag         string
	LastModified string
}

// FetchResponse is a successful response. URL is the final URL after
// redirects. NotModified is set when the server answered 304 to a
// conditional request; Body is empty in that case.
type FetchResponse struct {
	URL         string
	StatusCode  int
	Header      http.Header
	Body        []byte
	NotModified bool
}

// ContentType returns the response's Content-Type header.
func (r *FetchResponse) ContentType() string {
	if r.Header == nil {
		return ""
	}
	return r.Header.Get("Content-Type")
}

// Fetcher retrieves raw page bytes over HTTP.
type Fetcher interface {
	// Fetch performs the request. Failures are reported as *FetchError.
	// The context controls timeout and cancellation.
	Fetch(ctx context.Context, req *FetchRequest) (*FetchResponse, error)

	// Close releases idle connections.
	Close() error
}

// FailureKind classifies why a fetch failed.
type FailureKind string

// Fetch failure kinds.
const (
	FailureTimeout          FailureKind = "timeout"
	FailureConnection       FailureKind = "connection"
	FailureDNS              FailureKind = "dns"
	FailureHTTP             FailureKind = "http"
	FailureTooManyRedirects FailureKind = "too_many_redirects"
	FailureBlocked          FailureKind = "blocked"
	FailureTooLarge         FailureKind = "too_large"
)

// FetchError describes a failed fetch.
type FetchError struct {
	URL  string
	Kind FailureKind
	// StatusCode is set for FailureHTTP.
	StatusCode int
	// RetryAfter is the server's Retry-After hint, zero when absent.
	RetryAfter time.Duration
	Err        error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case FailureHTTP:
		return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.StatusCode)
	case FailureTooManyRedirects:
		return fmt.Sprintf("fetch %s: too many redirects", e.URL)
	}
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Kind)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Transient reports whether retrying the request may succeed: timeouts,
// refused or reset connections, 429 and 5xx responses. DNS failures and
// other 4xx responses are permanent.
func (e *FetchError) Transient() bool {
	switch e.Kind {
	case FailureTimeout, FailureConnection:
		return true
	case FailureHTTP:
		return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
	}
	return false
}

// DomainLimiter spaces out requests to the same host.
type DomainLimiter interface {
	// Wait blocks until a request to the domain may start.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context, domain string) error
}
