// Package http provides HTTP implementations of fresh.Fetcher,
// fresh.SitemapService and fresh.RobotsService.
package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nesalia/fresh"
)

// Request defaults.
const (
	DefaultFetchTimeout   = 10 * time.Second
	DefaultConnectTimeout = 5 * time.Second
	DefaultMaxRedirects   = 10
	DefaultMaxBodySize    = 10 << 20
)

// UserAgent identifies fresh to the sites it crawls.
var UserAgent = "fresh/" + fresh.Version + " (+https://github.com/nesalia/fresh)"

// Ensure Fetcher implements fresh.Fetcher at compile time.
var _ fresh.Fetcher = (*Fetcher)(nil)

var errTooManyRedirects = errors.New("too many redirects")

// Fetcher performs single GET attempts. It does not retry and does not
// rate limit; crawl.Client layers both on top.
type Fetcher struct {
	client         *http.Client
	timeout        time.Duration
	connectTimeout time.Duration
	maxRedirects   int
	maxBodySize    int64
	proxy          *url.URL
	userAgent      string
	allowPrivate   bool
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the per-request timeout.
// Defaults to DefaultFetchTimeout (10s) if not specified.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithConnectTimeout sets the TCP connect timeout.
func WithConnectTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.connectTimeout = d
	}
}

// WithMaxRedirects caps the redirect chain. Longer chains fail with
// fresh.FailureTooManyRedirects.
func WithMaxRedirects(n int) Option {
	return func(f *Fetcher) {
		f.maxRedirects = n
	}
}

// WithMaxBodySize caps the body size. Larger bodies fail with
// fresh.FailureTooLarge and are never returned truncated.
func WithMaxBodySize(n int64) Option {
	return func(f *Fetcher) {
		f.maxBodySize = n
	}
}

// WithProxy routes every request through proxy.
func WithProxy(proxy *url.URL) Option {
	return func(f *Fetcher) {
		f.proxy = proxy
	}
}

// WithUserAgent overrides UserAgent.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithAllowPrivateHosts disables the private address check. Local test
// servers and intranet documentation need it.
func WithAllowPrivateHosts(allow bool) Option {
	return func(f *Fetcher) {
		f.allowPrivate = allow
	}
}

// NewFetcher creates a new HTTP Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:        DefaultFetchTimeout,
		connectTimeout: DefaultConnectTimeout,
		maxRedirects:   DefaultMaxRedirects,
		maxBodySize:    DefaultMaxBodySize,
		userAgent:      UserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: f.connectTimeout, KeepAlive: 30 * time.Second}).DialContext
	if f.proxy != nil {
		transport.Proxy = http.ProxyURL(f.proxy)
	}

	f.client = &http.Client{
		Timeout:   f.timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) > f.maxRedirects {
				return errTooManyRedirects
			}
			return CheckHost(req.URL, f.allowPrivate)
		},
	}

	return f
}

// Fetch retrieves the URL in req. Non-2xx responses other than a 304 to a
// conditional request are returned as *fresh.FetchError.
func (f *Fetcher) Fetch(ctx context.Context, req *fresh.FetchRequest) (*fresh.FetchResponse, error) {
	u, err := url.Parse(req.URL)
	if err != nil {
		return nil, fresh.Errorf(fresh.EINVALID, "invalid URL %q: %v", req.URL, err)
	}
	if err := CheckHost(u, f.allowPrivate); err != nil {
		return nil, &fresh.FetchError{URL: req.URL, Kind: fresh.FailureBlocked, Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, fresh.Errorf(fresh.EINVALID, "invalid request for %q: %v", req.URL, err)
	}
	httpReq.Header.Set("User-Agent", f.userAgent)
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	if req.ETag != "" {
		httpReq.Header.Set("If-None-Match", req.ETag)
	}
	if req.LastModified != "" {
		httpReq.Header.Set("If-Modified-Since", req.LastModified)
	}

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, classify(req.URL, err)
	}
	defer resp.Body.Close()

	finalURL := resp.Request.URL.String()
	conditional := req.ETag != "" || req.LastModified != ""

	if resp.StatusCode == http.StatusNotModified && conditional {
		return &fresh.FetchResponse{
			URL:         finalURL,
			StatusCode:  resp.StatusCode,
			Header:      resp.Header,
			NotModified: true,
		}, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, &fresh.FetchError{
			URL:        req.URL,
			Kind:       fresh.FailureHTTP,
			StatusCode: resp.StatusCode,
			RetryAfter: ParseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
		}
	}

	// One byte past the cap tells an oversized body from one that fits.
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize+1))
	if err != nil {
		return nil, classify(req.URL, err)
	}
	if int64(len(body)) > f.maxBodySize {
		return nil, &fresh.FetchError{
			URL:  req.URL,
			Kind: fresh.FailureTooLarge,
			Err:  fmt.Errorf("body exceeds %d bytes", f.maxBodySize),
		}
	}

	return &fresh.FetchResponse{
		URL:        finalURL,
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// Close releases idle connections.
func (f *Fetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}

// classify maps a transport error onto a FetchError kind.
func classify(rawURL string, err error) error {
	var blocked *BlockedHostError
	switch {
	case errors.Is(err, errTooManyRedirects):
		return &fresh.FetchError{URL: rawURL, Kind: fresh.FailureTooManyRedirects, Err: err}
	case errors.As(err, &blocked):
		return &fresh.FetchError{URL: rawURL, Kind: fresh.FailureBlocked, Err: blocked}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && !dnsErr.IsTimeout {
		return &fresh.FetchError{URL: rawURL, Kind: fresh.FailureDNS, Err: err}
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &fresh.FetchError{URL: rawURL, Kind: fresh.FailureTimeout, Err: err}
	}

	return &fresh.FetchError{URL: rawURL, Kind: fresh.FailureConnection, Err: err}
}

// ParseRetryAfter parses a Retry-After header given either as seconds or
// as an HTTP date. Returns zero when the header is absent or invalid.
func ParseRetryAfter(value string, now time.Time) time.Duration {
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

// BlockedHostError is returned for URLs that point at loopback, private
// or link-local addresses while private hosts are not allowed.
type BlockedHostError struct {
	Host string
}

func (e *BlockedHostError) Error() string {
	return fmt.Sprintf("host %q resolves to a private or local address", e.Host)
}

// CheckHost rejects non-http(s) URLs and, unless allowPrivate is set, hosts
// that name loopback, private, link-local or unspecified addresses.
// Host names are checked literally; they are not resolved.
func CheckHost(u *url.URL, allowPrivate bool) error {
	if u.Scheme != "http" && u.Scheme != "https" {
		return fresh.Errorf(fresh.EINVALID, "unsupported URL scheme %q", u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		return fresh.Errorf(fresh.EINVALID, "URL %q has no host", u.String())
	}
	if allowPrivate {
		return nil
	}
	if isLocalName(host) {
		return &BlockedHostError{Host: host}
	}
	if ip := net.ParseIP(host); ip != nil {
		if ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
			ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
			return &BlockedHostError{Host: host}
		}
	}
	return nil
}

func isLocalName(host string) bool {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	return host == "localhost" ||
		strings.HasSuffix(host, ".localhost") ||
		strings.HasSuffix(host, ".local") ||
		strings.HasSuffix(host, ".internal")
}
