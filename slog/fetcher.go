// Package slog provides logging decorators for fresh services.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/nesalia/fresh"
)

var _ fresh.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a fresh.Fetcher and logs one line per attempt.
type LoggingFetcher struct {
	next   fresh.Fetcher
	logger *slog.Logger
}

// NewLoggingFetcher creates a new logging fetcher decorator.
func NewLoggingFetcher(next fresh.Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// Fetch delegates to the wrapped fetcher and logs the outcome.
func (f *LoggingFetcher) Fetch(ctx context.Context, req *fresh.FetchRequest) (resp *fresh.FetchResponse, err error) {
	defer func(begin time.Time) {
		attrs := []any{"url", req.URL, "duration", time.Since(begin)}
		if resp != nil {
			attrs = append(attrs, "status", resp.StatusCode, "bytes", len(resp.Body))
			if resp.NotModified {
				attrs = append(attrs, "not_modified", true)
			}
		}
		if err != nil {
			attrs = append(attrs, "err", err)
		}
		f.logger.Debug("fetch", attrs...)
	}(time.Now())
	return f.next.Fetch(ctx, req)
}

// Close delegates to the wrapped fetcher.
func (f *LoggingFetcher) Close() error {
	return f.next.Close()
}
