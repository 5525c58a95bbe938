package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/nesalia/fresh"
)

var _ fresh.CacheStore = (*LoggingCacheStore)(nil)

// LoggingCacheStore wraps a CacheStore. Reads are logged at debug level and
// failed writes as warnings.
type LoggingCacheStore struct {
	next   fresh.CacheStore
	logger *slog.Logger
}

// NewLoggingCacheStore creates a new logging cache store decorator.
func NewLoggingCacheStore(next fresh.CacheStore, logger *slog.Logger) *LoggingCacheStore {
	return &LoggingCacheStore{next: next, logger: logger}
}

func (s *LoggingCacheStore) Get(ctx context.Context, ref fresh.PageRef) (entry *fresh.CacheEntry, err error) {
	defer func(begin time.Time) {
		switch fresh.ErrorCode(err) {
		case "":
			s.logger.Debug("cache get", "url", ref, "bytes", len(entry.Body), "duration", time.Since(begin))
		case fresh.ENOTFOUND:
			s.logger.Debug("cache get", "url", ref, "miss", true, "duration", time.Since(begin))
		default:
			s.logger.Warn("cache get", "url", ref, "duration", time.Since(begin), "err", err)
		}
	}(time.Now())
	return s.next.Get(ctx, ref)
}

func (s *LoggingCacheStore) Put(ctx context.Context, entry *fresh.CacheEntry) (err error) {
	defer func(begin time.Time) {
		if err != nil {
			s.logger.Warn("cache put", "url", entry.Key, "bytes", len(entry.Body), "duration", time.Since(begin), "err", err)
			return
		}
		s.logger.Debug("cache put", "url", entry.Key, "bytes", len(entry.Body), "duration", time.Since(begin))
	}(time.Now())
	return s.next.Put(ctx, entry)
}

func (s *LoggingCacheStore) Invalidate(ctx context.Context, ref fresh.PageRef) (err error) {
	defer func() {
		s.logger.Debug("cache invalidate", "url", ref, "err", err)
	}()
	return s.next.Invalidate(ctx, ref)
}

func (s *LoggingCacheStore) Clear(ctx context.Context) (err error) {
	defer func(begin time.Time) {
		s.logger.Info("cache clear", "duration", time.Since(begin), "err", err)
	}(time.Now())
	return s.next.Clear(ctx)
}
