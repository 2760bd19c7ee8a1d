package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	ridecache "github.com/eugener/ridecache/internal"
)

// KeysFor computes the complete blast radius of one write.
//
//	user:       user_list; user_<id> on update/delete
//	passenger:  passenger_list; passenger_<id> on update/delete;
//	            user_list; user_<owner>
//	rider:      symmetric to passenger
//
// Create never yields an item key: none can exist for a new record.
// Profile writes always clear the owning user's list and item keys even
// though user payloads embed no profile data; this conservative rule
// trades extra misses for a zero staleness window and must not be
// narrowed.
func KeysFor(kind ridecache.Kind, op ridecache.Op, ref ridecache.WriteRef) []string {
	keys := make([]string, 0, 4)
	keys = append(keys, ridecache.ListKey(kind))
	if op != ridecache.OpCreate {
		keys = append(keys, ridecache.ItemKey(kind, ref.ID))
	}
	if kind.IsProfile() {
		keys = append(keys,
			ridecache.ListKey(ridecache.KindUser),
			ridecache.ItemKey(ridecache.KindUser, ref.OwnerID),
		)
	}
	return keys
}

// OnWrite deletes every cache key invalidated by a backing-store write.
// It runs after the write committed and before the write is acknowledged.
// Deletes are idempotent: absent keys are a no-op. A failed delete is
// retried once; keys still failing are reported as an ErrCacheUnavailable
// error that callers log as a warning -- the backing-store write stays
// successful, and staleness self-heals at TTL expiry.
//
// A concurrent reader's miss-triggered set may land after these deletes
// (last writer wins). The entry then stays stale until its TTL elapses or
// the next write to the kind; this narrow window is accepted by design.
func (s *CacheAside) OnWrite(ctx context.Context, kind ridecache.Kind, op ridecache.Op, ref ridecache.WriteRef) error {
	keys := KeysFor(kind, op, ref)

	var failed []string
	var errs []error
	for _, key := range keys {
		err := s.cache.Delete(ctx, key)
		if err != nil {
			err = s.cache.Delete(ctx, key) // one retry
		}
		if err != nil {
			failed = append(failed, key)
			errs = append(errs, err)
			continue
		}
		s.observe(ctx, kind, ridecache.EventInvalidate, key)
	}

	if s.metrics != nil {
		s.metrics.InvalidatedKeys.WithLabelValues(string(kind), string(op)).
			Add(float64(len(keys) - len(failed)))
	}

	if len(failed) > 0 {
		slog.LogAttrs(ctx, slog.LevelWarn, "cache invalidation incomplete",
			slog.String("kind", string(kind)),
			slog.String("op", string(op)),
			slog.Any("keys", failed),
		)
		return fmt.Errorf("%w: invalidate %v: %v", ridecache.ErrCacheUnavailable, failed, errors.Join(errs...))
	}
	return nil
}

// Purge drops every cached entry. Exposed for operational resets; normal
// operation only ever deletes the exact keys a write touched.
func (s *CacheAside) Purge(ctx context.Context) error {
	if err := s.cache.Purge(ctx); err != nil {
		return fmt.Errorf("%w: purge: %v", ridecache.ErrCacheUnavailable, err)
	}
	return nil
}
