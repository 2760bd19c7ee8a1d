// Package cache provides the key/value store backing the cache-aside layer.
package cache

import (
	"context"
	"time"
)

// Store is the key/value contract the cache-aside core depends on.
// Expiration is owned entirely by the store: a value whose TTL elapsed is
// reported absent, and callers never re-check TTLs themselves. Each single
// operation is atomic per key; no compound read-modify-write is offered.
type Store interface {
	// Get retrieves a cached value by key. The bool reports presence; the
	// error reports store unavailability, which callers treat as a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores a value with the given TTL.
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	// Delete removes a cached value. Deleting an absent key is a no-op.
	Delete(ctx context.Context, key string) error
	// Scan returns the keys matching a glob pattern ("*" for all).
	Scan(ctx context.Context, pattern string) ([]string, error)
	// Purge removes all cached values.
	Purge(ctx context.Context) error
	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error
}
