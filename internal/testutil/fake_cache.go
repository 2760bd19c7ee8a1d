package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/eugener/ridecache/internal/cache"
)

// DownCache is a cache.Store that fails every operation, simulating an
// unreachable store for degraded-mode tests.
type DownCache struct {
	Err error
}

func (d *DownCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, d.Err }
func (d *DownCache) Set(context.Context, string, []byte, time.Duration) error {
	return d.Err
}
func (d *DownCache) Delete(context.Context, string) error           { return d.Err }
func (d *DownCache) Scan(context.Context, string) ([]string, error) { return nil, d.Err }
func (d *DownCache) Purge(context.Context) error                    { return d.Err }
func (d *DownCache) Ping(context.Context) error                     { return d.Err }

// SpyCache wraps a cache.Store and records the keys passed to Set and
// Delete, preserving order and duplicates.
type SpyCache struct {
	Inner cache.Store

	mu      sync.Mutex
	sets    []string
	deletes []string
}

// NewSpyCache wraps inner.
func NewSpyCache(inner cache.Store) *SpyCache {
	return &SpyCache{Inner: inner}
}

func (s *SpyCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return s.Inner.Get(ctx, key)
}

func (s *SpyCache) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	s.mu.Lock()
	s.sets = append(s.sets, key)
	s.mu.Unlock()
	return s.Inner.Set(ctx, key, val, ttl)
}

func (s *SpyCache) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	s.deletes = append(s.deletes, key)
	s.mu.Unlock()
	return s.Inner.Delete(ctx, key)
}

func (s *SpyCache) Scan(ctx context.Context, pattern string) ([]string, error) {
	return s.Inner.Scan(ctx, pattern)
}

func (s *SpyCache) Purge(ctx context.Context) error { return s.Inner.Purge(ctx) }
func (s *SpyCache) Ping(ctx context.Context) error  { return s.Inner.Ping(ctx) }

// Sets returns the recorded Set keys.
func (s *SpyCache) Sets() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sets...)
}

// Deletes returns the recorded Delete keys.
func (s *SpyCache) Deletes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deletes...)
}
