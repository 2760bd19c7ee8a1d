package cache

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/maypok86/otter/v2"
)

// entry wraps a cached value with its expiration time.
type entry struct {
	data      []byte
	expiresAt time.Time
}

// Memory is an in-memory W-TinyLFU cache backed by otter.
type Memory struct {
	cache      *otter.Cache[string, entry]
	defaultTTL time.Duration
}

// NewMemory creates an in-memory cache with the given max entry count and
// default TTL. Eviction follows each entry's own deadline, so a Set with a
// TTL longer than the default (warm-up overrides) is honored in full.
func NewMemory(maxSize int, defaultTTL time.Duration) (*Memory, error) {
	c, err := otter.New[string, entry](&otter.Options[string, entry]{
		MaximumSize: maxSize,
		ExpiryCalculator: otter.ExpiryWritingFunc[string, entry](func(e otter.Entry[string, entry]) time.Duration {
			return time.Until(e.Value.expiresAt)
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}
	return &Memory{cache: c, defaultTTL: defaultTTL}, nil
}

// Get retrieves a value from the cache if present and not expired.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	e, ok := m.cache.GetIfPresent(key)
	if !ok {
		return nil, false, nil
	}
	if time.Now().After(e.expiresAt) {
		m.cache.Invalidate(key)
		return nil, false, nil
	}
	return e.data, true, nil
}

// Set stores a value with per-entry TTL, falling back to the default for a
// non-positive TTL.
func (m *Memory) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = m.defaultTTL
	}
	m.cache.Set(key, entry{
		data:      val,
		expiresAt: time.Now().Add(ttl),
	})
	return nil
}

// Delete removes a value from the cache.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.cache.Invalidate(key)
	return nil
}

// Scan returns live keys matching a glob pattern. Expired entries that
// otter has not evicted yet are filtered out.
func (m *Memory) Scan(_ context.Context, pattern string) ([]string, error) {
	now := time.Now()
	var keys []string
	for key, e := range m.cache.All() {
		if now.After(e.expiresAt) {
			continue
		}
		if pattern != "*" {
			if ok, err := path.Match(pattern, key); err != nil || !ok {
				continue
			}
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// Purge removes all values from the cache.
func (m *Memory) Purge(_ context.Context) error {
	m.cache.InvalidateAll()
	return nil
}

// Ping always succeeds for the in-process store.
func (m *Memory) Ping(_ context.Context) error {
	return nil
}
