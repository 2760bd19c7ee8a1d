package app

import (
	"context"
	"fmt"
	"sort"
	"strings"

	ridecache "github.com/eugener/ridecache/internal"
)

// statsSampleLimit caps the sample keys reported per kind.
const statsSampleLimit = 5

// Stats is a read-only snapshot of cache population.
type Stats struct {
	TotalKeys     int                         `json:"total_keys"`
	PerKind       map[ridecache.Kind]int      `json:"per_kind_counts"`
	SampleKeys    map[ridecache.Kind][]string `json:"sample_keys"`
	ConfiguredTTL int                         `json:"configured_ttl_s"`
}

// Stats scans the cache store and classifies keys by structural prefix
// ("user_", "passenger_", "rider_"). Keys from unrelated applications in a
// shared store count toward TotalKeys but never toward a kind. The scan
// never mutates the store; an unreachable store yields an
// ErrCacheUnavailable error instead of a panic.
func (s *CacheAside) Stats(ctx context.Context) (*Stats, error) {
	keys, err := s.cache.Scan(ctx, "*")
	if err != nil {
		return nil, fmt.Errorf("%w: scan: %v", ridecache.ErrCacheUnavailable, err)
	}
	sort.Strings(keys) // deterministic samples

	stats := &Stats{
		TotalKeys:     len(keys),
		PerKind:       make(map[ridecache.Kind]int, len(ridecache.Kinds)),
		SampleKeys:    make(map[ridecache.Kind][]string, len(ridecache.Kinds)),
		ConfiguredTTL: int(s.ttl.Seconds()),
	}
	for _, kind := range ridecache.Kinds {
		stats.PerKind[kind] = 0
		stats.SampleKeys[kind] = []string{}
	}

	for _, key := range keys {
		for _, kind := range ridecache.Kinds {
			if !strings.HasPrefix(key, ridecache.KindPrefix(kind)) {
				continue
			}
			stats.PerKind[kind]++
			if len(stats.SampleKeys[kind]) < statsSampleLimit {
				stats.SampleKeys[kind] = append(stats.SampleKeys[kind], key)
			}
			break
		}
	}
	return stats, nil
}
