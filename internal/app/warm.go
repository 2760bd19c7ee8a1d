package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	ridecache "github.com/eugener/ridecache/internal"
)

// warmEntry is one key/value pair produced by warm-up population.
type warmEntry struct {
	key  string
	data []byte
}

// Warm pre-populates the cache for the given kinds: per kind, exactly the
// List-miss population followed by one Item population per record, all
// written with ttl (the configured TTL when ttl <= 0). Kinds are warmed
// concurrently. Returns the number of entries written; a record that
// cannot be flattened is skipped, never cached partially.
func (s *CacheAside) Warm(ctx context.Context, kinds []ridecache.Kind, ttl time.Duration) (int, error) {
	if ttl <= 0 {
		ttl = s.ttl
	}

	var total atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	for _, kind := range kinds {
		g.Go(func() error {
			n, err := s.warmKind(ctx, kind, ttl)
			total.Add(n)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return int(total.Load()), err
	}
	return int(total.Load()), nil
}

func (s *CacheAside) warmKind(ctx context.Context, kind ridecache.Kind, ttl time.Duration) (int64, error) {
	entries, err := s.warmEntries(ctx, kind)
	if err != nil {
		return 0, err
	}

	var n int64
	for _, e := range entries {
		if err := s.cache.Set(ctx, e.key, e.data, ttl); err != nil {
			return n, err
		}
		s.observe(ctx, kind, ridecache.EventWarm, e.key)
		n++
	}
	return n, nil
}

// warmEntries builds the list entry plus one item entry per record from a
// single backing-store read, so the cached list and items always reflect
// the same snapshot. Records whose views cannot be flattened are dropped
// from the item set and force the list entry itself to be skipped,
// mirroring the read path's skip-cache rule.
func (s *CacheAside) warmEntries(ctx context.Context, kind ridecache.Kind) ([]warmEntry, error) {
	switch kind {
	case ridecache.KindUser:
		recs, err := s.store.ListUsers(ctx)
		if err != nil {
			return nil, err
		}
		views := userViews(recs)
		entries := listEntry(kind, views, nil)
		for i, u := range recs {
			entries = appendItemEntry(entries, kind, u.ID, views[i])
		}
		return entries, nil
	case ridecache.KindPassenger:
		recs, err := s.store.ListPassengers(ctx)
		if err != nil {
			return nil, err
		}
		views, viewErr := passengerViews(recs)
		entries := listEntry(kind, views, viewErr)
		for i, p := range recs {
			if p.Owner == nil {
				continue
			}
			entries = appendItemEntry(entries, kind, p.ID, views[i])
		}
		return entries, nil
	case ridecache.KindRider:
		recs, err := s.store.ListRiders(ctx)
		if err != nil {
			return nil, err
		}
		views, viewErr := riderViews(recs)
		entries := listEntry(kind, views, viewErr)
		for i, r := range recs {
			if r.Owner == nil {
				continue
			}
			entries = appendItemEntry(entries, kind, r.ID, views[i])
		}
		return entries, nil
	default:
		return nil, fmt.Errorf("%w: %q", ridecache.ErrUnknownKind, kind)
	}
}

// listEntry marshals the list payload unless a view failed flattening.
func listEntry(kind ridecache.Kind, views any, viewErr error) []warmEntry {
	entries := make([]warmEntry, 0, 16)
	if viewErr != nil {
		return entries
	}
	data, err := json.Marshal(views)
	if err != nil {
		return entries
	}
	return append(entries, warmEntry{key: ridecache.ListKey(kind), data: data})
}

func appendItemEntry(entries []warmEntry, kind ridecache.Kind, id int64, view any) []warmEntry {
	data, err := json.Marshal(view)
	if err != nil {
		return entries
	}
	return append(entries, warmEntry{key: ridecache.ItemKey(kind, id), data: data})
}
