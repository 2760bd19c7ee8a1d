// Package app implements the cache-aside core: the read path, the
// invalidation engine, warm-up, and cache introspection.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	ridecache "github.com/eugener/ridecache/internal"
	"github.com/eugener/ridecache/internal/cache"
	"github.com/eugener/ridecache/internal/telemetry"
)

// DefaultTTL applies uniformly to every cache write when no TTL is configured.
const DefaultTTL = 300 * time.Second

// ReadStore is the backing-store read surface the cache-aside core consumes.
// Writes never go through this core; writers call OnWrite after the fact.
type ReadStore interface {
	ListUsers(ctx context.Context) ([]*ridecache.User, error)
	GetUser(ctx context.Context, id int64) (*ridecache.User, error)
	ListPassengers(ctx context.Context) ([]*ridecache.Passenger, error)
	GetPassenger(ctx context.Context, id int64) (*ridecache.Passenger, error)
	ListRiders(ctx context.Context) ([]*ridecache.Rider, error)
	GetRider(ctx context.Context, id int64) (*ridecache.Rider, error)
}

// Recorder receives cache events for the audit trail.
type Recorder interface {
	Record(ridecache.CacheEvent)
}

// Options tunes a CacheAside instance. The zero value is usable.
type Options struct {
	TTL     time.Duration      // default DefaultTTL
	Metrics *telemetry.Metrics // nil = no metrics
	Events  Recorder           // nil = no audit trail
}

// CacheAside serves entity reads through a get-or-populate cache and owns
// the invalidation rules for entity writes. It holds a single long-lived
// cache store handle injected at construction; it relies entirely on the
// store's per-key atomicity and takes no locks of its own.
type CacheAside struct {
	store   ReadStore
	cache   cache.Store
	ttl     time.Duration
	metrics *telemetry.Metrics
	events  Recorder
}

// New creates a CacheAside over the given backing store and cache store.
func New(store ReadStore, kv cache.Store, opts Options) *CacheAside {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CacheAside{
		store:   store,
		cache:   kv,
		ttl:     ttl,
		metrics: opts.Metrics,
		events:  opts.Events,
	}
}

// TTL returns the uniform TTL applied to cache writes.
func (s *CacheAside) TTL() time.Duration {
	return s.ttl
}

// List returns the serialized list of a kind. The bool reports a cache hit.
// On miss the backing store is queried, the result cached under the list
// key, and returned; a repeat call within the TTL returns byte-identical
// content. Cache store failures degrade to always-miss and never fail the
// read; backing store errors propagate unchanged.
func (s *CacheAside) List(ctx context.Context, kind ridecache.Kind) (json.RawMessage, bool, error) {
	key := ridecache.ListKey(kind)
	if data, ok := s.lookup(ctx, key); ok {
		s.observe(ctx, kind, ridecache.EventHit, key)
		return data, true, nil
	}
	s.observe(ctx, kind, ridecache.EventMiss, key)

	data, cacheable, err := s.fetchList(ctx, kind)
	if err != nil {
		return nil, false, err
	}
	if cacheable {
		s.put(ctx, key, data, s.ttl)
	}
	return data, false, nil
}

// Item returns one serialized record of a kind by ID, with the same
// hit/miss contract as List.
func (s *CacheAside) Item(ctx context.Context, kind ridecache.Kind, id int64) (json.RawMessage, bool, error) {
	key := ridecache.ItemKey(kind, id)
	if data, ok := s.lookup(ctx, key); ok {
		s.observe(ctx, kind, ridecache.EventHit, key)
		return data, true, nil
	}
	s.observe(ctx, kind, ridecache.EventMiss, key)

	data, cacheable, err := s.fetchItem(ctx, kind, id)
	if err != nil {
		return nil, false, err
	}
	if cacheable {
		s.put(ctx, key, data, s.ttl)
	}
	return data, false, nil
}

// lookup reads the cache, treating an unreachable store as a miss.
func (s *CacheAside) lookup(ctx context.Context, key string) ([]byte, bool) {
	data, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		slog.LogAttrs(ctx, slog.LevelWarn, "cache get failed, treating as miss",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return nil, false
	}
	return data, ok
}

// put stores a freshly fetched value. A failed set only loses the caching
// side effect; the read that triggered it still succeeds.
func (s *CacheAside) put(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if err := s.cache.Set(ctx, key, data, ttl); err != nil {
		slog.LogAttrs(ctx, slog.LevelWarn, "cache set failed, value not cached",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}

// fetchList queries the backing store and serializes the result. The bool
// reports whether the payload is safe to cache; a record that failed view
// flattening is returned to the caller but keeps the payload out of the
// cache.
func (s *CacheAside) fetchList(ctx context.Context, kind ridecache.Kind) ([]byte, bool, error) {
	var (
		views   any
		viewErr error
	)
	switch kind {
	case ridecache.KindUser:
		recs, err := s.store.ListUsers(ctx)
		if err != nil {
			return nil, false, err
		}
		views = userViews(recs)
	case ridecache.KindPassenger:
		recs, err := s.store.ListPassengers(ctx)
		if err != nil {
			return nil, false, err
		}
		views, viewErr = passengerViews(recs)
	case ridecache.KindRider:
		recs, err := s.store.ListRiders(ctx)
		if err != nil {
			return nil, false, err
		}
		views, viewErr = riderViews(recs)
	default:
		return nil, false, fmt.Errorf("%w: %q", ridecache.ErrUnknownKind, kind)
	}
	return marshalViews(ctx, views, viewErr)
}

func (s *CacheAside) fetchItem(ctx context.Context, kind ridecache.Kind, id int64) ([]byte, bool, error) {
	var (
		view    any
		viewErr error
	)
	switch kind {
	case ridecache.KindUser:
		rec, err := s.store.GetUser(ctx, id)
		if err != nil {
			return nil, false, err
		}
		view = rec.View()
	case ridecache.KindPassenger:
		rec, err := s.store.GetPassenger(ctx, id)
		if err != nil {
			return nil, false, err
		}
		view, viewErr = rec.View()
	case ridecache.KindRider:
		rec, err := s.store.GetRider(ctx, id)
		if err != nil {
			return nil, false, err
		}
		view, viewErr = rec.View()
	default:
		return nil, false, fmt.Errorf("%w: %q", ridecache.ErrUnknownKind, kind)
	}
	return marshalViews(ctx, view, viewErr)
}

// marshalViews serializes views, downgrading a view-building failure to a
// skip-cache condition: the fresh data is still returned.
func marshalViews(ctx context.Context, views any, viewErr error) ([]byte, bool, error) {
	data, err := json.Marshal(views)
	if err != nil {
		return nil, false, fmt.Errorf("serialize views: %w", err)
	}
	if viewErr != nil {
		slog.LogAttrs(ctx, slog.LevelWarn, "view flattening failed, skipping cache",
			slog.String("error", viewErr.Error()),
		)
		return data, false, nil
	}
	return data, true, nil
}

func userViews(recs []*ridecache.User) []ridecache.UserView {
	views := make([]ridecache.UserView, len(recs))
	for i, u := range recs {
		views[i] = u.View()
	}
	return views
}

// passengerViews flattens records, substituting a partial view (owner
// fields blank) for any record whose owner was not resolved. The first
// such failure is reported so the caller can skip caching.
func passengerViews(recs []*ridecache.Passenger) ([]ridecache.PassengerView, error) {
	views := make([]ridecache.PassengerView, len(recs))
	var firstErr error
	for i, p := range recs {
		v, err := p.View()
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			v = ridecache.PassengerView{
				ID:                     p.ID,
				PassengerID:            p.PassengerID,
				PreferredPaymentMethod: p.PreferredPaymentMethod,
				HomeAddress:            p.HomeAddress,
				UserID:                 p.UserID,
			}
		}
		views[i] = v
	}
	return views, firstErr
}

func riderViews(recs []*ridecache.Rider) ([]ridecache.RiderView, error) {
	views := make([]ridecache.RiderView, len(recs))
	var firstErr error
	for i, r := range recs {
		v, err := r.View()
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			v = ridecache.RiderView{ID: r.ID, UserID: r.UserID}
		}
		views[i] = v
	}
	return views, firstErr
}

// observe feeds metrics and the audit trail for one hit/miss/warm/invalidate.
func (s *CacheAside) observe(ctx context.Context, kind ridecache.Kind, event, key string) {
	if s.metrics != nil {
		switch event {
		case ridecache.EventHit:
			s.metrics.CacheHits.WithLabelValues(string(kind)).Inc()
		case ridecache.EventMiss:
			s.metrics.CacheMisses.WithLabelValues(string(kind)).Inc()
		case ridecache.EventWarm:
			s.metrics.WarmedEntries.WithLabelValues(string(kind)).Inc()
		}
	}
	if s.events != nil {
		s.events.Record(ridecache.CacheEvent{
			Kind:      kind,
			Event:     event,
			Key:       key,
			RequestID: ridecache.RequestIDFromContext(ctx),
			At:        time.Now().UTC(),
		})
	}
}
