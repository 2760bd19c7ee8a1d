package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	ridecache "github.com/eugener/ridecache/internal"
)

const (
	eventChanSize   = 1000
	eventBatchSize  = 100
	eventFlushEvery = 5 * time.Second
	eventDrainTime  = 30 * time.Second
)

// EventStore is the persistence interface consumed by EventRecorder.
type EventStore interface {
	InsertEvents(ctx context.Context, events []ridecache.CacheEvent) error
}

// EventRecorder buffers cache events and batch-flushes them to the store.
// Events are dropped if the channel is full (back-pressure on slow DB).
type EventRecorder struct {
	ch    chan ridecache.CacheEvent
	store EventStore
	gauge prometheus.Gauge // may be nil
}

// NewEventRecorder creates an EventRecorder backed by store. gauge tracks
// the queue length when non-nil.
func NewEventRecorder(store EventStore, gauge prometheus.Gauge) *EventRecorder {
	return &EventRecorder{
		ch:    make(chan ridecache.CacheEvent, eventChanSize),
		store: store,
		gauge: gauge,
	}
}

// Record enqueues a cache event. It never blocks; drops on full channel.
func (e *EventRecorder) Record(ev ridecache.CacheEvent) {
	select {
	case e.ch <- ev:
		if e.gauge != nil {
			e.gauge.Set(float64(len(e.ch)))
		}
	default:
		slog.Warn("cache event dropped, channel full")
	}
}

// Run processes events until ctx is cancelled, then drains remaining events.
func (e *EventRecorder) Run(ctx context.Context) error {
	ticker := time.NewTicker(eventFlushEvery)
	defer ticker.Stop()

	buf := make([]ridecache.CacheEvent, 0, eventBatchSize)

	for {
		select {
		case ev := <-e.ch:
			buf = append(buf, ev)
			if len(buf) >= eventBatchSize {
				e.flush(ctx, buf)
				buf = buf[:0]
			}

		case <-ticker.C:
			if len(buf) > 0 {
				e.flush(ctx, buf)
				buf = buf[:0]
			}

		case <-ctx.Done():
			// Drain remaining events with a timeout.
			e.drain(buf)
			return nil
		}
	}
}

func (e *EventRecorder) drain(buf []ridecache.CacheEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), eventDrainTime)
	defer cancel()

	for {
		select {
		case ev := <-e.ch:
			buf = append(buf, ev)
			if len(buf) >= eventBatchSize {
				e.flush(ctx, buf)
				buf = buf[:0]
			}
		default:
			// Channel empty, flush remaining.
			if len(buf) > 0 {
				e.flush(ctx, buf)
			}
			return
		}
	}
}

func (e *EventRecorder) flush(ctx context.Context, buf []ridecache.CacheEvent) {
	// Copy to avoid aliasing the caller's slice.
	batch := make([]ridecache.CacheEvent, len(buf))
	copy(batch, buf)

	// Assign IDs off the hot path; callers leave ID empty.
	for i := range batch {
		if batch[i].ID == "" {
			batch[i].ID = uuid.Must(uuid.NewV7()).String()
		}
	}

	if err := e.store.InsertEvents(ctx, batch); err != nil {
		slog.LogAttrs(ctx, slog.LevelError, "cache event flush failed",
			slog.Int("count", len(batch)),
			slog.String("error", err.Error()),
		)
	}
	if e.gauge != nil {
		e.gauge.Set(float64(len(e.ch)))
	}
}
