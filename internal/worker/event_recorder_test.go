package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	ridecache "github.com/eugener/ridecache/internal"
)

type fakeEventStore struct {
	mu     sync.Mutex
	events []ridecache.CacheEvent
}

func (s *fakeEventStore) InsertEvents(_ context.Context, events []ridecache.CacheEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, events...)
	return nil
}

func (s *fakeEventStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestEventRecorder_FlushOnCancel(t *testing.T) {
	t.Parallel()

	store := &fakeEventStore{}
	rec := NewEventRecorder(store, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rec.Run(ctx) }()

	rec.Record(ridecache.CacheEvent{Kind: ridecache.KindUser, Event: ridecache.EventMiss, Key: "user_list", At: time.Now()})
	rec.Record(ridecache.CacheEvent{Kind: ridecache.KindUser, Event: ridecache.EventHit, Key: "user_list", At: time.Now()})

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("recorder did not stop")
	}

	if got := store.count(); got != 2 {
		t.Errorf("flushed events = %d, want 2", got)
	}
	store.mu.Lock()
	defer store.mu.Unlock()
	for _, e := range store.events {
		if e.ID == "" {
			t.Error("flush should assign event IDs")
		}
	}
}

func TestEventRecorder_BatchFlush(t *testing.T) {
	t.Parallel()

	store := &fakeEventStore{}
	rec := NewEventRecorder(store, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go rec.Run(ctx)

	for i := 0; i < eventBatchSize; i++ {
		rec.Record(ridecache.CacheEvent{Kind: ridecache.KindRider, Event: ridecache.EventWarm, Key: "rider_list", At: time.Now()})
	}

	deadline := time.After(2 * time.Second)
	for store.count() < eventBatchSize {
		select {
		case <-deadline:
			t.Fatalf("batch not flushed, got %d events", store.count())
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestRunner_StopsOnCancel(t *testing.T) {
	t.Parallel()

	store := &fakeEventStore{}
	r := NewRunner(NewEventRecorder(store, nil))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop")
	}
}
