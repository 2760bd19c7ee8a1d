package ridecache

import "time"

// Cache event names recorded by the audit trail.
const (
	EventHit        = "hit"
	EventMiss       = "miss"
	EventInvalidate = "invalidate"
	EventWarm       = "warm"
)

// CacheEvent is one observation of cache behavior (a hit, miss,
// invalidated key, or warm write), persisted for audit and hit-rate
// analysis. ID is assigned at flush time; callers leave it empty.
type CacheEvent struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Event     string    `json:"event"`
	Key       string    `json:"key"`
	RequestID string    `json:"request_id,omitempty"`
	At        time.Time `json:"at"`
}
