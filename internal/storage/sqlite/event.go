package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	ridecache "github.com/eugener/ridecache/internal"
	"github.com/eugener/ridecache/internal/storage"
)

// InsertEvents writes a batch of cache events in a single multi-row insert.
func (s *Store) InsertEvents(ctx context.Context, events []ridecache.CacheEvent) error {
	if len(events) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO cache_events (id, kind, event, key, request_id, at) VALUES `)
	args := make([]any, 0, len(events)*6)
	for i, e := range events {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?, ?, ?, ?)")
		args = append(args, e.ID, string(e.Kind), e.Event, e.Key, e.RequestID,
			e.At.UTC().Format(time.RFC3339Nano))
	}

	if _, err := s.write.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("insert cache events: %w", err)
	}
	return nil
}

// EventTotals aggregates cache events per (kind, event) pair.
func (s *Store) EventTotals(ctx context.Context) ([]storage.EventTotal, error) {
	rows, err := s.read.QueryContext(ctx,
		`SELECT kind, event, COUNT(*) FROM cache_events
		 GROUP BY kind, event ORDER BY kind, event`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var totals []storage.EventTotal
	for rows.Next() {
		var t storage.EventTotal
		if err := rows.Scan(&t.Kind, &t.Event, &t.Count); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}
