package driven

import (
	"context"
	"time"
)

// SearchLogEntry records one served search for offline analysis
type SearchLogEntry struct {
	Query       string
	Mode        string
	K           int
	ResultCount int
	CacheHit    bool
	Took        time.Duration
}

// SearchLogStore persists search log entries. Writes are best-effort;
// a failure is logged by the caller and never surfaced to the requester.
type SearchLogStore interface {
	Record(ctx context.Context, entry SearchLogEntry) error
}
