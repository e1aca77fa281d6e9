package postgres

import (
	"context"
	"fmt"

	"github.com/custodia-labs/shopscout-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.SearchLogStore = (*SearchLogStore)(nil)

// SearchLogStore implements driven.SearchLogStore using PostgreSQL.
// One row per served search; rows are append-only.
type SearchLogStore struct {
	db *DB
}

// NewSearchLogStore creates a new PostgreSQL-backed SearchLogStore
func NewSearchLogStore(db *DB) *SearchLogStore {
	return &SearchLogStore{db: db}
}

// Record inserts one log entry
func (s *SearchLogStore) Record(ctx context.Context, entry driven.SearchLogEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO search_log (query, mode, k, result_count, cache_hit, took_ms)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.Query,
		entry.Mode,
		entry.K,
		entry.ResultCount,
		entry.CacheHit,
		entry.Took.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to record search: %w", err)
	}
	return nil
}
