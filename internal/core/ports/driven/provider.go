package driven

import (
	"context"

	"github.com/custodia-labs/shopscout-core/internal/core/domain"
)

// Provider fetches documents for a search query from one upstream source
// (a catalog, a federated web-search aggregator). The search manager holds
// a fixed, explicit list of providers.
//
// A provider that cannot reach its upstream returns an empty slice and an
// error describing the cause; the manager logs the error and continues
// with the other providers. A provider must never panic the pipeline.
type Provider interface {
	// Name identifies the provider in logs and result metadata
	Name() string

	// Run executes the query and returns ingestable documents
	Run(ctx context.Context, query string) ([]domain.Document, error)
}
