package driven

import (
	"context"

	"github.com/custodia-labs/slack2rag/internal/core/domain"
)

// VectorIndex stores embedded documents and serves filtered similarity search.
type VectorIndex interface {
	// EnsureCollection creates the collection with the given dimension if it
	// does not exist, together with the payload indices used for filtering.
	// An existing collection with a different dimension is an error.
	EnsureCollection(ctx context.Context, dimension int) error

	// Upsert inserts or replaces points by document ID and returns only once
	// the write is durable.
	Upsert(ctx context.Context, points []domain.Point) error

	// Search returns up to opts.Limit documents nearest to the query vector
	// that satisfy the channel and date filters, best first.
	Search(ctx context.Context, query []float32, opts domain.SearchOptions) ([]domain.SearchHit, error)

	// Count returns the total number of stored points.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}
