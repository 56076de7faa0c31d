package driving

import (
	"context"

	"github.com/custodia-labs/slack2rag/internal/core/domain"
)

// SearchService provides semantic search to external actors.
type SearchService interface {
	// Search embeds the query and returns the nearest indexed documents.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchHit, error)
}

// StatusService reports sync progress.
type StatusService interface {
	// Status returns stored cursors and the index size.
	Status(ctx context.Context) (*domain.Status, error)
}
