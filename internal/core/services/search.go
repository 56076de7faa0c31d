package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/slack2rag/internal/core/domain"
	"github.com/custodia-labs/slack2rag/internal/core/ports/driven"
	"github.com/custodia-labs/slack2rag/internal/core/ports/driving"
	"github.com/custodia-labs/slack2rag/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// SearchService answers semantic queries against the vector index.
type SearchService struct {
	embedder driven.Embedder
	index    driven.VectorIndex
	log      *logger.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(embedder driven.Embedder, index driven.VectorIndex, log *logger.Logger) *SearchService {
	return &SearchService{embedder: embedder, index: index, log: log}
}

// Search embeds the query and returns the nearest documents that satisfy
// the channel and date filters. An empty query returns no results.
func (s *SearchService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) ([]domain.SearchHit, error) {
	s.log.Section("Search Execution")

	// Return empty for empty query
	query = strings.TrimSpace(query)
	if query == "" {
		s.log.Debug("empty query, returning no results")
		return []domain.SearchHit{}, nil
	}

	opts, err := opts.Normalise()
	if err != nil {
		return nil, err
	}
	s.log.Debug("search", "query", query, "limit", opts.Limit,
		"channel", opts.Channel, "date_from", opts.DateFrom, "date_to", opts.DateTo)

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := s.index.Search(ctx, vector, opts)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	s.log.Debug("search results", "hits", len(hits))
	return hits, nil
}
