package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/slack2rag/internal/core/domain"
	"github.com/custodia-labs/slack2rag/internal/core/ports/driven"
	"github.com/custodia-labs/slack2rag/internal/core/ports/driving"
)

// Ensure StatusService implements the interface.
var _ driving.StatusService = (*StatusService)(nil)

// StatusService reports stored cursors and index size.
type StatusService struct {
	cursors driven.CursorStore
	index   driven.VectorIndex
}

// NewStatusService creates a status service. index may be nil, in which
// case the total is reported as -1.
func NewStatusService(cursors driven.CursorStore, index driven.VectorIndex) *StatusService {
	return &StatusService{cursors: cursors, index: index}
}

// Status returns stored cursors and the index point count.
func (s *StatusService) Status(ctx context.Context) (*domain.Status, error) {
	cursors, err := s.cursors.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cursors: %w", err)
	}

	status := &domain.Status{Cursors: cursors, TotalIndexed: -1}
	if s.index != nil {
		total, err := s.index.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("count points: %w", err)
		}
		status.TotalIndexed = total
	}
	return status, nil
}
