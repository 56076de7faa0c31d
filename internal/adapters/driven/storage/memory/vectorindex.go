package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/slack2rag/internal/core/domain"
	"github.com/custodia-labs/slack2rag/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex is a brute-force in-memory implementation of driven.VectorIndex
// using cosine similarity. Filters follow the same semantics as Qdrant.
type VectorIndex struct {
	mu        sync.RWMutex
	dimension int
	points    map[string]domain.Point
}

// NewVectorIndex creates an empty in-memory vector index.
func NewVectorIndex() *VectorIndex {
	return &VectorIndex{points: make(map[string]domain.Point)}
}

// EnsureCollection fixes the index dimension on first use.
func (v *VectorIndex) EnsureCollection(_ context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("dimension %d: %w", dimension, domain.ErrInvalidInput)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.dimension != 0 && v.dimension != dimension {
		return fmt.Errorf("collection has %d dimensions, embedder has %d: %w",
			v.dimension, dimension, domain.ErrDimensionMismatch)
	}
	v.dimension = dimension
	return nil
}

// Upsert inserts or replaces points by document ID.
func (v *VectorIndex) Upsert(_ context.Context, points []domain.Point) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, p := range points {
		if v.dimension != 0 && len(p.Vector) != v.dimension {
			return fmt.Errorf("point %s has %d dimensions, want %d: %w",
				p.Document.ID, len(p.Vector), v.dimension, domain.ErrDimensionMismatch)
		}
	}
	for _, p := range points {
		vec := make([]float32, len(p.Vector))
		copy(vec, p.Vector)
		v.points[p.Document.ID] = domain.Point{Document: p.Document, Vector: vec}
	}
	return nil
}

// Search returns the most similar documents matching the filters.
func (v *VectorIndex) Search(
	_ context.Context, query []float32, opts domain.SearchOptions,
) ([]domain.SearchHit, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = domain.DefaultSearchLimit
	}

	v.mu.RLock()
	hits := make([]domain.SearchHit, 0, len(v.points))
	for _, p := range v.points {
		if !opts.MatchesFilters(p.Document) {
			continue
		}
		hits = append(hits, domain.SearchHit{
			Document: p.Document,
			Score:    CosineSimilarity(query, p.Vector),
		})
	}
	v.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Document.ID < hits[j].Document.ID
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Count returns the number of stored points.
func (v *VectorIndex) Count(_ context.Context) (int, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.points), nil
}

// Get returns a stored point by document ID.
func (v *VectorIndex) Get(id string) (domain.Point, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	p, ok := v.points[id]
	return p, ok
}

// Close releases resources.
func (v *VectorIndex) Close() error {
	return nil
}

// CosineSimilarity returns the cosine of the angle between a and b, or 0
// when the lengths differ or either vector is zero.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
