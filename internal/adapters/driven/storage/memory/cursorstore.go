// Package memory provides in-memory adapters for tests and dry runs.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/slack2rag/internal/core/domain"
	"github.com/custodia-labs/slack2rag/internal/core/ports/driven"
)

// Ensure CursorStore implements the interface.
var _ driven.CursorStore = (*CursorStore)(nil)

// CursorStore is an in-memory implementation of driven.CursorStore.
type CursorStore struct {
	mu      sync.RWMutex
	cursors map[string]domain.ChannelCursor
	now     func() time.Time
}

// NewCursorStore creates a new in-memory cursor store.
func NewCursorStore() *CursorStore {
	return &CursorStore{
		cursors: make(map[string]domain.ChannelCursor),
		now:     time.Now,
	}
}

// Get retrieves the cursor for a channel.
func (s *CursorStore) Get(_ context.Context, channelID string) (*domain.ChannelCursor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cursor, ok := s.cursors[channelID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &cursor, nil
}

// Set advances the cursor for a channel. Older timestamps are ignored.
func (s *CursorStore) Set(_ context.Context, channelID, ts string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.cursors[channelID]; ok && domain.CompareTS(ts, cur.TS) < 0 {
		return nil
	}
	s.cursors[channelID] = domain.ChannelCursor{ChannelID: channelID, TS: ts, UpdatedAt: s.now()}
	return nil
}

// List returns every cursor ordered by channel ID.
func (s *CursorStore) List(_ context.Context) ([]domain.ChannelCursor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ChannelCursor, 0, len(s.cursors))
	for _, c := range s.cursors {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChannelID < out[j].ChannelID })
	return out, nil
}
