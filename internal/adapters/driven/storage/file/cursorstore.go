// Package file provides a JSON file implementation of driven.CursorStore.
//
// The file is a flat, human-readable object mapping channel IDs to the
// latest synced message timestamp:
//
//	{
//	  "C0123ABC": "1700000000.000100"
//	}
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/custodia-labs/slack2rag/internal/core/domain"
	"github.com/custodia-labs/slack2rag/internal/core/ports/driven"
	"github.com/custodia-labs/slack2rag/internal/logger"
)

// Ensure CursorStore implements the interface.
var _ driven.CursorStore = (*CursorStore)(nil)

// CursorStore keeps cursors in memory and rewrites the JSON file on every Set.
type CursorStore struct {
	mu      sync.RWMutex
	path    string
	cursors map[string]string
	log     *logger.Logger
}

// NewCursorStore loads the state file at path. A missing, unreadable or
// corrupt file is logged and treated as empty; it is never fatal.
func NewCursorStore(path string, log *logger.Logger) *CursorStore {
	s := &CursorStore{
		path:    path,
		cursors: make(map[string]string),
		log:     log,
	}
	s.load()
	return s
}

// Path returns the state file path.
func (s *CursorStore) Path() string {
	return s.path
}

func (s *CursorStore) load() {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.log.Info("no state file, starting fresh", "path", s.path)
		return
	}
	if err != nil {
		s.log.Warn("could not read state file, starting fresh", "path", s.path, "error", err)
		return
	}

	var cursors map[string]string
	if err := json.Unmarshal(data, &cursors); err != nil {
		s.log.Warn("corrupt state file, starting fresh", "path", s.path, "error", err)
		return
	}
	for id, ts := range cursors {
		s.cursors[id] = ts
	}
	s.log.Info("loaded sync state", "path", s.path, "channels", len(s.cursors))
}

// Get retrieves the cursor for a channel.
func (s *CursorStore) Get(_ context.Context, channelID string) (*domain.ChannelCursor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ts, ok := s.cursors[channelID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &domain.ChannelCursor{ChannelID: channelID, TS: ts}, nil
}

// Set advances the cursor and rewrites the state file before returning.
// Older timestamps are ignored. When the write fails the in-memory value
// is rolled back so Get never reports a cursor that is not on disk.
func (s *CursorStore) Set(_ context.Context, channelID, ts string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.cursors[channelID]
	if had && domain.CompareTS(ts, prev) < 0 {
		s.log.Warn("ignoring cursor regression", "channel_id", channelID, "current", prev, "requested", ts)
		return nil
	}

	s.cursors[channelID] = ts
	if err := s.persist(); err != nil {
		if had {
			s.cursors[channelID] = prev
		} else {
			delete(s.cursors, channelID)
		}
		return err
	}
	return nil
}

// List returns every cursor ordered by channel ID.
func (s *CursorStore) List(_ context.Context) ([]domain.ChannelCursor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ChannelCursor, 0, len(s.cursors))
	for id, ts := range s.cursors {
		out = append(out, domain.ChannelCursor{ChannelID: id, TS: ts})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChannelID < out[j].ChannelID })
	return out, nil
}

// persist writes the state through a temp file and rename so readers never
// observe a partially written file. Callers hold s.mu.
func (s *CursorStore) persist() error {
	data, err := json.MarshalIndent(s.cursors, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("write state: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close state: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}
