package services

import (
	"context"
	"errors"
	"iter"
	"strings"
	stdsync "sync"

	"github.com/custodia-labs/slack2rag/internal/core/domain"
	"github.com/custodia-labs/slack2rag/internal/core/ports/driven"
)

// --- Shared mock implementations for service tests ---

// mockResolver implements driven.Resolver with fixed lookups.
type mockResolver struct {
	names map[string]string
	// texts maps raw text to resolved text; unmapped text passes through.
	texts map[string]string
}

var _ driven.Resolver = (*mockResolver)(nil)

func newMockResolver() *mockResolver {
	return &mockResolver{
		names: map[string]string{"U1": "alice", "U2": "bob"},
		texts: map[string]string{},
	}
}

func (r *mockResolver) ResolveText(_ context.Context, raw string) string {
	if resolved, ok := r.texts[raw]; ok {
		return resolved
	}
	return raw
}

func (r *mockResolver) UserName(_ context.Context, userID string) string {
	if name, ok := r.names[userID]; ok {
		return name
	}
	return userID
}

// mockSource implements driven.MessageSource over in-memory history.
type mockSource struct {
	mu       stdsync.Mutex
	channels []domain.Channel
	history  map[string][]domain.Message
	replies  map[string][]domain.Message

	listChannelsErr error
	// streamErr is yielded after the history of the given channel.
	streamErr  map[string]error
	repliesErr error

	oldestSeen   map[string][]string
	repliesCalls []string
	allowSeen    []string
}

var _ driven.MessageSource = (*mockSource)(nil)

func newMockSource() *mockSource {
	return &mockSource{
		history:    map[string][]domain.Message{},
		replies:    map[string][]domain.Message{},
		streamErr:  map[string]error{},
		oldestSeen: map[string][]string{},
	}
}

func (s *mockSource) ListChannels(_ context.Context, allow []string) ([]domain.Channel, error) {
	s.allowSeen = allow
	if s.listChannelsErr != nil {
		return nil, s.listChannelsErr
	}
	return s.channels, nil
}

func (s *mockSource) ListMessages(_ context.Context, channelID, oldest string) iter.Seq2[domain.Message, error] {
	s.mu.Lock()
	s.oldestSeen[channelID] = append(s.oldestSeen[channelID], oldest)
	s.mu.Unlock()

	return func(yield func(domain.Message, error) bool) {
		for _, msg := range s.history[channelID] {
			if oldest != "" && domain.CompareTS(msg.TS, oldest) <= 0 {
				continue
			}
			if !yield(msg, nil) {
				return
			}
		}
		if err := s.streamErr[channelID]; err != nil {
			yield(domain.Message{}, err)
		}
	}
}

func (s *mockSource) ListThreadReplies(_ context.Context, channelID, threadTS string) ([]domain.Message, error) {
	s.mu.Lock()
	s.repliesCalls = append(s.repliesCalls, channelID+":"+threadTS)
	s.mu.Unlock()
	if s.repliesErr != nil {
		return nil, s.repliesErr
	}
	return s.replies[threadTS], nil
}

// mockEmbedder implements driven.Embedder with deterministic 3-d vectors.
type mockEmbedder struct {
	mu         stdsync.Mutex
	batchSizes []int
	queries    []string
	err        error
	short      bool
}

var _ driven.Embedder = (*mockEmbedder)(nil)

func vectorFor(text string) []float32 {
	return []float32{float32(len(text)), float32(strings.Count(text, "\n") + 1), 1}
}

func (e *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.queries = append(e.queries, text)
	e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	return vectorFor(text), nil
}

func (e *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.batchSizes = append(e.batchSizes, len(texts))
	e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		out = append(out, vectorFor(t))
	}
	if e.short && len(out) > 0 {
		out = out[1:]
	}
	return out, nil
}

func (e *mockEmbedder) Dimensions() int            { return 3 }
func (e *mockEmbedder) ModelName() string          { return "mock" }
func (e *mockEmbedder) Ping(context.Context) error { return nil }
func (e *mockEmbedder) Close() error               { return nil }

// failingIndex wraps a driven.VectorIndex and fails selected operations.
type failingIndex struct {
	driven.VectorIndex
	upsertErr error
	countErr  error
	upserts   int
}

func (f *failingIndex) Upsert(ctx context.Context, points []domain.Point) error {
	f.upserts++
	if f.upsertErr != nil {
		return f.upsertErr
	}
	return f.VectorIndex.Upsert(ctx, points)
}

func (f *failingIndex) Count(ctx context.Context) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.VectorIndex.Count(ctx)
}

// failingCursorStore wraps a driven.CursorStore and fails selected operations.
type failingCursorStore struct {
	driven.CursorStore
	getErr error
	setErr error
}

func (f *failingCursorStore) Get(ctx context.Context, channelID string) (*domain.ChannelCursor, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.CursorStore.Get(ctx, channelID)
}

func (f *failingCursorStore) Set(ctx context.Context, channelID, ts string) error {
	if f.setErr != nil {
		return f.setErr
	}
	return f.CursorStore.Set(ctx, channelID, ts)
}

var errBoom = errors.New("boom")
