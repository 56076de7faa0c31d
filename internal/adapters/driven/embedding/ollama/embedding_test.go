package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/slack2rag/internal/core/domain"
	"github.com/custodia-labs/slack2rag/internal/logger"
)

// fakeOllama answers /api/embed with 3-dim vectors whose first element is
// the input's position.
func fakeOllama(t *testing.T, requests *[]embedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/embed":
			var req embedRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			if requests != nil {
				*requests = append(*requests, req)
			}
			resp := embedResponse{}
			for i := range req.Input {
				resp.Embeddings = append(resp.Embeddings, []float64{float64(i), 0.5, 1})
			}
			_ = json.NewEncoder(w).Encode(resp)
		case "/api/tags":
			_, _ = w.Write([]byte(`{"models":[]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNew_ProbesDimension(t *testing.T) {
	var requests []embedRequest
	srv := fakeOllama(t, &requests)

	e, err := New(context.Background(), Config{BaseURL: srv.URL}, logger.Nop())
	require.NoError(t, err)

	assert.Equal(t, 3, e.Dimensions())
	assert.Equal(t, DefaultModel, e.ModelName())
	require.Len(t, requests, 1)
	assert.Equal(t, "all-minilm", requests[0].Model)
}

func TestNew_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := New(context.Background(), Config{BaseURL: srv.URL, Model: "missing"}, logger.Nop())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrEmbeddingUnavailable))
	assert.Contains(t, err.Error(), "missing")
}

func TestEmbedBatch_OneRequestInOrder(t *testing.T) {
	var requests []embedRequest
	srv := fakeOllama(t, &requests)
	e, err := New(context.Background(), Config{BaseURL: srv.URL}, logger.Nop())
	require.NoError(t, err)
	requests = nil

	vectors, err := e.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)

	require.Len(t, requests, 1)
	assert.Equal(t, []string{"a", "b", "c"}, requests[0].Input)
	require.Len(t, vectors, 3)
	for i, v := range vectors {
		assert.Equal(t, float32(i), v[0])
	}
}

func TestEmbedBatch_Empty(t *testing.T) {
	srv := fakeOllama(t, nil)
	e, err := New(context.Background(), Config{BaseURL: srv.URL}, logger.Nop())
	require.NoError(t, err)

	vectors, err := e.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
}

func TestPing(t *testing.T) {
	srv := fakeOllama(t, nil)
	e, err := New(context.Background(), Config{BaseURL: srv.URL}, logger.Nop())
	require.NoError(t, err)

	assert.NoError(t, e.Ping(context.Background()))
	assert.NoError(t, e.Close())
}
