// Package qdrant implements driven.VectorIndex over the Qdrant REST API.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/custodia-labs/slack2rag/internal/core/domain"
	"github.com/custodia-labs/slack2rag/internal/core/ports/driven"
	"github.com/custodia-labs/slack2rag/internal/logger"
)

const maxErrorBodyBytes = 1024

// keywordFields are indexed for exact-match filtering.
var keywordFields = []string{domain.FieldChannelID, domain.FieldChannelName, domain.FieldUserID}

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index is a Qdrant-backed vector index.
type Index struct {
	log     *logger.Logger
	cfg     Config
	baseURL string
	http    *http.Client
}

type envelope struct {
	Result json.RawMessage `json:"result"`
	Status json.RawMessage `json:"status"`
	Time   float64         `json:"time"`
}

type searchResultItem struct {
	ID      json.RawMessage `json:"id"`
	Score   float64         `json:"score"`
	Payload map[string]any  `json:"payload"`
}

// New validates the config and checks that Qdrant is ready. An unreachable
// server is an initialization error.
func New(ctx context.Context, cfg Config, log *logger.Logger) (*Index, error) {
	cfg = cfg.withDefaults()
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	idx := newIndex(cfg, &http.Client{Timeout: cfg.Timeout}, log)
	if err := idx.Ping(ctx); err != nil {
		return nil, fmt.Errorf("%w at %s: %w", domain.ErrVectorIndexUnavailable, idx.baseURL, err)
	}

	log.Info("qdrant vector index selected", "url", idx.baseURL, "collection", cfg.Collection)
	return idx, nil
}

func newIndex(cfg Config, client *http.Client, log *logger.Logger) *Index {
	return &Index{
		log:     log.With("component", "qdrant"),
		cfg:     cfg,
		baseURL: strings.TrimRight(cfg.URL, "/"),
		http:    client,
	}
}

// Ping checks the readiness endpoint.
func (x *Index) Ping(ctx context.Context) error {
	const op = "ready"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, x.baseURL+"/readyz", nil)
	if err != nil {
		return opErr(op, OperationErrorTransportFailed, "build ready request failed", err)
	}
	x.authorize(req)
	resp, err := x.http.Do(req)
	if err != nil {
		return classifyHTTPCallError(op, "qdrant ready check failed", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &OperationError{
			Code:       OperationErrorQueryFailed,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("qdrant ready check returned status=%d", resp.StatusCode),
		}
	}
	return nil
}

// EnsureCollection creates the collection with cosine distance and the
// payload indices used by search filters. An existing collection must
// have the same vector size.
func (x *Index) EnsureCollection(ctx context.Context, dimension int) error {
	const op = "ensure_collection"
	if dimension <= 0 {
		return opErr(op, OperationErrorValidation, fmt.Sprintf("invalid dimension %d", dimension), domain.ErrInvalidInput)
	}

	var info struct {
		Config struct {
			Params struct {
				Vectors struct {
					Size     int    `json:"size"`
					Distance string `json:"distance"`
				} `json:"vectors"`
			} `json:"params"`
		} `json:"config"`
	}
	err := x.doJSON(ctx, op, http.MethodGet, x.collectionPath(""), nil, &info)
	switch {
	case err == nil:
		size := info.Config.Params.Vectors.Size
		if size != 0 && size != dimension {
			return &OperationError{
				Code:      OperationErrorValidation,
				Operation: op,
				Message: fmt.Sprintf("collection %q vector size mismatch: expected=%d actual=%d",
					x.cfg.Collection, dimension, size),
				Cause: domain.ErrDimensionMismatch,
			}
		}
		x.log.Debug("collection exists", "collection", x.cfg.Collection, "size", size)
		return nil
	case !IsNotFound(err):
		return err
	}

	x.log.Info("creating collection", "collection", x.cfg.Collection, "dimension", dimension)
	create := map[string]any{
		"vectors": map[string]any{"size": dimension, "distance": "Cosine"},
	}
	if err := x.doJSON(ctx, op, http.MethodPut, x.collectionPath(""), create, nil); err != nil {
		return err
	}

	for _, field := range keywordFields {
		if err := x.createIndex(ctx, field, "keyword"); err != nil {
			return err
		}
	}
	return x.createIndex(ctx, domain.FieldDate, "datetime")
}

func (x *Index) createIndex(ctx context.Context, field, schema string) error {
	req := map[string]any{"field_name": field, "field_schema": schema}
	if err := x.doJSON(ctx, "create_index", http.MethodPut, x.collectionPath("/index?wait=true"), req, nil); err != nil {
		return fmt.Errorf("index payload field %s: %w", field, err)
	}
	return nil
}

// Upsert writes points and waits for them to be persisted. Transient
// failures are retried with exponential backoff.
func (x *Index) Upsert(ctx context.Context, points []domain.Point) error {
	const op = "upsert"
	if len(points) == 0 {
		return nil
	}

	body := make([]map[string]any, 0, len(points))
	for _, p := range points {
		if p.Document.ID == "" {
			return opErr(op, OperationErrorValidation, "point id is required", nil)
		}
		if len(p.Vector) == 0 {
			return opErr(op, OperationErrorValidation, fmt.Sprintf("point %q has empty vector", p.Document.ID), nil)
		}
		body = append(body, map[string]any{
			"id":      p.Document.ID,
			"vector":  p.Vector,
			"payload": p.Document.Payload(),
		})
	}
	req := map[string]any{"points": body}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = x.cfg.UpsertInitialDelay
	b.MaxInterval = x.cfg.UpsertMaxDelay
	b.Multiplier = 2

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := x.doJSON(ctx, op, http.MethodPut, x.collectionPath("/points?wait=true"), req, nil)
		var opError *OperationError
		if err != nil && errors.As(err, &opError) && !opError.Transient() {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(x.cfg.UpsertAttempts)),
		backoff.WithNotify(func(err error, wait time.Duration) {
			x.log.Warn("upsert failed, retrying", "points", len(points), "wait", wait.String(), "error", err)
		}),
	)
	return err
}

// Search runs a filtered nearest-neighbour query.
func (x *Index) Search(ctx context.Context, query []float32, opts domain.SearchOptions) ([]domain.SearchHit, error) {
	const op = "search"
	if len(query) == 0 {
		return nil, opErr(op, OperationErrorValidation, "query vector required", nil)
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = domain.DefaultSearchLimit
	}

	req := map[string]any{
		"vector":       query,
		"limit":        limit,
		"with_payload": true,
		"with_vector":  false,
	}
	if filter := buildFilter(opts); filter != nil {
		req["filter"] = filter
	}

	var raw []searchResultItem
	if err := x.doJSON(ctx, op, http.MethodPost, x.collectionPath("/points/search"), req, &raw); err != nil {
		return nil, err
	}

	hits := make([]domain.SearchHit, 0, len(raw))
	for _, item := range raw {
		hits = append(hits, domain.SearchHit{
			Document: domain.DocumentFromPayload(decodePointID(item.ID), item.Payload),
			Score:    item.Score,
		})
	}
	return hits, nil
}

// Count returns the exact number of points in the collection.
func (x *Index) Count(ctx context.Context) (int, error) {
	var result struct {
		Count int `json:"count"`
	}
	req := map[string]any{"exact": true}
	if err := x.doJSON(ctx, "count", http.MethodPost, x.collectionPath("/points/count"), req, &result); err != nil {
		return 0, err
	}
	return result.Count, nil
}

// Close releases idle connections.
func (x *Index) Close() error {
	x.http.CloseIdleConnections()
	return nil
}

func (x *Index) authorize(req *http.Request) {
	if x.cfg.APIKey != "" {
		req.Header.Set("api-key", x.cfg.APIKey)
	}
}

func (x *Index) collectionPath(suffix string) string {
	return "/collections/" + x.cfg.Collection + suffix
}

func (x *Index) doJSON(ctx context.Context, op, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(in); err != nil {
			return opErr(op, OperationErrorEncodeFailed, "encode request failed", err)
		}
		body = &buf
	}

	req, err := http.NewRequestWithContext(ctx, method, x.baseURL+path, body)
	if err != nil {
		return opErr(op, OperationErrorTransportFailed, "build request failed", err)
	}
	req.Header.Set("Content-Type", "application/json")
	x.authorize(req)

	resp, err := x.http.Do(req)
	if err != nil {
		return classifyHTTPCallError(op, "qdrant request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return opErr(op, OperationErrorDecodeFailed, "read response failed", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &OperationError{
			Code:       OperationErrorQueryFailed,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("qdrant http status=%d body=%q", resp.StatusCode, truncateBody(raw)),
		}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return opErr(op, OperationErrorDecodeFailed, "decode qdrant envelope failed", err)
	}
	if statusErr := parseEnvelopeStatus(env.Status); statusErr != "" {
		return &OperationError{
			Code:       OperationErrorQueryFailed,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    statusErr,
		}
	}

	if out == nil || len(env.Result) == 0 || string(env.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return opErr(op, OperationErrorDecodeFailed, "decode qdrant result failed", err)
	}
	return nil
}

func parseEnvelopeStatus(raw json.RawMessage) string {
	status := strings.TrimSpace(string(raw))
	if status == "" || status == "null" {
		return ""
	}

	var statusString string
	if err := json.Unmarshal(raw, &statusString); err == nil {
		if strings.EqualFold(statusString, "ok") {
			return ""
		}
		return fmt.Sprintf("qdrant status=%q", statusString)
	}

	var statusObject struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &statusObject); err == nil && strings.TrimSpace(statusObject.Error) != "" {
		return strings.TrimSpace(statusObject.Error)
	}
	return fmt.Sprintf("qdrant status=%s", status)
}

func truncateBody(raw []byte) string {
	if len(raw) <= maxErrorBodyBytes {
		return string(raw)
	}
	return string(raw[:maxErrorBodyBytes]) + "..."
}

func decodePointID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var idString string
	if err := json.Unmarshal(raw, &idString); err == nil {
		return idString
	}
	var idNumber int64
	if err := json.Unmarshal(raw, &idNumber); err == nil {
		return fmt.Sprintf("%d", idNumber)
	}
	return strings.TrimSpace(string(raw))
}
