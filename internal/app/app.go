// Package app is the composition root. It turns a resolved configuration
// into wired services for the CLI and MCP adapters.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/slack2rag/internal/adapters/driven/embedding/ollama"
	"github.com/custodia-labs/slack2rag/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/slack2rag/internal/adapters/driven/storage/file"
	"github.com/custodia-labs/slack2rag/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/slack2rag/internal/adapters/driven/vector/qdrant"
	"github.com/custodia-labs/slack2rag/internal/config"
	"github.com/custodia-labs/slack2rag/internal/connectors/slack"
	"github.com/custodia-labs/slack2rag/internal/core/ports/driven"
	"github.com/custodia-labs/slack2rag/internal/core/ports/driving"
	"github.com/custodia-labs/slack2rag/internal/core/services"
	"github.com/custodia-labs/slack2rag/internal/logger"
)

// Scope selects which collaborators a command needs.
type Scope int

const (
	// ScopeStatus needs cursors and, when reachable, the vector index.
	ScopeStatus Scope = iota

	// ScopeSearch adds the embedder.
	ScopeSearch

	// ScopeSync adds the Slack source.
	ScopeSync
)

// Services holds the driving ports available for a scope. Fields outside
// the requested scope are nil.
type Services struct {
	Cycle  driving.CycleRunner
	Search driving.SearchService
	Status driving.StatusService

	closers []func() error
}

// Close releases every collaborator in reverse construction order.
func (s *Services) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	return errors.Join(errs...)
}

// Build wires services for scope. Configuration must already be validated.
// Initialization failures (unreachable embedder, Qdrant not ready, vector
// size mismatch) are returned with the offending endpoint in the message.
func Build(ctx context.Context, cfg *config.Config, log *logger.Logger, scope Scope) (_ *Services, err error) {
	svcs := &Services{}
	defer func() {
		if err != nil {
			_ = svcs.Close()
		}
	}()

	cursors, err := newCursorStore(cfg, log, svcs)
	if err != nil {
		return nil, err
	}

	qcfg := qdrant.Config{
		URL:        cfg.Qdrant.URL,
		APIKey:     cfg.Qdrant.APIKey,
		Collection: cfg.Qdrant.Collection,
	}

	if scope == ScopeStatus {
		index, err := qdrant.New(ctx, qcfg, log)
		if err != nil {
			log.Warn("vector index unavailable, reporting cursors only", "url", cfg.Qdrant.URL, "error", err)
			svcs.Status = services.NewStatusService(cursors, nil)
			return svcs, nil
		}
		svcs.closers = append(svcs.closers, index.Close)
		svcs.Status = services.NewStatusService(cursors, index)
		return svcs, nil
	}

	embedder, err := newEmbedder(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	svcs.closers = append(svcs.closers, embedder.Close)

	index, err := qdrant.New(ctx, qcfg, log)
	if err != nil {
		return nil, err
	}
	svcs.closers = append(svcs.closers, index.Close)

	if err := index.EnsureCollection(ctx, embedder.Dimensions()); err != nil {
		return nil, fmt.Errorf("prepare collection %q for model %s (%d dims): %w",
			cfg.Qdrant.Collection, embedder.ModelName(), embedder.Dimensions(), err)
	}

	svcs.Search = services.NewSearchService(embedder, index, log.Named("search"))
	svcs.Status = services.NewStatusService(cursors, index)

	if scope == ScopeSync {
		source, err := slack.New(slack.Config{Token: cfg.Slack.BotToken}, log)
		if err != nil {
			return nil, err
		}
		resolver := slack.NewResolver(source, log.Named("resolver"))
		builder := services.NewDocumentBuilder(resolver, nil)
		syncer := services.NewChannelSyncer(source, builder, embedder, index, cursors, cfg.Sync.BatchSize, log.Named("sync"))
		svcs.Cycle = services.NewCycleDriver(source, syncer, index, cfg.Slack.Channels, cfg.Sync.Interval, log.Named("cycle"))
	}

	return svcs, nil
}

func newCursorStore(cfg *config.Config, log *logger.Logger, svcs *Services) (driven.CursorStore, error) {
	path := cfg.StatePath()
	switch cfg.Sync.StateBackend {
	case config.BackendSQLite:
		store, err := sqlite.NewStore(path, log)
		if err != nil {
			return nil, fmt.Errorf("open sqlite state %s: %w", path, err)
		}
		svcs.closers = append(svcs.closers, store.Close)
		return store.CursorStore(), nil
	default:
		return file.NewCursorStore(path, log), nil
	}
}

func newEmbedder(ctx context.Context, cfg *config.Config, log *logger.Logger) (driven.Embedder, error) {
	switch cfg.Embedding.Provider {
	case config.ProviderOpenAI:
		return openai.New(ctx, openai.Config{
			APIKey:  cfg.Embedding.OpenAIAPIKey,
			BaseURL: cfg.Embedding.OpenAIBaseURL,
			Model:   cfg.Embedding.OpenAIModel,
		}, log)
	default:
		return ollama.New(ctx, ollama.Config{
			BaseURL: cfg.Embedding.OllamaURL,
			Model:   cfg.Embedding.LocalModel,
		}, log)
	}
}
