// Package cli provides the cobra command tree for slack2rag.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/slack2rag/internal/app"
	"github.com/custodia-labs/slack2rag/internal/config"
	"github.com/custodia-labs/slack2rag/internal/logger"
)

// Builder wires services for a command scope.
type Builder func(ctx context.Context, cfg *config.Config, log *logger.Logger, scope app.Scope) (*app.Services, error)

var (
	version = "dev"

	configPath string
	logLevel   string
	verbose    bool

	// Resolved in PersistentPreRunE.
	cfg *config.Config
	log *logger.Logger

	// build is swapped in tests.
	build Builder = app.Build
)

var rootCmd = &cobra.Command{
	Use:   "slack2rag",
	Short: "Index Slack conversations for semantic search",
	Long: `slack2rag keeps a Qdrant collection in sync with your public Slack
channels. Messages and their threads are turned into text documents,
embedded with a local (Ollama) or OpenAI model, and upserted so they can be
searched by meaning from the CLI or over MCP.

Configuration is read from slack2rag.toml, .env and the environment, with
environment variables taking precedence.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if log != nil {
			log.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a TOML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// setup loads configuration and builds the logger for every command.
func setup(_ *cobra.Command, _ []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level := loaded.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	if verbose {
		level = "debug"
	}

	l, err := logger.New(level, loaded.Log.Format)
	if err != nil {
		return err
	}

	cfg, log = loaded, l
	return nil
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}
