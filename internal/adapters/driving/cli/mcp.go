package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/slack2rag/internal/adapters/driving/mcp"
	"github.com/custodia-labs/slack2rag/internal/app"
)

var mcpPort int

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start a Model Context Protocol server exposing the search_messages tool
and the slack2rag://cursors resources to AI assistants.

By default the server speaks JSON-RPC over stdio. Use --port to serve over
HTTP instead.

Examples:
  # Stdio mode
  slack2rag mcp serve

  # HTTP mode
  slack2rag mcp serve --port 8080`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	svcs, err := build(ctx, cfg, log, app.ScopeSearch)
	if err != nil {
		return err
	}
	defer svcs.Close()

	server, err := mcp.NewServer(&mcp.Ports{Search: svcs.Search, Status: svcs.Status})
	if err != nil {
		return err
	}

	if mcpPort > 0 {
		addr := fmt.Sprintf(":%d", mcpPort)
		log.Info("MCP server listening", "addr", "http://localhost"+addr)
		return server.RunHTTP(ctx, addr)
	}
	return server.Run(ctx)
}
