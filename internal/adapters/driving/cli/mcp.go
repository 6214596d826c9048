package cli

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrag/internal/adapters/driving/mcp"
)

var mcpAddr string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol integration",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve docrag to MCP clients",
	Long: `Exposes the pipeline to assistants that speak the Model Context Protocol.

Tools:     ask, and ingest_document / delete_document when ingestion is set up
Resources: docrag://sessions/{sessionId}

JSON-RPC runs over stdio unless --addr is given, in which case the server
speaks streamable HTTP on that address (useful with the MCP Inspector).

Client configuration for stdio:
  {"mcpServers": {"docrag": {"command": "/path/to/docrag", "args": ["mcp", "serve"]}}}`,
	Example: `  docrag mcp serve
  docrag mcp serve --addr localhost:8081`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().StringVar(&mcpAddr, "addr", "", "serve streamable HTTP on this address instead of stdio")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	if ragService == nil {
		return errors.New("rag service not configured")
	}

	ports := &mcp.Ports{
		RAG:          ragService,
		Ingestion:    ingestionService,
		Conversation: conversationService,
	}
	if services != nil {
		ports.HistoryTurns = services.HistoryTurns
	}
	server, err := mcp.NewServer(ports, mcp.WithVersion(version))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if mcpAddr == "" {
		return server.Run(ctx)
	}
	// stdout belongs to the protocol in stdio mode, so this only prints here.
	cmd.PrintErrf("MCP server listening on http://%s\n", mcpAddr)
	return server.RunHTTP(ctx, mcpAddr)
}
