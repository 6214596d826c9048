package cli

import (
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrag/internal/adapters/driving/httpapi"
)

var (
	serveAddr    string
	serveTimeout time.Duration
	serveOrigins []string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serves the query, ingestion and session endpoints under /api/v1.

  GET    /api/v1/health
  POST   /api/v1/query
  POST   /api/v1/documents          (JSON or multipart upload)
  DELETE /api/v1/documents/:id?owner=
  GET    /api/v1/sessions/:id/turns
  DELETE /api/v1/sessions/:id`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	serveCmd.Flags().DurationVar(&serveTimeout, "timeout", httpapi.DefaultRequestTimeout, "per-request timeout")
	serveCmd.Flags().StringSliceVar(&serveOrigins, "cors-origin", nil, "allowed CORS origin (repeatable; default any)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if ragService == nil {
		return errors.New("rag service not configured")
	}

	ports := &httpapi.Ports{
		RAG:          ragService,
		Ingestion:    ingestionService,
		Conversation: conversationService,
	}
	if services != nil {
		ports.HistoryTurns = services.HistoryTurns
		ports.Checks = services.Checks
	}

	server, err := httpapi.NewServer(ports, httpapi.Config{
		RequestTimeout: serveTimeout,
		AllowOrigins:   serveOrigins,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.PrintErrf("HTTP API listening on %s\n", serveAddr)
	return server.Run(ctx, serveAddr)
}
