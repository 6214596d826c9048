package mcp

import (
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// RAG answers questions.
	RAG driving.RAGService

	// Ingestion adds and removes documents. The ingest and delete tools are
	// only registered when it is set.
	Ingestion driving.IngestionService

	// Conversation serves session history. Optional.
	Conversation driving.ConversationService

	// HistoryTurns is how many prior turns are fed back into ask when a
	// session id is given. Zero disables it.
	HistoryTurns int
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.RAG == nil {
		return ErrMissingRAGService
	}
	return nil
}
