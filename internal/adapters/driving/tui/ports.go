// Package tui provides an interactive terminal chat over the document
// pipeline. It is a driving adapter like the CLI and HTTP API.
package tui

import (
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

// Ports aggregates the driving ports the TUI uses.
type Ports struct {
	// RAG answers questions.
	RAG driving.RAGService

	// Conversation loads and feeds back session history. Optional.
	Conversation driving.ConversationService
}

// Validate ensures the required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.RAG == nil {
		return ErrMissingRAGService
	}
	return nil
}
