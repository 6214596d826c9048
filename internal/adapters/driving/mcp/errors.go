// Package mcp provides an MCP (Model Context Protocol) server adapter for docrag.
// It lets AI assistants ask questions over, add to and prune an owner's document set.
package mcp

import "errors"

// ErrMissingRAGService is returned when the RAG service is not provided.
var ErrMissingRAGService = errors.New("mcp: rag service is required")
