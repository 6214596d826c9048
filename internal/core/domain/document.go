package domain

import (
	"fmt"
	"time"
)

// Document represents normalised text extracted from an uploaded file.
// It is the input to chunking.
type Document struct {
	// ID is the caller supplied document identifier.
	ID string

	// OwnerID is the tenant that owns the document and all of its chunks.
	OwnerID string

	// URI is the original location (file path, upload name, etc).
	URI string

	// Title is the human-readable title.
	Title string

	// Content is the full text content after normalisation.
	// This is the complete document text before chunking.
	Content string

	// Metadata contains arbitrary key-value pairs.
	Metadata map[string]any

	// CreatedAt is when the document was normalised.
	CreatedAt time.Time
}

// Chunk represents a bounded span of document text.
// Chunks are immutable once stored and are deleted en masse by document.
type Chunk struct {
	// ID is stable for a given document and index, so re-ingestion
	// overwrites rather than duplicates.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// OwnerID scopes every read and delete of this chunk.
	OwnerID string

	// Text is the chunk content.
	Text string

	// Index is the ordinal position within the document.
	Index int

	// Embedding is the vector representation for semantic search.
	Embedding []float32

	// InsertedAt is when the chunk was written to the vector store.
	InsertedAt time.Time
}

// ChunkID returns the stable identifier of the chunk at index within documentID.
func ChunkID(documentID string, index int) string {
	return fmt.Sprintf("%s#%d", documentID, index)
}
