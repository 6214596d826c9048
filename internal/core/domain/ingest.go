package domain

// IngestRequest asks for a text document to be chunked, embedded and stored.
type IngestRequest struct {
	DocumentID string
	OwnerID    string
	Text       string

	// ChunkSize is the maximum chunk length. Zero means DefaultChunkSize.
	ChunkSize int

	// Overlap is the number of carried-over words. Nil means
	// DefaultChunkOverlap; zero disables overlap.
	Overlap *int
}

// FileIngestRequest asks for an uploaded file to be normalised and ingested.
type FileIngestRequest struct {
	DocumentID string
	OwnerID    string
	Filename   string

	// MIMEType is optional; it is inferred from Filename when empty.
	MIMEType string
	Content  []byte
}

// IngestResult reports the outcome of an ingestion.
type IngestResult struct {
	DocumentID  string `json:"documentId" yaml:"documentId"`
	ChunksCount int    `json:"chunksCount" yaml:"chunksCount"`
}
