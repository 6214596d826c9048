package domain

import "strings"

// QueryInput is the request of one pipeline run.
type QueryInput struct {
	// Query is the user's question.
	Query string

	// OwnerID scopes retrieval to the owner's chunks.
	OwnerID string

	// SessionID identifies the conversation. Empty disables persistence.
	SessionID string

	// UseSemanticSearch enables embedding and vector retrieval.
	UseSemanticSearch bool

	// RequireSemantic makes retrieval failures fatal instead of degraded.
	RequireSemantic bool

	// DocumentIDs optionally restricts retrieval to these documents.
	DocumentIDs []string

	// ConversationContext is prior conversation text prepended to the
	// retrieved context.
	ConversationContext string

	// TopK overrides the configured result cap. Zero means default.
	TopK int

	// Threshold overrides the configured minimum similarity. Nil means
	// default; zero is a valid override.
	Threshold *float64
}

// QueryResult is the output of one pipeline run.
type QueryResult struct {
	// Response is the generated answer.
	Response string `json:"response" yaml:"response"`

	// ReferencedDocuments lists the documents whose chunks were used,
	// deduplicated in rank order.
	ReferencedDocuments []string `json:"referencedDocuments" yaml:"referencedDocuments"`

	// DocumentFile is the optional rendered attachment.
	DocumentFile *GeneratedDocument `json:"documentFile,omitempty" yaml:"documentFile,omitempty"`
}

// RetrievedChunk is a chunk selected by similarity ranking.
type RetrievedChunk struct {
	ChunkID    string
	DocumentID string
	Text       string
	Index      int
	Score      float64
}

// RetrievedContext is the ranked output of retrieval.
type RetrievedContext struct {
	// Chunks are ordered by descending score.
	Chunks []RetrievedChunk
}

// Texts returns the chunk texts in rank order.
func (r RetrievedContext) Texts() []string {
	texts := make([]string, 0, len(r.Chunks))
	for _, c := range r.Chunks {
		texts = append(texts, c.Text)
	}
	return texts
}

// DocumentIDs returns the distinct document ids in rank order.
func (r RetrievedContext) DocumentIDs() []string {
	seen := make(map[string]bool, len(r.Chunks))
	ids := make([]string, 0, len(r.Chunks))
	for _, c := range r.Chunks {
		if c.DocumentID == "" || seen[c.DocumentID] {
			continue
		}
		seen[c.DocumentID] = true
		ids = append(ids, c.DocumentID)
	}
	return ids
}

// IsBlank reports whether s is empty after trimming whitespace.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
