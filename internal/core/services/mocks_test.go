package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// mockLLM records chat calls and returns a canned response.
type mockLLM struct {
	mu       sync.Mutex
	response string
	err      error
	calls    [][]driven.ChatMessage
	opts     []driven.ChatOptions
}

func (m *mockLLM) Chat(_ context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, messages)
	m.opts = append(m.opts, opts)
	return m.response, m.err
}

func (m *mockLLM) ModelName() string          { return "mock-llm" }
func (m *mockLLM) Ping(context.Context) error { return nil }
func (m *mockLLM) Close() error               { return nil }

func (m *mockLLM) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// mockEmbedder maps texts to vectors through embedFn.
type mockEmbedder struct {
	embedFn func(text string) ([]float32, error)
	calls   atomic.Int32
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.calls.Add(1)
	if m.embedFn == nil {
		return []float32{1, 0, 0}, nil
	}
	return m.embedFn(text)
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := m.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int            { return 3 }
func (m *mockEmbedder) ModelName() string          { return "mock-embed" }
func (m *mockEmbedder) Ping(context.Context) error { return nil }
func (m *mockEmbedder) Close() error               { return nil }

// mockVectorStore is a scripted vector store.
type mockVectorStore struct {
	mu          sync.Mutex
	hits        []driven.VectorHit
	searchErr   error
	upsertErr   error
	deleteErr   error
	searchCalls int
	filters     []driven.VectorFilter
	upserts     [][]domain.Chunk
	deleted     []string
	trimmed     []string
}

func (m *mockVectorStore) EnsureReady(context.Context) error { return nil }

func (m *mockVectorStore) Upsert(_ context.Context, _ string, chunks []domain.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upserts = append(m.upserts, chunks)
	return nil
}

func (m *mockVectorStore) Search(_ context.Context, _ []float32, filter driven.VectorFilter, _ int) ([]driven.VectorHit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchCalls++
	m.filters = append(m.filters, filter)
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.hits, nil
}

func (m *mockVectorStore) DeleteByDocument(_ context.Context, ownerID, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, ownerID+"/"+documentID)
	return nil
}

func (m *mockVectorStore) TrimDocument(_ context.Context, ownerID, documentID string, keep int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.trimmed = append(m.trimmed, fmt.Sprintf("%s/%s@%d", ownerID, documentID, keep))
	return nil
}

func (m *mockVectorStore) Close() error { return nil }

// mockConversationStore keeps turns in memory.
type mockConversationStore struct {
	mu     sync.Mutex
	turns  []domain.ConversationTurn
	err    error
	listFn func(sessionID string, limit int) ([]domain.ConversationTurn, error)
}

func (m *mockConversationStore) AppendTurns(_ context.Context, turns ...domain.ConversationTurn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.turns = append(m.turns, turns...)
	return nil
}

func (m *mockConversationStore) ListTurns(_ context.Context, sessionID string, limit int) ([]domain.ConversationTurn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listFn != nil {
		return m.listFn(sessionID, limit)
	}
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.ConversationTurn
	for _, t := range m.turns {
		if t.SessionID == sessionID {
			out = append(out, t)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (m *mockConversationStore) DeleteSession(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	kept := m.turns[:0]
	for _, t := range m.turns {
		if t.SessionID != sessionID {
			kept = append(kept, t)
		}
	}
	m.turns = kept
	return nil
}

// mockPromptStore returns fixed prompts.
type mockPromptStore struct {
	prompts map[string]string
}

func (m *mockPromptStore) Load(name string) (string, error) {
	p, ok := m.prompts[name]
	if !ok {
		return "", errors.New("prompt not found")
	}
	return p, nil
}

func (m *mockPromptStore) Reload() {}

// mockRenderer renders text verbatim or fails.
type mockRenderer struct {
	format domain.DocumentFormat
	err    error
}

func (m *mockRenderer) Format() domain.DocumentFormat { return m.format }

func (m *mockRenderer) Render(content string) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []byte(content), nil
}

// memoryVectorStore is a small brute-force store used by end-to-end tests.
type memoryVectorStore struct {
	mu     sync.Mutex
	chunks map[string]domain.Chunk
}

func newMemoryVectorStore() *memoryVectorStore {
	return &memoryVectorStore{chunks: make(map[string]domain.Chunk)}
}

func (m *memoryVectorStore) EnsureReady(context.Context) error { return nil }

func (m *memoryVectorStore) Upsert(_ context.Context, ownerID string, chunks []domain.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range chunks {
		c.OwnerID = ownerID
		m.chunks[ownerID+"/"+c.ID] = c
	}
	return nil
}

func (m *memoryVectorStore) Search(_ context.Context, query []float32, filter driven.VectorFilter, topK int) ([]driven.VectorHit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var hits []driven.VectorHit
	for _, c := range m.chunks {
		if c.OwnerID != filter.OwnerID || !filter.Allows(c.DocumentID) {
			continue
		}
		hits = append(hits, driven.VectorHit{
			ChunkID:    c.ID,
			DocumentID: c.DocumentID,
			Text:       c.Text,
			Index:      c.Index,
			Score:      CosineSimilarity(query, c.Embedding),
		})
	}
	return Rank(nil, hits, topK, -1), nil
}

func (m *memoryVectorStore) DeleteByDocument(_ context.Context, ownerID, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, c := range m.chunks {
		if c.OwnerID == ownerID && c.DocumentID == documentID {
			delete(m.chunks, key)
		}
	}
	return nil
}

func (m *memoryVectorStore) TrimDocument(_ context.Context, ownerID, documentID string, keep int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, c := range m.chunks {
		if c.OwnerID == ownerID && c.DocumentID == documentID && c.Index >= keep {
			delete(m.chunks, key)
		}
	}
	return nil
}

func (m *memoryVectorStore) Close() error { return nil }

func (m *memoryVectorStore) texts(documentID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0)
	for _, c := range m.chunks {
		if c.DocumentID == documentID {
			out = append(out, c.Text)
		}
	}
	sort.Strings(out)
	return out
}

func (m *memoryVectorStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.chunks)
}

// wordEmbedder embeds text as a bag of lower-cased words hashed into 32
// buckets, so texts sharing words score higher.
func wordEmbedder() *mockEmbedder {
	return &mockEmbedder{embedFn: func(text string) ([]float32, error) {
		vec := make([]float32, 32)
		for _, word := range strings.Fields(strings.ToLower(text)) {
			word = strings.Trim(word, ".,?!:;")
			if word == "" {
				continue
			}
			var h uint32 = 2166136261
			for i := 0; i < len(word); i++ {
				h ^= uint32(word[i])
				h *= 16777619
			}
			vec[h%32]++
		}
		return vec, nil
	}}
}
