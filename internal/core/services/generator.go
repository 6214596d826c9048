package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/logger"
)

// Ensure ResponseGenerator can be given custom prompts.
var _ driven.PromptStoreAware = (*ResponseGenerator)(nil)

// Default system prompts, used when no prompt store is set or a prompt
// cannot be loaded.
const (
	defaultRAGSystemPrompt = `You are a business document assistant. Answer the user's question using the document context below.
Ground every statement in the context. If the context does not contain the answer, say so plainly instead of guessing.
When asked to draft a document, write its full content.

Context:
%s`

	defaultNoContextSystemPrompt = `You are a business document assistant. No document context was available for this question.
Say that no document context was available, then answer from general knowledge only if that is still useful.`
)

// ResponseGenerator produces a grounded answer with one LLM call.
type ResponseGenerator struct {
	llm     driven.LLMService
	prompts driven.PromptStore
	opts    driven.ChatOptions
}

// NewResponseGenerator creates a generator. llm may be nil, in which case
// every call fails with domain.ErrGenerationFailed. A zero temperature is
// passed through as is.
func NewResponseGenerator(llm driven.LLMService, opts driven.ChatOptions) *ResponseGenerator {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = domain.DefaultMaxTokens
	}
	return &ResponseGenerator{llm: llm, opts: opts}
}

// SetPromptStore sets the store used to load system prompts.
func (g *ResponseGenerator) SetPromptStore(store driven.PromptStore) {
	g.prompts = store
}

// Generate answers query from the assembled context. No retries are made.
func (g *ResponseGenerator) Generate(ctx context.Context, query, docContext string) (string, error) {
	if g.llm == nil {
		return "", fmt.Errorf("%w: %w", domain.ErrGenerationFailed, domain.ErrLLMUnavailable)
	}

	messages := []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: g.systemPrompt(docContext)},
		{Role: driven.RoleUser, Content: query},
	}

	logger.Debug("Generating response with %s (context: %d chars)", g.llm.ModelName(), len(docContext))
	text, err := g.llm.Chat(ctx, messages, g.opts)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrGenerationFailed, err)
	}
	if domain.IsBlank(text) {
		return "", fmt.Errorf("%w: empty completion", domain.ErrGenerationFailed)
	}
	return strings.TrimSpace(text), nil
}

func (g *ResponseGenerator) systemPrompt(docContext string) string {
	if domain.IsBlank(docContext) {
		return g.loadPrompt(driven.PromptNoContextSystem, defaultNoContextSystemPrompt)
	}
	template := g.loadPrompt(driven.PromptRAGSystem, defaultRAGSystemPrompt)
	if !strings.Contains(template, "%s") {
		// Custom template without a placeholder: append the context.
		return template + "\n\nContext:\n" + docContext
	}
	return strings.Replace(template, "%s", docContext, 1)
}

func (g *ResponseGenerator) loadPrompt(name, fallback string) string {
	if g.prompts == nil {
		return fallback
	}
	prompt, err := g.prompts.Load(name)
	if err != nil || domain.IsBlank(prompt) {
		logger.Debug("Using default %s prompt: %v", name, err)
		return fallback
	}
	return prompt
}
