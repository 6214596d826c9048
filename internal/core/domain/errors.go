package domain

import (
	"context"
	"errors"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyInput indicates text that is empty or only whitespace.
	ErrEmptyInput = errors.New("empty input")

	// ErrUnsupportedType indicates an unknown provider, backend or MIME type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding backend could not be
	// constructed or failed to produce a vector.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorStoreUnavailable indicates the vector store is unreachable.
	// Retrieval degrades to conversation context only.
	ErrVectorStoreUnavailable = errors.New("vector store unavailable")

	// ErrGenerationFailed indicates the language model call failed or
	// returned nothing usable.
	ErrGenerationFailed = errors.New("response generation failed")

	// ErrDocumentRender indicates a PDF, DOCX or XLSX renderer failed.
	ErrDocumentRender = errors.New("document render failed")

	// ErrPersistence indicates conversation turns could not be stored.
	ErrPersistence = errors.New("conversation persistence failed")
)

// Messages shown to end users instead of internal detail.
const (
	generationRetryMessage = "failed to generate response, please retry"
	timeoutMessage         = "request timed out"
	internalMessage        = "internal error"
)

// UserMessage maps an error to text safe to show an end user.
// Errors about the caller's own input keep their text. Unavailable
// backends are named without their cause; anything else is reported as
// an internal error.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrGenerationFailed):
		return generationRetryMessage
	case errors.Is(err, ErrEmptyInput),
		errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrUnsupportedType),
		errors.Is(err, ErrNotFound):
		return err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return timeoutMessage
	}
	for _, sentinel := range []error{ErrEmbeddingUnavailable, ErrVectorStoreUnavailable, ErrLLMUnavailable} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return internalMessage
}
