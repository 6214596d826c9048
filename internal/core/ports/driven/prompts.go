package driven

// PromptStore serves the system prompts handed to the LLM. Users may edit
// them on disk; a missing file falls back to the built-in text.
type PromptStore interface {
	Load(name string) (string, error)

	// Reload drops cached prompts so the next Load reads the files again.
	Reload()
}

const (
	// PromptRAGSystem frames an answer built on retrieved chunks. Its one
	// %s verb receives the numbered context block.
	PromptRAGSystem = "rag_system"

	// PromptNoContextSystem is used when retrieval found nothing or was
	// unavailable.
	PromptNoContextSystem = "no_context_system"
)

// PromptStoreAware is implemented by services whose prompts can be
// replaced after construction.
type PromptStoreAware interface {
	SetPromptStore(store PromptStore)
}
