package driven

import "context"

// LLMService answers a chat transcript with a single reply.
type LLMService interface {
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)
	ModelName() string
	Ping(ctx context.Context) error
	Close() error
}

// Roles of a ChatMessage.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one entry of the transcript sent to the model. Providers
// without a system role lift RoleSystem messages into their own field.
type ChatMessage struct {
	Role    string
	Content string
}

// ChatOptions tunes one Chat call. A zero MaxTokens leaves the provider
// default; Temperature is always sent.
type ChatOptions struct {
	MaxTokens   int
	Temperature float64
}
