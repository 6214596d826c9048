// Package driven declares what the docrag core needs from the outside
// world: embedding and chat models, a vector store, conversation storage,
// text extraction, chunking, file rendering and configuration.
//
// Only domain types appear in these signatures. Adapters under
// internal/adapters/driven, internal/normalisers and internal/postprocessors
// implement them; services never import an adapter directly.
//
// ConversationStore and PromptStore may be nil. Without the first,
// answers are not recorded; without the second, built-in prompts are used.
package driven
