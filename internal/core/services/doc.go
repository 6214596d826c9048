// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The query path is Pipeline: retrieve, generate, materialise, persist.
// The write path is IngestionService: chunk, embed, upsert in batches.
//
// Services are pure Go with no CGO dependencies.
package services
