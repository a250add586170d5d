// Package embedding turns text into fixed-dimension vectors for the semantic
// tier. The production implementation calls an Ollama-compatible HTTP API;
// tests swap in the deterministic mock.
package embedding

import "context"

// Embedder produces embedding vectors. Implementations must return vectors of
// exactly Dimensions() length for every input.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}
