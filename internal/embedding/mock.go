package embedding

import (
	"context"
	"hash/fnv"
	"math"
)

// MockEmbedder produces deterministic pseudo-embeddings from an FNV hash of
// the input. Identical texts always map to identical vectors, so tests can
// assert exact nearest-neighbor results without a model server.
type MockEmbedder struct {
	dim int
}

func NewMockEmbedder(dim int) *MockEmbedder {
	if dim <= 0 {
		dim = 384
	}
	return &MockEmbedder{dim: dim}
}

func (m *MockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, m.dim)
	var norm float64
	for i := range vec {
		// xorshift keeps each component cheap and reproducible.
		seed ^= seed << 13
		seed ^= seed >> 7
		seed ^= seed << 17
		vec[i] = float32(int64(seed%2000)-1000) / 1000.0
		norm += float64(vec[i]) * float64(vec[i])
	}

	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec, nil
}

func (m *MockEmbedder) Dimensions() int {
	return m.dim
}
