package embedding

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"
)

// CachedEmbedder wraps an Embedder with content-hash memoization. Repeated
// embeds of identical text (common when the same memory is re-searched) skip
// the HTTP round trip.
type CachedEmbedder struct {
	inner Embedder

	mu      sync.RWMutex
	cache   map[string][]float32
	maxSize int
}

func NewCachedEmbedder(inner Embedder, maxSize int) *CachedEmbedder {
	if maxSize <= 0 {
		maxSize = 4096
	}
	return &CachedEmbedder{
		inner:   inner,
		cache:   make(map[string][]float32),
		maxSize: maxSize,
	}
}

// Embed returns the embedding for text, using the cache when available.
func (e *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	hash := ContentHash(text)

	e.mu.RLock()
	vec, ok := e.cache[hash]
	e.mu.RUnlock()
	if ok {
		return vec, nil
	}

	vec, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	if len(e.cache) >= e.maxSize {
		// Full reset beats eviction bookkeeping at this size.
		e.cache = make(map[string][]float32)
	}
	e.cache[hash] = vec
	e.mu.Unlock()

	return vec, nil
}

// Dimensions returns the wrapped embedder's vector width.
func (e *CachedEmbedder) Dimensions() int {
	return e.inner.Dimensions()
}

// ContentHash computes a SHA-256 hash of text content.
func ContentHash(text string) string {
	h := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%x", h)
}
