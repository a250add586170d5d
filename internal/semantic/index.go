// Package semantic implements the vector tier: an in-process flat index with
// exact L2 search. Deletes tombstone entries; the index is rebuilt without
// them once tombstones pass a configurable share of the total.
package semantic

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voxagent/memoryd/internal/embedding"
	"github.com/voxagent/memoryd/internal/memerr"
	"github.com/voxagent/memoryd/internal/models"
	"github.com/voxagent/memoryd/internal/privacy"
)

const tier = models.TierSemantic

// Index is the flat L2 vector index with a metadata side table. Vector
// positions are stable between rebuilds; byUser maps user IDs to positions.
type Index struct {
	embedder         embedding.Embedder
	dim              int
	dir              string
	rebuildThreshold float64

	mu      sync.RWMutex
	vectors [][]float32
	records []models.SemanticRecord
	byUser  map[string][]int
	deleted map[int]struct{}
}

// Options configures a new index.
type Options struct {
	// Dir is where Save/Load persist the index and its metadata sidecar.
	Dir string

	// RebuildThreshold is the tombstone share (0, 1] that triggers an
	// automatic rebuild after a delete.
	RebuildThreshold float64
}

// New creates an empty index. Call Load to restore persisted state.
func New(embedder embedding.Embedder, opts Options) *Index {
	threshold := opts.RebuildThreshold
	if threshold <= 0 || threshold > 1 {
		threshold = 0.3
	}
	return &Index{
		embedder:         embedder,
		dim:              embedder.Dimensions(),
		dir:              opts.Dir,
		rebuildThreshold: threshold,
		byUser:           make(map[string][]int),
		deleted:          make(map[int]struct{}),
	}
}

// Add embeds text and stores it as a new record. Private-tagged spans are
// stripped first; text that is entirely private is rejected, not stored empty.
func (ix *Index) Add(ctx context.Context, userID, text, memoryType string, metadata map[string]any) (*models.SemanticRecord, error) {
	if userID == "" || text == "" {
		return nil, memerr.Validation(tier, "Add", "userId and text are required")
	}
	if privacy.HasOnlyPrivateContent(text) {
		return nil, memerr.Validation(tier, "Add", "text contains only private content")
	}
	text = privacy.StripPrivateTags(text)

	vec, err := ix.embedder.Embed(ctx, text)
	if err != nil {
		return nil, memerr.Wrap(tier, "Add", memerr.CodeStoreUnavailable, err)
	}
	if len(vec) != ix.dim {
		return nil, memerr.Validation(tier, "Add", "embedding dimension mismatch")
	}

	rec := models.SemanticRecord{
		ID:         uuid.NewString(),
		UserID:     userID,
		Text:       text,
		MemoryType: memoryType,
		Metadata:   metadata,
		CreatedAt:  time.Now().Unix(),
	}

	ix.mu.Lock()
	ix.appendLocked(vec, rec)
	ix.mu.Unlock()

	return &rec, nil
}

// BatchAdd embeds and stores multiple texts for one user. Each input succeeds
// or fails independently; a failed embed does not abort the rest.
func (ix *Index) BatchAdd(ctx context.Context, userID string, items []models.SemanticInput) ([]models.BatchAddResult, error) {
	if userID == "" {
		return nil, memerr.Validation(tier, "BatchAdd", "userId is required")
	}

	results := make([]models.BatchAddResult, len(items))
	for i, item := range items {
		results[i].Index = i
		if item.Text == "" {
			results[i].Error = "text is required"
			continue
		}

		rec, err := ix.Add(ctx, userID, item.Text, item.MemoryType, item.Metadata)
		if err != nil {
			if memerr.CodeOf(err) == memerr.CodeTimeout {
				// The whole batch shares one deadline; no point continuing.
				results[i].Error = err.Error()
				for j := i + 1; j < len(items); j++ {
					results[j] = models.BatchAddResult{Index: j, Error: "skipped: deadline exceeded"}
				}
				return results, nil
			}
			results[i].Error = err.Error()
			continue
		}
		results[i].ID = rec.ID
	}
	return results, nil
}

// Search embeds the query and returns the topK closest live records by
// squared L2 distance, optionally filtered by user, memory type, and a
// maximum distance.
func (ix *Index) Search(ctx context.Context, query, userID, memoryType string, topK int, maxDistance *float64) ([]models.SemanticMatch, error) {
	if query == "" {
		return nil, memerr.Validation(tier, "Search", "query is required")
	}
	if topK <= 0 {
		topK = 10
	}

	qvec, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		return nil, memerr.Wrap(tier, "Search", memerr.CodeStoreUnavailable, err)
	}
	if len(qvec) != ix.dim {
		return nil, memerr.Validation(tier, "Search", "embedding dimension mismatch")
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	matches := make([]models.SemanticMatch, 0, topK)
	for pos, vec := range ix.vectors {
		if _, dead := ix.deleted[pos]; dead {
			continue
		}
		rec := ix.records[pos]
		if userID != "" && rec.UserID != userID {
			continue
		}
		if memoryType != "" && rec.MemoryType != memoryType {
			continue
		}

		dist := l2Squared(qvec, vec)
		if maxDistance != nil && dist > *maxDistance {
			continue
		}
		matches = append(matches, models.SemanticMatch{Record: rec, Distance: dist})
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Distance < matches[j].Distance })
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// GetUserMemories returns a user's live records in insertion order. With
// includeVectors the stored embeddings are attached (used by exports).
func (ix *Index) GetUserMemories(userID, memoryType string, limit int, includeVectors bool) []models.SemanticRecord {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var memories []models.SemanticRecord
	for _, pos := range ix.byUser[userID] {
		if _, dead := ix.deleted[pos]; dead {
			continue
		}
		rec := ix.records[pos]
		if memoryType != "" && rec.MemoryType != memoryType {
			continue
		}
		if includeVectors {
			rec.Embedding = append([]float32(nil), ix.vectors[pos]...)
		}
		memories = append(memories, rec)
		if limit > 0 && len(memories) >= limit {
			break
		}
	}
	return memories
}

// CountUserMemories returns the number of live records for a user.
func (ix *Index) CountUserMemories(userID string) int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	n := 0
	for _, pos := range ix.byUser[userID] {
		if _, dead := ix.deleted[pos]; !dead {
			n++
		}
	}
	return n
}

// DeleteUserMemories tombstones every record of a user and returns the count.
// When tombstones exceed the rebuild threshold the index is compacted in
// place before returning.
func (ix *Index) DeleteUserMemories(userID string) int {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	positions, ok := ix.byUser[userID]
	if !ok {
		return 0
	}

	count := 0
	for _, pos := range positions {
		if _, dead := ix.deleted[pos]; !dead {
			ix.deleted[pos] = struct{}{}
			count++
		}
	}
	delete(ix.byUser, userID)

	if len(ix.records) > 0 && float64(len(ix.deleted)) > ix.rebuildThreshold*float64(len(ix.records)) {
		ix.rebuildLocked()
	}
	return count
}

// RebuildIndex compacts the index, dropping tombstoned entries. Positions
// shift; byUser is remapped to match.
func (ix *Index) RebuildIndex() models.SemanticStats {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.rebuildLocked()
	return ix.statsLocked()
}

// Stats describes the current index contents.
func (ix *Index) Stats() models.SemanticStats {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.statsLocked()
}

func (ix *Index) appendLocked(vec []float32, rec models.SemanticRecord) {
	pos := len(ix.vectors)
	ix.vectors = append(ix.vectors, vec)
	ix.records = append(ix.records, rec)
	ix.byUser[rec.UserID] = append(ix.byUser[rec.UserID], pos)
}

// rebuildLocked builds the compacted structures aside and swaps them in.
// Caller holds the write lock.
func (ix *Index) rebuildLocked() {
	newVectors := make([][]float32, 0, len(ix.vectors)-len(ix.deleted))
	newRecords := make([]models.SemanticRecord, 0, cap(newVectors))
	newByUser := make(map[string][]int)

	for pos, vec := range ix.vectors {
		if _, dead := ix.deleted[pos]; dead {
			continue
		}
		rec := ix.records[pos]
		newPos := len(newVectors)
		newVectors = append(newVectors, vec)
		newRecords = append(newRecords, rec)
		newByUser[rec.UserID] = append(newByUser[rec.UserID], newPos)
	}

	ix.vectors = newVectors
	ix.records = newRecords
	ix.byUser = newByUser
	ix.deleted = make(map[int]struct{})
}

func (ix *Index) statsLocked() models.SemanticStats {
	return models.SemanticStats{
		TotalVectors:   len(ix.vectors),
		ActiveVectors:  len(ix.vectors) - len(ix.deleted),
		DeletedVectors: len(ix.deleted),
		UniqueUsers:    len(ix.byUser),
		Dimension:      ix.dim,
	}
}

// l2Squared is the squared Euclidean distance, the flat-L2 index convention.
func l2Squared(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}
