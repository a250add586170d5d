package semantic

import (
	"context"
	"testing"

	"github.com/voxagent/memoryd/internal/embedding"
	"github.com/voxagent/memoryd/internal/memerr"
	"github.com/voxagent/memoryd/internal/models"
)

const testDim = 32

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	return New(embedding.NewMockEmbedder(testDim), Options{
		Dir:              t.TempDir(),
		RebuildThreshold: 0.3,
	})
}

func mustAdd(t *testing.T, ix *Index, userID, text, memoryType string) *models.SemanticRecord {
	t.Helper()
	rec, err := ix.Add(context.Background(), userID, text, memoryType, nil)
	if err != nil {
		t.Fatalf("add %q: %v", text, err)
	}
	return rec
}

func TestAddAndSearch(t *testing.T) {
	ix := newTestIndex(t)
	ctx := context.Background()

	mustAdd(t, ix, "u1", "enjoys hiking in the mountains", "preference")
	mustAdd(t, ix, "u1", "works as a software engineer", "knowledge")
	mustAdd(t, ix, "u2", "allergic to peanuts", "knowledge")

	t.Run("identical text is the closest match", func(t *testing.T) {
		matches, err := ix.Search(ctx, "enjoys hiking in the mountains", "", "", 3, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(matches) == 0 {
			t.Fatal("expected matches")
		}
		if matches[0].Record.Text != "enjoys hiking in the mountains" {
			t.Fatalf("expected exact text first, got %q", matches[0].Record.Text)
		}
		if matches[0].Distance != 0 {
			t.Fatalf("identical text should be at distance 0, got %f", matches[0].Distance)
		}
	})

	t.Run("results are sorted by ascending distance", func(t *testing.T) {
		matches, _ := ix.Search(ctx, "software engineering work", "", "", 10, nil)
		for i := 1; i < len(matches); i++ {
			if matches[i].Distance < matches[i-1].Distance {
				t.Fatalf("results out of order at %d: %f < %f", i, matches[i].Distance, matches[i-1].Distance)
			}
		}
	})

	t.Run("user filter scopes results", func(t *testing.T) {
		matches, _ := ix.Search(ctx, "allergic to peanuts", "u1", "", 10, nil)
		for _, m := range matches {
			if m.Record.UserID != "u1" {
				t.Fatalf("leaked record from %s", m.Record.UserID)
			}
		}
	})

	t.Run("memory type filter applies", func(t *testing.T) {
		matches, _ := ix.Search(ctx, "anything at all", "u1", "preference", 10, nil)
		if len(matches) != 1 || matches[0].Record.MemoryType != "preference" {
			t.Fatalf("type filter failed: %+v", matches)
		}
	})

	t.Run("max distance excludes far results", func(t *testing.T) {
		maxDist := 0.0001
		matches, _ := ix.Search(ctx, "enjoys hiking in the mountains", "", "", 10, &maxDist)
		if len(matches) != 1 {
			t.Fatalf("expected only the exact match within %f, got %d", maxDist, len(matches))
		}
	})

	t.Run("private-only text is rejected", func(t *testing.T) {
		_, err := ix.Add(ctx, "u1", "<private>entirely secret</private>", "knowledge", nil)
		if !memerr.Is(err, memerr.CodeValidation) {
			t.Fatalf("expected VALIDATION_ERROR, got %v", err)
		}

		rec, err := ix.Add(ctx, "u1", "visible part <private>hidden part</private>", "knowledge", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Text != "visible part" {
			t.Fatalf("private span must be stripped, got %q", rec.Text)
		}
	})

	t.Run("empty query is rejected", func(t *testing.T) {
		_, err := ix.Search(ctx, "", "", "", 10, nil)
		if !memerr.Is(err, memerr.CodeValidation) {
			t.Fatalf("expected VALIDATION_ERROR, got %v", err)
		}
	})
}

func TestBatchAdd(t *testing.T) {
	ix := newTestIndex(t)
	ctx := context.Background()

	results, err := ix.BatchAdd(ctx, "u1", []models.SemanticInput{
		{Text: "likes coffee", MemoryType: "preference"},
		{Text: ""}, // invalid
		{Text: "dislikes meetings before nine", MemoryType: "preference"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].ID == "" || results[0].Error != "" {
		t.Fatalf("first item should succeed: %+v", results[0])
	}
	if results[1].Error == "" {
		t.Fatal("empty text should fail")
	}
	if results[2].ID == "" {
		t.Fatalf("batch must continue past a failed item: %+v", results[2])
	}

	if got := ix.CountUserMemories("u1"); got != 2 {
		t.Fatalf("expected 2 stored records, got %d", got)
	}
}

func TestDeleteAndRebuild(t *testing.T) {
	ix := newTestIndex(t)
	ctx := context.Background()

	for _, text := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		mustAdd(t, ix, "keeper", "keeper fact "+text, "knowledge")
	}
	mustAdd(t, ix, "victim", "victim fact one", "knowledge")
	mustAdd(t, ix, "victim", "victim fact two", "knowledge")

	t.Run("delete tombstones and unknown user is zero", func(t *testing.T) {
		if n := ix.DeleteUserMemories("nobody"); n != 0 {
			t.Fatalf("expected 0 for unknown user, got %d", n)
		}

		n := ix.DeleteUserMemories("victim")
		if n != 2 {
			t.Fatalf("expected 2 deleted, got %d", n)
		}
	})

	t.Run("deleted records never surface in search", func(t *testing.T) {
		matches, err := ix.Search(ctx, "victim fact one", "", "", 20, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, m := range matches {
			if m.Record.UserID == "victim" {
				t.Fatalf("tombstoned record surfaced: %+v", m.Record)
			}
		}
	})

	t.Run("crossing the threshold compacts automatically", func(t *testing.T) {
		// 2 of 9 tombstoned (22%) did not trigger; deleting 1 of the
		// remaining puts tombstones over 30%.
		stats := ix.Stats()
		if stats.DeletedVectors == 0 {
			t.Skip("auto-rebuild already ran")
		}

		mustAdd(t, ix, "extra", "extra fact", "knowledge")
		ix.DeleteUserMemories("extra")
		ix.DeleteUserMemories("keeper") // 8 of 10 dead, well past 30%

		stats = ix.Stats()
		if stats.DeletedVectors != 0 {
			t.Fatalf("expected compaction to clear tombstones, got %d", stats.DeletedVectors)
		}
	})

	t.Run("explicit rebuild keeps live records searchable", func(t *testing.T) {
		ix2 := newTestIndex(t)
		mustAdd(t, ix2, "u1", "stays around", "knowledge")
		mustAdd(t, ix2, "u2", "gets deleted", "knowledge")
		ix2.DeleteUserMemories("u2")

		stats := ix2.RebuildIndex()
		if stats.TotalVectors != 1 || stats.DeletedVectors != 0 {
			t.Fatalf("unexpected stats after rebuild: %+v", stats)
		}

		matches, err := ix2.Search(ctx, "stays around", "", "", 5, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(matches) != 1 || matches[0].Record.Text != "stays around" {
			t.Fatalf("live record lost in rebuild: %+v", matches)
		}
		if matches[0].Distance != 0 {
			t.Fatalf("rebuild must keep stored vectors intact, distance %f", matches[0].Distance)
		}
	})
}

func TestGetUserMemories(t *testing.T) {
	ix := newTestIndex(t)

	mustAdd(t, ix, "u1", "first", "preference")
	mustAdd(t, ix, "u1", "second", "knowledge")
	mustAdd(t, ix, "u1", "third", "knowledge")

	memories := ix.GetUserMemories("u1", "", 0, false)
	if len(memories) != 3 {
		t.Fatalf("expected 3, got %d", len(memories))
	}
	if memories[0].Text != "first" {
		t.Fatalf("expected insertion order, got %q first", memories[0].Text)
	}
	if memories[0].Embedding != nil {
		t.Fatal("embeddings must not be attached unless requested")
	}

	memories = ix.GetUserMemories("u1", "knowledge", 1, true)
	if len(memories) != 1 || memories[0].Text != "second" {
		t.Fatalf("type filter with limit failed: %+v", memories)
	}
	if len(memories[0].Embedding) != testDim {
		t.Fatalf("expected %d-dim embedding attached, got %d", testDim, len(memories[0].Embedding))
	}
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	embedder := embedding.NewMockEmbedder(testDim)

	ix := New(embedder, Options{Dir: dir, RebuildThreshold: 0.3})
	mustAdd(t, ix, "u1", "persisted fact", "knowledge")
	mustAdd(t, ix, "u2", "doomed fact", "knowledge")
	ix.DeleteUserMemories("u2")

	if err := ix.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	t.Run("round trip restores vectors, records, and tombstones", func(t *testing.T) {
		restored := New(embedder, Options{Dir: dir, RebuildThreshold: 0.3})
		loaded, err := restored.Load()
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if !loaded {
			t.Fatal("expected the saved index to load")
		}

		stats := restored.Stats()
		if stats.TotalVectors != 2 || stats.ActiveVectors != 1 || stats.DeletedVectors != 1 {
			t.Fatalf("unexpected stats after load: %+v", stats)
		}

		matches, err := restored.Search(context.Background(), "persisted fact", "", "", 5, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(matches) != 1 || matches[0].Distance != 0 {
			t.Fatalf("restored vectors do not match saved ones: %+v", matches)
		}
	})

	t.Run("missing files load as empty", func(t *testing.T) {
		fresh := New(embedder, Options{Dir: t.TempDir(), RebuildThreshold: 0.3})
		loaded, err := fresh.Load()
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if loaded {
			t.Fatal("nothing to load from an empty directory")
		}
	})

	t.Run("dimension mismatch is rejected", func(t *testing.T) {
		wrong := New(embedding.NewMockEmbedder(testDim*2), Options{Dir: dir, RebuildThreshold: 0.3})
		if _, err := wrong.Load(); err == nil {
			t.Fatal("expected a dimension mismatch error")
		}
	})
}

func TestMockEmbedderIsDeterministic(t *testing.T) {
	e := embedding.NewMockEmbedder(testDim)
	ctx := context.Background()

	a, err := e.Embed(ctx, "same text")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	b, _ := e.Embed(ctx, "same text")
	c, _ := e.Embed(ctx, "different text")

	if len(a) != testDim {
		t.Fatalf("expected %d dims, got %d", testDim, len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("identical input must produce identical vectors")
		}
	}
	if l2Squared(a, c) == 0 {
		t.Fatal("different inputs should not collide")
	}
}
