package facade

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxagent/memoryd/internal/embedding"
	"github.com/voxagent/memoryd/internal/episodic"
	"github.com/voxagent/memoryd/internal/longterm"
	"github.com/voxagent/memoryd/internal/memerr"
	"github.com/voxagent/memoryd/internal/models"
	"github.com/voxagent/memoryd/internal/semantic"
	"github.com/voxagent/memoryd/internal/shortterm"
	"github.com/voxagent/memoryd/internal/store"
)

type fixture struct {
	facade   *Facade
	sessions *shortterm.Store
	longTerm *longterm.Store
	episodic *episodic.Store
	index    *semantic.Index
	redis    *miniredis.Miniredis
}

func setup(t *testing.T) *fixture {
	t.Helper()

	mr := miniredis.RunT(t)
	sessions, err := shortterm.New(shortterm.Options{
		URL:        "redis://" + mr.Addr(),
		DefaultTTL: time.Hour,
	})
	require.NoError(t, err)
	t.Cleanup(func() { sessions.Close() })

	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	lt := longterm.New(db)
	ep := episodic.New(db, 100, 90)
	index := semantic.New(embedding.NewMockEmbedder(16), semantic.Options{
		Dir:              t.TempDir(),
		RebuildThreshold: 0.3,
	})

	return &fixture{
		facade:   New(sessions, lt, ep, index, 90, nil),
		sessions: sessions,
		longTerm: lt,
		episodic: ep,
		index:    index,
		redis:    mr,
	}
}

func (f *fixture) seedUser(t *testing.T, userID string) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, f.sessions.Set(ctx, userID, "topic", "planning", 0))
	require.NoError(t, f.longTerm.StorePreference(ctx, userID, "communication", "style", "concise"))
	require.NoError(t, f.longTerm.RecordBehavior(ctx, userID, "scheduling", "mornings", nil, longterm.DefaultInitialConfidence))
	_, err := f.episodic.StoreEvent(ctx, userID, "conversation", "talked", nil, time.Now())
	require.NoError(t, err)
	_, err = f.episodic.GenerateWeeklySummary(ctx, userID, time.Time{})
	require.NoError(t, err)
	_, err = f.index.Add(ctx, userID, "likes trains", "preference", nil)
	require.NoError(t, err)
}

func TestExportUser(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.seedUser(t, "u1")
	f.seedUser(t, "u2")

	t.Run("collects every tier", func(t *testing.T) {
		export, err := f.facade.ExportUser(ctx, "u1", false)
		require.NoError(t, err)

		assert.Len(t, export.Preferences, 1)
		assert.Len(t, export.Behaviors, 1)
		assert.Len(t, export.RecentEvents, 1)
		assert.Len(t, export.Summaries, 1)
		assert.Len(t, export.SemanticMemories, 1)
		assert.Equal(t, "planning", export.SessionContext["topic"])

		assert.Len(t, export.Tiers, 6)
		for tierName, res := range export.Tiers {
			assert.True(t, res.OK, "tier %s should be ok", tierName)
		}

		// Never-reinforced behaviors (confidence 0.5) must still export.
		assert.Equal(t, 0.5, export.Behaviors[0].Confidence)
		// Vectors stay out unless asked for.
		assert.Nil(t, export.SemanticMemories[0].Embedding)
	})

	t.Run("includeVectors attaches embeddings", func(t *testing.T) {
		export, err := f.facade.ExportUser(ctx, "u1", true)
		require.NoError(t, err)
		assert.Len(t, export.SemanticMemories[0].Embedding, 16)
	})

	t.Run("export is scoped to one user", func(t *testing.T) {
		export, err := f.facade.ExportUser(ctx, "u1", false)
		require.NoError(t, err)
		for _, p := range export.Preferences {
			assert.Equal(t, "u1", p.UserID)
		}
		for _, m := range export.SemanticMemories {
			assert.Equal(t, "u1", m.UserID)
		}
	})

	t.Run("a failed tier yields partial data", func(t *testing.T) {
		f.redis.Close()

		export, err := f.facade.ExportUser(ctx, "u1", false)
		assert.True(t, memerr.Is(err, memerr.CodePartialFailure))
		require.NotNil(t, export)

		assert.False(t, export.Tiers[models.TierShortTerm].OK)
		assert.True(t, export.Tiers[models.TierPreferences].OK)
		assert.Len(t, export.Preferences, 1, "durable tiers still export")
	})
}

func TestDeleteUser(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.seedUser(t, "u1")
	f.seedUser(t, "u2")

	t.Run("requires confirmation", func(t *testing.T) {
		_, err := f.facade.DeleteUser(ctx, "u1", false)
		assert.True(t, memerr.Is(err, memerr.CodeValidation))

		// Nothing was touched.
		prefs, _ := f.longTerm.GetPreferences(ctx, "u1", "")
		assert.Len(t, prefs, 1)
	})

	t.Run("confirmed delete clears all six tiers", func(t *testing.T) {
		result, err := f.facade.DeleteUser(ctx, "u1", true)
		require.NoError(t, err)
		assert.True(t, result.Complete)
		assert.Len(t, result.Tiers, 6)

		for tierName, res := range result.Tiers {
			assert.True(t, res.OK, "tier %s", tierName)
			assert.Equal(t, 1, res.Count, "tier %s", tierName)
		}

		prefs, _ := f.longTerm.GetPreferences(ctx, "u1", "")
		assert.Empty(t, prefs)
		events, _ := f.episodic.GetEvents(ctx, "u1", episodic.EventFilter{})
		assert.Empty(t, events)
		assert.Zero(t, f.index.CountUserMemories("u1"))
		_, ok, _ := f.sessions.Get(ctx, "u1", "topic")
		assert.False(t, ok)
	})

	t.Run("other users keep their data", func(t *testing.T) {
		prefs, _ := f.longTerm.GetPreferences(ctx, "u2", "")
		assert.Len(t, prefs, 1)
		assert.Equal(t, 1, f.index.CountUserMemories("u2"))
	})

	t.Run("a failed tier leaves the saga incomplete", func(t *testing.T) {
		f.redis.Close()

		result, err := f.facade.DeleteUser(ctx, "u2", true)
		assert.True(t, memerr.Is(err, memerr.CodePartialFailure))
		require.NotNil(t, result)

		assert.False(t, result.Complete)
		assert.False(t, result.Tiers[models.TierShortTerm].OK)
		assert.True(t, result.Tiers[models.TierPreferences].OK, "durable tiers still delete")

		// A retry can finish what the durable tiers already did.
		prefs, _ := f.longTerm.GetPreferences(ctx, "u2", "")
		assert.Empty(t, prefs)
	})
}

func TestUserOverview(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.seedUser(t, "u1")

	overview, err := f.facade.UserOverview(ctx, "u1")
	require.NoError(t, err)

	assert.Equal(t, "u1", overview.UserID)
	assert.Equal(t, 1, overview.PreferencesCount)
	assert.Equal(t, 1, overview.BehaviorsCount)
	assert.Equal(t, 1, overview.EpisodicStats.TotalEvents)
	assert.Equal(t, 1, overview.SemanticStats.ActiveVectors)
	assert.NotZero(t, overview.GeneratedAt)
}
