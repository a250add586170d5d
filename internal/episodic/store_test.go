package episodic

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/voxagent/memoryd/internal/store"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db, 100, 90)
}

func TestStoreAndGetEvents(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	now := time.Now()

	t.Run("events come back newest first", func(t *testing.T) {
		for i, summary := range []string{"first", "second", "third"} {
			_, err := s.StoreEvent(ctx, "u1", "conversation", summary, nil,
				now.Add(time.Duration(i)*time.Hour))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}

		events, err := s.GetEvents(ctx, "u1", EventFilter{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(events) != 3 {
			t.Fatalf("expected 3 events, got %d", len(events))
		}
		if events[0].Summary != "third" || events[2].Summary != "first" {
			t.Fatalf("wrong order: %s ... %s", events[0].Summary, events[2].Summary)
		}
	})

	t.Run("type and time filters apply", func(t *testing.T) {
		_, _ = s.StoreEvent(ctx, "u1", "task", "ran a task", nil, now)

		events, err := s.GetEvents(ctx, "u1", EventFilter{EventType: "task"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(events) != 1 || events[0].EventType != "task" {
			t.Fatalf("type filter failed: %+v", events)
		}

		events, _ = s.GetEvents(ctx, "u1", EventFilter{Since: now.Add(90 * time.Minute)})
		if len(events) != 1 || events[0].Summary != "third" {
			t.Fatalf("since filter failed: %+v", events)
		}
	})

	t.Run("limit is capped by the store maximum", func(t *testing.T) {
		events, err := s.GetEvents(ctx, "u1", EventFilter{Limit: 100000})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(events) > 100 {
			t.Fatalf("limit cap breached: %d", len(events))
		}
	})

	t.Run("private spans are stripped from summaries", func(t *testing.T) {
		_, err := s.StoreEvent(ctx, "u3", "conversation",
			"discussed plans <private>with a password</private>", nil, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		events, _ := s.GetEvents(ctx, "u3", EventFilter{})
		if events[0].Summary != "discussed plans" {
			t.Fatalf("expected stripped summary, got %q", events[0].Summary)
		}
	})

	t.Run("details round-trip", func(t *testing.T) {
		_, err := s.StoreEvent(ctx, "u2", "task", "with details",
			map[string]any{"duration": 12.5}, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		events, _ := s.GetEvents(ctx, "u2", EventFilter{})
		if events[0].Details["duration"] != 12.5 {
			t.Fatalf("details lost: %+v", events[0].Details)
		}
	})
}

func TestGenerateWeeklySummary(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	weekStart := NormalizeWeekStart(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)) // a Monday

	t.Run("joins the week's events oldest first", func(t *testing.T) {
		_, _ = s.StoreEvent(ctx, "u1", "conversation", "talked about travel", nil, weekStart.Add(48*time.Hour))
		_, _ = s.StoreEvent(ctx, "u1", "conversation", "booked a flight", nil, weekStart.Add(72*time.Hour))
		_, _ = s.StoreEvent(ctx, "u1", "conversation", "set up the trip", nil, weekStart.Add(2*time.Hour))
		// Outside the week; must not appear.
		_, _ = s.StoreEvent(ctx, "u1", "conversation", "next week", nil, weekStart.Add(8*24*time.Hour))

		sum, err := s.GenerateWeeklySummary(ctx, "u1", weekStart)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sum.EventCount != 3 {
			t.Fatalf("expected 3 events in summary, got %d", sum.EventCount)
		}
		want := "set up the trip\ntalked about travel\nbooked a flight"
		if sum.Summary != want {
			t.Fatalf("expected %q, got %q", want, sum.Summary)
		}
	})

	t.Run("regeneration is idempotent", func(t *testing.T) {
		first, _ := s.GetSummary(ctx, "u1", weekStart)
		again, err := s.GenerateWeeklySummary(ctx, "u1", weekStart)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if again.Summary != first.Summary || again.EventCount != first.EventCount {
			t.Fatalf("regeneration changed the summary: %+v vs %+v", again, first)
		}
		if again.ID != first.ID {
			t.Fatalf("regeneration created a new row: id %d vs %d", again.ID, first.ID)
		}
	})

	t.Run("empty week writes the sentinel", func(t *testing.T) {
		emptyWeek := weekStart.Add(-4 * 7 * 24 * time.Hour)
		sum, err := s.GenerateWeeklySummary(ctx, "u1", emptyWeek)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sum.Summary != "No events" {
			t.Fatalf("expected sentinel summary, got %q", sum.Summary)
		}
		if sum.EventCount != 0 {
			t.Fatalf("expected 0 events, got %d", sum.EventCount)
		}
	})

	t.Run("summaries list newest week first", func(t *testing.T) {
		summaries, err := s.GetAllSummaries(ctx, "u1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(summaries) != 2 {
			t.Fatalf("expected 2 summaries, got %d", len(summaries))
		}
		if summaries[0].WeekStart < summaries[1].WeekStart {
			t.Fatal("summaries not ordered newest first")
		}
	})
}

func TestRetention(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	now := time.Now()

	_, _ = s.StoreEvent(ctx, "u1", "conversation", "ancient", nil, now.Add(-100*24*time.Hour))
	_, _ = s.StoreEvent(ctx, "u1", "conversation", "old", nil, now.Add(-91*24*time.Hour))
	_, _ = s.StoreEvent(ctx, "u1", "conversation", "fresh", nil, now.Add(-time.Hour))
	_, _ = s.StoreEvent(ctx, "u2", "conversation", "other user old", nil, now.Add(-95*24*time.Hour))

	t.Run("user-scoped sweep uses the default window", func(t *testing.T) {
		deleted, err := s.DeleteOldEvents(ctx, "u1", 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if deleted != 2 {
			t.Fatalf("expected 2 events purged, got %d", deleted)
		}

		events, _ := s.GetEvents(ctx, "u1", EventFilter{})
		if len(events) != 1 || events[0].Summary != "fresh" {
			t.Fatalf("expected only the fresh event to survive: %+v", events)
		}
		// u2 untouched by the scoped sweep.
		events, _ = s.GetEvents(ctx, "u2", EventFilter{})
		if len(events) != 1 {
			t.Fatalf("u2's events must survive a u1-scoped sweep, got %d", len(events))
		}
	})

	t.Run("empty user sweeps everyone", func(t *testing.T) {
		deleted, err := s.DeleteOldEvents(ctx, "", 90)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if deleted != 1 {
			t.Fatalf("expected u2's old event purged, got %d", deleted)
		}
	})

	t.Run("summaries survive event purges", func(t *testing.T) {
		weekStart := NormalizeWeekStart(now.Add(-100 * 24 * time.Hour))
		_, _ = s.StoreEvent(ctx, "u3", "conversation", "historic", nil, weekStart.Add(time.Hour))
		if _, err := s.GenerateWeeklySummary(ctx, "u3", weekStart); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, err := s.DeleteOldEvents(ctx, "u3", 90); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		sum, err := s.GetSummary(ctx, "u3", weekStart)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sum == nil || !strings.Contains(sum.Summary, "historic") {
			t.Fatalf("summary should outlive its events: %+v", sum)
		}
	})
}

func TestGetEventStats(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	now := time.Now()

	_, _ = s.StoreEvent(ctx, "u1", "conversation", "a", nil, now.Add(-2*time.Hour))
	_, _ = s.StoreEvent(ctx, "u1", "conversation", "b", nil, now.Add(-10*24*time.Hour))
	_, _ = s.StoreEvent(ctx, "u1", "task", "c", nil, now.Add(-40*24*time.Hour))

	stats, err := s.GetEventStats(ctx, "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalEvents != 3 {
		t.Fatalf("expected 3 total, got %d", stats.TotalEvents)
	}
	if stats.CountsByType["conversation"] != 2 || stats.CountsByType["task"] != 1 {
		t.Fatalf("wrong type counts: %+v", stats.CountsByType)
	}
	if stats.LastWeek != 1 {
		t.Fatalf("expected 1 event in the last week, got %d", stats.LastWeek)
	}
	if stats.LastMonth != 2 {
		t.Fatalf("expected 2 events in the last month, got %d", stats.LastMonth)
	}
	if stats.FirstEvent == 0 || stats.LastEvent == 0 || stats.FirstEvent > stats.LastEvent {
		t.Fatalf("bad first/last timestamps: %d, %d", stats.FirstEvent, stats.LastEvent)
	}
}
