// Package episodic implements the retained event log with derived weekly
// summaries. Events are append-only; summaries are the long-term record and
// survive the retention sweep that purges the raw events behind them.
package episodic

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/voxagent/memoryd/internal/memerr"
	"github.com/voxagent/memoryd/internal/models"
	"github.com/voxagent/memoryd/internal/privacy"
	"github.com/voxagent/memoryd/internal/store"
)

const (
	tierEvents    = models.TierEvents
	tierSummaries = models.TierSummaries

	// emptyWeekSummary is written when a week has no events, so a generated
	// summary row exists either way and regeneration stays idempotent.
	emptyWeekSummary = "No events"

	week = 7 * 24 * time.Hour
)

// Store handles episodic events and weekly summaries.
type Store struct {
	db            *store.DB
	maxQueryLimit int
	retentionDays int
}

// New creates an episodic store. maxQueryLimit caps GetEvents result sizes;
// retentionDays is the default window for DeleteOldEvents.
func New(db *store.DB, maxQueryLimit, retentionDays int) *Store {
	if maxQueryLimit <= 0 {
		maxQueryLimit = 100
	}
	if retentionDays <= 0 {
		retentionDays = 90
	}
	return &Store{db: db, maxQueryLimit: maxQueryLimit, retentionDays: retentionDays}
}

// StoreEvent appends one event. A zero occurredAt means now. Returns the new
// event's id.
func (s *Store) StoreEvent(ctx context.Context, userID, eventType, summary string, details map[string]any, occurredAt time.Time) (int64, error) {
	if userID == "" || eventType == "" {
		return 0, memerr.Validation(tierEvents, "StoreEvent", "userId and eventType are required")
	}
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}
	summary = privacy.StripPrivateTags(summary)

	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return 0, memerr.Wrap(tierEvents, "StoreEvent", memerr.CodeValidation, err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO episodic_events (user_id, event_type, summary, details, occurred_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, userID, eventType, summary, string(detailsJSON), occurredAt.Unix(), time.Now().Unix())
	if err != nil {
		return 0, memerr.Unavailable(tierEvents, "StoreEvent", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, memerr.Unavailable(tierEvents, "StoreEvent", err)
	}
	return id, nil
}

// EventFilter narrows a GetEvents query. Zero fields are ignored.
type EventFilter struct {
	EventType string
	Since     time.Time
	Until     time.Time
	Limit     int
}

// GetEvents returns a user's events newest first. The limit is capped by the
// store's configured maximum.
func (s *Store) GetEvents(ctx context.Context, userID string, f EventFilter) ([]models.EpisodicEvent, error) {
	query := `
		SELECT id, user_id, event_type, summary, details, occurred_at, created_at
		FROM episodic_events
		WHERE user_id = ?`
	args := []any{userID}

	if f.EventType != "" {
		query += ` AND event_type = ?`
		args = append(args, f.EventType)
	}
	if !f.Since.IsZero() {
		query += ` AND occurred_at >= ?`
		args = append(args, f.Since.Unix())
	}
	if !f.Until.IsZero() {
		query += ` AND occurred_at <= ?`
		args = append(args, f.Until.Unix())
	}

	limit := f.Limit
	if limit <= 0 || limit > s.maxQueryLimit {
		limit = s.maxQueryLimit
	}
	query += ` ORDER BY occurred_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, memerr.Unavailable(tierEvents, "GetEvents", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// GetRecentEvents returns events from the last N days.
func (s *Store) GetRecentEvents(ctx context.Context, userID string, days int) ([]models.EpisodicEvent, error) {
	if days <= 0 {
		days = 7
	}
	return s.GetEvents(ctx, userID, EventFilter{
		Since: time.Now().Add(-time.Duration(days) * 24 * time.Hour),
	})
}

// GenerateWeeklySummary recomputes the summary row for the week starting at
// weekStart. It reads a consistent snapshot of the week's events inside one
// transaction, joins their summaries oldest first, and upserts the result —
// calling it twice with unchanged events produces an identical row.
func (s *Store) GenerateWeeklySummary(ctx context.Context, userID string, weekStart time.Time) (*models.EpisodicSummary, error) {
	if userID == "" {
		return nil, memerr.Validation(tierSummaries, "GenerateWeeklySummary", "userId is required")
	}
	weekStart = NormalizeWeekStart(weekStart)
	weekEnd := weekStart.Add(week)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, memerr.Unavailable(tierSummaries, "GenerateWeeklySummary", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		SELECT summary FROM episodic_events
		WHERE user_id = ? AND occurred_at >= ? AND occurred_at < ?
		ORDER BY occurred_at ASC
	`, userID, weekStart.Unix(), weekEnd.Unix())
	if err != nil {
		return nil, memerr.Unavailable(tierSummaries, "GenerateWeeklySummary", err)
	}

	var parts []string
	for rows.Next() {
		var summary string
		if err := rows.Scan(&summary); err != nil {
			rows.Close()
			return nil, memerr.Unavailable(tierSummaries, "GenerateWeeklySummary", err)
		}
		parts = append(parts, summary)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, memerr.Unavailable(tierSummaries, "GenerateWeeklySummary", err)
	}

	text := emptyWeekSummary
	if len(parts) > 0 {
		text = strings.Join(parts, "\n")
	}

	now := time.Now().Unix()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO episodic_summaries (user_id, week_start, summary, event_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, week_start)
		DO UPDATE SET summary = excluded.summary, event_count = excluded.event_count, updated_at = excluded.updated_at
	`, userID, weekStart.Unix(), text, len(parts), now, now); err != nil {
		return nil, memerr.Unavailable(tierSummaries, "GenerateWeeklySummary", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, memerr.Unavailable(tierSummaries, "GenerateWeeklySummary", err)
	}

	return s.GetSummary(ctx, userID, weekStart)
}

// GetSummary returns the summary for one week, or nil when none was generated.
func (s *Store) GetSummary(ctx context.Context, userID string, weekStart time.Time) (*models.EpisodicSummary, error) {
	weekStart = NormalizeWeekStart(weekStart)

	var sum models.EpisodicSummary
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, week_start, summary, event_count, created_at, updated_at
		FROM episodic_summaries
		WHERE user_id = ? AND week_start = ?
	`, userID, weekStart.Unix()).Scan(&sum.ID, &sum.UserID, &sum.WeekStart, &sum.Summary,
		&sum.EventCount, &sum.CreatedAt, &sum.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, memerr.Unavailable(tierSummaries, "GetSummary", err)
	}
	return &sum, nil
}

// GetAllSummaries returns every summary for a user, newest week first.
func (s *Store) GetAllSummaries(ctx context.Context, userID string) ([]models.EpisodicSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, week_start, summary, event_count, created_at, updated_at
		FROM episodic_summaries
		WHERE user_id = ?
		ORDER BY week_start DESC
	`, userID)
	if err != nil {
		return nil, memerr.Unavailable(tierSummaries, "GetAllSummaries", err)
	}
	defer rows.Close()

	var summaries []models.EpisodicSummary
	for rows.Next() {
		var sum models.EpisodicSummary
		if err := rows.Scan(&sum.ID, &sum.UserID, &sum.WeekStart, &sum.Summary,
			&sum.EventCount, &sum.CreatedAt, &sum.UpdatedAt); err != nil {
			return nil, memerr.Unavailable(tierSummaries, "GetAllSummaries", err)
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, memerr.Unavailable(tierSummaries, "GetAllSummaries", err)
	}
	return summaries, nil
}

// DeleteOldEvents purges events older than the retention window. An empty
// userID sweeps all users (the maintenance path). Summaries are untouched.
func (s *Store) DeleteOldEvents(ctx context.Context, userID string, retentionDays int) (int, error) {
	if retentionDays <= 0 {
		retentionDays = s.retentionDays
	}
	cutoff := time.Now().Add(-time.Duration(retentionDays) * 24 * time.Hour).Unix()

	query := `DELETE FROM episodic_events WHERE occurred_at < ?`
	args := []any{cutoff}
	if userID != "" {
		query += ` AND user_id = ?`
		args = append(args, userID)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, memerr.Unavailable(tierEvents, "DeleteOldEvents", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// ClearAllEvents removes every event for a user and returns the count.
func (s *Store) ClearAllEvents(ctx context.Context, userID string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM episodic_events WHERE user_id = ?`, userID)
	if err != nil {
		return 0, memerr.Unavailable(tierEvents, "ClearAllEvents", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// ClearAllSummaries removes every summary for a user and returns the count.
func (s *Store) ClearAllSummaries(ctx context.Context, userID string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM episodic_summaries WHERE user_id = ?`, userID)
	if err != nil {
		return 0, memerr.Unavailable(tierSummaries, "ClearAllSummaries", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// GetEventStats summarizes a user's event history: total, counts per type,
// first/last timestamps, and activity in the trailing week and month.
func (s *Store) GetEventStats(ctx context.Context, userID string) (models.EventStats, error) {
	stats := models.EventStats{CountsByType: map[string]int{}}

	var first, last sql.NullInt64
	now := time.Now()
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), MIN(occurred_at), MAX(occurred_at),
			COUNT(CASE WHEN occurred_at >= ? THEN 1 END),
			COUNT(CASE WHEN occurred_at >= ? THEN 1 END)
		FROM episodic_events WHERE user_id = ?
	`, now.Add(-week).Unix(), now.Add(-30*24*time.Hour).Unix(), userID).
		Scan(&stats.TotalEvents, &first, &last, &stats.LastWeek, &stats.LastMonth)
	if err != nil {
		return stats, memerr.Unavailable(tierEvents, "GetEventStats", err)
	}
	if first.Valid {
		stats.FirstEvent = first.Int64
	}
	if last.Valid {
		stats.LastEvent = last.Int64
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT event_type, COUNT(*) FROM episodic_events
		WHERE user_id = ? GROUP BY event_type
	`, userID)
	if err != nil {
		return stats, memerr.Unavailable(tierEvents, "GetEventStats", err)
	}
	defer rows.Close()

	for rows.Next() {
		var eventType string
		var count int
		if err := rows.Scan(&eventType, &count); err != nil {
			return stats, memerr.Unavailable(tierEvents, "GetEventStats", err)
		}
		stats.CountsByType[eventType] = count
	}
	return stats, rows.Err()
}

// NormalizeWeekStart truncates t to UTC midnight. A zero t maps to the most
// recent Monday.
func NormalizeWeekStart(t time.Time) time.Time {
	if t.IsZero() {
		t = time.Now().UTC()
		daysSinceMonday := (int(t.Weekday()) + 6) % 7
		t = t.AddDate(0, 0, -daysSinceMonday)
	}
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func scanEvents(rows *sql.Rows) ([]models.EpisodicEvent, error) {
	var events []models.EpisodicEvent
	for rows.Next() {
		var e models.EpisodicEvent
		var detailsJSON sql.NullString
		if err := rows.Scan(&e.ID, &e.UserID, &e.EventType, &e.Summary, &detailsJSON, &e.OccurredAt, &e.CreatedAt); err != nil {
			return nil, memerr.Unavailable(tierEvents, "GetEvents", err)
		}
		if detailsJSON.Valid && detailsJSON.String != "" && detailsJSON.String != "null" {
			var details map[string]any
			if err := json.Unmarshal([]byte(detailsJSON.String), &details); err == nil {
				e.Details = details
			}
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, memerr.Unavailable(tierEvents, "GetEvents", err)
	}
	return events, nil
}
