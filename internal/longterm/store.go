// Package longterm implements the durable preference/behavior tier on SQLite.
package longterm

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/voxagent/memoryd/internal/memerr"
	"github.com/voxagent/memoryd/internal/models"
	"github.com/voxagent/memoryd/internal/store"
)

const (
	tierPrefs     = models.TierPreferences
	tierBehaviors = models.TierBehaviors

	// confidenceStep is added per repeat observation; confidenceCeiling is the
	// soft cap — automatic updates never reach full certainty.
	confidenceStep    = 0.05
	confidenceCeiling = 0.95

	// DefaultInitialConfidence applies when a behavior is first recorded
	// without an explicit starting confidence.
	DefaultInitialConfidence = 0.5
)

// Store handles preference and behavior rows.
type Store struct {
	db *store.DB
}

// New creates a long-term store over an open database.
func New(db *store.DB) *Store {
	return &Store{db: db}
}

// StorePreference upserts a preference keyed on (user_id, category, key).
// Inserting refreshes created_at; updating refreshes only updated_at.
func (s *Store) StorePreference(ctx context.Context, userID, category, key string, value any) error {
	if userID == "" || category == "" || key == "" {
		return memerr.Validation(tierPrefs, "StorePreference", "userId, category and key are required")
	}

	valueJSON, err := json.Marshal(value)
	if err != nil {
		return memerr.Wrap(tierPrefs, "StorePreference", memerr.CodeValidation, err)
	}

	now := time.Now().Unix()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_preferences (user_id, category, key, value, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, category, key)
		DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, userID, category, key, string(valueJSON), now, now)
	if err != nil {
		return memerr.Unavailable(tierPrefs, "StorePreference", err)
	}
	return nil
}

// GetPreferences returns a user's preferences, optionally filtered by
// category, ordered by category then key.
func (s *Store) GetPreferences(ctx context.Context, userID, category string) ([]models.Preference, error) {
	query := `
		SELECT id, user_id, category, key, value, created_at, updated_at
		FROM user_preferences
		WHERE user_id = ?`
	args := []any{userID}
	if category != "" {
		query += ` AND category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY category, key`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, memerr.Unavailable(tierPrefs, "GetPreferences", err)
	}
	defer rows.Close()

	var prefs []models.Preference
	for rows.Next() {
		var p models.Preference
		var valueJSON string
		if err := rows.Scan(&p.ID, &p.UserID, &p.Category, &p.Key, &valueJSON, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, memerr.Unavailable(tierPrefs, "GetPreferences", err)
		}
		p.Value = decodeValue(valueJSON)
		prefs = append(prefs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, memerr.Unavailable(tierPrefs, "GetPreferences", err)
	}
	return prefs, nil
}

// GetPreference returns a single preference value, or ok=false when absent.
func (s *Store) GetPreference(ctx context.Context, userID, category, key string) (any, bool, error) {
	var valueJSON string
	err := s.db.QueryRowContext(ctx, `
		SELECT value FROM user_preferences
		WHERE user_id = ? AND category = ? AND key = ?
	`, userID, category, key).Scan(&valueJSON)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, memerr.Unavailable(tierPrefs, "GetPreference", err)
	}
	return decodeValue(valueJSON), true, nil
}

// DeletePreference removes one preference row; ok reports whether it existed.
func (s *Store) DeletePreference(ctx context.Context, userID, category, key string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM user_preferences
		WHERE user_id = ? AND category = ? AND key = ?
	`, userID, category, key)
	if err != nil {
		return false, memerr.Unavailable(tierPrefs, "DeletePreference", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// RecordBehavior inserts a new pattern or reinforces an existing one. The
// increment runs as a single upsert statement so concurrent calls for the
// same (user, type, pattern) cannot lose updates: the confidence expression
// min(confidence + step, ceiling) is evaluated inside SQLite.
func (s *Store) RecordBehavior(ctx context.Context, userID, behaviorType, pattern string, metadata map[string]any, initialConfidence float64) error {
	if userID == "" || behaviorType == "" || pattern == "" {
		return memerr.Validation(tierBehaviors, "RecordBehavior", "userId, behaviorType and pattern are required")
	}
	if initialConfidence < 0 || initialConfidence > 1 {
		return memerr.Validation(tierBehaviors, "RecordBehavior", "initial confidence must be in [0, 1]")
	}

	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return memerr.Wrap(tierBehaviors, "RecordBehavior", memerr.CodeValidation, err)
	}

	now := time.Now().Unix()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO learned_behaviors
			(user_id, behavior_type, pattern, metadata, confidence, occurrence_count, last_seen, created_at)
		VALUES (?, ?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT(user_id, behavior_type, pattern) DO UPDATE SET
			confidence = min(confidence + ?, ?),
			occurrence_count = occurrence_count + 1,
			last_seen = excluded.last_seen,
			metadata = excluded.metadata
	`, userID, behaviorType, pattern, string(metaJSON), initialConfidence, now, now,
		confidenceStep, confidenceCeiling)
	if err != nil {
		return memerr.Unavailable(tierBehaviors, "RecordBehavior", err)
	}
	return nil
}

// GetBehaviors returns behaviors at or above minConfidence, optionally
// filtered by type, most confident first.
func (s *Store) GetBehaviors(ctx context.Context, userID, behaviorType string, minConfidence float64) ([]models.Behavior, error) {
	query := `
		SELECT id, user_id, behavior_type, pattern, metadata, confidence, occurrence_count, last_seen, created_at
		FROM learned_behaviors
		WHERE user_id = ? AND confidence >= ?`
	args := []any{userID, minConfidence}
	if behaviorType != "" {
		query += ` AND behavior_type = ?`
		args = append(args, behaviorType)
	}
	query += ` ORDER BY confidence DESC, occurrence_count DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, memerr.Unavailable(tierBehaviors, "GetBehaviors", err)
	}
	defer rows.Close()

	var behaviors []models.Behavior
	for rows.Next() {
		var b models.Behavior
		var metaJSON sql.NullString
		if err := rows.Scan(&b.ID, &b.UserID, &b.BehaviorType, &b.Pattern, &metaJSON,
			&b.Confidence, &b.OccurrenceCount, &b.LastSeen, &b.CreatedAt); err != nil {
			return nil, memerr.Unavailable(tierBehaviors, "GetBehaviors", err)
		}
		if metaJSON.Valid && metaJSON.String != "" && metaJSON.String != "null" {
			var meta map[string]any
			if err := json.Unmarshal([]byte(metaJSON.String), &meta); err == nil {
				b.Metadata = meta
			}
		}
		behaviors = append(behaviors, b)
	}
	if err := rows.Err(); err != nil {
		return nil, memerr.Unavailable(tierBehaviors, "GetBehaviors", err)
	}
	return behaviors, nil
}

// DeleteBehavior removes one behavior row by id, scoped to the user.
func (s *Store) DeleteBehavior(ctx context.Context, userID string, behaviorID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM learned_behaviors WHERE user_id = ? AND id = ?
	`, userID, behaviorID)
	if err != nil {
		return false, memerr.Unavailable(tierBehaviors, "DeleteBehavior", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// ClearAllPreferences removes every preference for a user and returns the count.
func (s *Store) ClearAllPreferences(ctx context.Context, userID string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM user_preferences WHERE user_id = ?`, userID)
	if err != nil {
		return 0, memerr.Unavailable(tierPrefs, "ClearAllPreferences", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// ClearAllBehaviors removes every behavior for a user and returns the count.
func (s *Store) ClearAllBehaviors(ctx context.Context, userID string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM learned_behaviors WHERE user_id = ?`, userID)
	if err != nil {
		return 0, memerr.Unavailable(tierBehaviors, "ClearAllBehaviors", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// CountPreferences returns the number of preference rows for a user.
func (s *Store) CountPreferences(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_preferences WHERE user_id = ?`, userID).Scan(&n)
	if err != nil {
		return 0, memerr.Unavailable(tierPrefs, "CountPreferences", err)
	}
	return n, nil
}

// CountBehaviors returns the number of behavior rows for a user.
func (s *Store) CountBehaviors(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM learned_behaviors WHERE user_id = ?`, userID).Scan(&n)
	if err != nil {
		return 0, memerr.Unavailable(tierBehaviors, "CountBehaviors", err)
	}
	return n, nil
}

// decodeValue parses a stored JSON value, falling back to the raw string for
// rows written before JSON encoding was enforced.
func decodeValue(valueJSON string) any {
	var v any
	if err := json.Unmarshal([]byte(valueJSON), &v); err != nil {
		return valueJSON
	}
	return v
}
