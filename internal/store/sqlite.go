// Package store opens the shared SQLite database backing the durable tiers
// (preferences/behaviors and the episodic event log).
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite connection with initialization logic.
type DB struct {
	*sql.DB
}

// Open creates or opens the SQLite database at the given path, runs schema
// initialization, and configures WAL mode for concurrent reads.
func Open(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite handles one writer at a time

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &DB{db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS user_preferences (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id TEXT NOT NULL,
  category TEXT NOT NULL,
  key TEXT NOT NULL,
  value TEXT NOT NULL,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL,
  UNIQUE(user_id, category, key)
);

CREATE INDEX IF NOT EXISTS idx_preferences_user ON user_preferences(user_id);
CREATE INDEX IF NOT EXISTS idx_preferences_user_category ON user_preferences(user_id, category);

CREATE TABLE IF NOT EXISTS learned_behaviors (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id TEXT NOT NULL,
  behavior_type TEXT NOT NULL,
  pattern TEXT NOT NULL,
  metadata TEXT,
  confidence REAL NOT NULL DEFAULT 0.5,
  occurrence_count INTEGER NOT NULL DEFAULT 1,
  last_seen INTEGER NOT NULL,
  created_at INTEGER NOT NULL,
  UNIQUE(user_id, behavior_type, pattern)
);

CREATE INDEX IF NOT EXISTS idx_behaviors_user ON learned_behaviors(user_id);
CREATE INDEX IF NOT EXISTS idx_behaviors_user_type ON learned_behaviors(user_id, behavior_type);
CREATE INDEX IF NOT EXISTS idx_behaviors_confidence ON learned_behaviors(confidence);

CREATE TABLE IF NOT EXISTS episodic_events (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id TEXT NOT NULL,
  event_type TEXT NOT NULL,
  summary TEXT NOT NULL,
  details TEXT,
  occurred_at INTEGER NOT NULL,
  created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_events_user ON episodic_events(user_id);
CREATE INDEX IF NOT EXISTS idx_events_user_occurred ON episodic_events(user_id, occurred_at);
CREATE INDEX IF NOT EXISTS idx_events_occurred ON episodic_events(occurred_at);

CREATE TABLE IF NOT EXISTS episodic_summaries (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id TEXT NOT NULL,
  week_start INTEGER NOT NULL,
  summary TEXT NOT NULL,
  event_count INTEGER NOT NULL,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL,
  UNIQUE(user_id, week_start)
);

CREATE INDEX IF NOT EXISTS idx_summaries_user ON episodic_summaries(user_id);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}
