package models

// Tier names used in facade outcome maps and logs.
const (
	TierShortTerm   = "short_term"
	TierPreferences = "preferences"
	TierBehaviors   = "behaviors"
	TierEvents      = "events"
	TierSummaries   = "summaries"
	TierSemantic    = "semantic"
)

// Preference is a durable per-user preference row, unique on
// (user_id, category, key). Writes are upserts.
type Preference struct {
	ID        int64  `json:"id"`
	UserID    string `json:"userId"`
	Category  string `json:"category"`
	Key       string `json:"key"`
	Value     any    `json:"value"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
}

// Behavior is a learned behavioral pattern with a bounded confidence score.
// Confidence only moves upward under automatic updates, capped at 0.95.
type Behavior struct {
	ID              int64          `json:"id"`
	UserID          string         `json:"userId"`
	BehaviorType    string         `json:"behaviorType"`
	Pattern         string         `json:"pattern"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	Confidence      float64        `json:"confidence"`
	OccurrenceCount int            `json:"occurrenceCount"`
	LastSeen        int64          `json:"lastSeen"`
	CreatedAt       int64          `json:"createdAt"`
}

// EpisodicEvent is an append-only event log row. Immutable once written
// except for retention deletion.
type EpisodicEvent struct {
	ID         int64          `json:"id"`
	UserID     string         `json:"userId"`
	EventType  string         `json:"eventType"`
	Summary    string         `json:"summary"`
	Details    map[string]any `json:"details,omitempty"`
	OccurredAt int64          `json:"occurredAt"`
	CreatedAt  int64          `json:"createdAt"`
}

// EpisodicSummary is the derived weekly rollup, unique on (user_id, week_start)
// and idempotently recomputable from the raw events of that week.
type EpisodicSummary struct {
	ID         int64  `json:"id"`
	UserID     string `json:"userId"`
	WeekStart  int64  `json:"weekStart"`
	Summary    string `json:"summary"`
	EventCount int    `json:"eventCount"`
	CreatedAt  int64  `json:"createdAt"`
	UpdatedAt  int64  `json:"updatedAt"`
}

// EventStats summarizes a user's episodic history.
type EventStats struct {
	TotalEvents  int            `json:"totalEvents"`
	CountsByType map[string]int `json:"countsByType"`
	FirstEvent   int64          `json:"firstEvent,omitempty"`
	LastEvent    int64          `json:"lastEvent,omitempty"`
	LastWeek     int            `json:"lastWeek"`
	LastMonth    int            `json:"lastMonth"`
}

// SemanticRecord is one embedded text entry in the vector index. Embedding is
// omitted from JSON unless an export explicitly requests vectors.
type SemanticRecord struct {
	ID         string         `json:"id"`
	UserID     string         `json:"userId"`
	Text       string         `json:"text"`
	MemoryType string         `json:"memoryType"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  int64          `json:"createdAt"`
	Embedding  []float32      `json:"embedding,omitempty"`
}

// SemanticMatch pairs a record with its L2 distance to the query vector.
// Smaller is closer; distances are not normalized to similarity scores.
type SemanticMatch struct {
	Record   SemanticRecord `json:"record"`
	Distance float64        `json:"distance"`
}

// SemanticStats describes the live index.
type SemanticStats struct {
	TotalVectors   int `json:"totalVectors"`
	ActiveVectors  int `json:"activeVectors"`
	DeletedVectors int `json:"deletedVectors"`
	UniqueUsers    int `json:"uniqueUsers"`
	Dimension      int `json:"dimension"`
}

// BatchAddResult reports the outcome for one input of a semantic batch add.
// Failed inputs carry Error; the rest of the batch still commits.
type BatchAddResult struct {
	Index int    `json:"index"`
	ID    string `json:"id,omitempty"`
	Error string `json:"error,omitempty"`
}

// TierResult is the per-tier outcome of a multi-tier facade operation.
type TierResult struct {
	Count int    `json:"count"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// ExportUserData is the aggregate document returned by the facade's ExportUser.
type ExportUserData struct {
	UserID           string                `json:"userId"`
	Preferences      []Preference          `json:"preferences"`
	Behaviors        []Behavior            `json:"behaviors"`
	RecentEvents     []EpisodicEvent       `json:"recentEvents"`
	Summaries        []EpisodicSummary     `json:"summaries"`
	SemanticMemories []SemanticRecord      `json:"semanticMemories"`
	SessionContext   map[string]any        `json:"sessionContext,omitempty"`
	Tiers            map[string]TierResult `json:"tiers"`
	ExportedAt       int64                 `json:"exportedAt"`
}

// DeleteUserResult is the saga outcome of the facade's DeleteUser. Complete is
// true only when every tier confirmed its deletion.
type DeleteUserResult struct {
	UserID   string                `json:"userId"`
	Complete bool                  `json:"complete"`
	Tiers    map[string]TierResult `json:"tiers"`
}

// UserOverview is a lightweight per-user summary without a full export.
type UserOverview struct {
	UserID           string        `json:"userId"`
	PreferencesCount int           `json:"preferencesCount"`
	BehaviorsCount   int           `json:"behaviorsCount"`
	EpisodicStats    EventStats    `json:"episodicStats"`
	SemanticStats    SemanticStats `json:"semanticStats"`
	GeneratedAt      int64         `json:"generatedAt"`
}
