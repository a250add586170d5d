package models

// Short-term tier payloads.

// StoreContextRequest is the payload for POST /memory/short-term/store.
type StoreContextRequest struct {
	SessionID  string `json:"sessionId"`
	Key        string `json:"key"`
	Value      any    `json:"value"`
	TTLSeconds int    `json:"ttlSeconds,omitempty"`
}

// RetrieveContextRequest is the payload for POST /memory/short-term/retrieve.
// An empty Key retrieves the whole session context.
type RetrieveContextRequest struct {
	SessionID string `json:"sessionId"`
	Key       string `json:"key,omitempty"`
}

// ContextResponse is returned from short-term retrieval.
type ContextResponse struct {
	SessionID string         `json:"sessionId"`
	Context   map[string]any `json:"context"`
}

// ExtendTTLRequest is the payload for POST /memory/short-term/extend.
type ExtendTTLRequest struct {
	SessionID         string `json:"sessionId"`
	Key               string `json:"key"`
	AdditionalSeconds int    `json:"additionalSeconds"`
}

// Long-term tier payloads.

// StorePreferenceRequest is the payload for POST /memory/long-term/preference.
type StorePreferenceRequest struct {
	UserID   string `json:"userId"`
	Category string `json:"category"`
	Key      string `json:"key"`
	Value    any    `json:"value"`
}

// GetPreferencesRequest is the payload for POST /memory/long-term/preferences.
type GetPreferencesRequest struct {
	UserID   string `json:"userId"`
	Category string `json:"category,omitempty"`
}

// DeletePreferenceRequest is the payload for DELETE /memory/long-term/preference.
type DeletePreferenceRequest struct {
	UserID   string `json:"userId"`
	Category string `json:"category"`
	Key      string `json:"key"`
}

// RecordBehaviorRequest is the payload for POST /memory/long-term/behavior.
// Confidence applies only when the pattern is first seen; nil means 0.5.
type RecordBehaviorRequest struct {
	UserID       string         `json:"userId"`
	BehaviorType string         `json:"behaviorType"`
	Pattern      string         `json:"pattern"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	Confidence   *float64       `json:"confidence,omitempty"`
}

// GetBehaviorsRequest is the payload for POST /memory/long-term/behaviors.
type GetBehaviorsRequest struct {
	UserID        string   `json:"userId"`
	BehaviorType  string   `json:"behaviorType,omitempty"`
	MinConfidence *float64 `json:"minConfidence,omitempty"`
}

// Episodic tier payloads.

// StoreEventRequest is the payload for POST /memory/episodic/event.
// OccurredAt of zero means "now".
type StoreEventRequest struct {
	UserID     string         `json:"userId"`
	EventType  string         `json:"eventType"`
	Summary    string         `json:"summary"`
	Details    map[string]any `json:"details,omitempty"`
	OccurredAt int64          `json:"occurredAt,omitempty"`
}

// GetEventsRequest is the payload for POST /memory/episodic/events.
type GetEventsRequest struct {
	UserID    string `json:"userId"`
	EventType string `json:"eventType,omitempty"`
	Since     int64  `json:"since,omitempty"`
	Until     int64  `json:"until,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

// GenerateSummaryRequest is the payload for POST /memory/episodic/summary.
// WeekStart of zero means the most recent Monday.
type GenerateSummaryRequest struct {
	UserID    string `json:"userId"`
	WeekStart int64  `json:"weekStart,omitempty"`
}

// Semantic tier payloads.

// AddSemanticRequest is the payload for POST /memory/semantic/add.
type AddSemanticRequest struct {
	UserID     string         `json:"userId"`
	Text       string         `json:"text"`
	MemoryType string         `json:"memoryType"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// SemanticInput is one entry of a batch add.
type SemanticInput struct {
	Text       string         `json:"text"`
	MemoryType string         `json:"memoryType"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// BatchAddSemanticRequest is the payload for POST /memory/semantic/batch.
type BatchAddSemanticRequest struct {
	UserID string          `json:"userId"`
	Items  []SemanticInput `json:"items"`
}

// SearchSemanticRequest is the payload for POST /memory/semantic/search.
// UserID is required: a search never reads across user boundaries.
type SearchSemanticRequest struct {
	UserID      string   `json:"userId"`
	Query       string   `json:"query"`
	TopK        int      `json:"topK,omitempty"`
	MemoryType  string   `json:"memoryType,omitempty"`
	MaxDistance *float64 `json:"maxDistance,omitempty"`
}

// SearchSemanticResponse is returned from POST /memory/semantic/search.
type SearchSemanticResponse struct {
	Results []SemanticMatch `json:"results"`
}

// Admin payloads.

// ExportUserRequest is the payload for POST /admin/export.
type ExportUserRequest struct {
	UserID         string `json:"userId"`
	IncludeVectors bool   `json:"includeVectors,omitempty"`
}

// DeleteUserRequest is the payload for POST /admin/delete. Confirm must be
// true; deletion across tiers is not reversible.
type DeleteUserRequest struct {
	UserID  string `json:"userId"`
	Confirm bool   `json:"confirm"`
}

// SuccessResponse is a generic acknowledgement.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ActiveSessionsResponse is returned from GET /admin/active-sessions.
type ActiveSessionsResponse struct {
	ActiveSessions []string `json:"activeSessions"`
	Count          int      `json:"count"`
}

// HealthResponse is returned from GET /health.
type HealthResponse struct {
	Status   string       `json:"status"`
	Redis    ServiceCheck `json:"redis"`
	DB       ServiceCheck `json:"db"`
	Embedder ServiceCheck `json:"embedder"`
	Index    ServiceCheck `json:"index"`
}

// ServiceCheck is one dependency's health.
type ServiceCheck struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}
