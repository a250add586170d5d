package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/voxagent/memoryd/internal/episodic"
	"github.com/voxagent/memoryd/internal/models"
)

// EpisodicHandler handles the event log and weekly summary routes.
type EpisodicHandler struct {
	store *episodic.Store
}

func NewEpisodicHandler(store *episodic.Store) *EpisodicHandler {
	return &EpisodicHandler{store: store}
}

// StoreEvent handles POST /memory/episodic/event
func (h *EpisodicHandler) StoreEvent(w http.ResponseWriter, r *http.Request) {
	var req models.StoreEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	var occurredAt time.Time
	if req.OccurredAt > 0 {
		occurredAt = time.Unix(req.OccurredAt, 0)
	}

	id, err := h.store.StoreEvent(r.Context(), req.UserID, req.EventType, req.Summary, req.Details, occurredAt)
	if err != nil {
		writeMemErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "id": id})
}

// GetEvents handles POST /memory/episodic/events
func (h *EpisodicHandler) GetEvents(w http.ResponseWriter, r *http.Request) {
	var req models.GetEventsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	filter := episodic.EventFilter{EventType: req.EventType, Limit: req.Limit}
	if req.Since > 0 {
		filter.Since = time.Unix(req.Since, 0)
	}
	if req.Until > 0 {
		filter.Until = time.Unix(req.Until, 0)
	}

	events, err := h.store.GetEvents(r.Context(), req.UserID, filter)
	if err != nil {
		writeMemErr(w, err)
		return
	}
	if events == nil {
		events = []models.EpisodicEvent{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

// GetRecent handles GET /memory/episodic/recent/{userID}?days=N
func (h *EpisodicHandler) GetRecent(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	days := 7
	if v := r.URL.Query().Get("days"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = parsed
	}

	events, err := h.store.GetRecentEvents(r.Context(), userID, days)
	if err != nil {
		writeMemErr(w, err)
		return
	}
	if events == nil {
		events = []models.EpisodicEvent{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

// GenerateSummary handles POST /memory/episodic/summary
func (h *EpisodicHandler) GenerateSummary(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateSummaryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	var weekStart time.Time
	if req.WeekStart > 0 {
		weekStart = time.Unix(req.WeekStart, 0)
	}

	summary, err := h.store.GenerateWeeklySummary(r.Context(), req.UserID, weekStart)
	if err != nil {
		writeMemErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// GetSummary handles GET /memory/episodic/summary/{userID}?week_start=N
func (h *EpisodicHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var weekStart time.Time
	if v := r.URL.Query().Get("week_start"); v != "" {
		ts, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "week_start must be a unix timestamp")
			return
		}
		weekStart = time.Unix(ts, 0)
	}

	summary, err := h.store.GetSummary(r.Context(), userID, weekStart)
	if err != nil {
		writeMemErr(w, err)
		return
	}
	if summary == nil {
		writeError(w, http.StatusNotFound, "no summary for that week")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// GetSummaries handles GET /memory/episodic/summaries/{userID}
func (h *EpisodicHandler) GetSummaries(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	summaries, err := h.store.GetAllSummaries(r.Context(), userID)
	if err != nil {
		writeMemErr(w, err)
		return
	}
	if summaries == nil {
		summaries = []models.EpisodicSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"summaries": summaries})
}

// GetStats handles GET /memory/episodic/stats/{userID}
func (h *EpisodicHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	stats, err := h.store.GetEventStats(r.Context(), userID)
	if err != nil {
		writeMemErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
