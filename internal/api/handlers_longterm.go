package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/voxagent/memoryd/internal/longterm"
	"github.com/voxagent/memoryd/internal/models"
)

// LongTermHandler handles the preference and behavior routes.
type LongTermHandler struct {
	store *longterm.Store
}

func NewLongTermHandler(store *longterm.Store) *LongTermHandler {
	return &LongTermHandler{store: store}
}

// StorePreference handles POST /memory/long-term/preference
func (h *LongTermHandler) StorePreference(w http.ResponseWriter, r *http.Request) {
	var req models.StorePreferenceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := h.store.StorePreference(r.Context(), req.UserID, req.Category, req.Key, req.Value); err != nil {
		writeMemErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.SuccessResponse{Success: true})
}

// GetPreferences handles POST /memory/long-term/preferences
func (h *LongTermHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	var req models.GetPreferencesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	prefs, err := h.store.GetPreferences(r.Context(), req.UserID, req.Category)
	if err != nil {
		writeMemErr(w, err)
		return
	}
	if prefs == nil {
		prefs = []models.Preference{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"preferences": prefs})
}

// DeletePreference handles DELETE /memory/long-term/preference
func (h *LongTermHandler) DeletePreference(w http.ResponseWriter, r *http.Request) {
	var req models.DeletePreferenceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	ok, err := h.store.DeletePreference(r.Context(), req.UserID, req.Category, req.Key)
	if err != nil {
		writeMemErr(w, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "preference not found")
		return
	}
	writeJSON(w, http.StatusOK, models.SuccessResponse{Success: true})
}

// RecordBehavior handles POST /memory/long-term/behavior
func (h *LongTermHandler) RecordBehavior(w http.ResponseWriter, r *http.Request) {
	var req models.RecordBehaviorRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	confidence := longterm.DefaultInitialConfidence
	if req.Confidence != nil {
		confidence = *req.Confidence
	}

	if err := h.store.RecordBehavior(r.Context(), req.UserID, req.BehaviorType, req.Pattern, req.Metadata, confidence); err != nil {
		writeMemErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.SuccessResponse{Success: true})
}

// GetBehaviors handles POST /memory/long-term/behaviors
func (h *LongTermHandler) GetBehaviors(w http.ResponseWriter, r *http.Request) {
	var req models.GetBehaviorsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	// Default hides never-reinforced patterns; pass 0 explicitly to see all.
	minConfidence := longterm.DefaultInitialConfidence
	if req.MinConfidence != nil {
		minConfidence = *req.MinConfidence
	}

	behaviors, err := h.store.GetBehaviors(r.Context(), req.UserID, req.BehaviorType, minConfidence)
	if err != nil {
		writeMemErr(w, err)
		return
	}
	if behaviors == nil {
		behaviors = []models.Behavior{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"behaviors": behaviors})
}

// DeleteBehavior handles DELETE /memory/long-term/behavior/{id}
func (h *LongTermHandler) DeleteBehavior(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid behavior id")
		return
	}
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id query parameter is required")
		return
	}

	ok, err := h.store.DeleteBehavior(r.Context(), userID, id)
	if err != nil {
		writeMemErr(w, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "behavior not found")
		return
	}
	writeJSON(w, http.StatusOK, models.SuccessResponse{Success: true})
}
