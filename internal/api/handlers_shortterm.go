package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/voxagent/memoryd/internal/models"
	"github.com/voxagent/memoryd/internal/shortterm"
)

// ShortTermHandler handles the ephemeral session context routes.
type ShortTermHandler struct {
	sessions *shortterm.Store
}

func NewShortTermHandler(sessions *shortterm.Store) *ShortTermHandler {
	return &ShortTermHandler{sessions: sessions}
}

// Store handles POST /memory/short-term/store
func (h *ShortTermHandler) Store(w http.ResponseWriter, r *http.Request) {
	var req models.StoreContextRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.TTLSeconds < 0 {
		writeError(w, http.StatusBadRequest, "ttlSeconds must not be negative")
		return
	}

	ttl := time.Duration(req.TTLSeconds) * time.Second
	if err := h.sessions.Set(r.Context(), req.SessionID, req.Key, req.Value, ttl); err != nil {
		writeMemErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.SuccessResponse{Success: true})
}

// Retrieve handles POST /memory/short-term/retrieve. An empty key returns the
// whole session context; a named key returns a single-entry context.
func (h *ShortTermHandler) Retrieve(w http.ResponseWriter, r *http.Request) {
	var req models.RetrieveContextRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "sessionId is required")
		return
	}

	resp := models.ContextResponse{SessionID: req.SessionID, Context: map[string]any{}}

	if req.Key == "" {
		all, err := h.sessions.GetAll(r.Context(), req.SessionID)
		if err != nil {
			writeMemErr(w, err)
			return
		}
		resp.Context = all
		writeJSON(w, http.StatusOK, resp)
		return
	}

	value, ok, err := h.sessions.Get(r.Context(), req.SessionID, req.Key)
	if err != nil {
		writeMemErr(w, err)
		return
	}
	if ok {
		resp.Context[req.Key] = value
	}
	writeJSON(w, http.StatusOK, resp)
}

// ExtendTTL handles POST /memory/short-term/extend
func (h *ShortTermHandler) ExtendTTL(w http.ResponseWriter, r *http.Request) {
	var req models.ExtendTTLRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	ok, err := h.sessions.ExtendTTL(r.Context(), req.SessionID, req.Key,
		time.Duration(req.AdditionalSeconds)*time.Second)
	if err != nil {
		writeMemErr(w, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "entry not found or expired")
		return
	}
	writeJSON(w, http.StatusOK, models.SuccessResponse{Success: true})
}

// Delete handles DELETE /memory/short-term/session/{sessionID}/{key}
func (h *ShortTermHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	key := chi.URLParam(r, "key")

	if err := h.sessions.Delete(r.Context(), sessionID, key); err != nil {
		writeMemErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.SuccessResponse{Success: true})
}

// ClearSession handles DELETE /memory/short-term/session/{sessionID}
func (h *ShortTermHandler) ClearSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	deleted, err := h.sessions.ClearSession(r.Context(), sessionID)
	if err != nil {
		writeMemErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "deleted": deleted})
}
