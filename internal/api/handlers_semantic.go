package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/voxagent/memoryd/internal/models"
	"github.com/voxagent/memoryd/internal/semantic"
)

// SemanticHandler handles the vector tier routes.
type SemanticHandler struct {
	index *semantic.Index
}

func NewSemanticHandler(index *semantic.Index) *SemanticHandler {
	return &SemanticHandler{index: index}
}

// Add handles POST /memory/semantic/add
func (h *SemanticHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req models.AddSemanticRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	rec, err := h.index.Add(r.Context(), req.UserID, req.Text, req.MemoryType, req.Metadata)
	if err != nil {
		writeMemErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// BatchAdd handles POST /memory/semantic/batch
func (h *SemanticHandler) BatchAdd(w http.ResponseWriter, r *http.Request) {
	var req models.BatchAddSemanticRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "items must not be empty")
		return
	}

	results, err := h.index.BatchAdd(r.Context(), req.UserID, req.Items)
	if err != nil {
		writeMemErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// Search handles POST /memory/semantic/search. Searches are always scoped to
// one user; an unscoped query would read across user boundaries.
func (h *SemanticHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req models.SearchSemanticRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	matches, err := h.index.Search(r.Context(), req.Query, req.UserID, req.MemoryType, req.TopK, req.MaxDistance)
	if err != nil {
		writeMemErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.SearchSemanticResponse{Results: matches})
}

// GetUserMemories handles GET /memory/semantic/user/{userID}?memory_type=X&limit=N
func (h *SemanticHandler) GetUserMemories(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	memoryType := r.URL.Query().Get("memory_type")

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	memories := h.index.GetUserMemories(userID, memoryType, limit, false)
	if memories == nil {
		memories = []models.SemanticRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"memories": memories})
}

// DeleteUserMemories handles DELETE /memory/semantic/user/{userID}
func (h *SemanticHandler) DeleteUserMemories(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	deleted := h.index.DeleteUserMemories(userID)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "deleted": deleted})
}

// Stats handles GET /memory/semantic/stats
func (h *SemanticHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.index.Stats())
}
