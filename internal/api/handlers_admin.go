package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/voxagent/memoryd/internal/episodic"
	"github.com/voxagent/memoryd/internal/facade"
	"github.com/voxagent/memoryd/internal/memerr"
	"github.com/voxagent/memoryd/internal/models"
	"github.com/voxagent/memoryd/internal/semantic"
	"github.com/voxagent/memoryd/internal/shortterm"
)

// AdminHandler handles cross-tier and maintenance routes.
type AdminHandler struct {
	facade   *facade.Facade
	sessions *shortterm.Store
	episodic *episodic.Store
	index    *semantic.Index
	logger   *slog.Logger
}

func NewAdminHandler(fac *facade.Facade, sessions *shortterm.Store, ep *episodic.Store, index *semantic.Index, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{facade: fac, sessions: sessions, episodic: ep, index: index, logger: logger}
}

// ExportUser handles POST /admin/export. A partial export still returns its
// data, with 207 and per-tier outcomes telling the caller what is missing.
func (h *AdminHandler) ExportUser(w http.ResponseWriter, r *http.Request) {
	var req models.ExportUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	export, err := h.facade.ExportUser(r.Context(), req.UserID, req.IncludeVectors)
	if err != nil {
		if memerr.Is(err, memerr.CodePartialFailure) {
			writeJSON(w, http.StatusMultiStatus, export)
			return
		}
		writeMemErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, export)
}

// DeleteUser handles POST /admin/delete.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	var req models.DeleteUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := h.facade.DeleteUser(r.Context(), req.UserID, req.Confirm)
	if err != nil {
		if memerr.Is(err, memerr.CodePartialFailure) {
			writeJSON(w, http.StatusMultiStatus, result)
			return
		}
		writeMemErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// UserOverview handles GET /admin/summary/{userID}
func (h *AdminHandler) UserOverview(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	overview, err := h.facade.UserOverview(r.Context(), userID)
	if err != nil {
		writeMemErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

// CleanupEpisodic handles POST /admin/cleanup/episodic/{userID}?retention_days=N
func (h *AdminHandler) CleanupEpisodic(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	retentionDays := 0
	if v := r.URL.Query().Get("retention_days"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "retention_days must be a positive integer")
			return
		}
		retentionDays = parsed
	}

	deleted, err := h.episodic.DeleteOldEvents(r.Context(), userID, retentionDays)
	if err != nil {
		writeMemErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "deleted": deleted})
}

// ActiveSessions handles GET /admin/active-sessions
func (h *AdminHandler) ActiveSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.sessions.ListActiveSessions(r.Context())
	if err != nil {
		writeMemErr(w, err)
		return
	}
	if sessions == nil {
		sessions = []string{}
	}
	writeJSON(w, http.StatusOK, models.ActiveSessionsResponse{
		ActiveSessions: sessions,
		Count:          len(sessions),
	})
}

// RebuildIndex handles POST /admin/semantic/rebuild
func (h *AdminHandler) RebuildIndex(w http.ResponseWriter, r *http.Request) {
	stats := h.index.RebuildIndex()
	h.logger.Info("semantic index rebuilt", "active_vectors", stats.ActiveVectors)
	writeJSON(w, http.StatusOK, stats)
}

// SaveIndex handles POST /admin/semantic/save
func (h *AdminHandler) SaveIndex(w http.ResponseWriter, r *http.Request) {
	if err := h.index.Save(); err != nil {
		h.logger.Error("semantic index save failed", "error", err)
		writeError(w, http.StatusInternalServerError, "save index: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, models.SuccessResponse{Success: true})
}
