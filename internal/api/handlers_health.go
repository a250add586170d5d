package api

import (
	"context"
	"net/http"
	"time"

	"github.com/voxagent/memoryd/internal/embedding"
	"github.com/voxagent/memoryd/internal/models"
	"github.com/voxagent/memoryd/internal/semantic"
	"github.com/voxagent/memoryd/internal/shortterm"
	"github.com/voxagent/memoryd/internal/store"
)

// HealthHandler reports the service's dependency health.
type HealthHandler struct {
	db       *store.DB
	sessions *shortterm.Store
	embedder embedding.Embedder
	index    *semantic.Index
}

func NewHealthHandler(db *store.DB, sessions *shortterm.Store, embedder embedding.Embedder, index *semantic.Index) *HealthHandler {
	return &HealthHandler{db: db, sessions: sessions, embedder: embedder, index: index}
}

// Health handles GET /health. The service reports degraded, not down, when a
// single dependency fails: the other tiers keep serving.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := models.HealthResponse{Status: "ok"}

	if err := h.db.PingContext(ctx); err != nil {
		resp.DB = models.ServiceCheck{Status: "down", Message: err.Error()}
		resp.Status = "degraded"
	} else {
		resp.DB = models.ServiceCheck{Status: "ok"}
	}

	if err := h.sessions.Ping(ctx); err != nil {
		resp.Redis = models.ServiceCheck{Status: "down", Message: err.Error()}
		resp.Status = "degraded"
	} else {
		resp.Redis = models.ServiceCheck{Status: "ok"}
	}

	if hc, ok := h.embedder.(interface{ HealthCheck(context.Context) error }); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			resp.Embedder = models.ServiceCheck{Status: "down", Message: err.Error()}
			resp.Status = "degraded"
		} else {
			resp.Embedder = models.ServiceCheck{Status: "ok"}
		}
	} else {
		resp.Embedder = models.ServiceCheck{Status: "ok"}
	}

	stats := h.index.Stats()
	resp.Index = models.ServiceCheck{Status: "ok"}
	if stats.Dimension == 0 {
		resp.Index = models.ServiceCheck{Status: "down", Message: "index not initialized"}
		resp.Status = "degraded"
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
