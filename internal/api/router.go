package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/voxagent/memoryd/internal/embedding"
	"github.com/voxagent/memoryd/internal/episodic"
	"github.com/voxagent/memoryd/internal/facade"
	"github.com/voxagent/memoryd/internal/longterm"
	"github.com/voxagent/memoryd/internal/semantic"
	"github.com/voxagent/memoryd/internal/shortterm"
	"github.com/voxagent/memoryd/internal/store"
)

// NewRouter creates the Chi router with all routes and middleware.
func NewRouter(
	db *store.DB,
	sessions *shortterm.Store,
	longTerm *longterm.Store,
	episodicStore *episodic.Store,
	index *semantic.Index,
	embedder embedding.Embedder,
	fac *facade.Facade,
	apiKey string,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (runs on ALL routes including /health)
	r.Use(CORS)
	r.Use(RequestID)
	r.Use(Logger(logger))
	r.Use(Recovery(logger))

	// Handlers
	healthH := NewHealthHandler(db, sessions, embedder, index)
	shortTermH := NewShortTermHandler(sessions)
	longTermH := NewLongTermHandler(longTerm)
	episodicH := NewEpisodicHandler(episodicStore)
	semanticH := NewSemanticHandler(index)
	adminH := NewAdminHandler(fac, sessions, episodicStore, index, logger)

	// Unauthenticated routes
	r.Get("/health", healthH.Health)

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(apiKey))

		r.Route("/api/v1/memory", func(r chi.Router) {
			r.Route("/short-term", func(r chi.Router) {
				r.Post("/store", shortTermH.Store)
				r.Post("/retrieve", shortTermH.Retrieve)
				r.Post("/extend", shortTermH.ExtendTTL)
				r.Delete("/session/{sessionID}", shortTermH.ClearSession)
				r.Delete("/session/{sessionID}/{key}", shortTermH.Delete)
			})

			r.Route("/long-term", func(r chi.Router) {
				r.Post("/preference", longTermH.StorePreference)
				r.Post("/preferences", longTermH.GetPreferences)
				r.Delete("/preference", longTermH.DeletePreference)
				r.Post("/behavior", longTermH.RecordBehavior)
				r.Post("/behaviors", longTermH.GetBehaviors)
				r.Delete("/behavior/{id}", longTermH.DeleteBehavior)
			})

			r.Route("/episodic", func(r chi.Router) {
				r.Post("/event", episodicH.StoreEvent)
				r.Post("/events", episodicH.GetEvents)
				r.Get("/recent/{userID}", episodicH.GetRecent)
				r.Post("/summary", episodicH.GenerateSummary)
				r.Get("/summary/{userID}", episodicH.GetSummary)
				r.Get("/summaries/{userID}", episodicH.GetSummaries)
				r.Get("/stats/{userID}", episodicH.GetStats)
			})

			r.Route("/semantic", func(r chi.Router) {
				r.Post("/add", semanticH.Add)
				r.Post("/batch", semanticH.BatchAdd)
				r.Post("/search", semanticH.Search)
				r.Get("/user/{userID}", semanticH.GetUserMemories)
				r.Delete("/user/{userID}", semanticH.DeleteUserMemories)
				r.Get("/stats", semanticH.Stats)
			})
		})

		r.Route("/api/v1/admin", func(r chi.Router) {
			r.Post("/export", adminH.ExportUser)
			r.Post("/delete", adminH.DeleteUser)
			r.Get("/summary/{userID}", adminH.UserOverview)
			r.Post("/cleanup/episodic/{userID}", adminH.CleanupEpisodic)
			r.Get("/active-sessions", adminH.ActiveSessions)
			r.Post("/semantic/rebuild", adminH.RebuildIndex)
			r.Post("/semantic/save", adminH.SaveIndex)
		})
	})

	return r
}
