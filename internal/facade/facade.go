// Package facade coordinates operations that span every memory tier:
// whole-user export, whole-user deletion, and the user overview. Tier
// failures never abort the rest of the operation; each tier reports its own
// outcome and the aggregate marks itself partial.
package facade

import (
	"context"
	"log/slog"
	"time"

	"github.com/voxagent/memoryd/internal/episodic"
	"github.com/voxagent/memoryd/internal/longterm"
	"github.com/voxagent/memoryd/internal/memerr"
	"github.com/voxagent/memoryd/internal/models"
	"github.com/voxagent/memoryd/internal/semantic"
	"github.com/voxagent/memoryd/internal/shortterm"
)

const tier = "facade"

// Facade fans user-scoped operations out across the four tiers.
//
// The ephemeral tier is keyed by session, not user; the orchestrator names
// sessions after users, so facade operations address it with the user ID as
// the session ID.
type Facade struct {
	sessions *shortterm.Store
	longTerm *longterm.Store
	episodic *episodic.Store
	semantic *semantic.Index
	logger   *slog.Logger

	retentionDays int
}

// New wires the facade over the four tier stores.
func New(sessions *shortterm.Store, lt *longterm.Store, ep *episodic.Store, sem *semantic.Index, retentionDays int, logger *slog.Logger) *Facade {
	if logger == nil {
		logger = slog.Default()
	}
	if retentionDays <= 0 {
		retentionDays = 90
	}
	return &Facade{
		sessions:      sessions,
		longTerm:      lt,
		episodic:      ep,
		semantic:      sem,
		logger:        logger,
		retentionDays: retentionDays,
	}
}

// ExportUser collects everything stored about a user into one document. Every
// tier is attempted; a tier that fails is reported in Tiers with OK=false and
// the export returns a PARTIAL_FAILURE error alongside the partial data.
func (f *Facade) ExportUser(ctx context.Context, userID string, includeVectors bool) (*models.ExportUserData, error) {
	if userID == "" {
		return nil, memerr.Validation(tier, "ExportUser", "userId is required")
	}

	export := &models.ExportUserData{
		UserID:     userID,
		Tiers:      make(map[string]models.TierResult),
		ExportedAt: time.Now().Unix(),
	}

	prefs, err := f.longTerm.GetPreferences(ctx, userID, "")
	export.Preferences = prefs
	export.Tiers[models.TierPreferences] = tierResult(len(prefs), err)

	behaviors, err := f.longTerm.GetBehaviors(ctx, userID, "", 0)
	export.Behaviors = behaviors
	export.Tiers[models.TierBehaviors] = tierResult(len(behaviors), err)

	events, err := f.episodic.GetEvents(ctx, userID, episodic.EventFilter{
		Since: time.Now().Add(-time.Duration(f.retentionDays) * 24 * time.Hour),
	})
	export.RecentEvents = events
	export.Tiers[models.TierEvents] = tierResult(len(events), err)

	summaries, err := f.episodic.GetAllSummaries(ctx, userID)
	export.Summaries = summaries
	export.Tiers[models.TierSummaries] = tierResult(len(summaries), err)

	memories := f.semantic.GetUserMemories(userID, "", 0, includeVectors)
	export.SemanticMemories = memories
	export.Tiers[models.TierSemantic] = tierResult(len(memories), nil)

	sessionCtx, err := f.sessions.GetAll(ctx, userID)
	export.SessionContext = sessionCtx
	export.Tiers[models.TierShortTerm] = tierResult(len(sessionCtx), err)

	if failed := failedTiers(export.Tiers); len(failed) > 0 {
		f.logger.Warn("user export partially failed", "user_id", userID, "failed_tiers", failed)
		return export, memerr.New(tier, "ExportUser", memerr.CodePartialFailure,
			"some tiers failed to export")
	}

	f.logger.Info("user export complete", "user_id", userID,
		"preferences", len(prefs), "behaviors", len(behaviors),
		"events", len(events), "summaries", len(summaries),
		"semantic", len(memories))
	return export, nil
}

// DeleteUser removes a user's data from every tier. confirm must be true —
// the operation is irreversible. Each tier's outcome is recorded
// independently; Complete is set only when all six confirmed, so a caller
// seeing Complete=false knows exactly which tiers still hold data and can
// retry.
func (f *Facade) DeleteUser(ctx context.Context, userID string, confirm bool) (*models.DeleteUserResult, error) {
	if userID == "" {
		return nil, memerr.Validation(tier, "DeleteUser", "userId is required")
	}
	if !confirm {
		return nil, memerr.Validation(tier, "DeleteUser", "confirm must be true to delete user data")
	}

	result := &models.DeleteUserResult{
		UserID: userID,
		Tiers:  make(map[string]models.TierResult),
	}

	n, err := f.sessions.ClearSession(ctx, userID)
	result.Tiers[models.TierShortTerm] = tierResult(n, err)

	n, err = f.longTerm.ClearAllPreferences(ctx, userID)
	result.Tiers[models.TierPreferences] = tierResult(n, err)

	n, err = f.longTerm.ClearAllBehaviors(ctx, userID)
	result.Tiers[models.TierBehaviors] = tierResult(n, err)

	n, err = f.episodic.ClearAllEvents(ctx, userID)
	result.Tiers[models.TierEvents] = tierResult(n, err)

	n, err = f.episodic.ClearAllSummaries(ctx, userID)
	result.Tiers[models.TierSummaries] = tierResult(n, err)

	n = f.semantic.DeleteUserMemories(userID)
	result.Tiers[models.TierSemantic] = tierResult(n, nil)

	failed := failedTiers(result.Tiers)
	result.Complete = len(failed) == 0

	if !result.Complete {
		f.logger.Error("user deletion incomplete", "user_id", userID, "failed_tiers", failed)
		return result, memerr.New(tier, "DeleteUser", memerr.CodePartialFailure,
			"some tiers failed to delete")
	}

	f.logger.Info("user deleted from all tiers", "user_id", userID)
	return result, nil
}

// UserOverview reports per-tier counts without materializing a full export.
func (f *Facade) UserOverview(ctx context.Context, userID string) (*models.UserOverview, error) {
	if userID == "" {
		return nil, memerr.Validation(tier, "UserOverview", "userId is required")
	}

	prefCount, err := f.longTerm.CountPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}
	behaviorCount, err := f.longTerm.CountBehaviors(ctx, userID)
	if err != nil {
		return nil, err
	}
	eventStats, err := f.episodic.GetEventStats(ctx, userID)
	if err != nil {
		return nil, err
	}

	semStats := f.semantic.Stats()
	semStats.ActiveVectors = f.semantic.CountUserMemories(userID)

	return &models.UserOverview{
		UserID:           userID,
		PreferencesCount: prefCount,
		BehaviorsCount:   behaviorCount,
		EpisodicStats:    eventStats,
		SemanticStats:    semStats,
		GeneratedAt:      time.Now().Unix(),
	}, nil
}

func tierResult(count int, err error) models.TierResult {
	if err != nil {
		return models.TierResult{OK: false, Error: err.Error()}
	}
	return models.TierResult{Count: count, OK: true}
}

func failedTiers(tiers map[string]models.TierResult) []string {
	var failed []string
	for name, res := range tiers {
		if !res.OK {
			failed = append(failed, name)
		}
	}
	return failed
}
