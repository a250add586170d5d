package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/voxagent/memoryd/internal/api"
	"github.com/voxagent/memoryd/internal/config"
	"github.com/voxagent/memoryd/internal/embedding"
	"github.com/voxagent/memoryd/internal/episodic"
	"github.com/voxagent/memoryd/internal/facade"
	"github.com/voxagent/memoryd/internal/longterm"
	"github.com/voxagent/memoryd/internal/semantic"
	"github.com/voxagent/memoryd/internal/shortterm"
	"github.com/voxagent/memoryd/internal/store"
)

func main() {
	// Logger
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// SQLite (preferences/behaviors + episodic)
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Redis (ephemeral session tier)
	sessions, err := shortterm.New(shortterm.Options{
		URL:        cfg.RedisURL,
		DefaultTTL: time.Duration(cfg.ShortTermTTLSeconds) * time.Second,
	})
	if err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer sessions.Close()

	// Durable tiers
	longTerm := longterm.New(db)
	episodicStore := episodic.New(db, cfg.MaxEventsPerQuery, cfg.EpisodicRetentionDays)

	// Semantic tier
	ollama := embedding.NewOllamaClient(cfg.EmbeddingBaseURL, cfg.EmbeddingModel, cfg.EmbeddingDim)
	embedder := embedding.NewCachedEmbedder(ollama, 0)
	index := semantic.New(embedder, semantic.Options{
		Dir:              cfg.IndexDir,
		RebuildThreshold: cfg.RebuildThreshold,
	})
	loaded, err := index.Load()
	if err != nil {
		logger.Error("failed to load semantic index", "error", err)
		os.Exit(1)
	}
	if loaded {
		stats := index.Stats()
		logger.Info("semantic index loaded", "vectors", stats.TotalVectors, "deleted", stats.DeletedVectors)
	} else {
		logger.Info("starting with empty semantic index", "dimension", cfg.EmbeddingDim)
	}

	// Facade
	fac := facade.New(sessions, longTerm, episodicStore, index, cfg.EpisodicRetentionDays, logger)

	// Router
	router := api.NewRouter(db, sessions, longTerm, episodicStore, index, ollama, fac, cfg.APIKey, logger)

	// Server
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("memory server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Background maintenance: retention sweep + index snapshot
	maintCtx, maintCancel := context.WithCancel(context.Background())
	defer maintCancel()
	go runMaintenance(maintCtx, episodicStore, index, cfg, logger)

	<-done
	logger.Info("shutting down...")
	maintCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	// Final index snapshot so in-memory vectors survive the restart.
	if err := index.Save(); err != nil {
		logger.Error("failed to save semantic index on shutdown", "error", err)
	}

	logger.Info("server stopped")
}

// runMaintenance periodically purges expired episodic events and snapshots
// the semantic index to disk.
func runMaintenance(ctx context.Context, ep *episodic.Store, index *semantic.Index, cfg *config.Config, logger *slog.Logger) {
	interval := time.Duration(cfg.MaintenanceIntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweepCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
			deleted, err := ep.DeleteOldEvents(sweepCtx, "", cfg.EpisodicRetentionDays)
			cancel()
			if err != nil {
				logger.Error("retention sweep failed", "error", err)
			} else if deleted > 0 {
				logger.Info("retention sweep complete", "deleted", deleted)
			}

			if err := index.Save(); err != nil {
				logger.Error("periodic index save failed", "error", err)
			}
		}
	}
}
