package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all service settings. Values come from an optional YAML file
// (MEMORY_CONFIG_FILE) overridden by environment variables.
type Config struct {
	Port     int    `yaml:"port"`
	APIKey   string `yaml:"apiKey"`
	LogLevel string `yaml:"logLevel"`

	// SQLite (preference/behavior + episodic tiers)
	DBPath string `yaml:"dbPath"`

	// Redis (ephemeral tier)
	RedisURL            string `yaml:"redisUrl"`
	ShortTermTTLSeconds int    `yaml:"shortTermTtlSeconds"`

	// Episodic retention
	EpisodicRetentionDays int `yaml:"episodicRetentionDays"`
	MaxEventsPerQuery     int `yaml:"maxEventsPerQuery"`

	// Semantic tier
	EmbeddingBaseURL string  `yaml:"embeddingBaseUrl"`
	EmbeddingModel   string  `yaml:"embeddingModel"`
	EmbeddingDim     int     `yaml:"embeddingDim"`
	IndexDir         string  `yaml:"indexDir"`
	RebuildThreshold float64 `yaml:"rebuildThreshold"`

	// Background maintenance
	MaintenanceIntervalMinutes int `yaml:"maintenanceIntervalMinutes"`

	// MCP adapter
	MemoryServerURL string `yaml:"memoryServerUrl"`
}

// Load builds the config from the YAML file (if any) and the environment.
func Load() (*Config, error) {
	cfg := &Config{
		Port:                       8001,
		LogLevel:                   "info",
		DBPath:                     "/data/memory.db",
		RedisURL:                   "redis://localhost:6379",
		ShortTermTTLSeconds:        86400,
		EpisodicRetentionDays:      90,
		MaxEventsPerQuery:          100,
		EmbeddingBaseURL:           "http://localhost:11434",
		EmbeddingModel:             "all-minilm",
		EmbeddingDim:               384,
		IndexDir:                   "/data/index",
		RebuildThreshold:           0.3,
		MaintenanceIntervalMinutes: 60,
		MemoryServerURL:            "http://localhost:8001",
	}

	if path := os.Getenv("MEMORY_CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.Port = envInt("PORT", cfg.Port)
	cfg.APIKey = envStr("API_KEY", cfg.APIKey)
	cfg.LogLevel = envStr("LOG_LEVEL", cfg.LogLevel)
	cfg.DBPath = envStr("MEMORY_DB_PATH", cfg.DBPath)
	cfg.RedisURL = envStr("REDIS_URL", cfg.RedisURL)
	cfg.ShortTermTTLSeconds = envInt("SHORT_TERM_TTL", cfg.ShortTermTTLSeconds)
	cfg.EpisodicRetentionDays = envInt("EPISODIC_RETENTION_DAYS", cfg.EpisodicRetentionDays)
	cfg.MaxEventsPerQuery = envInt("MAX_EVENTS_PER_QUERY", cfg.MaxEventsPerQuery)
	cfg.EmbeddingBaseURL = envStr("EMBEDDING_BASE_URL", cfg.EmbeddingBaseURL)
	cfg.EmbeddingModel = envStr("EMBEDDING_MODEL", cfg.EmbeddingModel)
	cfg.EmbeddingDim = envInt("EMBEDDING_DIM", cfg.EmbeddingDim)
	cfg.IndexDir = envStr("INDEX_DIR", cfg.IndexDir)
	cfg.RebuildThreshold = envFloat("REBUILD_THRESHOLD", cfg.RebuildThreshold)
	cfg.MaintenanceIntervalMinutes = envInt("MAINTENANCE_INTERVAL_MINUTES", cfg.MaintenanceIntervalMinutes)
	cfg.MemoryServerURL = envStr("MEMORY_SERVER_URL", cfg.MemoryServerURL)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.DBPath == "" {
		return fmt.Errorf("MEMORY_DB_PATH must not be empty")
	}
	if c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL must not be empty")
	}
	if c.ShortTermTTLSeconds < 1 {
		return fmt.Errorf("SHORT_TERM_TTL must be positive, got %d", c.ShortTermTTLSeconds)
	}
	if c.EmbeddingDim < 1 {
		return fmt.Errorf("EMBEDDING_DIM must be positive, got %d", c.EmbeddingDim)
	}
	if c.RebuildThreshold <= 0 || c.RebuildThreshold > 1 {
		return fmt.Errorf("REBUILD_THRESHOLD must be in (0, 1], got %f", c.RebuildThreshold)
	}
	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
