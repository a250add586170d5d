// Package shortterm implements the ephemeral session tier on Redis.
//
// Entries are keyed session:<session_id>:<key> with a native Redis TTL, so
// expiry needs no sweeper. Values are JSON-encoded; the store does not
// interpret them. Transport failures surface as STORE_UNAVAILABLE — retries
// are an orchestration concern, not handled here.
package shortterm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/voxagent/memoryd/internal/memerr"
)

const tier = "short_term"

// Store is the Redis-backed ephemeral session store.
type Store struct {
	client     *redis.Client
	defaultTTL time.Duration
}

// Options configures the Redis connection.
type Options struct {
	// URL is the Redis connection string (e.g., "redis://localhost:6379").
	URL string

	// DefaultTTL applies when Set is called with a zero TTL.
	DefaultTTL time.Duration

	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

// New connects to Redis and verifies the connection with a ping.
func New(opts Options) (*Store, error) {
	if opts.URL == "" {
		opts.URL = "redis://localhost:6379"
	}
	if opts.DefaultTTL == 0 {
		opts.DefaultTTL = 24 * time.Hour
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 5 * time.Second
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 5 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 5 * time.Second
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	redisOpts.DialTimeout = opts.ConnectTimeout
	redisOpts.ReadTimeout = opts.ReadTimeout
	redisOpts.WriteTimeout = opts.WriteTimeout

	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &Store{client: client, defaultTTL: opts.DefaultTTL}, nil
}

func sessionKey(sessionID, key string) string {
	return fmt.Sprintf("session:%s:%s", sessionID, key)
}

func sessionPattern(sessionID string) string {
	return fmt.Sprintf("session:%s:*", sessionID)
}

// Set stores a value under (session, key) with the given TTL, overwriting any
// previous value and resetting expiry to now+ttl. A zero ttl uses the default;
// a negative ttl is a validation error.
func (s *Store) Set(ctx context.Context, sessionID, key string, value any, ttl time.Duration) error {
	if sessionID == "" || key == "" {
		return memerr.Validation(tier, "Set", "sessionId and key are required")
	}
	if ttl < 0 {
		return memerr.Validation(tier, "Set", "ttl must not be negative")
	}
	if ttl == 0 {
		ttl = s.defaultTTL
	}

	data, err := json.Marshal(value)
	if err != nil {
		return memerr.Wrap(tier, "Set", memerr.CodeValidation, err)
	}

	if err := s.client.Set(ctx, sessionKey(sessionID, key), data, ttl).Err(); err != nil {
		return memerr.Unavailable(tier, "Set", err)
	}
	return nil
}

// Get retrieves a value. Absent or expired entries return (nil, false, nil) —
// absence is not an error.
func (s *Store) Get(ctx context.Context, sessionID, key string) (any, bool, error) {
	data, err := s.client.Get(ctx, sessionKey(sessionID, key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, memerr.Unavailable(tier, "Get", err)
	}

	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		// Legacy unencoded value: hand back the raw string.
		return string(data), true, nil
	}
	return value, true, nil
}

// GetAll returns every live entry of a session as a key→value map.
func (s *Store) GetAll(ctx context.Context, sessionID string) (map[string]any, error) {
	keys, err := s.scanKeys(ctx, sessionPattern(sessionID))
	if err != nil {
		return nil, memerr.Unavailable(tier, "GetAll", err)
	}

	result := make(map[string]any, len(keys))
	for _, redisKey := range keys {
		data, err := s.client.Get(ctx, redisKey).Bytes()
		if err == redis.Nil {
			continue // expired between scan and get
		}
		if err != nil {
			return nil, memerr.Unavailable(tier, "GetAll", err)
		}

		// session:<id>:<key> — the context key may itself contain colons.
		parts := strings.SplitN(redisKey, ":", 3)
		if len(parts) != 3 {
			continue
		}

		var value any
		if err := json.Unmarshal(data, &value); err != nil {
			value = string(data)
		}
		result[parts[2]] = value
	}
	return result, nil
}

// Delete removes a single entry. Deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, sessionID, key string) error {
	if err := s.client.Del(ctx, sessionKey(sessionID, key)).Err(); err != nil {
		return memerr.Unavailable(tier, "Delete", err)
	}
	return nil
}

// ClearSession removes every entry of a session and returns the count removed.
func (s *Store) ClearSession(ctx context.Context, sessionID string) (int, error) {
	keys, err := s.scanKeys(ctx, sessionPattern(sessionID))
	if err != nil {
		return 0, memerr.Unavailable(tier, "ClearSession", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	deleted, err := s.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, memerr.Unavailable(tier, "ClearSession", err)
	}
	return int(deleted), nil
}

// GetTTL returns the remaining TTL for an entry, or ok=false if it is absent.
func (s *Store) GetTTL(ctx context.Context, sessionID, key string) (time.Duration, bool, error) {
	ttl, err := s.client.TTL(ctx, sessionKey(sessionID, key)).Result()
	if err != nil {
		return 0, false, memerr.Unavailable(tier, "GetTTL", err)
	}
	if ttl < 0 {
		// -2 key missing, -1 no expiry (not produced by this store)
		return 0, false, nil
	}
	return ttl, true, nil
}

// ExtendTTL adds additional time to an entry's current TTL. Returns ok=false
// when the entry no longer exists.
func (s *Store) ExtendTTL(ctx context.Context, sessionID, key string, additional time.Duration) (bool, error) {
	if additional <= 0 {
		return false, memerr.Validation(tier, "ExtendTTL", "additional ttl must be positive")
	}

	redisKey := sessionKey(sessionID, key)
	current, err := s.client.TTL(ctx, redisKey).Result()
	if err != nil {
		return false, memerr.Unavailable(tier, "ExtendTTL", err)
	}
	if current < 0 {
		return false, nil
	}

	ok, err := s.client.Expire(ctx, redisKey, current+additional).Result()
	if err != nil {
		return false, memerr.Unavailable(tier, "ExtendTTL", err)
	}
	return ok, nil
}

// ListActiveSessions returns the distinct session IDs with at least one live
// entry.
func (s *Store) ListActiveSessions(ctx context.Context) ([]string, error) {
	keys, err := s.scanKeys(ctx, "session:*")
	if err != nil {
		return nil, memerr.Unavailable(tier, "ListActiveSessions", err)
	}

	seen := make(map[string]struct{})
	var sessions []string
	for _, key := range keys {
		parts := strings.SplitN(key, ":", 3)
		if len(parts) < 2 {
			continue
		}
		if _, ok := seen[parts[1]]; ok {
			continue
		}
		seen[parts[1]] = struct{}{}
		sessions = append(sessions, parts[1])
	}
	return sessions, nil
}

// Ping reports whether Redis is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return memerr.Unavailable(tier, "Ping", err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}

// scanKeys collects all keys matching pattern using SCAN, never KEYS.
func (s *Store) scanKeys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}
