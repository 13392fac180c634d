package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

type CacheConfig struct {
	Prefix string
	TTL    time.Duration
}

var QuizCacheConfig = CacheConfig{
	Prefix: "quiz",
	TTL:    10 * time.Minute,
}

// CacheManager groups the caches used by the repositories.
type CacheManager struct {
	Quiz    CacheService
	QuizTTL time.Duration
	logger  *slog.Logger
}

// NewCacheManager builds Redis-backed caches, or no-op caches when client is nil.
func NewCacheManager(client *redis.Client, logger *slog.Logger) *CacheManager {
	if client == nil {
		return &CacheManager{Quiz: NewNoopCache(), QuizTTL: QuizCacheConfig.TTL, logger: logger}
	}
	return &CacheManager{
		Quiz:    NewRedisCache(client, QuizCacheConfig.Prefix, logger),
		QuizTTL: QuizCacheConfig.TTL,
		logger:  logger,
	}
}

// CacheOrExecute loads key into dest, or runs fn, stores its result and copies it into dest.
// Cache failures never fail the call.
func CacheOrExecute(ctx context.Context, c CacheService, key string, dest interface{}, ttl time.Duration, fn func() (interface{}, error)) error {
	err := c.Get(ctx, key, dest)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		slog.WarnContext(ctx, "Cache read failed", "key", key, "error", err)
	}

	value, err := fn()
	if err != nil {
		return err
	}

	if err := c.Set(ctx, key, value, ttl); err != nil {
		slog.WarnContext(ctx, "Cache write failed", "key", key, "error", err)
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to copy cached value: %w", err)
	}
	return json.Unmarshal(data, dest)
}

func SafeDelete(ctx context.Context, c CacheService, keys ...string) {
	if err := c.Delete(ctx, keys...); err != nil {
		slog.WarnContext(ctx, "Cache delete failed", "keys", keys, "error", err)
	}
}

func SafeInvalidatePattern(ctx context.Context, c CacheService, pattern string) {
	if err := c.DeletePattern(ctx, pattern); err != nil {
		slog.WarnContext(ctx, "Cache invalidation failed", "pattern", pattern, "error", err)
	}
}
