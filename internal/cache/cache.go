// Package cache implements a two-tier TTL'd cache: a shared external
// store consulted first, a process-local fallback second, and the
// document store as the final source of truth. Failures in either cache
// tier are swallowed — the caller always falls through rather than
// blocking or erroring.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// Tier is the minimal interface both the external and local caches
// implement, letting Cache treat them uniformly.
type Tier interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
}

// Cache composes an external tier and a local fallback tier in front of a
// Loader callback that consults the document store on a full miss.
type Cache struct {
	external Tier
	local    Tier
	log      *slog.Logger
}

func New(external, local Tier, log *slog.Logger) *Cache {
	return &Cache{external: external, local: local, log: log.With(slog.String("component", "cache"))}
}

// Key TTLs for each cached document kind.
const (
	TTLQuiz        = 30 * time.Second
	TTLQuestions   = 30 * time.Second
	TTLLeaderboard = 5 * time.Second
)

func QuizKey(code string) string        { return "quiz:" + code }
func QuestionsKey(code string) string    { return "questions:" + code }
func LeaderboardKey(code string) string  { return "leaderboard:" + code }

// GetOrLoad consults external, then local, then calls load on a full miss,
// populating both cache tiers with the loaded value. It never returns a
// cache-tier error to the caller — only load's error propagates.
func GetOrLoad[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, load func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	if raw, ok := c.external.Get(ctx, key); ok {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			return v, nil
		}
		c.log.Warn("cache_decode_failed", slog.String("key", key), slog.String("tier", "external"))
	}

	if raw, ok := c.local.Get(ctx, key); ok {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			return v, nil
		}
		c.log.Warn("cache_decode_failed", slog.String("key", key), slog.String("tier", "local"))
	}

	v, err := load(ctx)
	if err != nil {
		return zero, err
	}

	if raw, err := json.Marshal(v); err == nil {
		c.external.Set(ctx, key, raw, ttl)
		c.local.Set(ctx, key, raw, ttl)
	} else {
		c.log.Warn("cache_encode_failed", slog.String("key", key), slog.Any("err", err))
	}

	return v, nil
}

// Invalidate removes a key from both tiers, used on quiz mutation/deletion.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	for _, k := range keys {
		c.external.Delete(ctx, k)
		c.local.Delete(ctx, k)
	}
}
