package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/nrgchamp/quizhub/internal/resilience"
)

// RedisTier wraps a go-redis client as the external cache tier. Every
// operation is guarded by a circuit breaker and swallows failures — the
// caller always falls through to the next tier instead of blocking or
// erroring.
type RedisTier struct {
	client  *redis.Client
	breaker *resilience.Breaker
	log     *slog.Logger
}

func NewRedisTier(addr string, log *slog.Logger) *RedisTier {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})
	breaker := resilience.New("redis-cache", resilience.Config{
		MaxFailures:  5,
		ResetTimeout: 10 * time.Second,
	}, func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
	return &RedisTier{client: client, breaker: breaker, log: log.With(slog.String("component", "cache_redis"))}
}

func (r *RedisTier) Get(ctx context.Context, key string) ([]byte, bool) {
	var out []byte
	err := r.breaker.Execute(ctx, func(ctx context.Context) error {
		v, err := r.client.Get(ctx, key).Bytes()
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		r.log.Warn("cache_redis_get_failed", slog.String("key", key), slog.Any("err", err))
		return nil, false
	}
	return out, true
}

func (r *RedisTier) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	err := r.breaker.Execute(ctx, func(ctx context.Context) error {
		return r.client.Set(ctx, key, value, ttl).Err()
	})
	if err != nil {
		r.log.Warn("cache_redis_set_failed", slog.String("key", key), slog.Any("err", err))
	}
}

func (r *RedisTier) Delete(ctx context.Context, key string) {
	err := r.breaker.Execute(ctx, func(ctx context.Context) error {
		return r.client.Del(ctx, key).Err()
	})
	if err != nil {
		r.log.Warn("cache_redis_delete_failed", slog.String("key", key), slog.Any("err", err))
	}
}

func (r *RedisTier) Close() error {
	return r.client.Close()
}
