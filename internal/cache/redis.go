package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis shares cached entries between API replicas.
type Redis struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// DialRedis connects and pings once so callers can fall back to Memory when
// Redis is down at startup.
func DialRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
		PoolSize:     16,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}
	return NewRedis(rdb, cfg.TTL), nil
}

func NewRedis(rdb *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &Redis{rdb: rdb, ttl: ttl, prefix: "worklink:"}
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	b, err := r.rdb.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Default().WarnContext(ctx, "cache get failed", "key", key, "err", err)
		}
		return nil, false
	}
	return b, true
}

func (r *Redis) Set(ctx context.Context, key string, val []byte) {
	if err := r.rdb.Set(ctx, r.prefix+key, val, r.ttl).Err(); err != nil {
		slog.Default().WarnContext(ctx, "cache set failed", "key", key, "err", err)
	}
}

func (r *Redis) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}

	full := make([]string, 0, len(keys))
	for _, k := range keys {
		full = append(full, r.prefix+k)
	}

	if err := r.rdb.Del(ctx, full...).Err(); err != nil {
		slog.Default().WarnContext(ctx, "cache delete failed", "keys", keys, "err", err)
	}
}
