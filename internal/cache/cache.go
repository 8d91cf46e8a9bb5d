package cache

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Store is a byte cache with per-entry expiry. Misses and backend errors
// both report ok=false; callers fall through to the database.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte)
	Delete(ctx context.Context, keys ...string)
}

// ReadThrough returns the JSON value cached under key, or calls load and
// caches its result. A nil Store always calls load. Entries that no longer
// decode into T are treated as misses and overwritten.
func ReadThrough[T any](ctx context.Context, s Store, key string, load func(context.Context) (T, error)) (T, error) {
	if s != nil {
		if b, ok := s.Get(ctx, key); ok {
			var v T
			if err := json.Unmarshal(b, &v); err == nil {
				return v, nil
			}
			slog.Default().WarnContext(ctx, "cache entry undecodable", "key", key)
		}
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}

	if s != nil {
		if b, err := json.Marshal(v); err == nil {
			s.Set(ctx, key, b)
		}
	}
	return v, nil
}
