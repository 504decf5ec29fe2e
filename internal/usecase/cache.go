package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// cachedList serves a list from cache, falling back to fetch and storing the result.
// A miss, an unreachable cache and an undecodable entry all read through.
func cachedList[T any](ctx context.Context, cache Cache, key string, ttl time.Duration, fetch func() ([]T, error)) ([]T, error) {
	if data, err := cache.Get(ctx, key); err == nil {
		var items []T
		if json.Unmarshal(data, &items) == nil {
			return items, nil
		}
	}

	return refreshList(ctx, cache, key, ttl, fetch)
}

// refreshList always fetches and overwrites the cached entry with the result.
func refreshList[T any](ctx context.Context, cache Cache, key string, ttl time.Duration, fetch func() ([]T, error)) ([]T, error) {
	items, err := fetch()
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(items); err == nil {
		_ = cache.Set(ctx, key, data, ttl)
	}

	return items, nil
}

// fingerprint hashes the parts of a submission into a guard key.
func fingerprint(kind string, parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return kind + ":" + hex.EncodeToString(h.Sum(nil))
}
