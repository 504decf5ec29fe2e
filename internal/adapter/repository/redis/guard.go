package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// SubmissionGuard implements usecase.SubmissionGuard using Redis SETNX.
type SubmissionGuard struct {
	client *redis.Client
	prefix string
}

// NewSubmissionGuard creates a new SubmissionGuard.
func NewSubmissionGuard(client *redis.Client) *SubmissionGuard {
	return &SubmissionGuard{
		client: client,
		prefix: "splitledger:submission:",
	}
}

// Acquire claims key for ttl. It returns false while an earlier claim is alive.
func (g *SubmissionGuard) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return g.client.SetNX(ctx, g.prefix+key, time.Now().UTC().Format(time.RFC3339Nano), ttl).Result()
}

// Release drops a claim.
func (g *SubmissionGuard) Release(ctx context.Context, key string) error {
	return g.client.Del(ctx, g.prefix+key).Err()
}
