package redis

import (
	"context"
	"errors"
	"time"

	"github.com/iho/splitledger/internal/infrastructure/metrics"
	"github.com/iho/splitledger/internal/usecase"
)

// InstrumentedCache records cache lookups on the wrapped cache.
type InstrumentedCache struct {
	next    usecase.Cache
	metrics *metrics.Metrics
}

var _ usecase.Cache = (*InstrumentedCache)(nil)

// NewInstrumentedCache wraps next.
func NewInstrumentedCache(next usecase.Cache, m *metrics.Metrics) *InstrumentedCache {
	return &InstrumentedCache{next: next, metrics: m}
}

// Get looks key up and counts a hit, a miss or an error.
func (c *InstrumentedCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.next.Get(ctx, key)

	result := "hit"
	switch {
	case errors.Is(err, usecase.ErrCacheMiss):
		result = "miss"
	case err != nil:
		result = "error"
	}
	c.metrics.CacheLookups.WithLabelValues(result).Inc()

	return val, err
}

// Set stores a value with TTL.
func (c *InstrumentedCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.next.Set(ctx, key, value, ttl)
}

// Delete removes a key.
func (c *InstrumentedCache) Delete(ctx context.Context, key string) error {
	return c.next.Delete(ctx, key)
}

// InstrumentedGuard records submission guard decisions, labelled by kind.
type InstrumentedGuard struct {
	next    usecase.SubmissionGuard
	metrics *metrics.Metrics
}

var _ usecase.SubmissionGuard = (*InstrumentedGuard)(nil)

// NewInstrumentedGuard wraps next.
func NewInstrumentedGuard(next usecase.SubmissionGuard, m *metrics.Metrics) *InstrumentedGuard {
	return &InstrumentedGuard{next: next, metrics: m}
}

// Acquire claims key and counts the outcome.
func (g *InstrumentedGuard) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := g.next.Acquire(ctx, key, ttl)

	outcome := "accepted"
	switch {
	case err != nil:
		outcome = "guard_error"
	case !ok:
		outcome = "duplicate"
	}
	g.metrics.Submissions.WithLabelValues(submissionKind(key), outcome).Inc()

	return ok, err
}

// Release drops a claim and counts it as released.
func (g *InstrumentedGuard) Release(ctx context.Context, key string) error {
	g.metrics.Submissions.WithLabelValues(submissionKind(key), "released").Inc()
	return g.next.Release(ctx, key)
}

// submissionKind returns the prefix of a fingerprint key such as "expense:<hash>".
func submissionKind(key string) string {
	for i := 0; i < len(key); i++ {
		if key[i] == ':' {
			return key[:i]
		}
	}
	return "unknown"
}
