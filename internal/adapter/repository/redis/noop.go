package redis

import (
	"context"
	"time"

	"github.com/iho/splitledger/internal/usecase"
)

// NoopCache is used when Redis is not configured. Every read misses.
type NoopCache struct{}

func (NoopCache) Get(context.Context, string) ([]byte, error) {
	return nil, usecase.ErrCacheMiss
}

func (NoopCache) Set(context.Context, string, []byte, time.Duration) error {
	return nil
}

func (NoopCache) Delete(context.Context, string) error {
	return nil
}

// NoopGuard is used when Redis is not configured. Every submission is allowed.
type NoopGuard struct{}

func (NoopGuard) Acquire(context.Context, string, time.Duration) (bool, error) {
	return true, nil
}

func (NoopGuard) Release(context.Context, string) error {
	return nil
}

var (
	_ usecase.Cache           = (*Cache)(nil)
	_ usecase.Cache           = NoopCache{}
	_ usecase.SubmissionGuard = (*SubmissionGuard)(nil)
	_ usecase.SubmissionGuard = NoopGuard{}
)
