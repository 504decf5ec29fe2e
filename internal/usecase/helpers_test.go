package usecase_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/splitledger/internal/domain"
	"github.com/iho/splitledger/internal/usecase"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var (
	ann = domain.Member{ID: "1", Name: "Ann", Email: "ann@example.com"}
	bob = domain.Member{ID: "2", Name: "Bob", Email: "bob@example.com"}
	cid = domain.Member{ID: "3", Name: "Cid", Email: "cid@example.com"}
	dan = domain.Member{ID: "4", Name: "Dan", Email: "dan@example.com"}
)

func testSession() *domain.Session {
	return &domain.Session{
		Token: "token",
		User:  domain.User{ID: ann.ID, Name: ann.Name, Email: ann.Email},
	}
}

// trip has three accepted members and one pending invitation.
func trip() domain.Group {
	return domain.Group{
		ID:   "10",
		Name: "Trip",
		Members: []domain.GroupMember{
			{Member: ann, Accepted: true},
			{Member: bob, Accepted: true},
			{Member: cid, Accepted: true},
			{Member: dan, Accepted: false},
		},
	}
}

// memoryCache is an in-memory usecase.Cache that ignores TTLs.
type memoryCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: make(map[string][]byte)}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.items[key]
	if !ok {
		return nil, usecase.ErrCacheMiss
	}
	return v, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

// memoryGuard is an in-memory usecase.SubmissionGuard that ignores TTLs.
type memoryGuard struct {
	mu   sync.Mutex
	keys map[string]bool
}

func newMemoryGuard() *memoryGuard {
	return &memoryGuard{keys: make(map[string]bool)}
}

func (g *memoryGuard) Acquire(_ context.Context, key string, _ time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.keys[key] {
		return false, nil
	}
	g.keys[key] = true
	return true, nil
}

func (g *memoryGuard) Release(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.keys, key)
	return nil
}

// stuckCache serves reads and writes but cannot delete entries.
type stuckCache struct {
	*memoryCache
}

func (c stuckCache) Delete(context.Context, string) error {
	return errors.New("redis: connection refused")
}

// stuckGuard acquires keys but cannot release them.
type stuckGuard struct {
	*memoryGuard
}

func (g stuckGuard) Release(context.Context, string) error {
	return errors.New("redis: connection refused")
}

type sequenceIDs struct {
	mu sync.Mutex
	n  int
}

func (s *sequenceIDs) Generate() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return "key-" + strconv.Itoa(s.n)
}
