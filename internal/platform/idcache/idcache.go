// Package idcache remembers which doctor row an external identity maps to.
// The mapping never changes once created, so entries only expire to bound
// memory.
package idcache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

type Cache interface {
	Get(ctx context.Context, externalID string) (uuid.UUID, bool)
	Set(ctx context.Context, externalID string, doctorID uuid.UUID)
}

type memoryCache struct {
	c *cache.Cache
}

// NewMemory returns a process-local cache. ttl <= 0 disables expiry.
func NewMemory(ttl time.Duration) Cache {
	if ttl <= 0 {
		return &memoryCache{c: cache.New(cache.NoExpiration, 0)}
	}
	return &memoryCache{c: cache.New(ttl, 2*ttl)}
}

func (m *memoryCache) Get(_ context.Context, externalID string) (uuid.UUID, bool) {
	v, ok := m.c.Get(externalID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

func (m *memoryCache) Set(_ context.Context, externalID string, doctorID uuid.UUID) {
	m.c.SetDefault(externalID, doctorID)
}

// Nop never remembers anything.
type Nop struct{}

func (Nop) Get(context.Context, string) (uuid.UUID, bool) { return uuid.Nil, false }
func (Nop) Set(context.Context, string, uuid.UUID)        {}
