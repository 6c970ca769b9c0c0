// Package cache provides validated-token caches for the authentication hot
// path.
package cache

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/cleanhq/cleaner/token"
)

var _ token.Cache = (*Memory)(nil)

// Memory is an in-process token.Cache backed by ttlcache. Entries live for a
// short fixed TTL so a revocation performed by another instance is picked up
// quickly even without an eviction.
type Memory struct {
	cache *ttlcache.Cache[string, *token.Record]
}

// NewMemory creates the cache and starts its expiry loop.
func NewMemory(ttl time.Duration) *Memory {
	c := ttlcache.New(
		ttlcache.WithTTL[string, *token.Record](ttl),
		ttlcache.WithDisableTouchOnHit[string, *token.Record](),
	)
	go c.Start()
	return &Memory{cache: c}
}

func (m *Memory) Get(_ context.Context, jtiHash string) (*token.Record, bool) {
	item := m.cache.Get(jtiHash)
	if item == nil {
		return nil, false
	}
	return item.Value(), true
}

func (m *Memory) Set(_ context.Context, record *token.Record) {
	m.cache.Set(record.JTIHash, record, ttlcache.DefaultTTL)
}

func (m *Memory) Delete(_ context.Context, jtiHash string) {
	m.cache.Delete(jtiHash)
}

func (m *Memory) Clear(context.Context) {
	m.cache.DeleteAll()
}

// Stop halts the expiry loop.
func (m *Memory) Stop() {
	m.cache.Stop()
}
