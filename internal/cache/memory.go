package cache

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache keeps entries in process memory. There is no janitor goroutine;
// an expired entry is deleted by the read that finds it.
type MemoryCache struct {
	mu         sync.Mutex
	store      *gocache.Cache
	defaultTTL time.Duration
}

// NewMemoryCache creates an in-memory cache. ttl <= 0 selects DefaultTTL.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryCache{
		store:      gocache.New(ttl, 0),
		defaultTTL: ttl,
	}
}

func (m *MemoryCache) Get(_ context.Context, key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, found := m.store.Get(key)
	if !found {
		// go-cache hides expired items without removing them
		m.store.Delete(key)
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (m *MemoryCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = m.defaultTTL
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.store.Set(key, value, ttl)
	return nil
}

// Len returns the number of stored entries, expired ones included until they are read.
func (m *MemoryCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.ItemCount()
}

func (m *MemoryCache) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store.Flush()
	return nil
}
