package recurrence

import (
	"slices"
	"sync"
	"time"

	"github.com/cyp0633/librecur/civil"
)

// cacheEntry is one memoized Between result.
type cacheEntry struct {
	result     []civil.Time
	expiresAt  time.Time
	accessedAt time.Time
}

type cacheKey struct {
	from, to civil.Key
}

// Cache memoizes Between results of a Set. Entries expire after TTL and the
// least recently used ones are evicted past MaxEntries. It is safe for
// concurrent use.
type Cache struct {
	entries         map[cacheKey]*cacheEntry
	mutex           sync.RWMutex
	ttl             time.Duration
	maxEntries      int
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	closeOnce       sync.Once

	hits, misses int
}

// CacheConfig holds configuration for the result cache
type CacheConfig struct {
	TTL        time.Duration // How long entries stay valid
	MaxEntries int           // Maximum number of entries before eviction
	// CleanupInterval starts a background sweep of expired entries when
	// positive. Such a cache must be closed.
	CleanupInterval time.Duration
}

// DefaultCacheConfig keeps results for 15 minutes and sweeps on insert only.
var DefaultCacheConfig = CacheConfig{
	TTL:        15 * time.Minute,
	MaxEntries: 1000,
}

// NewCache creates a cache with the given configuration
func NewCache(config CacheConfig) *Cache {
	cache := &Cache{
		entries:         make(map[cacheKey]*cacheEntry),
		ttl:             config.TTL,
		maxEntries:      config.MaxEntries,
		cleanupInterval: config.CleanupInterval,
		stopCleanup:     make(chan struct{}),
	}
	if cache.cleanupInterval > 0 {
		go cache.cleanupLoop()
	}
	return cache
}

// Get returns a copy of the memoized result for [from, to).
func (c *Cache) Get(from, to civil.Time) ([]civil.Time, bool) {
	key := cacheKey{from.Key(), to.Key()}
	now := time.Now()

	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.entries[key]
	if !exists {
		c.misses++
		return nil, false
	}
	if now.After(entry.expiresAt) {
		delete(c.entries, key)
		c.misses++
		return nil, false
	}
	entry.accessedAt = now
	c.hits++
	return slices.Clone(entry.result), true
}

// Put stores the result for [from, to).
func (c *Cache) Put(from, to civil.Time, result []civil.Time) {
	now := time.Now()
	entry := &cacheEntry{
		result:     slices.Clone(result),
		expiresAt:  now.Add(c.ttl),
		accessedAt: now,
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries[cacheKey{from.Key(), to.Key()}] = entry
	if len(c.entries) > c.maxEntries {
		c.cleanup()
	}
}

// Purge drops every entry. Sets call it on each mutation.
func (c *Cache) Purge() {
	c.mutex.Lock()
	clear(c.entries)
	c.mutex.Unlock()
}

// cleanup removes expired entries, then the least recently accessed ones
// until the cache is back under its limit. Callers hold the write lock.
func (c *Cache) cleanup() {
	now := time.Now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
	if len(c.entries) <= c.maxEntries {
		return
	}

	type keyAccess struct {
		key        cacheKey
		accessedAt time.Time
	}
	keys := make([]keyAccess, 0, len(c.entries))
	for key, entry := range c.entries {
		keys = append(keys, keyAccess{key, entry.accessedAt})
	}
	slices.SortFunc(keys, func(a, b keyAccess) int {
		return a.accessedAt.Compare(b.accessedAt)
	})
	for _, k := range keys[:len(c.entries)-c.maxEntries] {
		delete(c.entries, k.key)
	}
}

func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mutex.Lock()
			c.cleanup()
			c.mutex.Unlock()
		case <-c.stopCleanup:
			return
		}
	}
}

// Close stops the cleanup goroutine and clears the cache. It is safe to call
// more than once.
func (c *Cache) Close() {
	c.closeOnce.Do(func() { close(c.stopCleanup) })
	c.Purge()
}

// Stats returns cache statistics
func (c *Cache) Stats() CacheStats {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	expired := 0
	now := time.Now()
	for _, entry := range c.entries {
		if now.After(entry.expiresAt) {
			expired++
		}
	}
	return CacheStats{
		TotalEntries:   len(c.entries),
		ExpiredEntries: expired,
		ActiveEntries:  len(c.entries) - expired,
		Hits:           c.hits,
		Misses:         c.misses,
	}
}

// CacheStats provides information about cache performance
type CacheStats struct {
	TotalEntries   int
	ExpiredEntries int
	ActiveEntries  int
	Hits           int
	Misses         int
}
