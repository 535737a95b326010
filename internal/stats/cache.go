package stats

import (
	"strings"
	"sync"
	"time"
)

// SnapshotCache provides in-memory TTL caching for computed snapshots.
// It bounds recompute frequency only; ComputeStats itself stays pure.
type SnapshotCache struct {
	data map[string]*cacheEntry
	ttl  time.Duration
	mu   sync.RWMutex
}

type cacheEntry struct {
	snapshot   Snapshot
	expiration time.Time
}

// NewSnapshotCache creates a cache with the given TTL
func NewSnapshotCache(ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{
		data: make(map[string]*cacheEntry),
		ttl:  ttl,
	}
}

// TTL reports the freshness window entries are held for
func (c *SnapshotCache) TTL() time.Duration {
	return c.ttl
}

// Get retrieves a snapshot if present and not expired
func (c *SnapshotCache) Get(key string) (Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.data[key]
	if !ok || time.Now().After(entry.expiration) {
		return Snapshot{}, false
	}
	return entry.snapshot, true
}

// Set stores a snapshot
func (c *SnapshotCache) Set(key string, snap Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = &cacheEntry{
		snapshot:   snap,
		expiration: time.Now().Add(c.ttl),
	}
}

// DeleteByPrefix removes all entries whose key starts with prefix; the
// bulk coordinator uses it to invalidate a scope after a batch
func (c *SnapshotCache) DeleteByPrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.data {
		if strings.HasPrefix(key, prefix) {
			delete(c.data, key)
		}
	}
}

// Clear removes all entries
func (c *SnapshotCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data = make(map[string]*cacheEntry)
}
