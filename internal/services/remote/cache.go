package remote

import (
	"sync"

	"hat-store/internal/models"
)

// Cache is the last-known snapshot of the partner's catalog. It is
// explicitly stale-tolerant: it only ever reflects the last
// successful poll, and it is never authoritative for trade
// decisions.
type Cache struct {
	mu    sync.RWMutex
	items map[string]models.Hat
}

func NewCache() *Cache {
	return &Cache{items: make(map[string]models.Hat)}
}

// Replace swaps in a wholesale snapshot and reports the diff against
// the previous one: ids newly present and ids that vanished.
func (c *Cache) Replace(items map[string]models.Hat) (added, removed map[string]models.Hat) {
	c.mu.Lock()
	defer c.mu.Unlock()

	added = make(map[string]models.Hat)
	removed = make(map[string]models.Hat)

	for id, hat := range items {
		if _, ok := c.items[id]; !ok {
			added[id] = hat
		}
	}
	for id, hat := range c.items {
		if _, ok := items[id]; !ok {
			removed[id] = hat
		}
	}

	fresh := make(map[string]models.Hat, len(items))
	for id, hat := range items {
		fresh[id] = hat
	}
	c.items = fresh
	return added, removed
}

// Get returns the cached hat for id.
func (c *Cache) Get(id string) (models.Hat, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	hat, ok := c.items[id]
	return hat, ok
}

// Evict drops one id, used after a confirmed cross-store purchase so
// observers stop seeing the item before the next poll.
func (c *Cache) Evict(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, id)
}

// Snapshot returns a copy of the cached catalog.
func (c *Cache) Snapshot() map[string]models.Hat {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]models.Hat, len(c.items))
	for id, hat := range c.items {
		out[id] = hat
	}
	return out
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
