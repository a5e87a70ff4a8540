package equations

import (
	"sync"
	"sync/atomic"

	"github.com/golang/groupcache/lru"
)

// Cache memoizes bracket structures and their rendered layouts. Entries
// depend only on structural keys, never on operand values, so one Cache can
// serve any number of solvers. A Cache is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	structs *lru.Cache
	layouts *lru.Cache

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCache creates a cache holding up to size entries in each of its tables.
// A size of 0 means no limit.
func NewCache(size int) *Cache {
	return &Cache{
		structs: lru.New(size),
		layouts: lru.New(size),
	}
}

var defaultCache = NewCache(0)

// CacheStats counts lookups in a Cache.
type CacheStats struct {
	Hits   int64
	Misses int64
}

// Stats returns the number of lookups that did and did not find an entry.
func (c *Cache) Stats() CacheStats {
	return CacheStats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}

// Len returns the total number of entries in the cache.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.structs.Len() + c.layouts.Len()
}

func (c *Cache) get(table *lru.Cache, key lru.Key) (any, bool) {
	c.mu.Lock()
	v, ok := table.Get(key)
	c.mu.Unlock()
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return v, ok
}

// add stores a computed value. Two goroutines may compute the same entry;
// both values are equal, so the later one simply replaces the earlier.
func (c *Cache) add(table *lru.Cache, key lru.Key, v any) {
	c.mu.Lock()
	table.Add(key, v)
	c.mu.Unlock()
}
