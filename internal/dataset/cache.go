package dataset

import (
	"fmt"
	"sync"
)

// CachedService decorates a Service with an LRU cache over the snapshot and
// series queries. The dataset is immutable, so entries never go stale; the
// cache only bounds recomputation of the per-location series scans.
type CachedService struct {
	*Service
	cache    *lruCache
	onLookup func(query string, hit bool)
}

// NewCachedService creates a cache decorator around a service. onLookup, if
// non-nil, observes every cacheable lookup (for hit/miss metrics).
func NewCachedService(inner *Service, maxEntries int, onLookup func(query string, hit bool)) *CachedService {
	return &CachedService{
		Service:  inner,
		cache:    newLRUCache(maxEntries),
		onLookup: onLookup,
	}
}

func (c *CachedService) CountySnapshot(key string, ordinal int) (CountySnapshot, error) {
	cacheKey := fmt.Sprintf("county:%s|%d", key, ordinal)
	if v, ok := c.lookup("county", cacheKey); ok {
		return v.(CountySnapshot), nil
	}
	snap, err := c.Service.CountySnapshot(key, ordinal)
	if err != nil {
		return snap, err
	}
	c.cache.put(cacheKey, snap)
	return snap, nil
}

func (c *CachedService) StateSnapshot(state string, ordinal int) (StateSnapshot, error) {
	cacheKey := fmt.Sprintf("state:%s|%d", state, ordinal)
	if v, ok := c.lookup("state", cacheKey); ok {
		return v.(StateSnapshot), nil
	}
	snap, err := c.Service.StateSnapshot(state, ordinal)
	if err != nil {
		return snap, err
	}
	c.cache.put(cacheKey, snap)
	return snap, nil
}

func (c *CachedService) MonthlySeries(key string) []PeriodDelta {
	cacheKey := "series:" + key
	if v, ok := c.lookup("series", cacheKey); ok {
		return v.([]PeriodDelta)
	}
	series := c.Service.MonthlySeries(key)
	c.cache.put(cacheKey, series)
	return series
}

func (c *CachedService) lookup(query, cacheKey string) (any, bool) {
	v, ok := c.cache.get(cacheKey)
	if c.onLookup != nil {
		c.onLookup(query, ok)
	}
	return v, ok
}

// lruCache is a simple thread-safe LRU cache for query results.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value any
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
