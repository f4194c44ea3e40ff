package cache

import (
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache is a bounded read-through cache whose entries expire by age.
// A nil *Cache is valid and caches nothing.
type Cache struct {
	lru *expirable.LRU[string, any]
}

// New creates a cache holding at most size entries for ttl each.
func New(size int, ttl time.Duration) *Cache {
	if size <= 0 {
		size = 256
	}
	return &Cache{lru: expirable.NewLRU[string, any](size, nil, ttl)}
}

// Get returns a live entry.
func (c *Cache) Get(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	return c.lru.Get(key)
}

// Set stores value under key, evicting the least recently used entry when full.
func (c *Cache) Set(key string, value any) {
	if c == nil {
		return
	}
	c.lru.Add(key, value)
}

// InvalidatePrefix removes every key starting with prefix and reports how many
// entries were dropped.
func (c *Cache) InvalidatePrefix(prefix string) int {
	if c == nil {
		return 0
	}
	removed := 0
	for _, key := range c.lru.Keys() {
		if strings.HasPrefix(key, prefix) && c.lru.Remove(key) {
			removed++
		}
	}
	return removed
}

// Len returns the number of entries, including ones not yet swept after expiry.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}

// Key joins parts into a cache key.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}
