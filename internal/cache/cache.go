package cache

import (
	"crypto/md5"
	"fmt"
	"sync"
	"time"
)

// Recorder receives hit and miss notifications. *monitoring.Metrics
// satisfies it.
type Recorder interface {
	IncrementCacheHit()
	IncrementCacheMiss()
}

// CacheItem represents a cached item with expiration
type CacheItem struct {
	Data      []byte    `json:"data"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired checks if the cache item has expired
func (c *CacheItem) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}

// Cache provides thread-safe caching with TTL
type Cache struct {
	mu       sync.RWMutex
	items    map[string]*CacheItem
	ttl      time.Duration
	recorder Recorder

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewCache creates a cache whose entries live for ttl. Expired entries are
// swept every cleanupInterval until Stop is called.
func NewCache(ttl, cleanupInterval time.Duration, recorder Recorder) *Cache {
	if cleanupInterval <= 0 {
		cleanupInterval = 5 * time.Minute
	}

	cache := &Cache{
		items:    make(map[string]*CacheItem),
		ttl:      ttl,
		recorder: recorder,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	go cache.cleanup(cleanupInterval)

	return cache
}

// cleanup removes expired items periodically
func (c *Cache) cleanup(interval time.Duration) {
	defer close(c.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			for key, item := range c.items {
				if item.IsExpired() {
					delete(c.items, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

// Stop ends the cleanup goroutine and waits for it to exit
func (c *Cache) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
	<-c.done
}

// Key creates a fixed-length key from arbitrary input such as a URL
func Key(input string) string {
	hash := md5.Sum([]byte(input))
	return fmt.Sprintf("%x", hash)
}

// Get retrieves an unexpired item from the cache
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	item, exists := c.items[key]
	c.mu.RUnlock()

	if !exists || item.IsExpired() {
		c.record(false)
		return nil, false
	}

	c.record(true)
	return item.Data, true
}

func (c *Cache) record(hit bool) {
	if c.recorder == nil {
		return
	}
	if hit {
		c.recorder.IncrementCacheHit()
	} else {
		c.recorder.IncrementCacheMiss()
	}
}

// Set stores an item in the cache
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = &CacheItem{
		Data:      data,
		ExpiresAt: time.Now().Add(c.ttl),
	}
}

// Delete removes an item from the cache
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

// Clear removes all items from the cache
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*CacheItem)
}

// Size returns the number of items in the cache, expired or not
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.items)
}

// Stats returns cache statistics
func (c *Cache) Stats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	totalItems := len(c.items)
	expiredItems := 0

	for _, item := range c.items {
		if item.IsExpired() {
			expiredItems++
		}
	}

	return map[string]interface{}{
		"total_items":   totalItems,
		"expired_items": expiredItems,
		"active_items":  totalItems - expiredItems,
		"ttl_seconds":   c.ttl.Seconds(),
	}
}
