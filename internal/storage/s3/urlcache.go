package s3

import (
	"sync"
	"time"
)

type urlEntry struct {
	url       string
	expiresAt time.Time
}

// URLCache holds presigned URLs until they expire. Expired entries are evicted
// lazily on read and in bulk when the cache grows past its sweep threshold.
type URLCache struct {
	mu      sync.RWMutex
	entries map[string]urlEntry
	now     func() time.Time
}

const urlCacheSweepThreshold = 10000

func NewURLCache() *URLCache {
	return &URLCache{
		entries: make(map[string]urlEntry),
		now:     time.Now,
	}
}

func (c *URLCache) Get(key string) (string, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return "", false
	}
	if !c.now().Before(e.expiresAt) {
		c.mu.Lock()
		if cur, still := c.entries[key]; still && cur == e {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return "", false
	}
	return e.url, true
}

func (c *URLCache) Set(key, url string, expiresAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) >= urlCacheSweepThreshold {
		c.sweepLocked()
	}
	c.entries[key] = urlEntry{url: url, expiresAt: expiresAt}
}

func (c *URLCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *URLCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]urlEntry)
}

func (c *URLCache) sweepLocked() {
	now := c.now()
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
		}
	}
}
