package detect

import (
	"sync"
)

// DialectCache caches detection results keyed by spec URL. Hosts like
// w3.org/TR mix dialects, so the key is never coarser than one spec.
type DialectCache struct {
	mu    sync.RWMutex
	cache map[string]DetectionResult
}

// NewDialectCache creates a new dialect cache
func NewDialectCache() *DialectCache {
	return &DialectCache{
		cache: make(map[string]DetectionResult),
	}
}

// Get retrieves a cached detection result for a spec URL
func (c *DialectCache) Get(specURL string) (DetectionResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result, ok := c.cache[specURL]
	return result, ok
}

// Set stores a detection result for a spec URL
func (c *DialectCache) Set(specURL string, result DetectionResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[specURL] = result
}

// Clear removes all cached entries
func (c *DialectCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]DetectionResult)
}

// Size returns the number of cached entries
func (c *DialectCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}
