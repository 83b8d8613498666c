package asset

import (
	"sync"

	"github.com/Faultbox/prism/internal/engine/gpu"
)

// Cache holds uploaded textures by source path.
type Cache struct {
	textures map[string]gpu.Texture
	mu       sync.RWMutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		textures: make(map[string]gpu.Texture),
	}
}

// Get retrieves a texture from cache.
func (c *Cache) Get(path string) (gpu.Texture, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tex, ok := c.textures[path]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return tex, ok
}

// Set stores a texture in cache.
func (c *Cache) Set(path string, tex gpu.Texture) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.textures[path] = tex
}

// Len returns the number of cached textures.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.textures)
}

// Clear destroys every cached texture and resets the statistics.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, tex := range c.textures {
		tex.Destroy()
	}
	c.textures = make(map[string]gpu.Texture)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
