package fs

import (
	"sync"
	"time"

	"github.com/aretw0/notepad/pkg/core"
)

// cacheEntry is a parsed note together with the file stamp it was read from.
type cacheEntry struct {
	note    core.Note
	modTime time.Time
	size    int64
}

// cache avoids re-parsing unchanged note files during queries.
// Entries are keyed by note ID and validated against mtime and size.
type cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

func newCache() *cache {
	return &cache{entries: make(map[string]cacheEntry)}
}

// Get returns the cached note if the file stamp still matches.
func (c *cache) Get(id string, modTime time.Time, size int64) (core.Note, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[id]
	if !ok || !e.modTime.Equal(modTime) || e.size != size {
		return core.Note{}, false
	}
	return e.note, true
}

// Has reports whether id was seen before, regardless of freshness.
func (c *cache) Has(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[id]
	return ok
}

func (c *cache) Set(id string, n core.Note, modTime time.Time, size int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[id] = cacheEntry{note: n, modTime: modTime, size: size}
}

func (c *cache) Delete(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
}

// Prune removes entries that are not in the keep set.
func (c *cache) Prune(keep map[string]bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id := range c.entries {
		if !keep[id] {
			delete(c.entries, id)
		}
	}
}

func (c *cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
