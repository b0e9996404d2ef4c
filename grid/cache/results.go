package cache

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jook1356/grid-sub001/grid"
)

// ResultCache is a byte-bounded LRU of materialized pipeline contexts keyed
// by data-fingerprint + full config hash. It lets a view flip back to a
// previously seen configuration without re-running any stage, even after the
// phase slots were invalidated by intervening config changes.
//
// Entries double as nodes of an intrusive recency list (most recent behind
// front); eviction walks from the back.
type ResultCache struct {
	entries     map[string]*resultEntry
	maxSize     int64
	currentSize int64
	front, back *resultEntry // Recency list sentinels
	mutex       sync.RWMutex
	logger      Logger

	hits   int64
	misses int64
}

// resultEntry is one cached materialized context and its recency-list links
type resultEntry struct {
	key        string
	ctx        *grid.TransformContext
	size       int64
	accessTime int64
	createTime time.Time
	prev, next *resultEntry
}

// ResultCacheStats contains result cache diagnostics
type ResultCacheStats struct {
	Entries      int
	TotalSize    int64
	MaxSize      int64
	UsagePercent float64
	Hits         int64
	Misses       int64
}

// NewResultCache creates a result cache with the given byte limit
func NewResultCache(maxSize int64) *ResultCache {
	if maxSize <= 0 {
		maxSize = DefaultResultCacheSize
	}
	c := &ResultCache{
		entries: make(map[string]*resultEntry),
		maxSize: maxSize,
	}
	c.resetListLocked()
	return c
}

// SetLogger sets the logger for the result cache
func (c *ResultCache) SetLogger(logger Logger) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.logger = logger
}

// Get retrieves a cached context and marks it as recently used
func (c *ResultCache) Get(key string) (*grid.TransformContext, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.entries[key]
	if !exists {
		c.misses++
		return nil, false
	}

	entry.accessTime = time.Now().Unix()
	c.unlinkLocked(entry)
	c.linkFrontLocked(entry)
	c.hits++

	if c.logger != nil {
		c.logger.Log("debug", fmt.Sprintf("[RESULT_CACHE_HIT] Key: %s, Size: %d bytes", key, entry.size))
	}
	return entry.ctx, true
}

// Store adds or updates a cached context, evicting least recently used
// entries until it fits
func (c *ResultCache) Store(key string, ctx *grid.TransformContext) {
	size := estimateContextSize(ctx)

	c.mutex.Lock()
	defer c.mutex.Unlock()

	// Reject entries larger than the whole cache
	if size > c.maxSize {
		log.Printf("[RESULT_CACHE_REJECT] Entry too large: %d bytes > %d cache limit", size, c.maxSize)
		return
	}

	if existing, exists := c.entries[key]; exists {
		c.dropLocked(existing)
	}

	for c.currentSize+size > c.maxSize {
		oldest := c.back.prev
		if oldest == c.front {
			break
		}
		c.dropLocked(oldest)
		log.Printf("[RESULT_CACHE_EVICT] Evicted entry: %s (%d bytes)", oldest.key, oldest.size)
	}

	entry := &resultEntry{
		key:        key,
		ctx:        ctx,
		size:       size,
		accessTime: time.Now().Unix(),
		createTime: time.Now(),
	}
	c.entries[key] = entry
	c.linkFrontLocked(entry)
	c.currentSize += size

	if c.logger != nil {
		c.logger.Log("debug", fmt.Sprintf("[RESULT_CACHE_STORE] Key: %s, Size: %d bytes, Total: %d/%d bytes",
			key, size, c.currentSize, c.maxSize))
	}
}

// Remove removes a cached context
func (c *ResultCache) Remove(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if entry, exists := c.entries[key]; exists {
		c.dropLocked(entry)
	}
}

// Clear removes all cached contexts
func (c *ResultCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries = make(map[string]*resultEntry)
	c.currentSize = 0
	c.resetListLocked()
}

// Stats returns result cache diagnostics
func (c *ResultCache) Stats() ResultCacheStats {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	stats := ResultCacheStats{
		Entries:   len(c.entries),
		TotalSize: c.currentSize,
		MaxSize:   c.maxSize,
		Hits:      c.hits,
		Misses:    c.misses,
	}
	if c.maxSize > 0 {
		stats.UsagePercent = float64(c.currentSize) / float64(c.maxSize) * 100
	}
	return stats
}

// resetListLocked rebuilds the empty recency list
func (c *ResultCache) resetListLocked() {
	c.front = &resultEntry{}
	c.back = &resultEntry{}
	c.front.next = c.back
	c.back.prev = c.front
}

// linkFrontLocked inserts an entry right behind the front sentinel
func (c *ResultCache) linkFrontLocked(entry *resultEntry) {
	entry.next = c.front.next
	entry.prev = c.front
	c.front.next.prev = entry
	c.front.next = entry
}

// unlinkLocked detaches an entry from the recency list
func (c *ResultCache) unlinkLocked(entry *resultEntry) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
	entry.prev, entry.next = nil, nil
}

// dropLocked fully removes an entry: list, map and accounted size
func (c *ResultCache) dropLocked(entry *resultEntry) {
	c.unlinkLocked(entry)
	delete(c.entries, entry.key)
	c.currentSize -= entry.size
}

// estimateContextSize approximates the retained memory of a materialized
// context. Cell values are estimated by their string form; data rows are
// shared with the caller and only counted as pointer overhead.
func estimateContextSize(ctx *grid.TransformContext) int64 {
	if ctx == nil {
		return 0
	}

	size := int64(256) // Struct overhead

	for _, row := range ctx.Materialized {
		size += 96 // MaterializedRow struct overhead
		for key, value := range row.Cells {
			size += int64(len(key)) + int64(len(grid.ValueString(value))) + 32
		}
	}

	size += int64(len(ctx.Data)) * 8
	size += int64(len(ctx.Indices)) * 8

	return size
}
