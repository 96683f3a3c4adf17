package cache

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/gogpu/pdfview/internal/logging"
	"github.com/gogpu/pdfview/surface"
)

// Default cache configuration constants.
const (
	// DefaultMaxPages is the default page-count limit.
	DefaultMaxPages = 10
	// DefaultMaxMemoryMB is the default memory budget in megabytes.
	DefaultMaxMemoryMB = 50
	// bytesPerMB is the number of bytes in a megabyte.
	bytesPerMB = 1024 * 1024
)

// Config holds configuration for creating a PageCache.
type Config struct {
	// MaxPages is the maximum number of cached pages.
	// Defaults to DefaultMaxPages if <= 0.
	MaxPages int

	// MaxMemoryBytes is the memory budget in bytes.
	// Defaults to DefaultMaxMemoryMB megabytes if <= 0.
	MaxMemoryBytes int64

	// OnEvict receives the surface of every entry leaving the cache.
	// If nil, surfaces are destroyed.
	OnEvict func(page int, s *surface.Surface)

	// Logger receives eviction diagnostics. Nil means silent.
	Logger *slog.Logger

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// CachedPage is a rendered page held by the cache.
type CachedPage struct {
	Page           int
	Surface        *surface.Surface
	Size           int64 // Estimated memory in bytes
	CreatedAt      time.Time
	LastAccessedAt time.Time
}

// Stats contains cache statistics for monitoring.
type Stats struct {
	// Entries is the number of cached pages.
	Entries int
	// MaxEntries is the page-count limit.
	MaxEntries int
	// Bytes is the estimated memory held by cached surfaces.
	Bytes int64
	// MaxBytes is the memory budget.
	MaxBytes int64
	// Hits is the number of Get calls that found their page.
	Hits uint64
	// Misses is the number of Get calls that did not.
	Misses uint64
	// HitRate is the cache hit rate (0.0 to 1.0).
	HitRate float64
	// Evictions is the number of entries evicted for capacity.
	Evictions uint64
	// BytesFreed is the estimated memory released by evictions and removals.
	BytesFreed uint64
}

// String returns a human-readable string of cache stats.
func (s Stats) String() string {
	return fmt.Sprintf("Cache[%d/%d pages, %d/%d MB, %.1f%% hits, %d evictions]",
		s.Entries, s.MaxEntries,
		s.Bytes/bytesPerMB, s.MaxBytes/bytesPerMB,
		s.HitRate*100, s.Evictions)
}

// PageCache is an LRU cache of rendered page surfaces bounded by page count
// and by memory.
//
// PageCache is safe for concurrent use.
type PageCache struct {
	mu       sync.Mutex
	lru      *simplelru.LRU[int, *CachedPage] // Oldest first
	bytes    int64
	maxPages int
	maxBytes int64
	onEvict  func(page int, s *surface.Surface)
	logger   *slog.Logger
	now      func() time.Time

	// Statistics (atomic for lock-free reads)
	hits       atomic.Uint64
	misses     atomic.Uint64
	evictions  atomic.Uint64
	bytesFreed atomic.Uint64
}

// New creates a page cache.
func New(cfg Config) *PageCache {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = DefaultMaxPages
	}
	if cfg.MaxMemoryBytes <= 0 {
		cfg.MaxMemoryBytes = DefaultMaxMemoryMB * bytesPerMB
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	// Capacity is enforced by ensureCapacity before every Add, so the
	// list never evicts on its own. NewLRU only fails for size <= 0.
	lru, _ := simplelru.NewLRU[int, *CachedPage](cfg.MaxPages, nil)

	return &PageCache{
		lru:      lru,
		maxPages: cfg.MaxPages,
		maxBytes: cfg.MaxMemoryBytes,
		onEvict:  cfg.OnEvict,
		logger:   logging.OrNop(cfg.Logger),
		now:      cfg.Now,
	}
}

// EstimateSize returns the estimated memory of a rendered surface,
// assuming uncompressed RGBA.
func EstimateSize(s *surface.Surface) int64 {
	if s == nil {
		return 0
	}
	return int64(s.Width()) * int64(s.Height()) * surface.BytesPerPixel
}

// Get returns the surface cached for page. A hit marks the page as most
// recently used.
func (c *PageCache) Get(page int) (*surface.Surface, bool) {
	c.mu.Lock()
	entry, ok := c.lru.Get(page)
	if ok {
		entry.LastAccessedAt = c.now()
	}
	c.mu.Unlock()

	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return entry.Surface, true
}

// Peek returns the surface cached for page without updating recency or
// statistics.
func (c *PageCache) Peek(page int) (*surface.Surface, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.lru.Peek(page); ok {
		return entry.Surface, true
	}
	return nil, false
}

// Contains reports whether page is cached without updating recency.
func (c *PageCache) Contains(page int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Contains(page)
}

// Entry returns a copy of the metadata cached for page without updating
// recency.
func (c *PageCache) Entry(page int) (CachedPage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.lru.Peek(page); ok {
		return *entry, true
	}
	return CachedPage{}, false
}

// Set caches s as the rendering of page and makes it the most recently
// used entry. Least recently used entries are evicted until both the page
// limit and the memory budget accommodate it.
//
// An existing entry for page is released first. If it holds s itself,
// only its bookkeeping is dropped.
//
// Set returns false when s alone exceeds the memory budget; the surface
// is then not cached and stays owned by the caller.
func (c *PageCache) Set(page int, s *surface.Surface) bool {
	if s == nil {
		return false
	}
	size := EstimateSize(s)

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.lru.Peek(page); ok {
		c.lru.Remove(page)
		c.bytes -= existing.Size
		if existing.Surface == s {
			existing.Surface = nil
			existing.Size = 0
		} else {
			c.release(existing)
		}
	}

	if size > c.maxBytes {
		c.logger.Debug("cache: page exceeds memory budget",
			"page", page, "bytes", size, "budget", c.maxBytes)
		return false
	}

	c.ensureCapacity(size)

	now := c.now()
	c.lru.Add(page, &CachedPage{
		Page:           page,
		Surface:        s,
		Size:           size,
		CreatedAt:      now,
		LastAccessedAt: now,
	})
	c.bytes += size
	return true
}

// Remove releases the entry for page regardless of its LRU position.
// It returns false if page was not cached.
func (c *PageCache) Remove(page int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.lru.Peek(page)
	if !ok {
		return false
	}
	c.lru.Remove(page)
	c.bytes -= entry.Size
	c.release(entry)
	return true
}

// EvictLRU evicts the least recently used entry.
// It returns false if the cache is empty.
func (c *PageCache) EvictLRU() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictOldest()
}

// Clear releases every entry and resets memory accounting.
func (c *PageCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for {
		_, entry, ok := c.lru.RemoveOldest()
		if !ok {
			break
		}
		c.release(entry)
	}
	c.bytes = 0
}

// Resize changes the page limit and memory budget, evicting least recently
// used entries if the cache no longer fits. Non-positive values keep the
// current limit.
func (c *PageCache) Resize(maxPages int, maxBytes int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if maxPages > 0 {
		c.maxPages = maxPages
	}
	if maxBytes > 0 {
		c.maxBytes = maxBytes
	}
	for c.lru.Len() > c.maxPages || c.bytes > c.maxBytes {
		if !c.evictOldest() {
			break
		}
	}
	c.lru.Resize(c.maxPages)
}

// Len returns the number of cached pages.
func (c *PageCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Bytes returns the estimated memory held by cached surfaces.
func (c *PageCache) Bytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bytes
}

// Pages returns the cached page indices from least to most recently used.
func (c *PageCache) Pages() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Keys()
}

// Stats returns current cache statistics.
func (c *PageCache) Stats() Stats {
	c.mu.Lock()
	entries := c.lru.Len()
	size := c.bytes
	maxPages := c.maxPages
	maxBytes := c.maxBytes
	c.mu.Unlock()

	hits := c.hits.Load()
	misses := c.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return Stats{
		Entries:    entries,
		MaxEntries: maxPages,
		Bytes:      size,
		MaxBytes:   maxBytes,
		Hits:       hits,
		Misses:     misses,
		HitRate:    hitRate,
		Evictions:  c.evictions.Load(),
		BytesFreed: c.bytesFreed.Load(),
	}
}

// ResetStats resets the hit, miss and eviction counters to zero.
func (c *PageCache) ResetStats() {
	c.hits.Store(0)
	c.misses.Store(0)
	c.evictions.Store(0)
	c.bytesFreed.Store(0)
}

// ensureCapacity evicts LRU entries until an entry of size bytes fits
// within both limits.
// Must be called with c.mu held.
func (c *PageCache) ensureCapacity(size int64) {
	for c.lru.Len() >= c.maxPages || c.bytes+size > c.maxBytes {
		if !c.evictOldest() {
			return
		}
	}
}

// evictOldest must be called with c.mu held.
func (c *PageCache) evictOldest() bool {
	page, entry, ok := c.lru.RemoveOldest()
	if !ok {
		return false
	}
	c.bytes -= entry.Size
	c.evictions.Add(1)
	c.logger.Debug("cache: evicted page", "page", page, "bytes", entry.Size)
	c.release(entry)
	return true
}

// release hands the entry's surface to the eviction hook, or destroys it,
// and zeroes the entry.
// Must be called with c.mu held.
func (c *PageCache) release(entry *CachedPage) {
	//nolint:gosec // G115: sizes are non-negative
	c.bytesFreed.Add(uint64(entry.Size))
	s := entry.Surface
	entry.Surface = nil
	entry.Size = 0
	if s == nil {
		return
	}
	if c.onEvict != nil {
		c.onEvict(entry.Page, s)
		return
	}
	s.Destroy()
}
