// Package cache provides the memory-bounded LRU cache of rendered pages.
//
// [PageCache] maps a page index to the surface it was rendered onto. It is
// bounded twice: by page count and by an estimated byte budget. Inserting a
// page evicts least-recently-accessed entries until both limits accommodate
// the new entry.
//
//	c := cache.New(cache.Config{MaxPages: 10, MaxMemoryBytes: 50 << 20})
//	c.Set(3, s)
//	s, ok := c.Get(3)
//
// The cache owns the surfaces it holds. Evicted or removed surfaces are
// handed to [Config.OnEvict], or destroyed when no hook is set.
//
// Recency is updated by Get only. Peek and Contains leave the access order
// untouched, which lets the render pipeline check ownership without
// disturbing eviction order.
//
// # Thread Safety
//
// PageCache is safe for concurrent use. OnEvict runs with the cache lock
// held and must not call back into the cache.
package cache
