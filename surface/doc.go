// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package surface provides the drawable page surfaces used by pdfview and
// the pool that recycles them.
//
// A [Surface] is a plain RGBA pixel buffer with a stable identity. It has no
// notion of which page it shows: the render pipeline assigns dimensions at
// acquisition time and the page renderer paints into it.
//
// # Pool
//
// Allocating and discarding large pixel buffers while the user scrolls through
// a thousand-page document produces heavy GC churn. [Pool] keeps a bounded
// free list of idle surfaces instead:
//
//	pool := surface.NewPool(20)
//	s := pool.Acquire(612, 792)
//	// render into s...
//	pool.Release(s)
//
// Every surface created by a pool is tracked as either idle or in use. A
// release of a surface that is not in use (double release, a surface from
// another pool, a destroyed surface) is logged and ignored.
//
// # Disposal
//
// Destroyed surfaces keep an explicit disposed flag. Accessors check it on
// every call and behave as if the surface were empty, so a stale reference
// cannot write into memory that was handed back.
//
// # Thread Safety
//
// A Surface must be used by one goroutine at a time. Pool is safe for
// concurrent use.
package surface
