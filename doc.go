// Package pdfview manages the rendering resources of a scrolling document
// viewer.
//
// # Overview
//
// Rendering every page of a long PDF up front exhausts memory. pdfview keeps
// only the pages near the viewport rendered, reuses their pixel buffers and
// remembers recently seen pages, so a thousand-page document scrolls with a
// bounded footprint.
//
// A [Viewer] ties three components together:
//
//   - [surface.Pool] recycles page surfaces instead of allocating new ones.
//   - [cache.PageCache] keeps recently rendered pages, bounded by page count
//     and by memory.
//   - [scroll.Scroller] lays the pages out vertically and schedules renders
//     for the pages in and around the viewport.
//
// # Quick Start
//
//	v, err := pdfview.New(ctx, doc, 800,
//		pdfview.WithScale(1.5),
//		pdfview.WithMaxConcurrentRenders(2),
//	)
//	if err != nil {
//		return err
//	}
//	defer v.Close()
//
//	v.OnPageRendered(func(ev scroll.PageRendered) {
//		s, _ := v.Surface(ev.Page)
//		// display s...
//	})
//	v.ScrollBy(400)
//
// The document itself is supplied by the caller through the [Document]
// interface: pdfview never parses PDF.
//
// # Ownership
//
// A rendered surface belongs to exactly one of the pool, the cache or an
// in-flight render. A page on screen is attached to the surface it shows;
// attached surfaces are never recycled while attached, even if the cache
// evicts their entry.
//
// # Coordinate System
//
// Page sizes are in points. A [Viewport] converts them to pixels at a scale
// and rotation; offsets in the scroller are in pixels, with the top of the
// first page at 0 and y increasing down.
//
// # Logging
//
// pdfview is silent by default. Use [SetLogger] or [WithLogger] to enable
// structured logging via log/slog.
package pdfview
