// Package scroll implements virtual scrolling over a long column of pages
// together with the scheduler that decides which pages render.
//
// A [Scroller] keeps one [Item] per page with its vertical offset and
// height. Heights start as an estimate and are replaced by measured values
// as pages finish rendering; offsets are always the running sum of the
// heights before them.
//
// # Window
//
// On every scroll, resize or refresh the scroller computes the visible
// range and widens it by BufferSize estimated page heights on each side.
// Unrendered pages intersecting that window are queued in document order.
// Queued pages that fell out of the window are dropped, and rendered pages
// outside it are torn down through [Renderer.Teardown].
//
// # Scheduling
//
// Up to MaxConcurrentRenders pages render at once. Each finished render
// frees its slot and the next queued page starts, so a render that never
// finishes holds only its own slot. While the user is scrolling the queue
// is maintained but not drained; draining resumes once no scroll event has
// arrived for QuietPeriod.
//
// In-flight renders are never cancelled. A page that finishes after it
// left the window is torn down as soon as its result arrives.
//
// A failed render returns the page to [Unrendered]; it is retried on the
// next scroll, resize or refresh.
//
// # Thread Safety
//
// Scroller is safe for concurrent use. Renderer.Render runs on its own
// goroutine without the scroller lock. Renderer.Teardown and the event
// listeners must not block for long; Teardown runs with the lock held and
// must not call back into the Scroller.
package scroll
