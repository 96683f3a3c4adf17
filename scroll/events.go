package scroll

import "sync"

// VisibleChange is delivered when the set of visible pages changes.
type VisibleChange struct {
	Pages  []int // Visible pages in document order
	Center int   // Page under the middle of the viewport, -1 if none
}

// PageRendered is delivered when a page finishes rendering.
type PageRendered struct {
	Page   int
	Height float64 // Measured height
}

// PageFailed is delivered when a page render returns an error.
type PageFailed struct {
	Page int
	Err  error
}

// PageUnrendered is delivered when a rendered page is torn down.
type PageUnrendered struct {
	Page int
}

type listener[E any] struct {
	id int
	fn func(E)
}

// listeners is a registration list for one event type.
type listeners[E any] struct {
	mu     sync.Mutex
	nextID int
	fns    []listener[E]
}

func (l *listeners[E]) add(fn func(E)) (cancel func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextID++
	id := l.nextID
	l.fns = append(l.fns, listener[E]{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { l.remove(id) })
	}
}

func (l *listeners[E]) remove(id int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, ln := range l.fns {
		if ln.id == id {
			l.fns = append(l.fns[:i:i], l.fns[i+1:]...)
			return
		}
	}
}

func (l *listeners[E]) emit(e E) {
	l.mu.Lock()
	fns := l.fns
	l.mu.Unlock()

	for _, ln := range fns {
		ln.fn(e)
	}
}

type events struct {
	visible    listeners[VisibleChange]
	rendered   listeners[PageRendered]
	failed     listeners[PageFailed]
	unrendered listeners[PageUnrendered]
}

// OnVisibleChange registers fn for visibility changes.
// The returned function unregisters it.
func (s *Scroller) OnVisibleChange(fn func(VisibleChange)) (cancel func()) {
	return s.events.visible.add(fn)
}

// OnPageRendered registers fn for completed renders.
// The returned function unregisters it.
func (s *Scroller) OnPageRendered(fn func(PageRendered)) (cancel func()) {
	return s.events.rendered.add(fn)
}

// OnPageFailed registers fn for failed renders.
// The returned function unregisters it.
func (s *Scroller) OnPageFailed(fn func(PageFailed)) (cancel func()) {
	return s.events.failed.add(fn)
}

// OnPageUnrendered registers fn for torn down pages.
// The returned function unregisters it.
func (s *Scroller) OnPageUnrendered(fn func(PageUnrendered)) (cancel func()) {
	return s.events.unrendered.add(fn)
}
