package scroll

import (
	"slices"
	"sort"
)

// window returns the visible range widened by the buffer.
// Must be called with s.mu held.
func (s *Scroller) window() (start, end float64) {
	buffer := float64(s.cfg.BufferSize) * s.cfg.EstimatedHeight
	return s.scrollTop - buffer, s.scrollTop + s.viewportHeight + buffer
}

// clamp must be called with s.mu held.
func (s *Scroller) clamp(top float64) float64 {
	maxTop := max(s.totalHeight()-s.viewportHeight, 0)
	return min(max(top, 0), maxTop)
}

// totalHeight must be called with s.mu held.
func (s *Scroller) totalHeight() float64 {
	if len(s.items) == 0 {
		return 0
	}
	return s.items[len(s.items)-1].Bottom()
}

// pageAt returns the index of the page covering offset y, clamped to the
// document. Must be called with s.mu held.
func (s *Scroller) pageAt(y float64) int {
	n := len(s.items)
	if n == 0 {
		return -1
	}
	i := sort.Search(n, func(i int) bool { return s.items[i].Bottom() > y })
	return min(i, n-1)
}

// visiblePages must be called with s.mu held.
func (s *Scroller) visiblePages() []int {
	if len(s.items) == 0 || s.viewportHeight <= 0 {
		return nil
	}
	end := s.scrollTop + s.viewportHeight
	var pages []int
	for i := s.pageAt(s.scrollTop); i < len(s.items) && s.items[i].Top < end; i++ {
		pages = append(pages, i)
	}
	return pages
}

// centerPage must be called with s.mu held.
func (s *Scroller) centerPage() int {
	return s.pageAt(s.scrollTop + s.viewportHeight/2)
}

// updateVisible reports a change of the visible set.
// Must be called with s.mu held.
func (s *Scroller) updateVisible() {
	pages := s.visiblePages()
	if slices.Equal(pages, s.visible) {
		return
	}
	s.visible = pages
	ev := VisibleChange{Pages: slices.Clone(pages), Center: s.centerPage()}
	s.emit(func() { s.events.visible.emit(ev) })
}

// VisiblePages returns the pages intersecting the viewport.
func (s *Scroller) VisiblePages() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visiblePages()
}

// CenterPage returns the page under the middle of the viewport, or -1 for
// an empty document.
func (s *Scroller) CenterPage() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.centerPage()
}

// Items returns a copy of the layout.
func (s *Scroller) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

// Item returns the layout of one page.
func (s *Scroller) Item(page int) (Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if page < 0 || page >= len(s.items) {
		return Item{}, false
	}
	return s.items[page], true
}

// RenderedPages returns the rendered pages in document order.
func (s *Scroller) RenderedPages() []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pages []int
	for i := range s.items {
		if s.items[i].State == Rendered {
			pages = append(pages, i)
		}
	}
	return pages
}

// ScrollTop returns the offset of the top of the viewport.
func (s *Scroller) ScrollTop() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scrollTop
}

// ViewportHeight returns the visible height.
func (s *Scroller) ViewportHeight() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewportHeight
}

// TotalHeight returns the height of the whole document.
func (s *Scroller) TotalHeight() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalHeight()
}

// TotalPages returns the number of pages.
func (s *Scroller) TotalPages() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Stats returns a snapshot of the scroller state.
func (s *Scroller) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Stats{
		TotalPages:   len(s.items),
		QueuedPages:  len(s.queue),
		InFlight:     s.inflight,
		VisiblePages: len(s.visiblePages()),
		CurrentPage:  s.centerPage(),
		IsScrolling:  s.scrolling,
		IsRendering:  s.inflight > 0,
	}
	for i := range s.items {
		if s.items[i].State == Rendered {
			stats.RenderedPages++
		}
	}
	return stats
}
