package scroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/gogpu/pdfview/internal/logging"
)

// Default scheduling configuration.
const (
	// DefaultBufferSize is the number of estimated page heights added
	// above and below the viewport.
	DefaultBufferSize = 3

	// DefaultMaxConcurrentRenders is the default number of renders in flight.
	DefaultMaxConcurrentRenders = 2

	// DefaultQuietPeriod is how long scrolling must pause before queued
	// pages start rendering.
	DefaultQuietPeriod = 150 * time.Millisecond
)

// Scroller errors.
var (
	// ErrNilRenderer is returned by New when no renderer is given.
	ErrNilRenderer = errors.New("scroll: nil renderer")

	// ErrInvalidHeight is returned for estimated heights that are not
	// positive and finite.
	ErrInvalidHeight = errors.New("scroll: invalid estimated height")

	// ErrInvalidPageCount is returned for a negative page count.
	ErrInvalidPageCount = errors.New("scroll: invalid page count")

	// ErrPageOutOfRange is returned for page indices outside the document.
	ErrPageOutOfRange = errors.New("scroll: page out of range")

	// ErrClosed is returned when operating on a closed scroller.
	ErrClosed = errors.New("scroll: scroller closed")

	// ErrDiscarded is returned by a Renderer whose result is no longer
	// wanted. The page goes back to unrendered without a PageFailed event.
	ErrDiscarded = errors.New("scroll: render discarded")
)

// Renderer renders and tears down pages for a Scroller.
type Renderer interface {
	// Render paints page and returns its measured height. It is called on
	// its own goroutine, at most once at a time per page.
	Render(ctx context.Context, page int) (height float64, err error)

	// Teardown detaches a rendered page. It is called with the scroller
	// lock held and must not call back into the Scroller.
	Teardown(page int)
}

// State is the render state of one page.
type State uint8

const (
	// Unrendered pages have no attached rendering.
	Unrendered State = iota
	// Queued pages wait for a render slot.
	Queued
	// Rendering pages have a render in flight.
	Rendering
	// Rendered pages are attached and displayed.
	Rendered
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Unrendered:
		return "unrendered"
	case Queued:
		return "queued"
	case Rendering:
		return "rendering"
	case Rendered:
		return "rendered"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Item is the layout and render state of one page.
type Item struct {
	Page     int
	Top      float64 // Sum of the heights of all earlier pages
	Height   float64 // Estimated until Measured
	Measured bool
	State    State
}

// Bottom returns the offset just past the page.
func (it Item) Bottom() float64 {
	return it.Top + it.Height
}

// Config holds configuration for creating a Scroller.
type Config struct {
	// TotalPages is the number of pages in the document.
	TotalPages int

	// EstimatedHeight is the height assumed for pages that have not been
	// rendered yet. Must be positive.
	EstimatedHeight float64

	// ViewportHeight is the visible height in pixels.
	ViewportHeight float64

	// BufferSize is the number of estimated page heights rendered above and
	// below the viewport. Defaults to DefaultBufferSize if < 0.
	BufferSize int

	// MaxConcurrentRenders bounds renders in flight.
	// Defaults to DefaultMaxConcurrentRenders if <= 0.
	MaxConcurrentRenders int

	// QuietPeriod is the scroll debounce interval.
	// Defaults to DefaultQuietPeriod if <= 0.
	QuietPeriod time.Duration

	// Logger receives scheduling diagnostics. Nil means silent.
	Logger *slog.Logger
}

// Stats is a snapshot of the scroller state.
type Stats struct {
	TotalPages    int
	RenderedPages int
	QueuedPages   int
	InFlight      int
	VisiblePages  int
	CurrentPage   int
	IsScrolling   bool
	IsRendering   bool
}

// Scroller maps pages to vertical offsets and schedules their rendering.
//
// Scroller is safe for concurrent use.
type Scroller struct {
	mu sync.Mutex

	r      Renderer
	cfg    Config
	logger *slog.Logger
	events events

	items          []Item
	scrollTop      float64
	viewportHeight float64
	visible        []int // Last reported visible pages

	queue    []int // Queued pages in document order
	slots    *semaphore.Weighted
	inflight int
	gen      uint64 // Bumped by Invalidate; older results are discarded

	scrolling bool
	scrollSeq uint64
	quiet     *time.Timer

	ctx    context.Context
	cancel context.CancelFunc
	closed bool

	pending []func() // Events to deliver once the lock is released
}

// New creates a scroller for cfg.TotalPages pages of cfg.EstimatedHeight.
// Nothing renders until the first Refresh, scroll or resize.
func New(r Renderer, cfg Config) (*Scroller, error) {
	if r == nil {
		return nil, ErrNilRenderer
	}
	if cfg.TotalPages < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPageCount, cfg.TotalPages)
	}
	if !validHeight(cfg.EstimatedHeight) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHeight, cfg.EstimatedHeight)
	}
	if cfg.BufferSize < 0 {
		cfg.BufferSize = DefaultBufferSize
	}
	if cfg.MaxConcurrentRenders <= 0 {
		cfg.MaxConcurrentRenders = DefaultMaxConcurrentRenders
	}
	if cfg.QuietPeriod <= 0 {
		cfg.QuietPeriod = DefaultQuietPeriod
	}
	if math.IsNaN(cfg.ViewportHeight) || math.IsInf(cfg.ViewportHeight, 0) {
		cfg.ViewportHeight = 0
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scroller{
		r:              r,
		cfg:            cfg,
		logger:         logging.OrNop(cfg.Logger),
		items:          make([]Item, cfg.TotalPages),
		viewportHeight: max(cfg.ViewportHeight, 0),
		slots:          semaphore.NewWeighted(int64(cfg.MaxConcurrentRenders)),
		ctx:            ctx,
		cancel:         cancel,
	}
	s.resetLayout(cfg.EstimatedHeight)
	return s, nil
}

// Refresh recomputes the window and starts rendering what it needs.
func (s *Scroller) Refresh() {
	s.mu.Lock()
	defer s.unlockAndDispatch()

	if s.closed {
		return
	}
	s.pass(true)
	s.pump()
}

// ScrollTo moves the top of the viewport to top, clamped to the document.
// Rendering of newly exposed pages waits until scrolling has been quiet
// for the configured period. A NaN offset is ignored.
func (s *Scroller) ScrollTo(top float64) {
	s.mu.Lock()
	defer s.unlockAndDispatch()

	if s.closed {
		return
	}
	s.scrollTo(top)
}

// ScrollBy moves the viewport by delta pixels.
func (s *Scroller) ScrollBy(delta float64) {
	s.mu.Lock()
	defer s.unlockAndDispatch()

	if s.closed {
		return
	}
	s.scrollTo(s.scrollTop + delta)
}

// ScrollToPage moves the top of the viewport to the top of page. The page
// does not need to be rendered; its offset is known from the layout.
//
// A smooth scroll goes through the debounced scroll path. An instant jump
// renders the new window right away.
func (s *Scroller) ScrollToPage(page int, smooth bool) error {
	s.mu.Lock()
	defer s.unlockAndDispatch()

	if s.closed {
		return ErrClosed
	}
	if page < 0 || page >= len(s.items) {
		return fmt.Errorf("%w: %d of %d", ErrPageOutOfRange, page, len(s.items))
	}

	top := s.items[page].Top
	if smooth {
		s.scrollTo(top)
		return nil
	}

	s.stopScrolling()
	s.scrollTop = s.clamp(top)
	s.pass(true)
	s.pump()
	return nil
}

// Resize changes the viewport height. NaN and infinite heights are ignored.
func (s *Scroller) Resize(viewportHeight float64) {
	s.mu.Lock()
	defer s.unlockAndDispatch()

	if s.closed || math.IsNaN(viewportHeight) || math.IsInf(viewportHeight, 0) {
		return
	}
	s.viewportHeight = max(viewportHeight, 0)
	s.scrollTop = s.clamp(s.scrollTop)
	s.pass(true)
	s.pump()
}

// Invalidate resets every page to estimatedHeight, for example after a zoom
// or rotation change. Rendered pages are torn down and renders in flight
// are discarded when they finish. The scroll position keeps its relative
// place in the document.
func (s *Scroller) Invalidate(estimatedHeight float64) error {
	if !validHeight(estimatedHeight) {
		return fmt.Errorf("%w: %v", ErrInvalidHeight, estimatedHeight)
	}

	s.mu.Lock()
	defer s.unlockAndDispatch()

	if s.closed {
		return ErrClosed
	}

	var ratio float64
	if total := s.totalHeight(); total > 0 {
		ratio = s.scrollTop / total
	}

	s.gen++
	s.cfg.EstimatedHeight = estimatedHeight
	for i := range s.items {
		it := &s.items[i]
		switch it.State {
		case Rendered:
			s.teardown(it)
		case Queued:
			it.State = Unrendered
		}
	}
	s.resetLayout(estimatedHeight)
	s.scrollTop = s.clamp(ratio * s.totalHeight())

	s.pass(true)
	s.pump()
	return nil
}

// Close stops scheduling and tears down every rendered page. Renders in
// flight finish on their own; their results are torn down on arrival.
func (s *Scroller) Close() {
	s.mu.Lock()
	defer s.unlockAndDispatch()

	if s.closed {
		return
	}
	s.closed = true
	s.stopScrolling()
	s.cancel()

	s.queue = s.queue[:0]
	for i := range s.items {
		it := &s.items[i]
		switch it.State {
		case Rendered:
			s.teardown(it)
		case Queued:
			it.State = Unrendered
		}
	}
}

// scrollTo ignores NaN offsets; infinite ones clamp to the document ends.
// Must be called with s.mu held.
func (s *Scroller) scrollTo(top float64) {
	if math.IsNaN(top) {
		return
	}
	s.scrollTop = s.clamp(top)
	s.scrolling = true
	s.scrollSeq++
	if s.quiet != nil {
		s.quiet.Stop()
	}
	seq := s.scrollSeq
	s.quiet = time.AfterFunc(s.cfg.QuietPeriod, func() { s.settle(seq) })
	s.pass(true)
}

// settle runs once scrolling has been quiet for the configured period.
func (s *Scroller) settle(seq uint64) {
	s.mu.Lock()
	defer s.unlockAndDispatch()

	if s.closed || seq != s.scrollSeq {
		return
	}
	s.scrolling = false
	s.quiet = nil
	s.logger.Debug("scroll: settled", "top", s.scrollTop, "queued", len(s.queue))
	s.pass(true)
	s.pump()
}

// stopScrolling must be called with s.mu held.
func (s *Scroller) stopScrolling() {
	s.scrolling = false
	s.scrollSeq++
	if s.quiet != nil {
		s.quiet.Stop()
		s.quiet = nil
	}
}

// pass diffs the current window against the render states. Pages outside
// the window are torn down or dropped from the queue; when enqueue is set,
// unrendered pages inside it are queued.
// Must be called with s.mu held.
func (s *Scroller) pass(enqueue bool) {
	start, end := s.window()
	s.queue = s.queue[:0]
	for i := range s.items {
		it := &s.items[i]
		in := it.Top < end && it.Bottom() > start
		switch it.State {
		case Unrendered:
			if in && enqueue {
				it.State = Queued
				s.queue = append(s.queue, i)
			}
		case Queued:
			if in {
				s.queue = append(s.queue, i)
			} else {
				it.State = Unrendered
			}
		case Rendered:
			if !in {
				s.teardown(it)
			}
		}
	}
	s.updateVisible()
}

// pump starts queued renders while slots are free.
// Must be called with s.mu held.
func (s *Scroller) pump() {
	if s.scrolling || s.closed {
		return
	}
	for len(s.queue) > 0 && s.slots.TryAcquire(1) {
		page := s.queue[0]
		s.queue = s.queue[1:]
		s.items[page].State = Rendering
		s.inflight++
		s.logger.Debug("scroll: render page", "page", page, "inflight", s.inflight)
		go s.render(s.ctx, page, s.gen)
	}
}

func (s *Scroller) render(ctx context.Context, page int, gen uint64) {
	height, err := s.r.Render(ctx, page)

	s.mu.Lock()
	defer s.unlockAndDispatch()
	s.complete(page, gen, height, err)
}

// complete records the outcome of a render.
// Must be called with s.mu held.
func (s *Scroller) complete(page int, gen uint64, height float64, err error) {
	s.slots.Release(1)
	s.inflight--
	it := &s.items[page]

	if s.closed || gen != s.gen {
		if err == nil {
			s.r.Teardown(page)
		}
		it.State = Unrendered
		if !s.closed {
			s.pass(true)
			s.pump()
		}
		return
	}

	if errors.Is(err, ErrDiscarded) {
		it.State = Unrendered
		s.logger.Debug("scroll: render discarded", "page", page)
		s.pump()
		return
	}

	if err != nil {
		it.State = Unrendered
		s.logger.Warn("scroll: page render failed", "page", page, "error", err)
		s.emit(func() { s.events.failed.emit(PageFailed{Page: page, Err: err}) })
		s.pump()
		return
	}

	it.State = Rendered
	it.Measured = true
	shifted := s.setHeight(page, height)
	measured := it.Height
	s.emit(func() { s.events.rendered.emit(PageRendered{Page: page, Height: measured}) })

	// A shifted layout can expose new pages; otherwise only pages that
	// finished after leaving the window need tearing down.
	s.pass(shifted)
	s.pump()
}

// setHeight replaces the height of page and recomputes the offsets of every
// later page. It reports whether anything moved.
// Must be called with s.mu held.
func (s *Scroller) setHeight(page int, height float64) bool {
	it := &s.items[page]
	if height <= 0 || height == it.Height {
		return false
	}
	it.Height = height
	for i := page + 1; i < len(s.items); i++ {
		prev := &s.items[i-1]
		s.items[i].Top = prev.Top + prev.Height
	}
	return true
}

// teardown must be called with s.mu held.
func (s *Scroller) teardown(it *Item) {
	s.r.Teardown(it.Page)
	it.State = Unrendered
	page := it.Page
	s.emit(func() { s.events.unrendered.emit(PageUnrendered{Page: page}) })
}

// resetLayout must be called with s.mu held.
func (s *Scroller) resetLayout(height float64) {
	for i := range s.items {
		it := &s.items[i]
		it.Page = i
		it.Top = float64(i) * height
		it.Height = height
		it.Measured = false
	}
}

func (s *Scroller) emit(fn func()) {
	s.pending = append(s.pending, fn)
}

// unlockAndDispatch releases s.mu and delivers queued events.
func (s *Scroller) unlockAndDispatch() {
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, fn := range pending {
		fn()
	}
}

func validHeight(h float64) bool {
	return h > 0 && !math.IsInf(h, 0)
}
