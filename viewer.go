package pdfview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/pdfview/cache"
	"github.com/gogpu/pdfview/internal/parallel"
	"github.com/gogpu/pdfview/scroll"
	"github.com/gogpu/pdfview/surface"
)

// Viewer errors.
var (
	// ErrRender wraps an error returned by the document while rendering.
	ErrRender = errors.New("pdfview: render failed")

	// ErrStaleRender is returned for a render started before a scale or
	// rotation change. Its surface goes back to the pool.
	ErrStaleRender = errors.New("pdfview: stale render")

	// ErrClosed is returned when operating on a closed viewer.
	ErrClosed = errors.New("pdfview: viewer closed")

	// ErrInvalidPage is returned for page indices outside the document.
	ErrInvalidPage = errors.New("pdfview: invalid page")

	// ErrInvalidDocument is returned by New for a nil document or a
	// negative page count.
	ErrInvalidDocument = errors.New("pdfview: invalid document")

	// ErrInvalidScale is returned for scales that are not positive or exceed
	// MaxScale.
	ErrInvalidScale = errors.New("pdfview: invalid scale")

	// ErrNotRendered is returned by Thumbnail for pages with no rendering.
	ErrNotRendered = errors.New("pdfview: page not rendered")
)

// Document is the source of page content. Implementations wrap a PDF
// library; pdfview itself never parses documents.
//
// Methods may be called concurrently for different pages.
type Document interface {
	// NumPages returns the number of pages.
	NumPages() int

	// PageSize returns the unrotated size of page in points.
	PageSize(ctx context.Context, page int) (Size, error)

	// RenderPage paints page into dst, which is cleared and sized to vp.
	RenderPage(ctx context.Context, page int, dst *surface.Surface, vp Viewport) error
}

// letter is the layout size assumed for documents without pages.
var letter = Size{Width: 612, Height: 792}

// Stats is a snapshot of all viewer components.
type Stats struct {
	Scroll scroll.Stats
	Cache  cache.Stats
	Pool   surface.PoolStats
}

// String returns a one-line summary.
func (s Stats) String() string {
	return fmt.Sprintf("Scroll[%d/%d rendered, %d queued, page %d] %s %s",
		s.Scroll.RenderedPages, s.Scroll.TotalPages, s.Scroll.QueuedPages,
		s.Scroll.CurrentPage, s.Cache, s.Pool)
}

// Viewer renders the pages of a Document around a scrolling viewport.
//
// Lock order is scroller, then viewer, then cache, then pool. The scroller
// calls back into the viewer with its lock held, so the viewer never calls
// the scroller while holding its own lock.
//
// Viewer is safe for concurrent use.
type Viewer struct {
	doc      Document
	pool     *surface.Pool
	cache    *cache.PageCache
	scroller *scroll.Scroller
	logger   *slog.Logger
	workers  *parallel.WorkerPool // Scales thumbnail batches

	zoomMu sync.Mutex // Serializes SetScale and SetRotation

	mu       sync.Mutex
	attached map[int]*surface.Surface // Surfaces currently shown, by page
	base     Size                     // Size of the first page
	scale    float64
	rotation int
	gen      uint64 // Bumped on every scale or rotation change
	closed   bool

	stopCleanup context.CancelFunc
}

// New creates a viewer for doc with a viewport of the given height in
// pixels and renders the first window of pages.
//
// The size of the first page sets the initial layout estimate for every
// page. ctx bounds the initial metadata lookup; the viewer runs until Close.
func New(ctx context.Context, doc Document, viewportHeight float64, opts ...Option) (*Viewer, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", ErrInvalidDocument)
	}
	n := doc.NumPages()
	if n < 0 {
		return nil, fmt.Errorf("%w: %d pages", ErrInvalidDocument, n)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = Logger()
	}

	base := letter
	if n > 0 {
		size, err := doc.PageSize(ctx, 0)
		if err != nil {
			return nil, fmt.Errorf("%w: first page size: %w", ErrInvalidDocument, err)
		}
		base = size
	}
	if o.fitWidth > 0 {
		if scale := fitScale(base, o.rotation, o.fitWidth); scale > 0 {
			o.scale = min(scale, MaxScale)
		}
	}

	v := &Viewer{
		doc:      doc,
		logger:   o.logger,
		attached: make(map[int]*surface.Surface),
		base:     base,
		scale:    o.scale,
		rotation: o.rotation,
	}
	v.pool = surface.NewPool(o.maxPoolSize, surface.WithPoolLogger(o.logger))
	v.cache = cache.New(cache.Config{
		MaxPages:       o.maxCacheSize,
		MaxMemoryBytes: int64(o.maxMemoryMB) << 20,
		OnEvict:        v.releaseEvicted,
		Logger:         o.logger,
	})

	scroller, err := scroll.New(renderer{v}, scroll.Config{
		TotalPages:           n,
		EstimatedHeight:      v.estimate(),
		ViewportHeight:       viewportHeight,
		BufferSize:           o.bufferSize,
		MaxConcurrentRenders: o.maxConcurrentRenders,
		QuietPeriod:          o.quietPeriod,
		Logger:               o.logger,
	})
	if err != nil {
		v.pool.Close()
		return nil, err
	}
	v.scroller = scroller
	v.workers = parallel.NewWorkerPool(o.maxConcurrentRenders)

	cleanupCtx, cancel := context.WithCancel(context.Background())
	v.stopCleanup = cancel
	go v.pool.Run(cleanupCtx, o.cleanupInterval)

	v.logger.Info("pdfview: viewer opened",
		"pages", n, "scale", v.scale, "rotation", v.rotation)

	scroller.Refresh()
	return v, nil
}

// fitScale returns the scale at which a page of size spans width pixels.
func fitScale(size Size, rotation, width int) float64 {
	w := size.Width
	if r := normalizeRotation(rotation); r == 90 || r == 270 {
		w = size.Height
	}
	if w <= 0 {
		return 0
	}
	return float64(width) / w
}

// estimate returns the pixel height assumed for unrendered pages.
// Must be called with v.mu held, or before the viewer is shared.
func (v *Viewer) estimate() float64 {
	return v.estimateAt(v.scale, v.rotation)
}

// estimateAt is estimate for a scale and rotation not yet applied.
func (v *Viewer) estimateAt(scale float64, rotation int) float64 {
	return float64(NewViewport(v.base, scale, rotation).Height)
}

// ScrollTo moves the top of the viewport to offset top.
func (v *Viewer) ScrollTo(top float64) { v.scroller.ScrollTo(top) }

// ScrollBy moves the viewport by delta pixels.
func (v *Viewer) ScrollBy(delta float64) { v.scroller.ScrollBy(delta) }

// ScrollToPage moves the top of the viewport to the top of page.
func (v *Viewer) ScrollToPage(page int, smooth bool) error {
	if err := v.scroller.ScrollToPage(page, smooth); err != nil {
		switch {
		case errors.Is(err, scroll.ErrPageOutOfRange):
			return fmt.Errorf("%w: %w", ErrInvalidPage, err)
		case errors.Is(err, scroll.ErrClosed):
			return ErrClosed
		}
		return err
	}
	return nil
}

// Resize changes the viewport height.
func (v *Viewer) Resize(viewportHeight float64) { v.scroller.Resize(viewportHeight) }

// VisiblePages returns the pages intersecting the viewport.
func (v *Viewer) VisiblePages() []int { return v.scroller.VisiblePages() }

// CenterPage returns the page under the middle of the viewport.
func (v *Viewer) CenterPage() int { return v.scroller.CenterPage() }

// ScrollTop returns the offset of the top of the viewport.
func (v *Viewer) ScrollTop() float64 { return v.scroller.ScrollTop() }

// ViewportHeight returns the visible height.
func (v *Viewer) ViewportHeight() float64 { return v.scroller.ViewportHeight() }

// TotalHeight returns the laid out height of the whole document.
func (v *Viewer) TotalHeight() float64 { return v.scroller.TotalHeight() }

// Layout returns the offsets and render states of every page.
func (v *Viewer) Layout() []scroll.Item { return v.scroller.Items() }

// OnVisibleChange registers fn for visibility changes.
func (v *Viewer) OnVisibleChange(fn func(scroll.VisibleChange)) (cancel func()) {
	return v.scroller.OnVisibleChange(fn)
}

// OnPageRendered registers fn for completed renders. Surface returns the
// surface to display.
func (v *Viewer) OnPageRendered(fn func(scroll.PageRendered)) (cancel func()) {
	return v.scroller.OnPageRendered(fn)
}

// OnPageFailed registers fn for failed renders.
func (v *Viewer) OnPageFailed(fn func(scroll.PageFailed)) (cancel func()) {
	return v.scroller.OnPageFailed(fn)
}

// OnPageUnrendered registers fn for pages taken off screen.
func (v *Viewer) OnPageUnrendered(fn func(scroll.PageUnrendered)) (cancel func()) {
	return v.scroller.OnPageUnrendered(fn)
}

// Surface returns the surface attached to page, if the page is rendered.
// The surface is only valid until the page is unrendered; callers that
// keep pixels longer must copy them.
func (v *Viewer) Surface(page int) (*surface.Surface, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	s, ok := v.attached[page]
	return s, ok
}

// Scale returns the current pixels-per-point scale.
func (v *Viewer) Scale() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.scale
}

// Rotation returns the current page rotation in degrees.
func (v *Viewer) Rotation() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.rotation
}

// SetScale changes the zoom. Cached pages are dropped, the layout is reset
// to the new estimate and renders in flight are discarded. Scales must be
// positive and at most MaxScale.
func (v *Viewer) SetScale(scale float64) error {
	if !validScale(scale) {
		return fmt.Errorf("%w: %v", ErrInvalidScale, scale)
	}
	return v.reconfigure(func(_ float64, rotation int) (float64, int) {
		return scale, rotation
	})
}

// SetRotation changes the page rotation, rounded to a quarter turn.
func (v *Viewer) SetRotation(degrees int) error {
	rotation := normalizeRotation(degrees)
	return v.reconfigure(func(scale float64, _ int) (float64, int) {
		return scale, rotation
	})
}

// reconfigure switches to the scale and rotation returned by next and, if
// they differ from the current ones, invalidates every rendering. Viewer
// state only changes once the new layout estimate is known to be valid.
func (v *Viewer) reconfigure(next func(scale float64, rotation int) (float64, int)) error {
	v.zoomMu.Lock()
	defer v.zoomMu.Unlock()

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrClosed
	}
	scale, rotation := next(v.scale, v.rotation)
	if scale == v.scale && rotation == v.rotation {
		v.mu.Unlock()
		return nil
	}
	height := v.estimateAt(scale, rotation)
	if !validScale(scale) || height < 1 {
		v.mu.Unlock()
		return fmt.Errorf("%w: %v at %d°", ErrInvalidScale, scale, rotation)
	}
	v.gen++
	v.scale, v.rotation = scale, rotation
	v.cache.Clear()
	v.logger.Debug("pdfview: view changed",
		"scale", scale, "rotation", rotation, "estimate", height)
	v.mu.Unlock()

	// zoomMu keeps Close out, so the scroller is still open here.
	return v.scroller.Invalidate(height)
}

// Thumbnail returns a copy of a rendered or cached page scaled down to at
// most maxWidth pixels wide. It does not affect cache recency. The returned
// surface belongs to the caller.
func (v *Viewer) Thumbnail(page int, maxWidth int) (*surface.Surface, error) {
	thumbs, err := v.thumbnails([]int{page}, maxWidth)
	if err != nil {
		return nil, err
	}
	thumb, ok := thumbs[page]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNotRendered, page)
	}
	return thumb, nil
}

// Thumbnails scales every rendered or cached page of pages in parallel, as
// Thumbnail does. Pages without a rendering are left out of the result.
func (v *Viewer) Thumbnails(pages []int, maxWidth int) (map[int]*surface.Surface, error) {
	return v.thumbnails(pages, maxWidth)
}

// thumbnails copies the sources under the viewer lock and scales the copies
// after releasing it, so resampling never holds up scrolling or rendering.
func (v *Viewer) thumbnails(pages []int, maxWidth int) (map[int]*surface.Surface, error) {
	if maxWidth <= 0 {
		return nil, fmt.Errorf("pdfview: invalid thumbnail width %d", maxWidth)
	}
	total := v.scroller.TotalPages()
	for _, page := range pages {
		if page < 0 || page >= total {
			return nil, fmt.Errorf("%w: %d", ErrInvalidPage, page)
		}
	}

	type job struct {
		page     int
		src, dst *surface.Surface
	}
	var jobs []job

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return nil, ErrClosed
	}
	for _, page := range pages {
		src, ok := v.source(page)
		if !ok {
			continue
		}
		w, h := surface.FitWidth(src, maxWidth)
		jobs = append(jobs, job{page: page, src: src.Clone(), dst: surface.New(w, h)})
	}
	v.mu.Unlock()

	errs := make([]error, len(jobs))
	work := make([]func(), len(jobs))
	for i, j := range jobs {
		work[i] = func() { errs[i] = surface.Scale(j.dst, j.src, surface.QualityBalanced) }
	}
	v.workers.ExecuteAll(work)

	thumbs := make(map[int]*surface.Surface, len(jobs))
	for i, j := range jobs {
		if errs[i] != nil {
			return nil, fmt.Errorf("pdfview: thumbnail of page %d: %w", j.page, errs[i])
		}
		thumbs[j.page] = j.dst
	}
	return thumbs, nil
}

// source returns the attached or cached surface of page without touching
// cache recency. Must be called with v.mu held.
func (v *Viewer) source(page int) (*surface.Surface, bool) {
	if s, ok := v.attached[page]; ok {
		return s, true
	}
	return v.cache.Peek(page)
}

// ResizeCache changes the page limit and memory budget of the cache.
// Non-positive values keep the current limit.
func (v *Viewer) ResizeCache(maxPages, maxMemoryMB int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cache.Resize(maxPages, int64(maxMemoryMB)<<20)
}

// Stats returns a snapshot of the scroller, cache and pool.
func (v *Viewer) Stats() Stats {
	return Stats{
		Scroll: v.scroller.Stats(),
		Cache:  v.cache.Stats(),
		Pool:   v.pool.Stats(),
	}
}

// Close stops rendering and releases every surface. Renders in flight
// finish on their own and their surfaces are destroyed.
func (v *Viewer) Close() {
	v.zoomMu.Lock()
	defer v.zoomMu.Unlock()

	v.scroller.Close()

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	v.cache.Clear()
	v.pool.Close()
	v.mu.Unlock()

	v.stopCleanup()
	v.workers.Close()
	v.logger.Info("pdfview: viewer closed")
}

// renderer adapts a Viewer to scroll.Renderer.
type renderer struct{ v *Viewer }

func (r renderer) Render(ctx context.Context, page int) (float64, error) {
	return r.v.render(ctx, page)
}

func (r renderer) Teardown(page int) {
	r.v.teardown(page)
}

// render shows page from the cache, or renders it into a pooled surface.
func (v *Viewer) render(ctx context.Context, page int) (float64, error) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return 0, fmt.Errorf("%w: %w", ErrClosed, scroll.ErrDiscarded)
	}
	gen, scale, rotation := v.gen, v.scale, v.rotation
	if s, ok := v.cache.Get(page); ok {
		v.attach(page, s)
		v.mu.Unlock()
		v.logger.Debug("pdfview: cache hit", "page", page)
		return float64(s.Height()), nil
	}
	v.mu.Unlock()

	size, err := v.doc.PageSize(ctx, page)
	if err != nil {
		return 0, fmt.Errorf("%w: page %d: %w", ErrRender, page, err)
	}
	vp := NewViewport(size, scale, rotation)
	dst := v.pool.Acquire(vp.Width, vp.Height)
	if err := v.doc.RenderPage(ctx, page, dst, vp); err != nil {
		v.pool.Release(dst)
		return 0, fmt.Errorf("%w: page %d: %w", ErrRender, page, err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed || gen != v.gen {
		v.pool.Release(dst)
		return 0, fmt.Errorf("%w: page %d: %w", ErrStaleRender, page, scroll.ErrDiscarded)
	}
	v.attach(page, dst)
	if !v.cache.Set(page, dst) {
		v.logger.Debug("pdfview: page not cached", "page", page, "bytes", cache.EstimateSize(dst))
	}
	return float64(vp.Height), nil
}

// teardown detaches page and recycles its surface unless the cache keeps it.
func (v *Viewer) teardown(page int) {
	v.mu.Lock()
	defer v.mu.Unlock()

	s, ok := v.attached[page]
	if !ok {
		return
	}
	delete(v.attached, page)
	if cached, ok := v.cache.Peek(page); ok && cached == s {
		return
	}
	v.pool.Release(s)
}

// attach must be called with v.mu held.
func (v *Viewer) attach(page int, s *surface.Surface) {
	if old, ok := v.attached[page]; ok && old != s {
		delete(v.attached, page)
		if cached, ok := v.cache.Peek(page); !ok || cached != old {
			v.pool.Release(old)
		}
	}
	v.attached[page] = s
}

// releaseEvicted is the cache eviction hook. Every cache mutation happens
// with v.mu held, so it runs with v.mu held too.
func (v *Viewer) releaseEvicted(page int, s *surface.Surface) {
	if v.attached[page] == s {
		return
	}
	v.pool.Release(s)
}
