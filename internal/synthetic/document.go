// Package synthetic provides a generated Document for demos and tests.
//
// Each page is a solid tinted background with a border and a "Page N" label,
// so rendered surfaces are cheap to produce and easy to tell apart.
package synthetic

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync/atomic"
	"time"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/gogpu/pdfview"
	"github.com/gogpu/pdfview/surface"
)

// Errors returned by Document.
var (
	// ErrPageRange is returned for page indices outside the document.
	ErrPageRange = errors.New("synthetic: page out of range")

	// ErrBrokenPage is returned when rendering a page marked as failing.
	ErrBrokenPage = errors.New("synthetic: broken page")
)

// Letter is the US Letter page size in points.
var Letter = pdfview.Size{Width: 612, Height: 792}

// palette tints consecutive pages.
var palette = []color.RGBA{
	{0xfa, 0xfa, 0xf5, 0xff},
	{0xf0, 0xf4, 0xfa, 0xff},
	{0xf5, 0xfa, 0xf0, 0xff},
	{0xfa, 0xf0, 0xf4, 0xff},
}

var (
	borderColor = color.RGBA{0x60, 0x60, 0x60, 0xff}
	labelColor  = image.NewUniform(color.RGBA{0x20, 0x20, 0x20, 0xff})
)

// Option configures a Document.
type Option func(*Document)

// WithPageSize gives every page the same size.
func WithPageSize(size pdfview.Size) Option {
	return func(d *Document) {
		d.sizeOf = func(int) pdfview.Size { return size }
	}
}

// WithSizeFunc sets a size per page.
func WithSizeFunc(fn func(page int) pdfview.Size) Option {
	return func(d *Document) {
		if fn != nil {
			d.sizeOf = fn
		}
	}
}

// WithRenderDelay makes every render take at least d.
func WithRenderDelay(delay time.Duration) Option {
	return func(d *Document) {
		d.delay = delay
	}
}

// WithFailingPages makes rendering the given pages fail with ErrBrokenPage.
func WithFailingPages(pages ...int) Option {
	return func(d *Document) {
		for _, p := range pages {
			d.failing[p] = true
		}
	}
}

// Document is a generated multi-page document.
//
// Document is safe for concurrent use.
type Document struct {
	pages   int
	sizeOf  func(page int) pdfview.Size
	delay   time.Duration
	failing map[int]bool

	renders atomic.Int64
}

// New creates a document of n Letter pages.
func New(n int, opts ...Option) *Document {
	d := &Document{
		pages:   n,
		sizeOf:  func(int) pdfview.Size { return Letter },
		failing: make(map[int]bool),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NumPages returns the number of pages.
func (d *Document) NumPages() int {
	return d.pages
}

// PageSize returns the size of page in points.
func (d *Document) PageSize(_ context.Context, page int) (pdfview.Size, error) {
	if page < 0 || page >= d.pages {
		return pdfview.Size{}, fmt.Errorf("%w: %d", ErrPageRange, page)
	}
	return d.sizeOf(page), nil
}

// RenderPage paints page into dst.
func (d *Document) RenderPage(ctx context.Context, page int, dst *surface.Surface, vp pdfview.Viewport) error {
	if page < 0 || page >= d.pages {
		return fmt.Errorf("%w: %d", ErrPageRange, page)
	}
	if d.delay > 0 {
		timer := time.NewTimer(d.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	if d.failing[page] {
		return fmt.Errorf("%w: %d", ErrBrokenPage, page)
	}

	img := dst.Image()
	if img == nil {
		return surface.ErrDisposed
	}
	d.renders.Add(1)

	bounds := img.Bounds()
	draw.Draw(img, bounds, image.NewUniform(palette[page%len(palette)]), image.Point{}, draw.Src)
	drawBorder(img, max(1, int(vp.Scale)))
	drawLabel(img, fmt.Sprintf("Page %d", page+1))
	return nil
}

// Renders returns the number of pages painted so far.
func (d *Document) Renders() int64 {
	return d.renders.Load()
}

func drawBorder(img *image.RGBA, width int) {
	b := img.Bounds()
	src := image.NewUniform(borderColor)
	for _, r := range []image.Rectangle{
		image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+width),
		image.Rect(b.Min.X, b.Max.Y-width, b.Max.X, b.Max.Y),
		image.Rect(b.Min.X, b.Min.Y, b.Min.X+width, b.Max.Y),
		image.Rect(b.Max.X-width, b.Min.Y, b.Max.X, b.Max.Y),
	} {
		draw.Draw(img, r.Intersect(b), src, image.Point{}, draw.Src)
	}
}

// drawLabel centers text on the page. Labels that do not fit are clipped.
func drawLabel(img *image.RGBA, text string) {
	face := basicfont.Face7x13
	b := img.Bounds()
	width := font.MeasureString(face, text).Ceil()
	ascent := face.Metrics().Ascent.Ceil()

	d := &font.Drawer{
		Dst:  img,
		Src:  labelColor,
		Face: face,
		Dot:  fixed.P(b.Min.X+(b.Dx()-width)/2, b.Min.Y+(b.Dy()+ascent)/2),
	}
	d.DrawString(text)
}
