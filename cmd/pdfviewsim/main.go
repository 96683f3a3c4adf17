// Command pdfviewsim scrolls through a generated document and reports how
// the viewer's resources behave.
//
// It scrolls from the top to the bottom in viewport-sized steps, jumps back
// to the middle, and prints scroller, cache and pool statistics after each
// phase. With -output, the page under the viewport center is saved as PNG.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/pdfview"
	"github.com/gogpu/pdfview/internal/synthetic"
	"github.com/gogpu/pdfview/scroll"
)

func main() {
	var (
		pages       = flag.Int("pages", 1000, "number of pages")
		viewport    = flag.Float64("viewport", 800, "viewport height in pixels")
		scale       = flag.Float64("scale", 1, "pixels per point")
		fitWidth    = flag.Int("fit-width", 0, "fit pages to this width in pixels (overrides -scale)")
		buffer      = flag.Int("buffer", scroll.DefaultBufferSize, "pages rendered above and below the viewport")
		cacheSize   = flag.Int("cache", 10, "maximum cached pages")
		memory      = flag.Int("memory", 50, "cache memory budget in MB")
		poolSize    = flag.Int("pool", 20, "maximum idle pooled surfaces")
		concurrency = flag.Int("concurrency", 2, "maximum renders in flight")
		delay       = flag.Duration("delay", 5*time.Millisecond, "simulated render time per page")
		step        = flag.Float64("step", 0, "scroll step in pixels (default: one viewport)")
		output      = flag.String("output", "", "save the page under the viewport center to this PNG file")
		thumb       = flag.String("thumbnail", "", "save a 160px thumbnail of the center page to this PNG file")
		verbose     = flag.Bool("v", false, "log scheduling decisions")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	pdfview.SetLogger(logger)

	p := message.NewPrinter(language.English)
	doc := synthetic.New(*pages, synthetic.WithRenderDelay(*delay))

	opts := []pdfview.Option{
		pdfview.WithBufferSize(*buffer),
		pdfview.WithMaxCacheSize(*cacheSize),
		pdfview.WithMaxMemoryMB(*memory),
		pdfview.WithMaxPoolSize(*poolSize),
		pdfview.WithMaxConcurrentRenders(*concurrency),
		pdfview.WithScale(*scale),
	}
	if *fitWidth > 0 {
		opts = append(opts, pdfview.WithFitWidth(*fitWidth))
	}

	ctx := context.Background()
	v, err := pdfview.New(ctx, doc, *viewport, opts...)
	if err != nil {
		log.Fatalf("Failed to open viewer: %v", err)
	}
	defer v.Close()

	v.OnPageFailed(func(ev scroll.PageFailed) {
		logger.Warn("page failed", "page", ev.Page, "error", ev.Err)
	})

	start := time.Now()
	waitIdle(v)
	report(p, "open", v, start)

	if *step <= 0 {
		*step = max(*viewport, 1)
	}
	start = time.Now()
	for !atBottom(v) {
		v.ScrollBy(*step)
		waitIdle(v)
	}
	report(p, "scroll to bottom", v, start)

	start = time.Now()
	if err := v.ScrollToPage(*pages/2, false); err != nil && *pages > 0 {
		log.Fatalf("Failed to jump: %v", err)
	}
	waitIdle(v)
	report(p, "jump to middle", v, start)

	p.Printf("%d pages painted for a %d-page document\n", doc.Renders(), *pages)

	center := v.CenterPage()
	if *output != "" && center >= 0 {
		if s, ok := v.Surface(center); ok {
			if err := s.SavePNG(*output); err != nil {
				log.Fatalf("Failed to save: %v", err)
			}
			log.Printf("Page %d saved to %s (%dx%d)\n", center+1, *output, s.Width(), s.Height())
		}
	}
	if *thumb != "" && center >= 0 {
		s, err := v.Thumbnail(center, 160)
		if err != nil {
			log.Fatalf("Failed to build thumbnail: %v", err)
		}
		if err := s.SavePNG(*thumb); err != nil {
			log.Fatalf("Failed to save thumbnail: %v", err)
		}
		log.Printf("Thumbnail of page %d saved to %s\n", center+1, *thumb)
	}
}

// waitIdle blocks until scrolling has settled and no render is queued or
// in flight.
func waitIdle(v *pdfview.Viewer) {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		st := v.Stats().Scroll
		if !st.IsScrolling && !st.IsRendering && st.QueuedPages == 0 {
			return
		}
	}
}

// atBottom allows half a pixel of rounding in the clamped offset.
func atBottom(v *pdfview.Viewer) bool {
	return v.ScrollTop()+v.ViewportHeight() >= v.TotalHeight()-0.5
}

func report(p *message.Printer, phase string, v *pdfview.Viewer, start time.Time) {
	st := v.Stats()
	p.Printf("%-16s %8v  visible %v  current page %d\n",
		phase, time.Since(start).Round(time.Millisecond), v.VisiblePages(), st.Scroll.CurrentPage+1)
	p.Printf("  scroll: %d of %d pages rendered, %d queued\n",
		st.Scroll.RenderedPages, st.Scroll.TotalPages, st.Scroll.QueuedPages)
	p.Printf("  cache:  %d pages, %d bytes, %.1f%% hits, %d evictions, %d bytes freed\n",
		st.Cache.Entries, st.Cache.Bytes, st.Cache.HitRate*100, st.Cache.Evictions, st.Cache.BytesFreed)
	p.Printf("  pool:   %d idle, %d in use, %d created, %d reused (%.1f%%), %d destroyed\n",
		st.Pool.Idle, st.Pool.InUse, st.Pool.Created, st.Pool.Reused, st.Pool.ReuseRate*100, st.Pool.Destroyed)
}
