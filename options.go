package pdfview

import (
	"log/slog"
	"time"

	"github.com/gogpu/pdfview/cache"
	"github.com/gogpu/pdfview/scroll"
	"github.com/gogpu/pdfview/surface"
)

// Default viewer configuration.
const (
	// DefaultPoolCleanupInterval is how often idle pooled surfaces are trimmed.
	DefaultPoolCleanupInterval = 30 * time.Second

	// DefaultScale renders one pixel per point.
	DefaultScale = 1.0
)

// Option configures a Viewer during creation.
// Use functional options to customize Viewer behavior.
//
// Example:
//
//	// Default configuration
//	v, err := pdfview.New(ctx, doc, 800)
//
//	// Larger cache, rendered at 2x for a high-density display
//	v, err := pdfview.New(ctx, doc, 800,
//		pdfview.WithMaxCacheSize(20),
//		pdfview.WithScale(2),
//	)
type Option func(*options)

// options holds optional configuration for Viewer creation.
type options struct {
	bufferSize           int
	maxCacheSize         int
	maxMemoryMB          int
	maxPoolSize          int
	maxConcurrentRenders int
	quietPeriod          time.Duration
	cleanupInterval      time.Duration
	scale                float64
	rotation             int
	fitWidth             int
	logger               *slog.Logger
}

// defaultOptions returns the default viewer options.
func defaultOptions() options {
	return options{
		bufferSize:           scroll.DefaultBufferSize,
		maxCacheSize:         cache.DefaultMaxPages,
		maxMemoryMB:          cache.DefaultMaxMemoryMB,
		maxPoolSize:          surface.DefaultMaxPoolSize,
		maxConcurrentRenders: scroll.DefaultMaxConcurrentRenders,
		quietPeriod:          scroll.DefaultQuietPeriod,
		cleanupInterval:      DefaultPoolCleanupInterval,
		scale:                DefaultScale,
		logger:               nil, // Will be set to Logger() if nil
	}
}

// WithBufferSize sets how many estimated page heights are rendered above
// and below the viewport. Zero renders only visible pages; negative values
// keep the default.
func WithBufferSize(pages int) Option {
	return func(o *options) {
		if pages >= 0 {
			o.bufferSize = pages
		}
	}
}

// WithMaxCacheSize sets the maximum number of cached pages.
func WithMaxCacheSize(pages int) Option {
	return func(o *options) {
		if pages > 0 {
			o.maxCacheSize = pages
		}
	}
}

// WithMaxMemoryMB sets the memory budget of the page cache in megabytes.
func WithMaxMemoryMB(mb int) Option {
	return func(o *options) {
		if mb > 0 {
			o.maxMemoryMB = mb
		}
	}
}

// WithMaxPoolSize sets how many idle surfaces the pool keeps.
func WithMaxPoolSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxPoolSize = n
		}
	}
}

// WithMaxConcurrentRenders bounds the number of page renders in flight.
func WithMaxConcurrentRenders(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxConcurrentRenders = n
		}
	}
}

// WithScrollQuietPeriod sets how long scrolling must pause before newly
// exposed pages render.
func WithScrollQuietPeriod(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.quietPeriod = d
		}
	}
}

// WithPoolCleanupInterval sets how often idle pooled surfaces are trimmed.
func WithPoolCleanupInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.cleanupInterval = d
		}
	}
}

// WithScale sets the initial pixels-per-point scale. Scales outside
// (0, MaxScale] are ignored.
func WithScale(scale float64) Option {
	return func(o *options) {
		if validScale(scale) {
			o.scale = scale
		}
	}
}

// WithRotation sets the initial page rotation in degrees. It is rounded to
// the nearest quarter turn.
func WithRotation(degrees int) Option {
	return func(o *options) {
		o.rotation = normalizeRotation(degrees)
	}
}

// WithFitWidth derives the scale from the width of the first page so that
// it spans width pixels. It overrides WithScale.
func WithFitWidth(width int) Option {
	return func(o *options) {
		if width > 0 {
			o.fitWidth = width
		}
	}
}

// WithLogger sets the logger for the viewer and its components.
// Without it the viewer uses [Logger] at creation time.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}
