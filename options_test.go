package pdfview

import (
	"log/slog"
	"math"
	"testing"
	"time"
)

func TestDefaultOptions(t *testing.T) {
	o := defaultOptions()
	if o.bufferSize != 3 || o.maxCacheSize != 10 || o.maxMemoryMB != 50 || o.maxPoolSize != 20 {
		t.Errorf("defaultOptions() = %+v", o)
	}
	if o.maxConcurrentRenders != 2 || o.quietPeriod != 150*time.Millisecond {
		t.Errorf("defaultOptions() scheduling = %d, %v", o.maxConcurrentRenders, o.quietPeriod)
	}
	if o.cleanupInterval != 30*time.Second || o.scale != 1 || o.rotation != 0 || o.fitWidth != 0 {
		t.Errorf("defaultOptions() = %+v", o)
	}
	if o.logger != nil {
		t.Error("default logger should be nil until New resolves it")
	}
}

func TestOptionsApply(t *testing.T) {
	logger := slog.Default()
	o := defaultOptions()
	for _, opt := range []Option{
		WithBufferSize(0),
		WithMaxCacheSize(4),
		WithMaxMemoryMB(8),
		WithMaxPoolSize(6),
		WithMaxConcurrentRenders(5),
		WithScrollQuietPeriod(time.Second),
		WithPoolCleanupInterval(time.Minute),
		WithScale(2.5),
		WithRotation(-90),
		WithFitWidth(640),
		WithLogger(logger),
	} {
		opt(&o)
	}

	want := options{
		bufferSize:           0,
		maxCacheSize:         4,
		maxMemoryMB:          8,
		maxPoolSize:          6,
		maxConcurrentRenders: 5,
		quietPeriod:          time.Second,
		cleanupInterval:      time.Minute,
		scale:                2.5,
		rotation:             270,
		fitWidth:             640,
		logger:               logger,
	}
	if o != want {
		t.Errorf("options = %+v, want %+v", o, want)
	}
}

func TestOptionsIgnoreInvalidValues(t *testing.T) {
	o := defaultOptions()
	for _, opt := range []Option{
		WithBufferSize(-1),
		WithMaxCacheSize(0),
		WithMaxMemoryMB(-3),
		WithMaxPoolSize(0),
		WithMaxConcurrentRenders(-1),
		WithScrollQuietPeriod(0),
		WithPoolCleanupInterval(-time.Second),
		WithScale(math.NaN()),
		WithScale(0),
		WithFitWidth(-10),
	} {
		opt(&o)
	}
	if o != defaultOptions() {
		t.Errorf("invalid values changed options: %+v", o)
	}
}

func TestFitScale(t *testing.T) {
	size := Size{Width: 200, Height: 400}
	if got := fitScale(size, 0, 100); got != 0.5 {
		t.Errorf("fitScale(0°) = %v, want 0.5", got)
	}
	if got := fitScale(size, 90, 100); got != 0.25 {
		t.Errorf("fitScale(90°) = %v, want 0.25", got)
	}
	if got := fitScale(Size{}, 0, 100); got != 0 {
		t.Errorf("fitScale(empty page) = %v, want 0", got)
	}
}
