package pdfview

import (
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/pdfview/internal/logging"
)

// loggerPtr stores the package logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(logging.Nop())
}

// SetLogger configures the default logger for viewers created without
// [WithLogger]. By default, pdfview produces no log output.
//
// SetLogger is safe for concurrent use. Pass nil to restore the silent
// default. Viewers pick up the logger when they are created.
//
// Log levels used by pdfview:
//   - [slog.LevelDebug]: scheduling decisions, cache hits and evictions
//   - [slog.LevelInfo]: viewer lifecycle
//   - [slog.LevelWarn]: failed renders, surfaces released twice
//
// Example:
//
//	pdfview.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	loggerPtr.Store(logging.OrNop(l))
}

// Logger returns the default logger used by pdfview.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
