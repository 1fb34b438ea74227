package bloom

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/bloom/internal/shader"
	"github.com/gogpu/bloom/rendergraph"
)

// nopHandler is a slog.Handler that silently discards all log records.
// The Enabled method returns false so the caller skips message formatting
// entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for bloom and its sub-packages.
// By default, bloom produces no log output. Call SetLogger to enable logging.
//
// SetLogger is safe for concurrent use. Pass nil to restore the default
// silent behavior.
//
// Log levels used by bloom:
//   - [slog.LevelDebug]: per-frame diagnostics (pass sequence, buffer flushes,
//     missing input)
//   - [slog.LevelInfo]: lifecycle events (resize, node registration, shader reload)
//   - [slog.LevelWarn]: recoverable issues (shader reload failed)
//   - [slog.LevelError]: graph errors (cycle detected, node execution failed)
//
// Example:
//
//	bloom.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
	rendergraph.SetLogger(l)
	shader.SetLogger(l)
}

// Logger returns the current logger used by bloom.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
