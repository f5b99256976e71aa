package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
)

type ctxKey string

const (
	ctxKeyRequestID ctxKey = "request_id"
	ctxKeyCaptureID ctxKey = "capture_id"
)

// basic global logger, JSON to stdout until Init is called.
var logger atomic.Pointer[slog.Logger]

func init() {
	logger.Store(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
}

// Init replaces the global logger. The chat UI owns the terminal, so it
// points the logger at a file; the mock API keeps stdout.
func Init(w io.Writer, debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger.Store(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})))
}

func Logger() *slog.Logger {
	return logger.Load()
}

// WithFields returns a logger with additional fields.
func WithFields(kv ...any) *slog.Logger {
	return Logger().With(kv...)
}

// WithRequestID stores a request_id in the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, requestID)
}

// WithCaptureID stores the id of the current capture session in the context.
func WithCaptureID(ctx context.Context, captureID string) context.Context {
	return context.WithValue(ctx, ctxKeyCaptureID, captureID)
}

// LoggerFromContext adds request_id / capture_id if present.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	l := Logger()
	if reqID, _ := ctx.Value(ctxKeyRequestID).(string); reqID != "" {
		l = l.With("request_id", reqID)
	}
	if capID, _ := ctx.Value(ctxKeyCaptureID).(string); capID != "" {
		l = l.With("capture_id", capID)
	}
	return l
}
