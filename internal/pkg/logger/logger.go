package logger

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type ctxKey struct{}

// Logger wraps zerolog with trace-context helpers.
type Logger struct {
	zerolog.Logger
}

// New creates a logger at the given level. When pretty is set, output is
// human-readable console format instead of JSON.
func New(level string, pretty bool) *Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	var l zerolog.Logger
	if pretty {
		l = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		l = zerolog.New(os.Stderr)
	}
	l = l.Level(lvl).With().Timestamp().Logger()

	return &Logger{Logger: l}
}

// WithTraceID stores a trace identifier on the context for downstream
// WithTraceContext calls.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, traceID)
}

// WithTraceContext returns a logger enriched with the trace id carried by
// ctx, if any.
func (l *Logger) WithTraceContext(ctx context.Context) *zerolog.Logger {
	if traceID, ok := ctx.Value(ctxKey{}).(string); ok && traceID != "" {
		sub := l.With().Str("trace_id", traceID).Logger()
		return &sub
	}
	return &l.Logger
}
