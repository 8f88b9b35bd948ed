package recgo

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/hupe1980/recgo/index"
	"github.com/hupe1980/recgo/model"
)

// Logger wraps slog.Logger with recgo-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that writes JSON-formatted logs to w.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(w io.Writer, level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewTextLogger creates a Logger that writes human-readable text logs to w.
func NewTextLogger(w io.Writer, level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	}))
}

// WithMode adds the intent mode to the logger.
func (l *Logger) WithMode(mode model.Mode) *Logger {
	return &Logger{Logger: l.Logger.With("mode", string(mode))}
}

// WithK adds a k (selection size) field to the logger.
func (l *Logger) WithK(k int) *Logger {
	return &Logger{Logger: l.Logger.With("k", k)}
}

// WithCount adds a count field to the logger.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{Logger: l.Logger.With("count", count)}
}

// WithIndexKind adds the index backend to the logger.
func (l *Logger) WithIndexKind(kind index.Kind) *Logger {
	return &Logger{Logger: l.Logger.With("index", string(kind))}
}

// LogRecommend logs a finished recommendation request.
func (l *Logger) LogRecommend(ctx context.Context, mode model.Mode, results int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "recommend failed",
			"mode", string(mode),
			"elapsed", elapsed,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "recommend completed",
		"mode", string(mode),
		"results", results,
		"elapsed", elapsed,
	)
}

// LogSearch logs a retrieval call.
func (l *Logger) LogSearch(ctx context.Context, topN, found int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"top_n", topN,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "search completed",
		"top_n", topN,
		"results", found,
	)
}

// LogIndexBuild logs an index build.
func (l *Logger) LogIndexBuild(ctx context.Context, kind index.Kind, items int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "index build failed",
			"index", string(kind),
			"items", items,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "index built",
		"index", string(kind),
		"items", items,
		"elapsed", elapsed,
	)
}

// LogIndexSwap logs the publication of a new index.
func (l *Logger) LogIndexSwap(ctx context.Context, from, to index.Kind) {
	l.InfoContext(ctx, "index swapped",
		"from", string(from),
		"to", string(to),
	)
}

// LogArtifactLoad logs the loading of the static context.
func (l *Logger) LogArtifactLoad(ctx context.Context, items, tags, dim int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "artifact load failed", "error", err)
		return
	}
	l.InfoContext(ctx, "artifacts loaded",
		"items", items,
		"tags", tags,
		"dimension", dim,
		"elapsed", elapsed,
	)
}

// LogEmptyResult logs a request whose candidates were all hard-filtered.
func (l *Logger) LogEmptyResult(ctx context.Context, mode model.Mode, retrieved int) {
	l.InfoContext(ctx, "all candidates filtered",
		"mode", string(mode),
		"retrieved", retrieved,
	)
}
