package spillsort

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with spillsort-specific helpers.
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

// NewJSONLogger creates a Logger that outputs JSON-formatted logs to stderr.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	return NewJSONLoggerTo(os.Stderr, level)
}

// NewJSONLoggerTo is NewJSONLogger writing to w.
func NewJSONLoggerTo(w io.Writer, level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs to stderr.
func NewTextLogger(level slog.Level) *Logger {
	return NewTextLoggerTo(os.Stderr, level)
}

// NewTextLoggerTo is NewTextLogger writing to w.
func NewTextLoggerTo(w io.Writer, level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithPhase adds a phase field to the logger.
func (l *Logger) WithPhase(phase Phase) *Logger {
	return &Logger{
		Logger: l.Logger.With("phase", phase.String()),
	}
}

// LogProduce logs the outcome of the produce phase.
func (l *Logger) LogProduce(ctx context.Context, records int64, chunks int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "produce failed",
			"records", records,
			"chunks", chunks,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "input split into chunks",
			"records", records,
			"chunks", chunks,
		)
	}
}

// LogMerge logs the outcome of the merge phase.
func (l *Logger) LogMerge(ctx context.Context, merges int, final uint64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "merge failed",
			"merges", merges,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "chunks merged",
			"merges", merges,
			"final", final,
		)
	}
}

// LogFinalize logs the outcome of the finalize phase.
func (l *Logger) LogFinalize(ctx context.Context, path string, records int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "finalize failed",
			"output", path,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "output written",
			"output", path,
			"records", records,
		)
	}
}

// LogRun logs the outcome of a whole sort run.
func (l *Logger) LogRun(ctx context.Context, input, output string, stats Stats, err error) {
	if err != nil {
		l.ErrorContext(ctx, "sort failed",
			"input", input,
			"output", output,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "sort completed",
			"input", input,
			"output", output,
			"records", stats.Records,
			"chunks", stats.Chunks,
			"merges", stats.Merges,
			"duration", stats.Duration(),
		)
	}
}
