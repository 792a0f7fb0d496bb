package sneer

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with embedding-specific context.
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

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithMethod adds a method field to the logger.
func (l *Logger) WithMethod(m Method) *Logger {
	return &Logger{
		Logger: l.Logger.With("method", m.String()),
	}
}

// WithRows adds a row count field to the logger.
func (l *Logger) WithRows(n int) *Logger {
	return &Logger{
		Logger: l.Logger.With("rows", n),
	}
}

// WithPerplexity adds a perplexity field to the logger.
func (l *Logger) WithPerplexity(p float64) *Logger {
	return &Logger{
		Logger: l.Logger.With("perplexity", p),
	}
}

// WithIteration adds an iteration field to the logger.
func (l *Logger) WithIteration(i int) *Logger {
	return &Logger{
		Logger: l.Logger.With("iteration", i),
	}
}

// LogBuild logs a probability build.
func (l *Logger) LogBuild(ctx context.Context, rows, failed int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "probability build failed",
			"rows", rows,
			"error", err,
		)
		return
	}
	if failed > 0 {
		l.WarnContext(ctx, "probability build completed with unconverged rows",
			"rows", rows,
			"failed", failed,
		)
	} else {
		l.DebugContext(ctx, "probability build completed",
			"rows", rows,
		)
	}
}

// LogStep logs one optimization iteration.
func (l *Logger) LogStep(ctx context.Context, iteration int, cost float64, accepted bool) {
	l.DebugContext(ctx, "optimization step",
		"iteration", iteration,
		"cost", cost,
		"accepted", accepted,
	)
}

// LogRebuild logs a probability rebuild under a multiscale schedule.
func (l *Logger) LogRebuild(ctx context.Context, pass int, target float64, failed int) {
	l.InfoContext(ctx, "probability rebuild completed",
		"pass", pass,
		"perplexity", target,
		"failed", failed,
	)
}

// LogCheckpoint logs a checkpoint save.
func (l *Logger) LogCheckpoint(ctx context.Context, path string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "checkpoint failed",
			"path", path,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "checkpoint saved",
			"path", path,
		)
	}
}

// LogEmbed logs a completed embedding run.
func (l *Logger) LogEmbed(ctx context.Context, iterations, accepted, rejected int, cost float64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "embedding failed",
			"iterations", iterations,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "embedding completed",
			"iterations", iterations,
			"accepted", accepted,
			"rejected", rejected,
			"cost", cost,
		)
	}
}
