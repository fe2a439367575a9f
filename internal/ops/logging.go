package ops

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/metronon/likewise/internal/config"
)

// Logger is a structured logger wrapper
type Logger struct {
	*slog.Logger
	level  slog.Level
	format string
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a new structured logger based on config
func NewLogger(cfg *config.Logging) *Logger {
	return NewLoggerWithWriter(cfg, os.Stdout)
}

// NewLoggerWithWriter creates a logger with a custom writer
func NewLoggerWithWriter(cfg *config.Logging, w io.Writer) *Logger {
	level := parseLevel(cfg.Level)

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.Format(time.RFC3339))
				}
			}
			return a
		},
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
		level:  level,
		format: cfg.Format,
	}
}

// WithComponent adds a component field to all log messages
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger: l.Logger.With("component", component),
		level:  l.level,
		format: l.format,
	}
}

// IsDebugEnabled returns true if debug logging is enabled
func (l *Logger) IsDebugEnabled() bool {
	return l.level <= slog.LevelDebug
}

// Component-specific logger helpers

// LogToggle logs an accepted toggle
func (l *Logger) LogToggle(actorID, resourceID int64, resourceType string, active bool, count int64) {
	l.Debug("reaction toggled",
		"actor_id", actorID,
		"resource_id", resourceID,
		"resource_type", resourceType,
		"active", active,
		"count", count)
}

// LogFlush logs a flush attempt
func (l *Logger) LogFlush(drained int, affected int64, requeued int, duration time.Duration, err error) {
	if err != nil {
		l.Error("flush failed",
			"drained", drained,
			"requeued", requeued,
			"duration_ms", duration.Milliseconds(),
			"error", err)
	} else {
		l.Info("flush completed",
			"drained", drained,
			"rows_affected", affected,
			"requeued", requeued,
			"duration_ms", duration.Milliseconds())
	}
}

// LogReconcile logs a reconciliation run
func (l *Logger) LogReconcile(scope string, corrected int64, duration time.Duration, err error) {
	if err != nil {
		l.Error("reconciliation failed",
			"scope", scope,
			"duration_ms", duration.Milliseconds(),
			"error", err)
	} else {
		l.Info("reconciliation completed",
			"scope", scope,
			"corrected", corrected,
			"duration_ms", duration.Milliseconds())
	}
}

// LogCacheOperation logs a cache operation
func (l *Logger) LogCacheOperation(op string, key string, hit bool) {
	l.Debug("cache operation",
		"operation", op,
		"key", key,
		"hit", hit)
}

// LogStoreOperation logs a store operation
func (l *Logger) LogStoreOperation(op string, duration time.Duration, err error) {
	if err != nil {
		l.Error("store operation failed",
			"operation", op,
			"duration_ms", duration.Milliseconds(),
			"error", err)
	} else {
		l.Debug("store operation completed",
			"operation", op,
			"duration_ms", duration.Milliseconds())
	}
}

// LogStartup logs process startup information
func (l *Logger) LogStartup(version, commit string) {
	l.Info("likewise starting",
		"version", version,
		"commit", commit)
}

// LogShutdown logs process shutdown
func (l *Logger) LogShutdown(reason string) {
	l.Info("likewise shutting down",
		"reason", reason)
}

// Default logger configuration
var defaultLogger *Logger

func init() {
	defaultLogger = NewLogger(&config.Logging{
		Level:  "info",
		Format: "text",
	})
}

// Default returns the default logger
func Default() *Logger {
	return defaultLogger
}

// SetDefault sets the default logger
func SetDefault(l *Logger) {
	defaultLogger = l
}
