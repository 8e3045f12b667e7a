// Package logging provides config-driven categorized logging for the journal.
// Every category shares one zap core; entries carry a "category" field so the
// output can be filtered per subsystem. Until Initialize is called all loggers
// are no-ops.
package logging

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot      Category = "boot"      // Startup, config, wiring
	CategoryJournal   Category = "journal"   // CSV store and JSON mirror
	CategorySync      Category = "sync"      // Remote spreadsheet sync
	CategoryDashboard Category = "dashboard" // Aggregates and charts
	CategoryAnalysis  Category = "analysis"  // Generative-text calls
	CategoryTags      Category = "tags"      // Tag files and watcher
	CategoryHTTP      Category = "http"      // Web server and handlers
	CategorySession   Category = "session"   // Per-session state
)

// Options mirrors config.LoggingConfig to avoid an import cycle.
type Options struct {
	Level      string          // debug, info, warn, error
	Format     string          // console, json
	Categories map[string]bool // category -> enabled; missing means enabled
	OutputPath string          // stderr when empty
}

// Logger wraps a sugared zap logger bound to one category.
type Logger struct {
	category Category
	sugar    *zap.SugaredLogger
}

var (
	mu         sync.RWMutex
	base       = zap.NewNop()
	categories map[string]bool
	loggers    = make(map[Category]*Logger)
)

// Initialize builds the shared zap logger from opts.
// Should be called once at startup, before any handler runs.
func Initialize(opts Options) error {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.Sampling = nil
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	switch strings.ToLower(opts.Format) {
	case "", "console", "text":
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	case "json":
		cfg.Encoding = "json"
	default:
		return fmt.Errorf("unknown log format %q", opts.Format)
	}
	if opts.OutputPath != "" {
		cfg.OutputPaths = []string{opts.OutputPath}
	}

	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	Use(l, opts.Categories)
	return nil
}

// Use installs l as the shared logger. Tests pass an observer-backed logger.
func Use(l *zap.Logger, enabled map[string]bool) {
	mu.Lock()
	defer mu.Unlock()
	base = l
	categories = enabled
	loggers = make(map[Category]*Logger)
}

// Reset restores the no-op logger.
func Reset() {
	Use(zap.NewNop(), nil)
}

// ParseLevel maps a config level name to a zap level. Empty means info.
func ParseLevel(name string) (zapcore.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "", "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", name)
	}
}

// IsCategoryEnabled returns whether a specific category is enabled
func IsCategoryEnabled(category Category) bool {
	mu.RLock()
	defer mu.RUnlock()
	if categories == nil {
		return true
	}
	enabled, exists := categories[string(category)]
	if !exists {
		return true
	}
	return enabled
}

// Get returns (or creates) a logger for the given category.
// Disabled categories get a no-op logger.
func Get(category Category) *Logger {
	mu.RLock()
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	enabled := IsCategoryEnabled(category)

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}
	z := zap.NewNop()
	if enabled {
		z = base.With(zap.String("category", string(category)))
	}
	l := &Logger{category: category, sugar: z.Sugar()}
	loggers[category] = l
	return l
}

// Sync flushes the shared logger.
func Sync() error {
	mu.RLock()
	defer mu.RUnlock()
	return base.Sync()
}

func (l *Logger) Debug(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }
func (l *Logger) Info(format string, args ...interface{}) { l.sugar.Infof(format, args...) }
func (l *Logger) Warn(format string, args ...interface{}) { l.sugar.Warnf(format, args...) }
func (l *Logger) Error(format string, args ...interface{}) { l.sugar.Errorf(format, args...) }

// With returns a child logger carrying the given key/value pairs.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{category: l.category, sugar: l.sugar.With(keysAndValues...)}
}

// Convenience helpers for the busiest categories.

func Boot(format string, args ...interface{}) { Get(CategoryBoot).Info(format, args...) }
func Journal(format string, args ...interface{}) { Get(CategoryJournal).Info(format, args...) }
func Sheets(format string, args ...interface{}) { Get(CategorySync).Info(format, args...) }
func SheetsWarn(format string, args ...interface{}) { Get(CategorySync).Warn(format, args...) }
func Analysis(format string, args ...interface{}) { Get(CategoryAnalysis).Info(format, args...) }
func Tags(format string, args ...interface{}) { Get(CategoryTags).Info(format, args...) }
func TagsWarn(format string, args ...interface{}) { Get(CategoryTags).Warn(format, args...) }
func HTTP(format string, args ...interface{}) { Get(CategoryHTTP).Info(format, args...) }
func Session(format string, args ...interface{}) { Get(CategorySession).Debug(format, args...) }
func Dashboard(format string, args ...interface{}) { Get(CategoryDashboard).Info(format, args...) }

// WithRequestID creates a request-scoped logger.
func WithRequestID(category Category, requestID string) *Logger {
	return Get(category).With("req", requestID)
}

// Timer helps measure operation duration
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation
func StartTimer(category Category, operation string) *Timer {
	return &Timer{category: category, op: operation, start: time.Now()}
}

// Stop ends the timer and logs the duration at debug level.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	return elapsed
}

// StopWithThreshold logs a warning if duration exceeds threshold
func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	elapsed := time.Since(t.start)
	if elapsed > threshold {
		Get(t.category).Warn("%s took %v (threshold: %v)", t.op, elapsed, threshold)
	} else {
		Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	}
	return elapsed
}
