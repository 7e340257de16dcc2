// Package logging provides categorized zap loggers for codecoach.
// Until Init is called every category logger is a no-op, so library
// consumers that never configure logging stay silent.
package logging

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category names a subsystem for log routing.
type Category string

const (
	CategoryEngine   Category = "engine"   // rule evaluation passes
	CategoryMatcher  Category = "matcher"  // per-pattern match attempts
	CategoryAnalysis Category = "analysis" // AST bridge / tree-sitter
	CategoryEvents   Category = "events"   // event bus dispatch
	CategoryStore    Category = "store"    // feedback history persistence
	CategoryWatcher  Category = "watcher"  // rules-file watching
)

var (
	mu    sync.RWMutex
	base  = zap.NewNop()
	named = make(map[Category]*zap.Logger)
)

// Init configures the process-wide logger. Debug mode switches to the
// development encoder with debug-level output.
func Init(debug bool) error {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return err
	}
	Replace(logger)
	return nil
}

// Replace swaps the base logger. Tests use this to install observers.
func Replace(logger *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	base = logger
	named = make(map[Category]*zap.Logger)
}

// Get returns the logger for a category, creating it on first use.
func Get(c Category) *zap.Logger {
	mu.RLock()
	if l, ok := named[c]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if l, ok := named[c]; ok {
		return l
	}
	l := base.Named(string(c))
	named[c] = l
	return l
}

// Sync flushes buffered log entries. Call at shutdown.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = base.Sync()
}
