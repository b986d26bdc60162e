// Package logging provides categorized zap loggers for sketchmint.
// Each subsystem logs under its own named logger so output can be
// filtered per category.
package logging

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category identifies a logging subsystem.
type Category string

const (
	CategoryCLI      Category = "cli"      // Command-line entry points
	CategoryAnalyzer Category = "analyzer" // Sketch semantic analysis
	CategoryChain    Category = "chain"    // Contract read calls
	CategoryMetadata Category = "metadata" // Metadata resolution
	CategoryCodegen  Category = "codegen"  // Fragment generation and assembly
	CategoryPipeline Category = "pipeline" // End-to-end orchestration
)

var (
	mu      sync.RWMutex
	root    = zap.NewNop()
	loggers = make(map[Category]*zap.SugaredLogger)
)

// Initialize builds the root logger. Level is one of debug/info/warn/error;
// development selects the human-readable console encoder.
func Initialize(level string, development bool) error {
	var cfg zap.Config
	if development {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	switch level {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	case "info", "":
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	case "warn", "warning":
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	default:
		return fmt.Errorf("unknown log level %q", level)
	}

	logger, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	root = logger
	loggers = make(map[Category]*zap.SugaredLogger)
	return nil
}

// Get returns the sugared logger for a category, creating it on first use.
func Get(cat Category) *zap.SugaredLogger {
	mu.RLock()
	if l, ok := loggers[cat]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[cat]; ok {
		return l
	}
	l := root.Named(string(cat)).Sugar()
	loggers[cat] = l
	return l
}

// Nop routes all categories to a no-op logger. Used by tests.
func Nop() {
	mu.Lock()
	defer mu.Unlock()
	root = zap.NewNop()
	loggers = make(map[Category]*zap.SugaredLogger)
}

// Sync flushes buffered log entries. Safe to call at shutdown.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = root.Sync()
}
