// Package logger provides the process-wide structured logger.
package logger

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	global = zap.NewNop()
	sugar  = global.Sugar()
	mu     sync.RWMutex
)

// Options configures Init.
type Options struct {
	// Path is the log file. Empty logs to stderr.
	Path string
	// Level is one of debug, info, warn, error. Defaults to info.
	Level string
	// Development switches to the human-readable console encoder.
	Development bool
}

// Init replaces the global logger.
func Init(opts Options) error {
	var cfg zap.Config
	if opts.Development {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.DisableStacktrace = true

	level, err := ParseLevel(opts.Level)
	if err != nil {
		return err
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	if opts.Path != "" {
		cfg.OutputPaths = []string{opts.Path}
	} else {
		cfg.OutputPaths = []string{"stderr"}
	}

	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	_ = global.Sync()
	global = l
	sugar = l.Sugar()
	return nil
}

// ParseLevel maps a config level name to a zap level.
func ParseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return zap.InfoLevel, nil
	case "debug":
		return zap.DebugLevel, nil
	case "warn", "warning":
		return zap.WarnLevel, nil
	case "error":
		return zap.ErrorLevel, nil
	default:
		return zap.InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
}

// Set installs l as the global logger. Tests use it with zaptest or observer loggers.
func Set(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	global = l
	sugar = l.Sugar()
}

// Close flushes buffered entries.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	_ = global.Sync()
}

// L returns the global structured logger.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

// Named returns a child logger tagged with a component name.
func Named(component string) *zap.Logger {
	return L().Named(component)
}

// Info logs an info message.
func Info(format string, v ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	sugar.Infof(format, v...)
}

// Debug logs a debug message.
func Debug(format string, v ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	sugar.Debugf(format, v...)
}

// Error logs an error message.
func Error(format string, v ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	sugar.Errorf(format, v...)
}

// Warn logs a warning message.
func Warn(format string, v ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	sugar.Warnf(format, v...)
}
