// Package logging provides categorized file-based logging for relayctl.
// Logs are written to <config dir>/logs/ with a separate file per category.
// Logging is a no-op until Initialize is called with debug enabled, so the
// interactive console stays silent by default.
package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// Category represents a log category/system.
type Category string

const (
	CategoryBoot    Category = "boot"    // Startup and configuration
	CategoryAPI     Category = "api"     // Gateway HTTP calls
	CategoryFleet   Category = "fleet"   // Device registry operations
	CategorySMS     Category = "sms"     // Message query/command engine
	CategorySession Category = "session" // Credential lifecycle
	CategoryConsole Category = "console" // Interactive console events
)

// Log levels.
const (
	LevelDebug = 0
	LevelInfo  = 1
	LevelWarn  = 2
	LevelError = 3
)

// Logger wraps a standard logger with category and file output.
type Logger struct {
	category Category
	logger   *log.Logger
	file     *os.File
}

var (
	loggers   = make(map[Category]*Logger)
	loggersMu sync.RWMutex
	logsDir   string
	enabled   bool
	logLevel  = LevelInfo
)

// Initialize sets up the logging directory. Should be called once at startup.
// When debug is false every logger is a silent no-op.
func Initialize(configDir, level string, debug bool) error {
	enabled = debug
	logLevel = parseLevel(level)
	if !enabled {
		return nil
	}

	logsDir = filepath.Join(configDir, "logs")
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	boot := Get(CategoryBoot)
	boot.Info("logging initialized, dir=%s level=%s", logsDir, level)
	return nil
}

func parseLevel(level string) int {
	switch level {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Get returns the logger for a category, creating it on first use.
func Get(category Category) *Logger {
	loggersMu.RLock()
	l, ok := loggers[category]
	loggersMu.RUnlock()
	if ok {
		return l
	}

	loggersMu.Lock()
	defer loggersMu.Unlock()
	if l, ok = loggers[category]; ok {
		return l
	}

	l = &Logger{category: category}
	if enabled && logsDir != "" {
		path := filepath.Join(logsDir, string(category)+".log")
		if f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
			l.file = f
			l.logger = log.New(f, "", log.LstdFlags|log.Lmicroseconds)
		}
	}
	loggers[category] = l
	return l
}

// Close flushes and closes all category log files.
func Close() {
	loggersMu.Lock()
	defer loggersMu.Unlock()
	for _, l := range loggers {
		if l.file != nil {
			_ = l.file.Close()
		}
	}
	loggers = make(map[Category]*Logger)
}

func (l *Logger) write(level int, prefix, format string, args ...interface{}) {
	if l.logger == nil || level < logLevel {
		return
	}
	l.logger.Printf("[%s] %s", prefix, fmt.Sprintf(format, args...))
}

// Debug logs a debug-level message.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.write(LevelDebug, "DEBUG", format, args...)
}

// Info logs an info-level message.
func (l *Logger) Info(format string, args ...interface{}) {
	l.write(LevelInfo, "INFO", format, args...)
}

// Warn logs a warning-level message.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.write(LevelWarn, "WARN", format, args...)
}

// Error logs an error-level message.
func (l *Logger) Error(format string, args ...interface{}) {
	l.write(LevelError, "ERROR", format, args...)
}
