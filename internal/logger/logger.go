// Package logger holds the process-wide structured logger.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

var Logger *log.Logger

func init() {
	Logger = log.New(os.Stderr)
	Logger.SetReportTimestamp(true)

	// Set log level from environment variable
	SetLevel(os.Getenv("LOG_LEVEL"))
}

// SetLevel sets the level from its name. Unknown or empty names select INFO.
func SetLevel(name string) {
	Logger.SetLevel(ParseLevel(name))
}

// ParseLevel maps a level name to a log level, defaulting to INFO.
func ParseLevel(name string) log.Level {
	switch strings.ToUpper(name) {
	case "DEBUG":
		return log.DebugLevel
	case "INFO":
		return log.InfoLevel
	case "WARN", "WARNING":
		return log.WarnLevel
	case "ERROR":
		return log.ErrorLevel
	case "FATAL":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

// With returns a child logger tagged with a component prefix.
func With(prefix string) *log.Logger {
	return Logger.WithPrefix(prefix)
}

// Discard returns a logger that drops everything, for tests.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

// Convenience functions for common operations
func Info(msg interface{}, keyvals ...interface{}) {
	Logger.Info(msg, keyvals...)
}

func Debug(msg interface{}, keyvals ...interface{}) {
	Logger.Debug(msg, keyvals...)
}

func Warn(msg interface{}, keyvals ...interface{}) {
	Logger.Warn(msg, keyvals...)
}

func Error(msg interface{}, keyvals ...interface{}) {
	Logger.Error(msg, keyvals...)
}

func Infof(format string, args ...interface{}) {
	Logger.Infof(format, args...)
}

func Debugf(format string, args ...interface{}) {
	Logger.Debugf(format, args...)
}

func Warnf(format string, args ...interface{}) {
	Logger.Warnf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	Logger.Errorf(format, args...)
}
