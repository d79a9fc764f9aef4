// Package logging provides the leveled key/value logger used across the pipeline.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// Level is a logging severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	default:
		return "ERROR"
	}
}

// ParseLevel maps a name such as "debug" or "WARN" to a Level.
// Unknown names map to LevelInfo.
func ParseLevel(name string) Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
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

// Logger writes "[LEVEL] msg k=v ..." lines through a stdlib *log.Logger.
// It is safe for concurrent use because *log.Logger is.
type Logger struct {
	logger *log.Logger
	min    Level
}

// New creates a Logger writing to w with the given prefix and minimum level.
func New(w io.Writer, prefix string, min Level) *Logger {
	if prefix != "" {
		prefix = fmt.Sprintf("[%s] ", prefix)
	}
	return &Logger{
		logger: log.New(w, prefix, log.Ldate|log.Ltime),
		min:    min,
	}
}

// NewStderr creates a Logger on stderr; stdout is left for program output.
func NewStderr(prefix string, min Level) *Logger {
	return New(os.Stderr, prefix, min)
}

// Discard returns a Logger that drops everything.
func Discard() *Logger {
	return New(io.Discard, "", LevelError+1)
}

// With returns a copy whose prefix is extended by name.
func (l *Logger) With(name string) *Logger {
	prefix := l.logger.Prefix()
	return &Logger{
		logger: log.New(l.logger.Writer(), prefix+fmt.Sprintf("[%s] ", name), l.logger.Flags()),
		min:    l.min,
	}
}

// Enabled reports whether messages at level would be written.
func (l *Logger) Enabled(level Level) bool {
	return level >= l.min
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.logWithKV(LevelDebug, msg, keysAndValues...)
}

func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.logWithKV(LevelInfo, msg, keysAndValues...)
}

func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.logWithKV(LevelWarn, msg, keysAndValues...)
}

func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.logWithKV(LevelError, msg, keysAndValues...)
}

func (l *Logger) logWithKV(level Level, msg string, keysAndValues ...interface{}) {
	if !l.Enabled(level) {
		return
	}
	var b strings.Builder
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fmt.Fprintf(&b, " %v=%v", keysAndValues[i], keysAndValues[i+1])
	}
	l.logger.Printf("[%s] %s%s", level, msg, b.String())
}
