package logging

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

// LogLevel represents the severity of a log message
type LogLevel int32

const (
	// LevelDebug is the debug log level
	LevelDebug LogLevel = iota
	// LevelInfo is the info log level
	LevelInfo
	// LevelWarn is the warning log level
	LevelWarn
	// LevelError is the error log level
	LevelError
)

var levelNames = map[LogLevel]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
}

var (
	currentLevel atomic.Int32
	levelOnce    sync.Once
)

// IMAGEDB_LOG_LEVEL wins over LOG_LEVEL; DEBUG=true wins over both.
func initLevel() {
	levelOnce.Do(func() {
		currentLevel.Store(int32(levelFromEnv()))
	})
}

func levelFromEnv() LogLevel {
	switch strings.ToLower(os.Getenv("DEBUG")) {
	case "1", "true", "yes", "on":
		return LevelDebug
	}

	name := os.Getenv("IMAGEDB_LOG_LEVEL")
	if name == "" {
		name = os.Getenv("LOG_LEVEL")
	}
	level, _ := ParseLevel(name)
	return level
}

// ParseLevel converts a level name to a LogLevel. Unknown names report false
// and map to LevelInfo.
func ParseLevel(s string) (LogLevel, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	for level, name := range levelNames {
		if name == s {
			return level, true
		}
	}
	return LevelInfo, false
}

// GetLevel returns the current log level
func GetLevel() LogLevel {
	initLevel()
	return LogLevel(currentLevel.Load())
}

// SetLevel overrides the level read from the environment.
func SetLevel(level LogLevel) {
	initLevel()
	currentLevel.Store(int32(level))
}

// logf writes through the standard logger when level is enabled. The tag is
// the upper-cased level name, e.g. "[WARN] ".
func logf(level LogLevel, format string, args ...interface{}) {
	if level < GetLevel() {
		return
	}
	log.Printf("["+strings.ToUpper(level.String())+"] "+format, args...)
}

// Debug logs a debug message
func Debug(format string, args ...interface{}) { logf(LevelDebug, format, args...) }

// Info logs an info message
func Info(format string, args ...interface{}) { logf(LevelInfo, format, args...) }

// Warn logs a warning message
func Warn(format string, args ...interface{}) { logf(LevelWarn, format, args...) }

// Error logs an error message
func Error(format string, args ...interface{}) { logf(LevelError, format, args...) }

func (l LogLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", l)
}
