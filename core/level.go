package core

import (
	"fmt"
	"strings"
)

// LevelFilter is the most verbose level a destination accepts.
// Larger values are less restrictive.
type LevelFilter int8

const (
	// FilterOff accepts nothing
	FilterOff LevelFilter = iota
	FilterError
	FilterWarn
	FilterInfo
	FilterDebug
	FilterTrace
)

// String returns the lower-case name of the filter
func (f LevelFilter) String() string {
	switch f {
	case FilterOff:
		return "off"
	case FilterError:
		return "error"
	case FilterWarn:
		return "warn"
	case FilterInfo:
		return "info"
	case FilterDebug:
		return "debug"
	case FilterTrace:
		return "trace"
	default:
		return "unknown"
	}
}

// Level returns the least severe level the filter accepts.
// The result is meaningless for FilterOff; use Enabled instead.
func (f LevelFilter) Level() Level {
	switch f {
	case FilterError:
		return ErrorLevel
	case FilterWarn:
		return WarnLevel
	case FilterInfo:
		return InfoLevel
	case FilterDebug:
		return DebugLevel
	default:
		return TraceLevel
	}
}

// Enabled reports whether a record of the given level passes the filter.
func (f LevelFilter) Enabled(level Level) bool {
	if f <= FilterOff {
		return false
	}
	return level >= f.Level()
}

// FilterFor returns the filter that accepts level and everything more severe.
func FilterFor(level Level) LevelFilter {
	switch {
	case level >= ErrorLevel:
		return FilterError
	case level == WarnLevel:
		return FilterWarn
	case level == InfoLevel:
		return FilterInfo
	case level == DebugLevel:
		return FilterDebug
	default:
		return FilterTrace
	}
}

// MaxFilter returns the less restrictive of a and b.
func MaxFilter(a, b LevelFilter) LevelFilter {
	if a > b {
		return a
	}
	return b
}

// ParseLevel converts a string to a Level
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return TraceLevel, nil
	case "DEBUG":
		return DebugLevel, nil
	case "INFO":
		return InfoLevel, nil
	case "WARN", "WARNING":
		return WarnLevel, nil
	case "ERROR":
		return ErrorLevel, nil
	case "FATAL":
		return FatalLevel, nil
	case "PANIC":
		return PanicLevel, nil
	default:
		return InfoLevel, fmt.Errorf("unknown level %q", s)
	}
}

// ParseLevelFilter converts a string such as "info" or "off" to a LevelFilter
func ParseLevelFilter(s string) (LevelFilter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "none":
		return FilterOff, nil
	case "error":
		return FilterError, nil
	case "warn", "warning":
		return FilterWarn, nil
	case "info":
		return FilterInfo, nil
	case "debug":
		return FilterDebug, nil
	case "trace", "all":
		return FilterTrace, nil
	default:
		return FilterOff, fmt.Errorf("unknown level filter %q", s)
	}
}
