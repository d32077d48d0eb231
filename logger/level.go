package logger

import (
	"github.com/philipp01105/duplog/core"
)

// Level Re-export type and constants for convenience
type Level = core.Level

const (
	TraceLevel = core.TraceLevel
	DebugLevel = core.DebugLevel
	InfoLevel  = core.InfoLevel
	WarnLevel  = core.WarnLevel
	ErrorLevel = core.ErrorLevel
	FatalLevel = core.FatalLevel
	PanicLevel = core.PanicLevel
)

// ParseLevel converts a string to a Level, falling back to InfoLevel
// for unknown names.
func ParseLevel(s string) Level {
	l, err := core.ParseLevel(s)
	if err != nil {
		return InfoLevel
	}
	return l
}
