package handler

import (
	"fmt"
	"strings"

	"github.com/philipp01105/duplog/core"
)

// Duplicate selects which records are copied to a console stream in
// addition to the persistent sinks.
type Duplicate uint8

const (
	// DuplicateNone copies nothing
	DuplicateNone Duplicate = iota
	// DuplicateError copies error records and above
	DuplicateError
	// DuplicateWarn copies warnings and above
	DuplicateWarn
	// DuplicateInfo copies info records and above
	DuplicateInfo
	// DuplicateDebug copies debug records and above
	DuplicateDebug
	// DuplicateTrace copies everything
	DuplicateTrace
	// DuplicateAll copies everything
	DuplicateAll
)

// ShouldEmit reports whether a record of the given level is copied.
func (d Duplicate) ShouldEmit(level core.Level) bool {
	switch d {
	case DuplicateNone:
		return false
	case DuplicateError:
		return level >= core.ErrorLevel
	case DuplicateWarn:
		return level >= core.WarnLevel
	case DuplicateInfo:
		return level >= core.InfoLevel
	case DuplicateDebug:
		return level >= core.DebugLevel
	case DuplicateTrace, DuplicateAll:
		return true
	default:
		return false
	}
}

// String returns the lower-case name of the policy
func (d Duplicate) String() string {
	switch d {
	case DuplicateNone:
		return "none"
	case DuplicateError:
		return "error"
	case DuplicateWarn:
		return "warn"
	case DuplicateInfo:
		return "info"
	case DuplicateDebug:
		return "debug"
	case DuplicateTrace:
		return "trace"
	case DuplicateAll:
		return "all"
	default:
		return "unknown"
	}
}

// ParseDuplicate converts a policy name such as "warn" or "none".
// The empty string means DuplicateNone.
func ParseDuplicate(s string) (Duplicate, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "off":
		return DuplicateNone, nil
	case "error":
		return DuplicateError, nil
	case "warn", "warning":
		return DuplicateWarn, nil
	case "info":
		return DuplicateInfo, nil
	case "debug":
		return DuplicateDebug, nil
	case "trace":
		return DuplicateTrace, nil
	case "all":
		return DuplicateAll, nil
	default:
		return DuplicateNone, fmt.Errorf("unknown duplicate policy %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (d Duplicate) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, so policies can be
// read from JSON and YAML configuration.
func (d *Duplicate) UnmarshalText(text []byte) error {
	v, err := ParseDuplicate(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}
