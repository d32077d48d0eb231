package core

import (
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"
)

// FieldType represents the type of a field value
type FieldType uint8

const (
	StringType FieldType = iota
	IntType
	Int64Type
	Float64Type
	BoolType
	TimeType
	DurationType
	ErrorType
	AnyType
)

// Field represents a key-value pair for structured logging
type Field struct {
	Key     string
	Type    FieldType
	Int64   int64
	Float64 float64
	Str     string
	Any     interface{}
}

// String creates a string field
func String(key, val string) Field {
	return Field{Key: key, Type: StringType, Str: val}
}

// Int creates an int field
func Int(key string, val int) Field {
	return Field{Key: key, Type: IntType, Int64: int64(val)}
}

// Int64 creates an int64 field
func Int64(key string, val int64) Field {
	return Field{Key: key, Type: Int64Type, Int64: val}
}

// Float64 creates a float64 field
func Float64(key string, val float64) Field {
	return Field{Key: key, Type: Float64Type, Float64: val}
}

// Bool creates a bool field
func Bool(key string, val bool) Field {
	f := Field{Key: key, Type: BoolType}
	if val {
		f.Int64 = 1
	}
	return f
}

// Time creates a time field
func Time(key string, val time.Time) Field {
	return Field{Key: key, Type: TimeType, Int64: val.UnixNano()}
}

// Duration creates a duration field
func Duration(key string, val time.Duration) Field {
	return Field{Key: key, Type: DurationType, Int64: int64(val)}
}

// Err creates an error field with key "error". A nil error gives an
// empty value.
func Err(err error) Field {
	f := Field{Key: "error", Type: ErrorType}
	if err != nil {
		f.Str = err.Error()
	}
	return f
}

// Any creates a field with any value
func Any(key string, val interface{}) Field {
	return Field{Key: key, Type: AnyType, Any: val}
}

// StringValue returns the string representation of a field's value
func (f Field) StringValue() string {
	switch f.Type {
	case StringType:
		return f.Str
	case IntType, Int64Type:
		return strconv.FormatInt(f.Int64, 10)
	case Float64Type:
		return strconv.FormatFloat(f.Float64, 'f', -1, 64)
	case BoolType:
		return strconv.FormatBool(f.Int64 == 1)
	case TimeType:
		return time.Unix(0, f.Int64).UTC().Format(time.RFC3339Nano)
	case DurationType:
		return time.Duration(f.Int64).String()
	case ErrorType:
		return f.Str
	case AnyType:
		return fmt.Sprintf("%v", f.Any)
	default:
		return ""
	}
}

// AppendText appends the value for key=value text output. Values that
// would break the line or the key=value structure are quoted, so a
// record always stays on one line.
func (f Field) AppendText(b []byte) []byte {
	switch f.Type {
	case IntType, Int64Type:
		return strconv.AppendInt(b, f.Int64, 10)
	case Float64Type:
		return strconv.AppendFloat(b, f.Float64, 'f', -1, 64)
	case BoolType:
		return strconv.AppendBool(b, f.Int64 == 1)
	case DurationType:
		return append(b, time.Duration(f.Int64).String()...)
	}
	s := f.StringValue()
	if needsQuote(s) {
		return strconv.AppendQuote(b, s)
	}
	return append(b, s...)
}

func needsQuote(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			if c <= ' ' || c == '=' || c == '"' || c == 0x7f {
				return true
			}
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			return true
		}
		i += size
	}
	return false
}
