package sloghandler

import (
	"context"
	"log/slog"

	"github.com/philipp01105/duplog/core"
	"github.com/philipp01105/duplog/handler"
)

// TagKey is the attribute key that sets the record tag instead of
// becoming a field.
const TagKey = "tag"

// SlogHandler is an adapter that implements slog.Handler using a handler.Writer.
type SlogHandler struct {
	writer handler.Writer
	level  core.Level
	tag    string
	attrs  []core.Field
	group  string
}

// NewSlogHandler creates a new slog.Handler adapter wrapping the given Writer.
func NewSlogHandler(w handler.Writer, level core.Level) *SlogHandler {
	return &SlogHandler{
		writer: w,
		level:  level,
	}
}

// Enabled reports whether the handler handles records at the given level.
func (s *SlogHandler) Enabled(_ context.Context, level slog.Level) bool {
	l := slogLevelToCore(level)
	if l < s.level {
		return false
	}
	if p, ok := s.writer.(persistent); ok && !p.HasPersistentSink() {
		return true
	}
	return s.writer.MaxLevel().Enabled(l)
}

// persistent is implemented by handler.MultiWriter, whose MaxLevel is
// undefined without a file or generic sink.
type persistent interface {
	HasPersistentSink() bool
}

// Handle converts the record to a core.Entry and writes it.
func (s *SlogHandler) Handle(_ context.Context, record slog.Record) error {
	entry := core.GetEntry()
	defer core.PutEntry(entry)

	entry.Time = record.Time
	entry.Level = slogLevelToCore(record.Level)
	entry.Tag = s.tag
	entry.Message = record.Message

	if len(s.attrs) > 0 {
		entry.Fields = append(entry.Fields, s.attrs...)
	}
	record.Attrs(func(a slog.Attr) bool {
		if s.group == "" && a.Key == TagKey && a.Value.Kind() == slog.KindString {
			entry.Tag = a.Value.String()
			return true
		}
		entry.Fields = appendAttr(entry.Fields, s.group, a)
		return true
	})

	now := core.NewNow()
	if !record.Time.IsZero() {
		now = core.NowAt(record.Time)
	}
	return s.writer.Write(now, entry)
}

// WithAttrs returns a new SlogHandler with additional attributes.
func (s *SlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := s.clone()
	for _, a := range attrs {
		if s.group == "" && a.Key == TagKey && a.Value.Kind() == slog.KindString {
			c.tag = a.Value.String()
			continue
		}
		c.attrs = appendAttr(c.attrs, s.group, a)
	}
	return c
}

// WithGroup returns a new SlogHandler with the given group name.
func (s *SlogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return s
	}
	c := s.clone()
	if s.group != "" {
		c.group = s.group + "." + name
	} else {
		c.group = name
	}
	return c
}

func (s *SlogHandler) clone() *SlogHandler {
	c := *s
	c.attrs = append([]core.Field(nil), s.attrs...)
	return &c
}

// slogLevelToCore converts a slog.Level to a core.Level.
func slogLevelToCore(level slog.Level) core.Level {
	switch {
	case level >= slog.LevelError:
		return core.ErrorLevel
	case level >= slog.LevelWarn:
		return core.WarnLevel
	case level >= slog.LevelInfo:
		return core.InfoLevel
	case level >= slog.LevelDebug:
		return core.DebugLevel
	default:
		return core.TraceLevel
	}
}

// appendAttr converts a slog.Attr to fields, prefixing keys with group.
// Groups are flattened into dotted keys.
func appendAttr(fields []core.Field, group string, a slog.Attr) []core.Field {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return fields
	}

	key := a.Key
	if group != "" && key != "" {
		key = group + "." + key
	} else if key == "" {
		key = group
	}

	switch a.Value.Kind() {
	case slog.KindString:
		return append(fields, core.Field{Key: key, Type: core.StringType, Str: a.Value.String()})
	case slog.KindInt64:
		return append(fields, core.Field{Key: key, Type: core.Int64Type, Int64: a.Value.Int64()})
	case slog.KindUint64:
		return append(fields, core.Field{Key: key, Type: core.AnyType, Any: a.Value.Uint64()})
	case slog.KindFloat64:
		return append(fields, core.Field{Key: key, Type: core.Float64Type, Float64: a.Value.Float64()})
	case slog.KindBool:
		val := int64(0)
		if a.Value.Bool() {
			val = 1
		}
		return append(fields, core.Field{Key: key, Type: core.BoolType, Int64: val})
	case slog.KindTime:
		return append(fields, core.Field{Key: key, Type: core.TimeType, Int64: a.Value.Time().UnixNano()})
	case slog.KindDuration:
		return append(fields, core.Field{Key: key, Type: core.DurationType, Int64: int64(a.Value.Duration())})
	case slog.KindGroup:
		for _, ga := range a.Value.Group() {
			fields = appendAttr(fields, key, ga)
		}
		return fields
	default:
		if err, ok := a.Value.Any().(error); ok {
			return append(fields, core.Field{Key: key, Type: core.ErrorType, Str: err.Error()})
		}
		return append(fields, core.Field{Key: key, Type: core.AnyType, Any: a.Value.Any()})
	}
}
