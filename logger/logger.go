package logger

import (
	"fmt"
	"os"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/philipp01105/duplog/core"
	"github.com/philipp01105/duplog/handler"
	"github.com/philipp01105/duplog/internal/selflog"
)

// osExit is a variable to allow overriding os.Exit in tests
var osExit = os.Exit

// target is the writer a Logger and its children dispatch to, with the
// gate computed once when the writer is installed.
type target struct {
	writer handler.Writer
	filter core.LevelFilter
}

func newTarget(w handler.Writer) *target {
	if w == nil {
		return &target{filter: core.FilterOff}
	}
	return &target{writer: w, filter: gateFor(w)}
}

// gateFor returns the most verbose level worth building a record for.
// A MultiWriter without persistent sinks has no MaxLevel; its console
// policies do their own gating.
func gateFor(w handler.Writer) core.LevelFilter {
	if mw, ok := w.(*handler.MultiWriter); ok && !mw.HasPersistentSink() {
		return core.FilterTrace
	}
	return w.MaxLevel()
}

// Logger is the main logging interface. Fields, level and tag are fixed
// at construction; the writer can be replaced with Reconfigure, which
// affects the Logger and every child derived from it with With.
type Logger struct {
	target        *atomic.Pointer[target]
	level         core.Level
	tag           string
	fields        []core.Field
	includeCaller bool
	callerSkip    int
}

// Builder provides a fluent API for building Logger instances
type Builder struct {
	writer        handler.Writer
	level         core.Level
	tag           string
	fields        []core.Field
	includeCaller bool
	callerSkip    int
	coarseClock   bool
}

// NewBuilder creates a new logger builder
func NewBuilder() *Builder {
	return &Builder{
		level:      core.InfoLevel, // Default level
		callerSkip: 3,              // Default skip for getCaller
	}
}

// WithHandler sets the writer records are dispatched to, usually a
// *handler.MultiWriter.
func (b *Builder) WithHandler(w handler.Writer) *Builder {
	b.writer = w
	return b
}

// WithLevel sets the log level
func (b *Builder) WithLevel(level core.Level) *Builder {
	b.level = level
	return b
}

// WithTag sets the tag attached to every record
func (b *Builder) WithTag(tag string) *Builder {
	b.tag = tag
	return b
}

// WithFields adds default fields to all log entries
func (b *Builder) WithFields(fields ...core.Field) *Builder {
	b.fields = append(b.fields, fields...)
	return b
}

// WithCaller enables caller information
func (b *Builder) WithCaller(enabled bool) *Builder {
	b.includeCaller = enabled
	return b
}

// WithCoarseClock makes records read a cached clock updated every
// 500µs instead of calling time.Now. The clock is process-wide.
func (b *Builder) WithCoarseClock(enabled bool) *Builder {
	b.coarseClock = enabled
	return b
}

// Build creates the Logger instance
func (b *Builder) Build() *Logger {
	if b.coarseClock {
		core.StartCoarseClock()
	}
	t := &atomic.Pointer[target]{}
	t.Store(newTarget(b.writer))
	return &Logger{
		target:        t,
		level:         b.level,
		tag:           b.tag,
		fields:        append([]core.Field(nil), b.fields...),
		includeCaller: b.includeCaller,
		callerSkip:    b.callerSkip,
	}
}

// With creates a new Logger with additional fields (immutable operation)
func (l *Logger) With(fields ...core.Field) *Logger {
	newFields := make([]core.Field, len(l.fields)+len(fields))
	copy(newFields, l.fields)
	copy(newFields[len(l.fields):], fields)

	c := *l
	c.fields = newFields
	return &c
}

// Named returns a child Logger that tags its records with tag.
func (l *Logger) Named(tag string) *Logger {
	c := *l
	c.tag = tag
	return &c
}

// Enabled reports whether a record at level would reach the writer.
func (l *Logger) Enabled(level core.Level) bool {
	return level >= l.level && l.target.Load().filter.Enabled(level)
}

// Writer returns the writer currently in use.
func (l *Logger) Writer() handler.Writer {
	return l.target.Load().writer
}

// Reconfigure installs w and returns the previous writer. Records
// logged concurrently go to either the old or the new writer. The
// caller owns the previous writer and is expected to shut it down.
func (l *Logger) Reconfigure(w handler.Writer) handler.Writer {
	return l.target.Swap(newTarget(w)).writer
}

// Log logs a message at the specified level
func (l *Logger) Log(level core.Level, msg string, fields ...core.Field) {
	// Level check optimization - exit early BEFORE any allocations
	if level < l.level {
		return
	}

	l.log(level, msg, fields)
}

// log is the internal logging method that takes a pre-allocated slice
func (l *Logger) log(level core.Level, msg string, fields []core.Field) {
	t := l.target.Load()
	if !t.filter.Enabled(level) {
		return
	}

	// Get entry from pool AFTER level check
	entry := core.GetEntry()
	entry.Level = level
	entry.Tag = l.tag
	entry.Message = msg

	// Add logger's default fields
	if len(l.fields) > 0 {
		entry.Fields = append(entry.Fields, l.fields...)
	}

	// Add provided fields
	if len(fields) > 0 {
		entry.Fields = append(entry.Fields, fields...)
	}

	if l.includeCaller {
		entry.Caller = core.GetCaller(l.callerSkip)
	}

	if err := t.writer.Write(core.NewNow(), entry); err != nil {
		selflog.Report(selflog.CodeWrite, "dispatch record", err, zap.Stringer("level", level))
	}

	// Writers that keep records clone them
	core.PutEntry(entry)
}

// Trace logs a trace message
func (l *Logger) Trace(msg string, fields ...core.Field) {
	if core.TraceLevel < l.level {
		return
	}
	l.log(core.TraceLevel, msg, fields)
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, fields ...core.Field) {
	if core.DebugLevel < l.level {
		return
	}
	l.log(core.DebugLevel, msg, fields)
}

// Info logs an info message
func (l *Logger) Info(msg string, fields ...core.Field) {
	if core.InfoLevel < l.level {
		return
	}
	l.log(core.InfoLevel, msg, fields)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, fields ...core.Field) {
	if core.WarnLevel < l.level {
		return
	}
	l.log(core.WarnLevel, msg, fields)
}

// Error logs an error message
func (l *Logger) Error(msg string, fields ...core.Field) {
	if core.ErrorLevel < l.level {
		return
	}
	l.log(core.ErrorLevel, msg, fields)
}

// Fatal logs a fatal message, flushes and exits the program with os.Exit(1)
func (l *Logger) Fatal(msg string, fields ...core.Field) {
	l.log(core.FatalLevel, msg, fields)
	_ = l.Flush()
	osExit(1)
}

// Panic logs a panic message, flushes and panics
func (l *Logger) Panic(msg string, fields ...core.Field) {
	l.log(core.PanicLevel, msg, fields)
	_ = l.Flush()
	panic(msg)
}

// Tracef logs a trace message with formatting
func (l *Logger) Tracef(format string, args ...interface{}) {
	if core.TraceLevel < l.level {
		return
	}
	l.log(core.TraceLevel, fmt.Sprintf(format, args...), nil)
}

// Debugf logs a debug message with formatting
func (l *Logger) Debugf(format string, args ...interface{}) {
	if core.DebugLevel < l.level {
		return
	}
	l.log(core.DebugLevel, fmt.Sprintf(format, args...), nil)
}

// Infof logs an info message with formatting
func (l *Logger) Infof(format string, args ...interface{}) {
	if core.InfoLevel < l.level {
		return
	}
	l.log(core.InfoLevel, fmt.Sprintf(format, args...), nil)
}

// Warnf logs a warning message with formatting
func (l *Logger) Warnf(format string, args ...interface{}) {
	if core.WarnLevel < l.level {
		return
	}
	l.log(core.WarnLevel, fmt.Sprintf(format, args...), nil)
}

// Errorf logs an error message with formatting
func (l *Logger) Errorf(format string, args ...interface{}) {
	if core.ErrorLevel < l.level {
		return
	}
	l.log(core.ErrorLevel, fmt.Sprintf(format, args...), nil)
}

// Fatalf logs a fatal message with formatting and exits the program with os.Exit(1)
func (l *Logger) Fatalf(format string, args ...interface{}) {
	l.log(core.FatalLevel, fmt.Sprintf(format, args...), nil)
	_ = l.Flush()
	osExit(1)
}

// Panicf logs a panic message with formatting and panics
func (l *Logger) Panicf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.log(core.PanicLevel, msg, nil)
	_ = l.Flush()
	panic(msg)
}

// Flush flushes the writer.
func (l *Logger) Flush() error {
	if w := l.Writer(); w != nil {
		return w.Flush()
	}
	return nil
}

// Shutdown flushes and shuts down the writer. Later records are lost.
func (l *Logger) Shutdown() {
	if w := l.Writer(); w != nil {
		w.Shutdown()
	}
}

// Close flushes the writer, shuts it down and returns the flush error.
func (l *Logger) Close() error {
	w := l.Writer()
	if w == nil {
		return nil
	}
	err := w.Flush()
	w.Shutdown()
	return err
}

// Validate checks the persistent output against expected.
func (l *Logger) Validate(expected []handler.Expectation) error {
	if w := l.Writer(); w != nil {
		return w.Validate(expected)
	}
	return handler.ErrNoFileWriter
}
