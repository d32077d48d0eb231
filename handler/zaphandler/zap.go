// Package zaphandler provides a generic sink that forwards records to a
// zapcore.Core, so an existing zap pipeline can serve as the dispatcher's
// generic destination.
package zaphandler

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/philipp01105/duplog/core"
	"github.com/philipp01105/duplog/formatter"
	"github.com/philipp01105/duplog/handler"
	"github.com/philipp01105/duplog/internal/selflog"
)

// ZapHandler writes records through a zapcore.Core. Level filtering is
// left to the core.
type ZapHandler struct {
	core zapcore.Core
}

// New wraps c.
func New(c zapcore.Core) *ZapHandler {
	return &ZapHandler{core: c}
}

// FromLogger wraps the core of l. Fields added to l with With are kept.
func FromLogger(l *zap.Logger) *ZapHandler {
	return New(l.Core())
}

// Write converts the entry and writes it if the core accepts its level.
// Tags become the zap logger name.
func (h *ZapHandler) Write(now *core.Now, entry *core.Entry) error {
	lvl := formatter.ZapLevel(entry.Level)
	if !h.core.Enabled(lvl) {
		return nil
	}
	ze := zapcore.Entry{
		Level:      lvl,
		Time:       entry.Time,
		LoggerName: entry.Tag,
		Message:    entry.Message,
	}
	if now != nil {
		ze.Time = now.Time()
	}
	if entry.Caller.Defined {
		ze.Caller = zapcore.NewEntryCaller(0, entry.Caller.File, entry.Caller.Line, true)
		ze.Caller.Function = entry.Caller.Function
	}
	return h.core.Write(ze, formatter.ZapFields(entry.Fields))
}

// Flush syncs the core.
func (h *ZapHandler) Flush() error {
	return h.core.Sync()
}

// Shutdown syncs the core and reports failures.
func (h *ZapHandler) Shutdown() {
	if err := h.core.Sync(); err != nil {
		selflog.Report(selflog.CodeShutdown, "zap core sync", err)
	}
}

// Validate is not supported: zap cores are write-only.
func (h *ZapHandler) Validate([]handler.Expectation) error {
	return handler.ErrValidateUnsupported
}

// MaxLevel maps the core's minimum enabled level. Debug maps to
// FilterTrace because trace records are written at debug level.
func (h *ZapHandler) MaxLevel() core.LevelFilter {
	switch lvl := zapcore.LevelOf(h.core); {
	case lvl <= zapcore.DebugLevel:
		return core.FilterTrace
	case lvl == zapcore.InfoLevel:
		return core.FilterInfo
	case lvl == zapcore.WarnLevel:
		return core.FilterWarn
	case lvl == zapcore.InvalidLevel:
		return core.FilterOff
	default:
		return core.FilterError
	}
}
