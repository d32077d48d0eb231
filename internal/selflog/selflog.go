// Package selflog reports failures that duplog cannot return to a
// caller: formatting errors in capture mode, console print failures,
// errors hit by background workers and sink shutdown problems.
//
// Reports go to a zap logger writing to standard error. Set
// DUPLOG_SELFLOG=off to silence them, or install a different logger
// with SetLogger.
package selflog

import (
	"os"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Code classifies a reported failure.
type Code string

const (
	CodeFormat   Code = "format"
	CodeWrite    Code = "write"
	CodeFlush    Code = "flush"
	CodeShutdown Code = "shutdown"
	CodeRotate   Code = "rotate"
	CodeConfig   Code = "config"
)

var current atomic.Pointer[zap.Logger]

func init() {
	if strings.EqualFold(os.Getenv("DUPLOG_SELFLOG"), "off") {
		current.Store(zap.NewNop())
		return
	}
	current.Store(newStderrLogger())
}

func newStderrLogger() *zap.Logger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = "time"
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(os.Stderr),
		zapcore.DebugLevel,
	)
	return zap.New(core).Named("duplog")
}

// Logger returns the logger reports are written to.
func Logger() *zap.Logger {
	return current.Load()
}

// SetLogger installs l as the report destination and returns a function
// restoring the previous one. A nil l disables reporting.
func SetLogger(l *zap.Logger) (restore func()) {
	if l == nil {
		l = zap.NewNop()
	}
	prev := current.Swap(l)
	return func() { current.Store(prev) }
}

// Report logs a failure with its classification.
func Report(code Code, msg string, err error, fields ...zap.Field) {
	fs := make([]zap.Field, 0, len(fields)+2)
	fs = append(fs, zap.String("code", string(code)))
	if err != nil {
		fs = append(fs, zap.Error(err))
	}
	fs = append(fs, fields...)
	current.Load().Error(msg, fs...)
}
