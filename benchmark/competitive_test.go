package benchmark

import (
	"io"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/philipp01105/duplog/core"
	"github.com/philipp01105/duplog/formatter"
	"github.com/philipp01105/duplog/handler"
	"github.com/philipp01105/duplog/handler/consolehandler"
	"github.com/philipp01105/duplog/logger"
)

// Every framework writes all records as JSON to a primary writer and
// copies warnings and above as JSON to a second writer.

func newDuplog(primary, console io.Writer) *logger.Logger {
	sink := consolehandler.NewConsoleHandler(consolehandler.ConsoleConfig{
		Writer:    primary,
		Formatter: formatter.NewJSONFormatter(formatter.Config{}),
	})
	return logger.NewBuilder().
		WithHandler(handler.NewMultiWriter(handler.MultiConfig{
			DuplicateStderr: handler.DuplicateWarn,
			FormatStderr:    formatter.Func(formatter.NewJSONFormatter(formatter.Config{})),
			Stderr:          handler.NewWriterStream(console),
			OtherWriter:     sink,
		})).
		WithLevel(core.DebugLevel).
		Build()
}

func newZapTee(primary, console io.Writer) *zap.Logger {
	enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	return zap.New(zapcore.NewTee(
		zapcore.NewCore(enc, zapcore.AddSync(primary), zap.DebugLevel),
		zapcore.NewCore(enc.Clone(), zapcore.AddSync(console), zap.WarnLevel),
	))
}

func newZerologMulti(primary, console io.Writer) zerolog.Logger {
	w := zerolog.MultiLevelWriter(
		primary,
		&zerolog.FilteredLevelWriter{
			Writer: zerolog.LevelWriterAdapter{Writer: console},
			Level:  zerolog.WarnLevel,
		},
	)
	return zerolog.New(w).With().Timestamp().Logger().Level(zerolog.DebugLevel)
}

// consoleHook copies warnings and above to a second writer.
type consoleHook struct {
	w io.Writer
}

func (h consoleHook) Levels() []logrus.Level {
	return []logrus.Level{logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel, logrus.WarnLevel}
}

func (h consoleHook) Fire(e *logrus.Entry) error {
	b, err := e.Bytes()
	if err != nil {
		return err
	}
	_, err = h.w.Write(b)
	return err
}

func newLogrusHook(primary, console io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(primary)
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetLevel(logrus.DebugLevel)
	l.AddHook(consoleHook{w: console})
	return l
}

func BenchmarkCompetitive_InfoPrimaryOnly(b *testing.B) {
	b.Run("duplog", func(b *testing.B) {
		l := newDuplog(io.Discard, io.Discard)
		defer l.Close()
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			l.Info("request handled", logger.String("path", "/api/users"), logger.Int("status", 200))
		}
	})

	b.Run("zap", func(b *testing.B) {
		l := newZapTee(io.Discard, io.Discard)
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			l.Info("request handled", zap.String("path", "/api/users"), zap.Int("status", 200))
		}
	})

	b.Run("zerolog", func(b *testing.B) {
		l := newZerologMulti(io.Discard, io.Discard)
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			l.Info().Str("path", "/api/users").Int("status", 200).Msg("request handled")
		}
	})

	b.Run("logrus", func(b *testing.B) {
		l := newLogrusHook(io.Discard, io.Discard)
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			l.WithField("path", "/api/users").WithField("status", 200).Info("request handled")
		}
	})
}

func BenchmarkCompetitive_WarnDuplicated(b *testing.B) {
	b.Run("duplog", func(b *testing.B) {
		l := newDuplog(io.Discard, io.Discard)
		defer l.Close()
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			l.Warn("disk almost full", logger.Int("pct", 93))
		}
	})

	b.Run("zap", func(b *testing.B) {
		l := newZapTee(io.Discard, io.Discard)
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			l.Warn("disk almost full", zap.Int("pct", 93))
		}
	})

	b.Run("zerolog", func(b *testing.B) {
		l := newZerologMulti(io.Discard, io.Discard)
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			l.Warn().Int("pct", 93).Msg("disk almost full")
		}
	})

	b.Run("logrus", func(b *testing.B) {
		l := newLogrusHook(io.Discard, io.Discard)
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			l.WithField("pct", 93).Warn("disk almost full")
		}
	})
}

func BenchmarkCompetitive_DisabledLevel(b *testing.B) {
	b.Run("duplog", func(b *testing.B) {
		l := newDuplog(io.Discard, io.Discard)
		defer l.Close()
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			l.Trace("noise", logger.Int("n", i))
		}
	})

	b.Run("zap", func(b *testing.B) {
		l := newZapTee(io.Discard, io.Discard)
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			if ce := l.Check(zapcore.DebugLevel-1, "noise"); ce != nil {
				ce.Write(zap.Int("n", i))
			}
		}
	})

	b.Run("zerolog", func(b *testing.B) {
		l := newZerologMulti(io.Discard, io.Discard)
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			l.Trace().Int("n", i).Msg("noise")
		}
	})

	b.Run("logrus", func(b *testing.B) {
		l := newLogrusHook(io.Discard, io.Discard)
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			l.WithField("n", i).Trace("noise")
		}
	})
}

func BenchmarkCompetitive_FileOutput(b *testing.B) {
	open := func(b *testing.B, name string) *os.File {
		f, err := os.CreateTemp(b.TempDir(), name)
		if err != nil {
			b.Fatal(err)
		}
		return f
	}

	b.Run("duplog", func(b *testing.B) {
		f := open(b, "bench-duplog-*.log")
		l := newDuplog(f, io.Discard)
		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			l.Warn("file log", logger.String("key", "value"))
		}
		b.StopTimer()
		l.Close()
		f.Close()
	})

	b.Run("zap", func(b *testing.B) {
		f := open(b, "bench-zap-*.log")
		l := newZapTee(f, io.Discard)
		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			l.Warn("file log", zap.String("key", "value"))
		}
		b.StopTimer()
		l.Sync()
		f.Close()
	})

	b.Run("zerolog", func(b *testing.B) {
		f := open(b, "bench-zerolog-*.log")
		l := newZerologMulti(f, io.Discard)
		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			l.Warn().Str("key", "value").Msg("file log")
		}
		b.StopTimer()
		f.Close()
	})

	b.Run("logrus", func(b *testing.B) {
		f := open(b, "bench-logrus-*.log")
		l := newLogrusHook(f, io.Discard)
		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			l.WithField("key", "value").Warn("file log")
		}
		b.StopTimer()
		f.Close()
	})
}
