package formatter

import (
	"bytes"
	"io"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"

	"github.com/philipp01105/duplog/core"
)

// ZapFormatter renders entries with a zapcore.Encoder, so records look
// exactly like those of a zap logger configured with the same encoder.
type ZapFormatter struct {
	encoder zapcore.Encoder
}

// NewZapFormatter wraps enc. The encoder is cloned per record and never
// mutated.
func NewZapFormatter(enc zapcore.Encoder) *ZapFormatter {
	return &ZapFormatter{encoder: enc}
}

// NewZapJSONFormatter uses zap's production JSON encoder configuration.
func NewZapJSONFormatter() *ZapFormatter {
	return NewZapFormatter(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()))
}

// NewZapConsoleFormatter uses zap's development console encoder configuration.
func NewZapConsoleFormatter() *ZapFormatter {
	return NewZapFormatter(zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()))
}

// Format formats an entry into a newline-terminated line
func (f *ZapFormatter) Format(now *core.Now, entry *core.Entry) ([]byte, error) {
	b, err := f.encode(now, entry)
	if err != nil {
		return nil, err
	}
	defer b.Free()

	result := make([]byte, b.Len())
	copy(result, b.Bytes())
	return result, nil
}

// FormatTo formats an entry and writes it directly to the writer
func (f *ZapFormatter) FormatTo(now *core.Now, entry *core.Entry, w io.Writer) error {
	b, err := f.encode(now, entry)
	if err != nil {
		return err
	}
	_, err = w.Write(b.Bytes())
	b.Free()
	return err
}

// FormatEntry formats an entry into the given buffer (implements BufferFormatter).
func (f *ZapFormatter) FormatEntry(now *core.Now, entry *core.Entry, buf *bytes.Buffer) error {
	b, err := f.encode(now, entry)
	if err != nil {
		return err
	}
	buf.Write(b.Bytes())
	b.Free()
	return nil
}

// WriteRecord writes the encoded entry without its line ending (implements RecordWriter).
func (f *ZapFormatter) WriteRecord(w io.Writer, now *core.Now, entry *core.Entry) error {
	b, err := f.encode(now, entry)
	if err != nil {
		return err
	}
	_, err = w.Write(bytes.TrimRight(b.Bytes(), "\r\n"))
	b.Free()
	return err
}

func (f *ZapFormatter) encode(now *core.Now, entry *core.Entry) (*buffer.Buffer, error) {
	ze := zapcore.Entry{
		Level:      ZapLevel(entry.Level),
		Time:       timestamp(now, entry),
		LoggerName: entry.Tag,
		Message:    entry.Message,
	}
	if entry.Caller.Defined {
		ze.Caller = zapcore.EntryCaller{
			Defined:  true,
			File:     entry.Caller.File,
			Line:     entry.Caller.Line,
			Function: entry.Caller.Function,
		}
	}
	return f.encoder.EncodeEntry(ze, ZapFields(entry.Fields))
}

// ZapLevel maps a level onto zap's level set. zap has no trace level, so
// trace records are encoded as debug.
func ZapLevel(l core.Level) zapcore.Level {
	switch l {
	case core.TraceLevel, core.DebugLevel:
		return zapcore.DebugLevel
	case core.InfoLevel:
		return zapcore.InfoLevel
	case core.WarnLevel:
		return zapcore.WarnLevel
	case core.ErrorLevel:
		return zapcore.ErrorLevel
	case core.FatalLevel:
		return zapcore.FatalLevel
	case core.PanicLevel:
		return zapcore.PanicLevel
	default:
		return zapcore.InfoLevel
	}
}

// ZapFields converts entry fields to zap fields.
func ZapFields(fields []core.Field) []zapcore.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]zapcore.Field, 0, len(fields))
	for _, f := range fields {
		switch f.Type {
		case core.StringType:
			out = append(out, zap.String(f.Key, f.Str))
		case core.IntType, core.Int64Type:
			out = append(out, zap.Int64(f.Key, f.Int64))
		case core.Float64Type:
			out = append(out, zap.Float64(f.Key, f.Float64))
		case core.BoolType:
			out = append(out, zap.Bool(f.Key, f.Int64 == 1))
		case core.TimeType:
			out = append(out, zap.Time(f.Key, time.Unix(0, f.Int64)))
		case core.DurationType:
			out = append(out, zap.Duration(f.Key, time.Duration(f.Int64)))
		case core.ErrorType:
			out = append(out, zap.String(f.Key, f.Str))
		default:
			out = append(out, zap.Any(f.Key, f.Any))
		}
	}
	return out
}
