package formatter

import (
	"bytes"
	"io"
	"strconv"
	"time"

	"github.com/philipp01105/duplog/core"
)

// TextFormatter formats log entries as human-readable text
type TextFormatter struct {
	Config
}

// NewTextFormatter creates a new text formatter
func NewTextFormatter(cfg Config) *TextFormatter {
	if cfg.TimestampFormat == "" {
		cfg.TimestampFormat = time.RFC3339
	}
	return &TextFormatter{Config: cfg}
}

// Format formats an entry as text
func (f *TextFormatter) Format(now *core.Now, entry *core.Entry) ([]byte, error) {
	buf := GetBuffer()
	defer PutBuffer(buf)

	f.formatToBuffer(now, entry, buf)
	buf.WriteByte('\n')

	// Copy buffer content to return
	result := make([]byte, buf.Len())
	copy(result, buf.Bytes())
	return result, nil
}

// FormatTo formats an entry and writes it directly to the writer
func (f *TextFormatter) FormatTo(now *core.Now, entry *core.Entry, w io.Writer) error {
	buf := GetBuffer()

	f.formatToBuffer(now, entry, buf)
	buf.WriteByte('\n')

	_, err := w.Write(buf.Bytes())
	PutBuffer(buf)
	return err
}

// FormatEntry formats an entry into the given buffer (implements BufferFormatter).
func (f *TextFormatter) FormatEntry(now *core.Now, entry *core.Entry, buf *bytes.Buffer) error {
	f.formatToBuffer(now, entry, buf)
	buf.WriteByte('\n')
	return nil
}

// WriteRecord writes the entry without a trailing newline (implements RecordWriter).
func (f *TextFormatter) WriteRecord(w io.Writer, now *core.Now, entry *core.Entry) error {
	if buf, ok := w.(*bytes.Buffer); ok {
		f.formatToBuffer(now, entry, buf)
		return nil
	}
	buf := GetBuffer()
	f.formatToBuffer(now, entry, buf)
	_, err := w.Write(buf.Bytes())
	PutBuffer(buf)
	return err
}

// pre-formatted level strings to avoid multiple WriteString calls
var levelBrackets = [...]string{
	core.TraceLevel: " [TRACE] ",
	core.DebugLevel: " [DEBUG] ",
	core.InfoLevel:  " [INFO] ",
	core.WarnLevel:  " [WARN] ",
	core.ErrorLevel: " [ERROR] ",
	core.FatalLevel: " [FATAL] ",
	core.PanicLevel: " [PANIC] ",
}

// formatToBuffer writes the formatted entry into the given buffer
func (f *TextFormatter) formatToBuffer(now *core.Now, entry *core.Entry, buf *bytes.Buffer) {
	// Timestamp - use AppendFormat to avoid string allocation
	buf.Write(timestamp(now, entry).AppendFormat(buf.AvailableBuffer(), f.TimestampFormat))

	// Level - use pre-formatted string
	if entry.Level >= 0 && int(entry.Level) < len(levelBrackets) {
		buf.WriteString(levelBrackets[entry.Level])
	} else {
		buf.WriteString(" [UNKNOWN] ")
	}

	if entry.Tag != "" {
		buf.WriteByte('{')
		buf.WriteString(entry.Tag)
		buf.WriteString("} ")
	}

	// Caller info if enabled
	if f.IncludeCaller && entry.Caller.Defined {
		buf.WriteByte('[')
		buf.WriteString(entry.Caller.ShortFile)
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(entry.Caller.Line))
		buf.WriteString("] ")
	}

	// Message
	buf.WriteString(entry.Message)

	// Fields
	for _, field := range entry.Fields {
		buf.WriteByte(' ')
		buf.WriteString(field.Key)
		buf.WriteByte('=')
		buf.Write(field.AppendText(buf.AvailableBuffer()))
	}
}
