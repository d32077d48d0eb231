package formatter

import (
	"bytes"
	"io"
	"sync"
	"time"

	"github.com/philipp01105/duplog/core"
)

// FormatFunc writes one record to w without a trailing line terminator.
// Implementations must be safe for concurrent use.
type FormatFunc func(w io.Writer, now *core.Now, entry *core.Entry) error

// Formatter defines the interface for log formatters
type Formatter interface {
	// Format formats a log entry into a newline-terminated line
	Format(now *core.Now, entry *core.Entry) ([]byte, error)
}

// WriterFormatter is an optional interface that formatters can implement
// to write directly to a writer without intermediate byte slice allocation.
type WriterFormatter interface {
	// FormatTo formats a log entry and writes it directly to the writer
	FormatTo(now *core.Now, entry *core.Entry, w io.Writer) error
}

// BufferFormatter is an optional interface that formatters can implement
// to format directly into a caller-provided buffer, avoiding internal
// buffer pool overhead.
type BufferFormatter interface {
	// FormatEntry formats a newline-terminated log entry into the given buffer.
	FormatEntry(now *core.Now, entry *core.Entry, buf *bytes.Buffer) error
}

// RecordWriter is implemented by formatters that can produce a record
// without the trailing newline, which is what console duplication needs.
type RecordWriter interface {
	WriteRecord(w io.Writer, now *core.Now, entry *core.Entry) error
}

// Func returns the FormatFunc of a RecordWriter.
func Func(rw RecordWriter) FormatFunc {
	return rw.WriteRecord
}

// Default returns the FormatFunc used when none is configured: the text
// formatter with RFC3339 timestamps.
func Default() FormatFunc {
	return Func(NewTextFormatter(Config{}))
}

// Config holds common formatter configuration
type Config struct {
	// IncludeCaller enables caller information in log output
	IncludeCaller bool
	// TimestampFormat specifies the time format (empty for RFC3339)
	TimestampFormat string
}

// timestamp picks the deferred timestamp when present and the entry
// time otherwise.
func timestamp(now *core.Now, entry *core.Entry) time.Time {
	if now != nil {
		return now.Time()
	}
	return entry.Time
}

// bufferPool is a pool of bytes.Buffer to reduce allocations
var bufferPool = &sync.Pool{
	New: func() interface{} {
		b := new(bytes.Buffer)
		b.Grow(256)
		return b
	},
}

// GetBuffer returns an empty pooled buffer.
func GetBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// PutBuffer returns buf to the pool.
func PutBuffer(buf *bytes.Buffer) {
	if buf.Cap() > 64*1024 { // Don't keep very large buffers
		return
	}
	bufferPool.Put(buf)
}
