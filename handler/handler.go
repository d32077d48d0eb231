package handler

import (
	"io"

	"github.com/philipp01105/duplog/core"
)

// Writer is a log sink. The dispatcher holds at most one generic Writer
// next to the file sink; handler/consolehandler, handler/zaphandler,
// handler/memhandler and handler/multihandler provide implementations.
//
// Implementations must be safe for concurrent use. A Writer must not
// retain entry after Write returns; use Entry.Clone to keep it.
type Writer interface {
	// Write emits one record. now is shared with the other destinations
	// of the same record.
	Write(now *core.Now, entry *core.Entry) error

	// Flush pushes buffered records to their final destination.
	Flush() error

	// Shutdown releases resources. Failures are reported by the sink
	// itself and never returned.
	Shutdown()

	// Validate checks what the sink has written against expected.
	Validate(expected []Expectation) error

	// MaxLevel is the most verbose filter the sink accepts.
	MaxLevel() core.LevelFilter
}

// FileWriter is a Writer backed by log files on disk.
type FileWriter interface {
	Writer

	// Reset replaces the sink configuration and reopens the output.
	Reset(cfg FileConfig) error

	// Config returns the configuration in effect.
	Config() (FileConfig, error)

	// Reopen closes and reopens the current output file, typically
	// after an external tool moved it away.
	Reopen() error

	// ExistingFiles lists the current and rotated log files.
	ExistingFiles() ([]string, error)
}

// Stream is a console stream. Every line is handed over in a single
// Write call.
type Stream interface {
	io.Writer
	Flush() error
}

// Expectation describes one line a sink is expected to contain. A line
// matches when it contains Level, Tag and Message as substrings.
type Expectation struct {
	Tag     string
	Level   string
	Message string
}

// StatsProvider is implemented by sinks that track queue statistics.
type StatsProvider interface {
	Stats() Snapshot
}
