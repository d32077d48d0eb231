package handler

import (
	"bytes"
	"errors"
	"unicode/utf8"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/philipp01105/duplog/core"
	"github.com/philipp01105/duplog/formatter"
	"github.com/philipp01105/duplog/internal/selflog"
)

// MultiConfig holds configuration for a MultiWriter
type MultiConfig struct {
	// DuplicateStderr selects the records copied to standard error
	DuplicateStderr Duplicate
	// DuplicateStdout selects the records copied to standard output
	DuplicateStdout Duplicate
	// SupportCapture prints console copies through the line-printing
	// path. Console failures are then reported through selflog instead
	// of returned, which keeps test output capture working.
	SupportCapture bool
	// FormatStderr formats records for standard error (default: text)
	FormatStderr formatter.FormatFunc
	// FormatStdout formats records for standard output (default: text)
	FormatStdout formatter.FormatFunc
	// FileWriter is the optional file sink
	FileWriter FileWriter
	// OtherWriter is the optional generic sink
	OtherWriter Writer
	// Stderr overrides the standard error stream
	Stderr Stream
	// Stdout overrides the standard output stream
	Stdout Stream
}

// MultiWriter routes each record to the console streams selected by the
// duplication policies, then to the file sink, then to the generic sink,
// and aggregates flush, shutdown and file-sink control across them.
//
// A MultiWriter is immutable after construction and adds no locking of
// its own; goroutine safety is that of its streams, formatters and sinks.
type MultiWriter struct {
	dupStderr    Duplicate
	dupStdout    Duplicate
	capture      bool
	formatStderr formatter.FormatFunc
	formatStdout formatter.FormatFunc
	file         FileWriter
	other        Writer
	stderr       Stream
	stdout       Stream
}

// NewMultiWriter creates a dispatcher from cfg.
func NewMultiWriter(cfg MultiConfig) *MultiWriter {
	if cfg.FormatStderr == nil {
		cfg.FormatStderr = formatter.Default()
	}
	if cfg.FormatStdout == nil {
		cfg.FormatStdout = formatter.Default()
	}
	if cfg.Stderr == nil {
		cfg.Stderr = StderrStream()
	}
	if cfg.Stdout == nil {
		cfg.Stdout = StdoutStream()
	}
	return &MultiWriter{
		dupStderr:    cfg.DuplicateStderr,
		dupStdout:    cfg.DuplicateStdout,
		capture:      cfg.SupportCapture,
		formatStderr: cfg.FormatStderr,
		formatStdout: cfg.FormatStdout,
		file:         cfg.FileWriter,
		other:        cfg.OtherWriter,
		stderr:       cfg.Stderr,
		stdout:       cfg.Stdout,
	}
}

// Write emits the record to standard error, standard output, the file
// sink and the generic sink, in that order. The first failure ends the
// dispatch and is returned; destinations already written keep the record.
func (m *MultiWriter) Write(now *core.Now, entry *core.Entry) error {
	if m.dupStderr.ShouldEmit(entry.Level) {
		if err := m.emit(Stderr, m.stderr, m.formatStderr, now, entry); err != nil {
			return err
		}
	}
	if m.dupStdout.ShouldEmit(entry.Level) {
		if err := m.emit(Stdout, m.stdout, m.formatStdout, now, entry); err != nil {
			return err
		}
	}
	if m.file != nil {
		if err := m.file.Write(now, entry); err != nil {
			return err
		}
	}
	if m.other != nil {
		if err := m.other.Write(now, entry); err != nil {
			return err
		}
	}
	return nil
}

func (m *MultiWriter) emit(dest Dest, s Stream, format formatter.FormatFunc, now *core.Now, entry *core.Entry) error {
	buf := formatter.GetBuffer()
	defer formatter.PutBuffer(buf)

	if m.capture {
		if err := format(buf, now, entry); err != nil {
			selflog.Report(selflog.CodeFormat, "format console record", err, zap.String("dest", string(dest)))
		}
		line := buf.Bytes()
		if !utf8.Valid(line) {
			line = bytes.ToValidUTF8(line, []byte("\uFFFD"))
		}
		line = append(line, '\n')
		if _, err := s.Write(line); err != nil {
			selflog.Report(selflog.CodeWrite, "print console record", err, zap.String("dest", string(dest)))
		}
		return nil
	}

	if err := format(buf, now, entry); err != nil {
		return &FormatError{Dest: dest, Err: err}
	}
	buf.WriteByte('\n')
	if _, err := s.Write(buf.Bytes()); err != nil {
		return &WriteError{Dest: dest, Err: err}
	}
	return nil
}

// Flush flushes the file sink, the generic sink and the console streams
// that have a duplication policy, in that order, stopping at the first
// failure.
func (m *MultiWriter) Flush() error {
	if m.file != nil {
		if err := m.file.Flush(); err != nil {
			return err
		}
	}
	if m.other != nil {
		if err := m.other.Flush(); err != nil {
			return err
		}
	}
	if m.dupStderr != DuplicateNone {
		if err := m.stderr.Flush(); err != nil {
			return &WriteError{Dest: Stderr, Err: err}
		}
	}
	if m.dupStdout != DuplicateNone {
		if err := m.stdout.Flush(); err != nil {
			return &WriteError{Dest: Stdout, Err: err}
		}
	}
	return nil
}

// Shutdown shuts down the file sink, then the generic sink.
func (m *MultiWriter) Shutdown() {
	if m.file != nil {
		m.file.Shutdown()
	}
	if m.other != nil {
		m.other.Shutdown()
	}
}

// Close flushes and shuts down, returning the flush error.
func (m *MultiWriter) Close() error {
	err := m.Flush()
	m.Shutdown()
	return err
}

// HasPersistentSink reports whether a file sink or a generic sink is
// configured, which MaxLevel requires.
func (m *MultiWriter) HasPersistentSink() bool {
	return m.file != nil || m.other != nil
}

// MaxLevel returns the least restrictive filter of the configured sinks.
// It panics with ErrNoPersistentSink when HasPersistentSink is false.
func (m *MultiWriter) MaxLevel() core.LevelFilter {
	switch {
	case m.file != nil && m.other != nil:
		return core.MaxFilter(m.file.MaxLevel(), m.other.MaxLevel())
	case m.file != nil:
		return m.file.MaxLevel()
	case m.other != nil:
		return m.other.MaxLevel()
	default:
		panic(ErrNoPersistentSink)
	}
}

// Validate asks the file sink and the generic sink to check their
// output against expected. Failures of both are combined; sinks that
// return ErrValidateUnsupported are skipped.
func (m *MultiWriter) Validate(expected []Expectation) error {
	var errs error
	if m.file != nil {
		errs = multierr.Append(errs, validated(m.file.Validate(expected)))
	}
	if m.other != nil {
		errs = multierr.Append(errs, validated(m.other.Validate(expected)))
	}
	return errs
}

func validated(err error) error {
	if errors.Is(err, ErrValidateUnsupported) {
		return nil
	}
	return err
}

// ResetFileWriter replaces the file sink configuration.
func (m *MultiWriter) ResetFileWriter(cfg FileConfig) error {
	if m.file == nil {
		return ErrNoFileWriter
	}
	return m.file.Reset(cfg)
}

// FileWriterConfig returns the file sink configuration.
func (m *MultiWriter) FileWriterConfig() (FileConfig, error) {
	if m.file == nil {
		return FileConfig{}, ErrNoFileWriter
	}
	return m.file.Config()
}

// ReopenOutputFile reopens the file sink's current file.
func (m *MultiWriter) ReopenOutputFile() error {
	if m.file == nil {
		return ErrNoFileWriter
	}
	return m.file.Reopen()
}

// ExistingLogFiles lists the file sink's files. Without a file sink the
// list is empty.
func (m *MultiWriter) ExistingLogFiles() ([]string, error) {
	if m.file == nil {
		return []string{}, nil
	}
	return m.file.ExistingFiles()
}
