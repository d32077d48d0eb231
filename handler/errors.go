package handler

import (
	"errors"
	"fmt"
)

var (
	// ErrNoFileWriter is returned by file-specific operations when the
	// dispatcher has no file sink.
	ErrNoFileWriter = errors.New("duplog: no file writer configured")

	// ErrNoPersistentSink is the panic value of MultiWriter.MaxLevel when
	// neither a file sink nor a generic sink is configured.
	ErrNoPersistentSink = errors.New("duplog: max level requested without file or generic writer")

	// ErrClosed is returned by sinks that received a record after Shutdown.
	ErrClosed = errors.New("duplog: writer is shut down")

	// ErrValidateUnsupported is returned by sinks that cannot read back
	// what they wrote.
	ErrValidateUnsupported = errors.New("duplog: writer does not support validation")
)

// Dest names a console destination.
type Dest string

const (
	Stderr Dest = "stderr"
	Stdout Dest = "stdout"
)

// FormatError reports a formatter failure for a console destination.
type FormatError struct {
	Dest Dest
	Err  error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("duplog: format record for %s: %v", e.Dest, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// WriteError reports an I/O failure on a console destination.
type WriteError struct {
	Dest Dest
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("duplog: write record to %s: %v", e.Dest, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
