package handler

import (
	"io"
	"os"
	"sync"
)

// processStream resolves the process stream on every call so that a
// replaced os.Stderr or os.Stdout is honored and nothing is held open.
type processStream struct {
	dest Dest
}

func (s processStream) Write(p []byte) (int, error) {
	if s.dest == Stdout {
		return os.Stdout.Write(p)
	}
	return os.Stderr.Write(p)
}

// Flush is a no-op: process streams are unbuffered and Sync fails on
// pipes and terminals.
func (s processStream) Flush() error {
	return nil
}

// StderrStream returns the process standard error stream.
func StderrStream() Stream {
	return processStream{dest: Stderr}
}

// StdoutStream returns the process standard output stream.
func StdoutStream() Stream {
	return processStream{dest: Stdout}
}

type flusher interface {
	Flush() error
}

// WriterStream adapts an io.Writer to Stream. Writes are serialized, so
// writers that are not goroutine-safe, such as bytes.Buffer, can be used.
// Flush forwards to the writer when it has a Flush method.
type WriterStream struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterStream wraps w.
func NewWriterStream(w io.Writer) *WriterStream {
	return &WriterStream{w: w}
}

func (s *WriterStream) Write(p []byte) (int, error) {
	s.mu.Lock()
	n, err := s.w.Write(p)
	s.mu.Unlock()
	return n, err
}

func (s *WriterStream) Flush() error {
	f, ok := s.w.(flusher)
	if !ok {
		return nil
	}
	s.mu.Lock()
	err := f.Flush()
	s.mu.Unlock()
	return err
}
