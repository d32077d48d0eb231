package handler_test

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/philipp01105/duplog/core"
	"github.com/philipp01105/duplog/formatter"
	"github.com/philipp01105/duplog/handler"
)

// journal records the order in which destinations are touched.
type journal struct {
	mu     sync.Mutex
	events []string
}

func (j *journal) add(ev string) {
	j.mu.Lock()
	j.events = append(j.events, ev)
	j.mu.Unlock()
}

func (j *journal) list() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.events...)
}

type fakeStream struct {
	name     string
	j        *journal
	lines    []string
	writeErr error
	flushErr error
}

func (s *fakeStream) Write(p []byte) (int, error) {
	s.j.add(s.name + ".write")
	if s.writeErr != nil {
		return 0, s.writeErr
	}
	s.lines = append(s.lines, string(p))
	return len(p), nil
}

func (s *fakeStream) Flush() error {
	s.j.add(s.name + ".flush")
	return s.flushErr
}

type fakeWriter struct {
	name        string
	j           *journal
	entries     []string
	times       []time.Time
	writeErr    error
	flushErr    error
	validateErr error
	level       core.LevelFilter
	validated   [][]handler.Expectation
	shutdown    bool
}

func (w *fakeWriter) Write(now *core.Now, entry *core.Entry) error {
	w.j.add(w.name + ".write")
	if w.writeErr != nil {
		return w.writeErr
	}
	w.entries = append(w.entries, entry.Message)
	w.times = append(w.times, now.Time())
	return nil
}

func (w *fakeWriter) Flush() error {
	w.j.add(w.name + ".flush")
	return w.flushErr
}

func (w *fakeWriter) Shutdown() {
	w.j.add(w.name + ".shutdown")
	w.shutdown = true
}

func (w *fakeWriter) Validate(expected []handler.Expectation) error {
	w.j.add(w.name + ".validate")
	w.validated = append(w.validated, expected)
	return w.validateErr
}

func (w *fakeWriter) MaxLevel() core.LevelFilter {
	return w.level
}

type fakeFileWriter struct {
	fakeWriter
	cfg       handler.FileConfig
	files     []string
	reopened  int
	resetErr  error
	reopenErr error
}

func (w *fakeFileWriter) Reset(cfg handler.FileConfig) error {
	w.j.add(w.name + ".reset")
	if w.resetErr != nil {
		return w.resetErr
	}
	w.cfg = cfg
	return nil
}

func (w *fakeFileWriter) Config() (handler.FileConfig, error) {
	return w.cfg, nil
}

func (w *fakeFileWriter) Reopen() error {
	w.j.add(w.name + ".reopen")
	w.reopened++
	return w.reopenErr
}

func (w *fakeFileWriter) ExistingFiles() ([]string, error) {
	return w.files, nil
}

var errFormat = errors.New("bad field")

// plainFormat writes "LEVEL message" and stamps the time it saw.
func plainFormat(seen *[]time.Time) formatter.FormatFunc {
	return func(w io.Writer, now *core.Now, entry *core.Entry) error {
		if seen != nil {
			*seen = append(*seen, now.Time())
		}
		_, err := io.WriteString(w, entry.Level.String()+" "+entry.Message)
		return err
	}
}

// failingFormat writes a partial record and fails.
func failingFormat(w io.Writer, _ *core.Now, entry *core.Entry) error {
	_, _ = io.WriteString(w, "partial "+entry.Message)
	return errFormat
}

func newEntry(level core.Level, msg string) *core.Entry {
	return &core.Entry{Level: level, Message: msg}
}
