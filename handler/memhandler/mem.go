// Package memhandler provides an in-memory generic sink. It keeps every
// accepted record and its formatted line, which makes it the natural
// destination for tests and for tooling that inspects log output.
package memhandler

import (
	"strings"
	"sync"

	"github.com/philipp01105/duplog/core"
	"github.com/philipp01105/duplog/formatter"
	"github.com/philipp01105/duplog/handler"
)

// Record is a retained entry with its formatted line.
type Record struct {
	Entry *core.Entry
	Line  string
}

// Config holds configuration for a MemoryHandler
type Config struct {
	// Formatter renders Line (default: TextFormatter)
	Formatter formatter.Formatter
	// MinLevel is the least severe level kept (default: TraceLevel)
	MinLevel core.Level
	// Limit caps the number of kept records; the oldest are discarded (0 = unlimited)
	Limit int
}

// MemoryHandler keeps records in memory. It is safe for concurrent use.
type MemoryHandler struct {
	mu      sync.Mutex
	cfg     Config
	records []Record
	closed  bool
}

// New creates a MemoryHandler.
func New(cfg Config) *MemoryHandler {
	if cfg.Formatter == nil {
		cfg.Formatter = formatter.NewTextFormatter(formatter.Config{})
	}
	return &MemoryHandler{cfg: cfg}
}

func (h *MemoryHandler) Write(now *core.Now, entry *core.Entry) error {
	if entry.Level < h.cfg.MinLevel {
		return nil
	}
	line, err := h.cfg.Formatter.Format(now, entry)
	if err != nil {
		return err
	}
	kept := entry.Clone()
	if now != nil {
		kept.Time = now.Time()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return handler.ErrClosed
	}
	h.records = append(h.records, Record{Entry: kept, Line: strings.TrimRight(string(line), "\n")})
	if h.cfg.Limit > 0 && len(h.records) > h.cfg.Limit {
		h.records = append(h.records[:0:0], h.records[len(h.records)-h.cfg.Limit:]...)
	}
	return nil
}

func (h *MemoryHandler) Flush() error { return nil }

// Shutdown makes later writes fail. Kept records stay readable.
func (h *MemoryHandler) Shutdown() {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
}

// Validate checks the kept lines against expected.
func (h *MemoryHandler) Validate(expected []handler.Expectation) error {
	return handler.ValidateLines(strings.NewReader(h.Text()), expected)
}

func (h *MemoryHandler) MaxLevel() core.LevelFilter {
	return core.FilterFor(h.cfg.MinLevel)
}

// Records returns a copy of the kept records.
func (h *MemoryHandler) Records() []Record {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Record(nil), h.records...)
}

// Lines returns the formatted lines of the kept records.
func (h *MemoryHandler) Lines() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	lines := make([]string, len(h.records))
	for i, r := range h.records {
		lines[i] = r.Line
	}
	return lines
}

// Text returns all lines, each terminated by a newline.
func (h *MemoryHandler) Text() string {
	var b strings.Builder
	for _, l := range h.Lines() {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return b.String()
}

// Len returns the number of kept records.
func (h *MemoryHandler) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.records)
}

// Reset discards all kept records.
func (h *MemoryHandler) Reset() {
	h.mu.Lock()
	h.records = nil
	h.mu.Unlock()
}
