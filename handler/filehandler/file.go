package filehandler

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/philipp01105/duplog/core"
	"github.com/philipp01105/duplog/formatter"
	"github.com/philipp01105/duplog/handler"
	"github.com/philipp01105/duplog/internal/selflog"
)

// sizeTrackingWriter wraps an io.Writer and tracks total bytes written
type sizeTrackingWriter struct {
	w       io.Writer
	written int64
}

func (s *sizeTrackingWriter) Write(p []byte) (n int, err error) {
	n, err = s.w.Write(p)
	s.written += int64(n)
	return
}

// output is an open log file with its write buffer and rotation state.
type output struct {
	file           *os.File
	bufWriter      *bufio.Writer
	sizeWriter     *sizeTrackingWriter
	currentSize    int64
	lastRotateTime time.Time
}

// openOutput creates the directory if needed and opens the current file.
func openOutput(cfg handler.FileConfig, truncate bool) (*output, error) {
	if err := os.MkdirAll(cfg.Directory, 0755); err != nil {
		return nil, err
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if truncate {
		flags |= os.O_TRUNC
	}
	file, err := os.OpenFile(cfg.Path(), flags, 0644)
	if err != nil {
		return nil, err
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}

	sw := &sizeTrackingWriter{w: file}
	return &output{
		file:           file,
		sizeWriter:     sw,
		bufWriter:      bufio.NewWriterSize(sw, 4096),
		currentSize:    info.Size(),
		lastRotateTime: time.Now(),
	}, nil
}

// close flushes, syncs and closes the file.
func (o *output) close() error {
	if err := o.bufWriter.Flush(); err != nil {
		o.file.Close()
		return err
	}
	if err := o.file.Sync(); err != nil {
		o.file.Close()
		return err
	}
	return o.file.Close()
}

// FileHandler is the rotating file sink. It implements handler.FileWriter.
//
// In sync mode records are formatted and written on the caller's
// goroutine into a 4 KiB buffer; Flush pushes them to the file. In async
// mode they pass through a handler.Queue first.
type FileHandler struct {
	// lifecycle is held shared by record and query paths and exclusively
	// while the output or queue is replaced.
	lifecycle sync.RWMutex

	// mu guards out and syncBuf.
	mu              sync.Mutex
	cfg             handler.FileConfig
	out             *output
	bufferFormatter formatter.BufferFormatter
	syncBuf         bytes.Buffer

	queue *handler.Queue
	stats *handler.Stats
}

// NewFileHandler opens the file described by cfg.
func NewFileHandler(cfg handler.FileConfig) (*FileHandler, error) {
	handler.ApplyFileDefaults(&cfg)
	out, err := openOutput(cfg, cfg.Truncate)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	h := &FileHandler{stats: handler.NewStats()}
	h.syncBuf.Grow(256)
	h.install(cfg, out)
	return h, nil
}

// install makes cfg and out current. The caller holds lifecycle
// exclusively or is the constructor.
func (h *FileHandler) install(cfg handler.FileConfig, out *output) {
	h.mu.Lock()
	h.cfg = cfg
	h.out = out
	h.bufferFormatter, _ = cfg.Formatter.(formatter.BufferFormatter)
	h.mu.Unlock()

	h.queue = nil
	if cfg.Async {
		h.startQueue(cfg)
	}
}

// Write formats the record into the file, or queues it in async mode.
// Records below the configured MinLevel are ignored.
func (h *FileHandler) Write(now *core.Now, entry *core.Entry) error {
	h.lifecycle.RLock()
	defer h.lifecycle.RUnlock()

	if entry.Level < h.cfg.MinLevel {
		return nil
	}
	if h.queue != nil {
		return h.queue.Enqueue(now, entry)
	}
	return h.writeSync(now, entry)
}

// Flush writes buffered records to the file.
func (h *FileHandler) Flush() error {
	h.lifecycle.RLock()
	defer h.lifecycle.RUnlock()
	return h.flush()
}

func (h *FileHandler) flush() error {
	if h.queue != nil {
		if err := h.queue.Flush(); err != nil {
			return err
		}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.out == nil {
		return nil
	}
	if err := h.out.bufWriter.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", h.cfg.Path(), err)
	}
	return nil
}

// Shutdown drains the queue and closes the file. Later writes fail with
// handler.ErrClosed until Reset is called.
func (h *FileHandler) Shutdown() {
	h.lifecycle.Lock()
	defer h.lifecycle.Unlock()

	h.stopQueue()
	h.closeOutput()
}

func (h *FileHandler) closeOutput() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.out == nil {
		return
	}
	if err := h.out.close(); err != nil {
		selflog.Report(selflog.CodeShutdown, "close log file", err, zap.String("path", h.cfg.Path()))
	}
	h.out = nil
}

// Reset switches to cfg. The new file is opened before the old one is
// closed, so on error the handler keeps writing where it did.
func (h *FileHandler) Reset(cfg handler.FileConfig) error {
	handler.ApplyFileDefaults(&cfg)

	h.lifecycle.Lock()
	defer h.lifecycle.Unlock()

	out, err := openOutput(cfg, cfg.Truncate)
	if err != nil {
		return fmt.Errorf("reset log file: %w", err)
	}
	h.stopQueue()
	h.closeOutput()
	h.install(cfg, out)
	return nil
}

// Config returns the configuration in effect, defaults applied.
func (h *FileHandler) Config() (handler.FileConfig, error) {
	h.lifecycle.RLock()
	defer h.lifecycle.RUnlock()
	return h.cfg, nil
}

// Reopen opens the configured path again and continues writing there.
// Use it after an external tool renamed or removed the file.
func (h *FileHandler) Reopen() error {
	h.lifecycle.RLock()
	defer h.lifecycle.RUnlock()

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.out == nil {
		return handler.ErrClosed
	}

	out, err := openOutput(h.cfg, false)
	if err != nil {
		return fmt.Errorf("reopen %s: %w", h.cfg.Path(), err)
	}
	old := h.out
	h.out = out
	if err := old.close(); err != nil {
		return fmt.Errorf("close previous %s: %w", h.cfg.Path(), err)
	}
	return nil
}

// ExistingFiles lists the current file and its rotated backups, sorted
// by name, which is oldest-first for backups.
func (h *FileHandler) ExistingFiles() ([]string, error) {
	h.lifecycle.RLock()
	path := h.cfg.Path()
	h.lifecycle.RUnlock()
	return listFiles(path)
}

// ListFiles returns the files a FileHandler built from cfg would report
// from ExistingFiles, without creating or opening anything.
func ListFiles(cfg handler.FileConfig) ([]string, error) {
	handler.ApplyFileDefaults(&cfg)
	return listFiles(cfg.Path())
}

func listFiles(path string) ([]string, error) {
	files := []string{}
	if _, err := os.Stat(path); err == nil {
		files = append(files, path)
	}
	backups, err := listBackups(path)
	if err != nil {
		return nil, err
	}
	return append(files, backups...), nil
}

func listBackups(path string) ([]string, error) {
	matches, err := filepath.Glob(escapeGlob(path) + ".*")
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

// Validate flushes and checks the current file line by line.
func (h *FileHandler) Validate(expected []handler.Expectation) error {
	h.lifecycle.RLock()
	defer h.lifecycle.RUnlock()

	if err := h.flush(); err != nil {
		return err
	}
	f, err := os.Open(h.cfg.Path())
	if err != nil {
		return err
	}
	defer f.Close()
	return handler.ValidateLines(f, expected)
}

// MaxLevel returns the filter matching the configured MinLevel.
func (h *FileHandler) MaxLevel() core.LevelFilter {
	h.lifecycle.RLock()
	defer h.lifecycle.RUnlock()
	return core.FilterFor(h.cfg.MinLevel)
}

// Stats returns a snapshot of the current statistics
func (h *FileHandler) Stats() handler.Snapshot {
	return h.stats.GetSnapshot()
}

// Path returns the current output path.
func (h *FileHandler) Path() string {
	h.lifecycle.RLock()
	defer h.lifecycle.RUnlock()
	return h.cfg.Path()
}

var globEscaper = map[rune]bool{'*': true, '?': true, '[': true, '\\': true}

func escapeGlob(s string) string {
	var b bytes.Buffer
	for _, r := range s {
		if globEscaper[r] && filepath.Separator != '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
