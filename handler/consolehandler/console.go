package consolehandler

import (
	"bytes"
	"io"
	"os"
	"sync"
	"time"

	"github.com/philipp01105/duplog/core"
	"github.com/philipp01105/duplog/formatter"
	"github.com/philipp01105/duplog/handler"
)

// lockedWriter wraps an io.Writer with a mutex, acquiring the lock only
// for Write calls. Formatters prepare data in their own pooled buffers
// and call Write once, so the lock is held only during the actual I/O.
// Uses the handler's main mu to serialize all writes.
type lockedWriter struct {
	mu *sync.Mutex // points to handler's mu
	w  io.Writer
}

func (lw *lockedWriter) Write(p []byte) (n int, err error) {
	lw.mu.Lock()
	n, err = lw.w.Write(p)
	lw.mu.Unlock()
	return
}

// isConcurrentSafeWriter returns true if the writer is known to be safe for
// concurrent Write calls, allowing the handler to skip write-level locking.
func isConcurrentSafeWriter(w io.Writer) bool {
	if w == io.Discard {
		return true
	}
	_, ok := w.(*os.File)
	return ok
}

// parallelBuf is a pooled format buffer for writers contending on mu.
type parallelBuf struct {
	buf bytes.Buffer
}

// consoleBase contains shared fields and methods for console handlers.
type consoleBase struct {
	writer          io.Writer
	formatter       formatter.Formatter
	writerFormatter formatter.WriterFormatter
	bufferFormatter formatter.BufferFormatter
	minLevel        core.Level
	concurrentSafe  bool // true if writer is safe for concurrent Write calls
	stats           *handler.Stats
	mu              sync.Mutex // protects syncBuf and writer (single lock)
	lw              lockedWriter
	syncBuf         bytes.Buffer
	parBufPool      sync.Pool
}

func (b *consoleBase) init(cfg ConsoleConfig) {
	b.writer = cfg.Writer
	b.formatter = cfg.Formatter
	b.minLevel = cfg.MinLevel
	b.concurrentSafe = cfg.ConcurrentWriter || isConcurrentSafeWriter(cfg.Writer)
	b.stats = handler.NewStats()

	// Cache WriterFormatter for zero-alloc path
	b.writerFormatter, _ = cfg.Formatter.(formatter.WriterFormatter)

	// Cache BufferFormatter for the handler-owned buffer path
	b.bufferFormatter, _ = cfg.Formatter.(formatter.BufferFormatter)

	// Pre-allocate lockedWriter for lock-minimal write path
	b.lw = lockedWriter{mu: &b.mu, w: b.writer}

	if b.bufferFormatter != nil {
		b.syncBuf.Grow(256)
		b.parBufPool = sync.Pool{
			New: func() interface{} {
				pb := &parallelBuf{}
				pb.buf.Grow(256)
				return pb
			},
		}
	}
}

// write formats and writes an entry.
// Uses TryLock on mu to access the handler-owned buffer when uncontended.
// When contended and bufferFormatter is available, formats into a pooled
// buffer outside the lock, then writes under mu. Otherwise, falls through
// to writerFormatter or generic formatter paths.
func (b *consoleBase) write(now *core.Now, entry *core.Entry) error {
	if b.bufferFormatter != nil {
		if b.mu.TryLock() {
			b.syncBuf.Reset()
			err := b.bufferFormatter.FormatEntry(now, entry, &b.syncBuf)
			if err == nil {
				_, err = b.writer.Write(b.syncBuf.Bytes())
			}
			b.mu.Unlock()
			return b.count(err)
		}

		// Parallel fallback: format in pool buffer outside lock, then
		// write under mu (or directly for concurrent-safe writers).
		pb := b.parBufPool.Get().(*parallelBuf)
		pb.buf.Reset()
		err := b.bufferFormatter.FormatEntry(now, entry, &pb.buf)
		if err == nil {
			if b.concurrentSafe {
				_, err = b.writer.Write(pb.buf.Bytes())
			} else {
				b.mu.Lock()
				_, err = b.writer.Write(pb.buf.Bytes())
				b.mu.Unlock()
			}
		}
		b.parBufPool.Put(pb)
		return b.count(err)
	}

	if b.writerFormatter != nil {
		if b.concurrentSafe {
			return b.count(b.writerFormatter.FormatTo(now, entry, b.writer))
		}
		return b.count(b.writerFormatter.FormatTo(now, entry, &b.lw))
	}

	data, err := b.formatter.Format(now, entry)
	if err != nil {
		return b.count(err)
	}
	if b.concurrentSafe {
		_, err = b.writer.Write(data)
		return b.count(err)
	}
	_, err = b.lw.Write(data)
	return b.count(err)
}

// processWrite formats and writes using the handler-owned buffer under
// Lock. Used by the async worker, where contention is rare.
func (b *consoleBase) processWrite(now *core.Now, entry *core.Entry) error {
	if b.bufferFormatter != nil {
		b.mu.Lock()
		b.syncBuf.Reset()
		err := b.bufferFormatter.FormatEntry(now, entry, &b.syncBuf)
		if err == nil {
			_, err = b.writer.Write(b.syncBuf.Bytes())
		}
		b.mu.Unlock()
		return b.count(err)
	}
	return b.write(now, entry)
}

func (b *consoleBase) count(err error) error {
	if err != nil {
		b.stats.IncrementFailed()
		return err
	}
	b.stats.IncrementProcessed()
	return nil
}

type flusher interface {
	Flush() error
}

// flushWriter flushes writers that buffer, such as *bufio.Writer.
func (b *consoleBase) flushWriter() error {
	f, ok := b.writer.(flusher)
	if !ok {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return f.Flush()
}

// MaxLevel returns the filter matching the configured MinLevel.
func (b *consoleBase) MaxLevel() core.LevelFilter {
	return core.FilterFor(b.minLevel)
}

// Validate is not supported: console output cannot be read back.
func (b *consoleBase) Validate([]handler.Expectation) error {
	return handler.ErrValidateUnsupported
}

// Stats returns a snapshot of the current statistics
func (b *consoleBase) Stats() handler.Snapshot {
	return b.stats.GetSnapshot()
}

// ConsoleConfig holds configuration for console handler
type ConsoleConfig struct {
	// Writer to write to (default: os.Stdout)
	Writer io.Writer
	// Formatter to use (default: TextFormatter)
	Formatter formatter.Formatter
	// MinLevel is the least severe level written (default: TraceLevel)
	MinLevel core.Level
	// Async enables asynchronous logging
	Async bool
	// BufferSize is the size of the async queue (default: 1000)
	BufferSize int
	// OverflowPolicy defines per-level overflow behavior (default: uses DefaultLevelPolicy)
	OverflowPolicy map[core.Level]handler.OverflowPolicy
	// BlockTimeout is the timeout for blocking overflow policy (default: 100ms)
	BlockTimeout time.Duration
	// DrainTimeout is the timeout for draining queue on Shutdown (default: 5s)
	DrainTimeout time.Duration
	// ConcurrentWriter indicates the Writer supports concurrent Write calls.
	// When true, the handler skips write-level locking for parallel log entries,
	// significantly improving parallel throughput. Automatically detected for
	// io.Discard and *os.File; set true for other goroutine-safe writers.
	ConcurrentWriter bool
}

// applyConsoleDefaults fills in zero-value fields with defaults.
func applyConsoleDefaults(cfg *ConsoleConfig) {
	if cfg.Writer == nil {
		cfg.Writer = os.Stdout
	}
	if cfg.Formatter == nil {
		cfg.Formatter = formatter.NewTextFormatter(formatter.Config{})
	}
}

// NewConsoleHandler creates a new console handler.
// Returns a SyncConsoleHandler when Async is false, or an AsyncConsoleHandler
// when Async is true. Both implement handler.Writer and handler.StatsProvider.
func NewConsoleHandler(cfg ConsoleConfig) handler.Writer {
	applyConsoleDefaults(&cfg)
	if cfg.Async {
		return newAsyncConsoleHandler(cfg)
	}
	return newSyncConsoleHandler(cfg)
}
