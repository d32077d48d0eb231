package consolehandler

import (
	"sync/atomic"

	"github.com/philipp01105/duplog/core"
	"github.com/philipp01105/duplog/handler"
)

// SyncConsoleHandler writes on the caller's goroutine. Under no
// contention it formats into a handler-owned buffer; parallel callers
// format into pooled buffers outside the lock.
type SyncConsoleHandler struct {
	consoleBase
	closed atomic.Bool
}

// newSyncConsoleHandler creates a new synchronous console handler.
func newSyncConsoleHandler(cfg ConsoleConfig) *SyncConsoleHandler {
	h := &SyncConsoleHandler{}
	h.init(cfg)
	return h
}

// Write formats and writes the record if it passes MinLevel.
func (h *SyncConsoleHandler) Write(now *core.Now, entry *core.Entry) error {
	if entry.Level < h.minLevel {
		return nil
	}
	if h.closed.Load() {
		return handler.ErrClosed
	}
	return h.write(now, entry)
}

// Flush flushes the writer if it buffers.
func (h *SyncConsoleHandler) Flush() error {
	return h.flushWriter()
}

// Shutdown flushes the writer and rejects later records.
func (h *SyncConsoleHandler) Shutdown() {
	if h.closed.Swap(true) {
		return
	}
	reportShutdown(h.flushWriter())
}
