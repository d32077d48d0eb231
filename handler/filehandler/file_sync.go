package filehandler

import (
	"fmt"

	"github.com/philipp01105/duplog/core"
	"github.com/philipp01105/duplog/handler"
)

// writeSync formats the record into the handler-owned buffer and copies
// it to the file buffer, rotating first when a limit has been reached.
// It serves both the sync path and the async worker.
func (h *FileHandler) writeSync(now *core.Now, entry *core.Entry) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.out == nil {
		return handler.ErrClosed
	}
	if err := h.rotateIfNeeded(); err != nil {
		return fmt.Errorf("rotate %s: %w", h.cfg.Path(), err)
	}

	h.syncBuf.Reset()
	if h.bufferFormatter != nil {
		if err := h.bufferFormatter.FormatEntry(now, entry, &h.syncBuf); err != nil {
			return fmt.Errorf("format record: %w", err)
		}
	} else {
		data, err := h.cfg.Formatter.Format(now, entry)
		if err != nil {
			return fmt.Errorf("format record: %w", err)
		}
		h.syncBuf.Write(data)
	}

	n, err := h.out.bufWriter.Write(h.syncBuf.Bytes())
	h.out.currentSize += int64(n)
	if err != nil {
		h.stats.IncrementFailed()
		return fmt.Errorf("write %s: %w", h.cfg.Path(), err)
	}
	h.stats.IncrementProcessed()
	return nil
}
