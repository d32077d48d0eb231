package consolehandler

import (
	"go.uber.org/multierr"

	"github.com/philipp01105/duplog/core"
	"github.com/philipp01105/duplog/handler"
	"github.com/philipp01105/duplog/internal/selflog"
)

// AsyncConsoleHandler hands records to a handler.Queue drained by a
// dedicated background goroutine, keeping slow writers off the caller's
// path. Full queues are handled by the per-level OverflowPolicy.
type AsyncConsoleHandler struct {
	consoleBase
	queue *handler.Queue
}

// newAsyncConsoleHandler creates a new asynchronous console handler.
func newAsyncConsoleHandler(cfg ConsoleConfig) *AsyncConsoleHandler {
	h := &AsyncConsoleHandler{}
	h.init(cfg)
	h.queue = handler.NewQueue(handler.QueueConfig{
		Name:           "console",
		BufferSize:     cfg.BufferSize,
		OverflowPolicy: cfg.OverflowPolicy,
		BlockTimeout:   cfg.BlockTimeout,
		DrainTimeout:   cfg.DrainTimeout,
	}, h.stats, h.processWrite)
	return h
}

// Write queues the record if it passes MinLevel.
func (h *AsyncConsoleHandler) Write(now *core.Now, entry *core.Entry) error {
	if entry.Level < h.minLevel {
		return nil
	}
	return h.queue.Enqueue(now, entry)
}

// Flush waits for queued records and flushes the writer if it buffers.
func (h *AsyncConsoleHandler) Flush() error {
	return multierr.Append(h.queue.Flush(), h.flushWriter())
}

// Shutdown drains the queue with a timeout and flushes the writer.
func (h *AsyncConsoleHandler) Shutdown() {
	reportShutdown(multierr.Append(h.queue.Close(), h.flushWriter()))
}

func reportShutdown(err error) {
	if err != nil {
		selflog.Report(selflog.CodeShutdown, "console handler shutdown", err)
	}
}
