package filehandler

import (
	"go.uber.org/zap"

	"github.com/philipp01105/duplog/handler"
	"github.com/philipp01105/duplog/internal/selflog"
)

// startQueue routes records through a bounded queue drained by one
// background goroutine. The caller holds lifecycle exclusively.
func (h *FileHandler) startQueue(cfg handler.FileConfig) {
	h.queue = handler.NewQueue(handler.QueueConfig{
		Name:           cfg.Path(),
		BufferSize:     cfg.BufferSize,
		OverflowPolicy: cfg.OverflowPolicy,
		BlockTimeout:   cfg.BlockTimeout,
		DrainTimeout:   cfg.DrainTimeout,
	}, h.stats, h.writeSync)
}

// stopQueue drains and stops the queue, if any. Write errors still
// pending in the queue have already been reported by the worker.
func (h *FileHandler) stopQueue() {
	if h.queue == nil {
		return
	}
	if err := h.queue.Close(); err != nil {
		selflog.Report(selflog.CodeShutdown, "file queue closed with errors", err, zap.String("path", h.cfg.Path()))
	}
	h.queue = nil
}
