package benchmark

import (
	"github.com/philipp01105/duplog/core"
	"github.com/philipp01105/duplog/handler"
)

// noopWriter is a persistent sink that does no I/O, isolating the cost
// of dispatch.
type noopWriter struct{}

func newNoopWriter() handler.Writer {
	return noopWriter{}
}

func (noopWriter) Write(_ *core.Now, e *core.Entry) error {
	_ = len(e.Message)
	return nil
}

func (noopWriter) Flush() error { return nil }

func (noopWriter) Shutdown() {}

func (noopWriter) Validate([]handler.Expectation) error { return handler.ErrValidateUnsupported }

func (noopWriter) MaxLevel() core.LevelFilter { return core.FilterTrace }
