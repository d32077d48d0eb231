package multihandler

import (
	"errors"

	"go.uber.org/multierr"

	"github.com/philipp01105/duplog/core"
	"github.com/philipp01105/duplog/handler"
)

// MultiHandler dispatches records to multiple handler.Writer children.
type MultiHandler struct {
	writers []handler.Writer
}

// NewMultiHandler creates a handler that forwards to all given writers.
// Nil writers are skipped.
func NewMultiHandler(writers ...handler.Writer) *MultiHandler {
	ws := make([]handler.Writer, 0, len(writers))
	for _, w := range writers {
		if w != nil {
			ws = append(ws, w)
		}
	}
	return &MultiHandler{writers: ws}
}

// Write forwards the record to every child whose MaxLevel admits it.
func (m *MultiHandler) Write(now *core.Now, entry *core.Entry) error {
	var err error
	for _, w := range m.writers {
		if !w.MaxLevel().Enabled(entry.Level) {
			continue
		}
		err = multierr.Append(err, w.Write(now, entry))
	}
	return err
}

func (m *MultiHandler) Flush() error {
	var err error
	for _, w := range m.writers {
		err = multierr.Append(err, w.Flush())
	}
	return err
}

func (m *MultiHandler) Shutdown() {
	for _, w := range m.writers {
		w.Shutdown()
	}
}

// Validate asks every child to validate. Children that cannot read back
// their output are skipped.
func (m *MultiHandler) Validate(expected []handler.Expectation) error {
	var err error
	for _, w := range m.writers {
		verr := w.Validate(expected)
		if errors.Is(verr, handler.ErrValidateUnsupported) {
			continue
		}
		err = multierr.Append(err, verr)
	}
	return err
}

// MaxLevel returns the most verbose filter among the children, or
// FilterOff when there are none.
func (m *MultiHandler) MaxLevel() core.LevelFilter {
	max := core.FilterOff
	for _, w := range m.writers {
		max = core.MaxFilter(max, w.MaxLevel())
	}
	return max
}

// Len returns the number of children.
func (m *MultiHandler) Len() int { return len(m.writers) }
