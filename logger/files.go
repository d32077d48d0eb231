package logger

import (
	"github.com/philipp01105/duplog/handler"
	"github.com/philipp01105/duplog/handler/filehandler"
)

// fileControl is the file-sink control surface of *handler.MultiWriter.
type fileControl interface {
	ResetFileWriter(cfg handler.FileConfig) error
	FileWriterConfig() (handler.FileConfig, error)
	ReopenOutputFile() error
	ExistingLogFiles() ([]string, error)
}

// fileWriterControl adapts a bare handler.FileWriter installed as the
// Logger's writer.
type fileWriterControl struct {
	fw handler.FileWriter
}

func (c fileWriterControl) ResetFileWriter(cfg handler.FileConfig) error {
	return c.fw.Reset(cfg)
}

func (c fileWriterControl) FileWriterConfig() (handler.FileConfig, error) {
	return c.fw.Config()
}

func (c fileWriterControl) ReopenOutputFile() error {
	return c.fw.Reopen()
}

func (c fileWriterControl) ExistingLogFiles() ([]string, error) {
	return c.fw.ExistingFiles()
}

func (l *Logger) files() fileControl {
	return controlFor(l.Writer())
}

func controlFor(w handler.Writer) fileControl {
	switch w := w.(type) {
	case fileControl:
		return w
	case handler.FileWriter:
		return fileWriterControl{fw: w}
	}
	return nil
}

// ResetFileWriter replaces the file sink configuration.
// It returns handler.ErrNoFileWriter when there is no file sink. The
// level gate is recomputed since the new configuration may change the
// sink's MaxLevel.
func (l *Logger) ResetFileWriter(cfg handler.FileConfig) error {
	t := l.target.Load()
	fc := controlFor(t.writer)
	if fc == nil {
		return handler.ErrNoFileWriter
	}
	if err := fc.ResetFileWriter(cfg); err != nil {
		return err
	}
	l.target.CompareAndSwap(t, newTarget(t.writer))
	return nil
}

// FileWriterConfig returns the file sink configuration.
func (l *Logger) FileWriterConfig() (handler.FileConfig, error) {
	fc := l.files()
	if fc == nil {
		return handler.FileConfig{}, handler.ErrNoFileWriter
	}
	return fc.FileWriterConfig()
}

// ReopenOutputFile reopens the file sink's current file, for use after
// the file was moved by an external tool.
func (l *Logger) ReopenOutputFile() error {
	fc := l.files()
	if fc == nil {
		return handler.ErrNoFileWriter
	}
	return fc.ReopenOutputFile()
}

// ExistingLogFiles lists the files written by the file sink. It returns
// an empty list when there is no file sink.
func (l *Logger) ExistingLogFiles() ([]string, error) {
	fc := l.files()
	if fc == nil {
		return []string{}, nil
	}
	return fc.ExistingLogFiles()
}

// ExistingLogFiles lists the files of the configured file sink without
// opening it. It returns an empty list when no file sink is configured.
func (c Config) ExistingLogFiles() ([]string, error) {
	if c.File == nil {
		return []string{}, nil
	}
	fc, err := c.File.fileConfig(c.TimestampFormat)
	if err != nil {
		return nil, err
	}
	return filehandler.ListFiles(fc)
}
