package logger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/philipp01105/duplog/core"
	"github.com/philipp01105/duplog/formatter"
	"github.com/philipp01105/duplog/handler"
	"github.com/philipp01105/duplog/handler/consolehandler"
	"github.com/philipp01105/duplog/handler/filehandler"
	"github.com/philipp01105/duplog/handler/zaphandler"
)

// Config is a declarative logger description loadable from JSON or YAML.
type Config struct {
	// Level is the least severe level logged (default: "info")
	Level string `json:"level" yaml:"level"`
	// Tag is attached to every record
	Tag string `json:"tag" yaml:"tag"`
	// DuplicateStderr selects the records copied to stderr (default: "none")
	DuplicateStderr string `json:"duplicateStderr" yaml:"duplicateStderr"`
	// DuplicateStdout selects the records copied to stdout (default: "none")
	DuplicateStdout string `json:"duplicateStdout" yaml:"duplicateStdout"`
	// Capture prints console copies in capture-friendly mode
	Capture bool `json:"capture" yaml:"capture"`
	// Format of the console copies: text, json, zap-json or zap-console (default: text)
	Format string `json:"format" yaml:"format"`
	// TimestampFormat is a Go time layout for text and json formats
	TimestampFormat string `json:"timestampFormat" yaml:"timestampFormat"`
	// File configures the file sink
	File *FileSection `json:"file" yaml:"file"`
	// Sink configures the generic sink
	Sink *SinkSection `json:"sink" yaml:"sink"`

	// Stderr and Stdout override the process streams
	Stderr handler.Stream `json:"-" yaml:"-"`
	Stdout handler.Stream `json:"-" yaml:"-"`
}

// FileSection is the serialized form of handler.FileConfig.
type FileSection struct {
	Directory      string         `json:"directory" yaml:"directory"`
	Basename       string         `json:"basename" yaml:"basename"`
	Suffix         string         `json:"suffix" yaml:"suffix"`
	Level          string         `json:"level" yaml:"level"`
	Format         string         `json:"format" yaml:"format"`
	Truncate       bool           `json:"truncate" yaml:"truncate"`
	Async          bool           `json:"async" yaml:"async"`
	BufferSize     int            `json:"bufferSize" yaml:"bufferSize"`
	MaxSize        int64          `json:"maxSize" yaml:"maxSize"`
	MaxAge         ConfigDuration `json:"maxAge" yaml:"maxAge"`
	RotateInterval ConfigDuration `json:"rotateInterval" yaml:"rotateInterval"`
	MaxBackups     int            `json:"maxBackups" yaml:"maxBackups"`
	Compress       bool           `json:"compress" yaml:"compress"`
}

// SinkSection configures the generic sink.
type SinkSection struct {
	// Type is stdout, stderr or zap
	Type   string `json:"type" yaml:"type"`
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
	Async  bool   `json:"async" yaml:"async"`
}

// ConfigDuration is a time.Duration written as a string such as "24h".
type ConfigDuration time.Duration

func (d *ConfigDuration) set(s string) error {
	if s == "" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = ConfigDuration(v)
	return nil
}

// UnmarshalJSON accepts a duration string or a number of nanoseconds.
func (d *ConfigDuration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		return d.set(s)
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("duration must be a string or integer: %s", b)
	}
	*d = ConfigDuration(n)
	return nil
}

func (d ConfigDuration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *ConfigDuration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", node.Line)
	}
	if err := d.set(node.Value); err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	return nil
}

func (d ConfigDuration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// LoadConfig reads a Config from a JSON or YAML file, chosen by
// extension. Unknown extensions are read as JSON.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(b))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	return cfg, nil
}

// parsed holds the validated values of a Config.
type parsed struct {
	level     core.Level
	dupStderr handler.Duplicate
	dupStdout handler.Duplicate
	console   formatter.Formatter
}

func (c Config) parse() (parsed, error) {
	var p parsed
	var errs error

	p.level = core.InfoLevel
	if c.Level != "" {
		l, err := core.ParseLevel(c.Level)
		errs = multierr.Append(errs, wrap("level", err))
		p.level = l
	}
	d, err := handler.ParseDuplicate(c.DuplicateStderr)
	errs = multierr.Append(errs, wrap("duplicateStderr", err))
	p.dupStderr = d
	d, err = handler.ParseDuplicate(c.DuplicateStdout)
	errs = multierr.Append(errs, wrap("duplicateStdout", err))
	p.dupStdout = d

	f, err := newFormatter(c.Format, c.TimestampFormat)
	errs = multierr.Append(errs, wrap("format", err))
	p.console = f

	if c.File != nil {
		_, err := c.File.fileConfig(c.TimestampFormat)
		errs = multierr.Append(errs, wrap("file", err))
	}
	if c.Sink != nil {
		errs = multierr.Append(errs, wrap("sink", c.Sink.check()))
	}
	return p, errs
}

// Validate reports every invalid value in the Config.
func (c Config) Validate() error {
	_, err := c.parse()
	return err
}

// MultiWriter creates the dispatcher described by the Config. On error
// nothing stays open.
func (c Config) MultiWriter() (*handler.MultiWriter, error) {
	p, err := c.parse()
	if err != nil {
		return nil, err
	}

	mc := handler.MultiConfig{
		DuplicateStderr: p.dupStderr,
		DuplicateStdout: p.dupStdout,
		SupportCapture:  c.Capture,
		FormatStderr:    formatFunc(p.console),
		FormatStdout:    formatFunc(p.console),
		Stderr:          c.Stderr,
		Stdout:          c.Stdout,
	}
	if c.File != nil {
		fc, _ := c.File.fileConfig(c.TimestampFormat)
		fh, err := filehandler.NewFileHandler(fc)
		if err != nil {
			return nil, err
		}
		mc.FileWriter = fh
	}
	if c.Sink != nil {
		mc.OtherWriter = c.Sink.writer(c.TimestampFormat)
	}
	return handler.NewMultiWriter(mc), nil
}

// Build creates a Logger writing to the dispatcher described by the Config.
func (c Config) Build() (*Logger, error) {
	mw, err := c.MultiWriter()
	if err != nil {
		return nil, err
	}
	p, _ := c.parse()
	return NewBuilder().
		WithHandler(mw).
		WithLevel(p.level).
		WithTag(c.Tag).
		Build(), nil
}

func (f *FileSection) fileConfig(timestampFormat string) (handler.FileConfig, error) {
	var errs error
	level := core.TraceLevel
	if f.Level != "" {
		l, err := core.ParseLevel(f.Level)
		errs = multierr.Append(errs, err)
		level = l
	}
	fm, err := newFormatter(f.Format, timestampFormat)
	errs = multierr.Append(errs, err)
	if f.MaxSize < 0 {
		errs = multierr.Append(errs, fmt.Errorf("maxSize must not be negative"))
	}
	if f.MaxBackups < 0 {
		errs = multierr.Append(errs, fmt.Errorf("maxBackups must not be negative"))
	}
	return handler.FileConfig{
		Directory:      f.Directory,
		Basename:       f.Basename,
		Suffix:         f.Suffix,
		Formatter:      fm,
		MinLevel:       level,
		Truncate:       f.Truncate,
		Async:          f.Async,
		BufferSize:     f.BufferSize,
		MaxSize:        f.MaxSize,
		MaxAge:         time.Duration(f.MaxAge),
		RotateInterval: time.Duration(f.RotateInterval),
		MaxBackups:     f.MaxBackups,
		Compress:       f.Compress,
	}, errs
}

func (s *SinkSection) check() error {
	var errs error
	switch s.Type {
	case "stdout", "stderr", "zap":
	default:
		errs = multierr.Append(errs, fmt.Errorf("unknown sink type %q", s.Type))
	}
	if s.Level != "" {
		_, err := core.ParseLevel(s.Level)
		errs = multierr.Append(errs, err)
	}
	_, err := newFormatter(s.Format, "")
	return multierr.Append(errs, err)
}

// writer builds the sink. check must have succeeded.
func (s *SinkSection) writer(timestampFormat string) handler.Writer {
	level := core.TraceLevel
	if s.Level != "" {
		level, _ = core.ParseLevel(s.Level)
	}
	if s.Type == "zap" {
		enc := zap.NewProductionEncoderConfig()
		enc.TimeKey = "time"
		enc.EncodeTime = zapcore.RFC3339NanoTimeEncoder
		return zaphandler.New(zapcore.NewCore(
			zapcore.NewJSONEncoder(enc),
			zapcore.Lock(os.Stdout),
			formatter.ZapLevel(level),
		))
	}
	fm, _ := newFormatter(s.Format, timestampFormat)
	out := os.Stdout
	if s.Type == "stderr" {
		out = os.Stderr
	}
	return consolehandler.NewConsoleHandler(consolehandler.ConsoleConfig{
		Writer:    out,
		Formatter: fm,
		MinLevel:  level,
		Async:     s.Async,
	})
}

func newFormatter(name, timestampFormat string) (formatter.Formatter, error) {
	cfg := formatter.Config{TimestampFormat: timestampFormat}
	switch strings.ToLower(name) {
	case "", "text":
		return formatter.NewTextFormatter(cfg), nil
	case "json":
		return formatter.NewJSONFormatter(cfg), nil
	case "zap-json":
		return formatter.NewZapJSONFormatter(), nil
	case "zap-console":
		return formatter.NewZapConsoleFormatter(), nil
	default:
		return nil, fmt.Errorf("unknown format %q", name)
	}
}

func formatFunc(f formatter.Formatter) formatter.FormatFunc {
	if rw, ok := f.(formatter.RecordWriter); ok {
		return formatter.Func(rw)
	}
	return nil
}

func wrap(what string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", what, err)
}
