package handler

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/philipp01105/duplog/core"
	"github.com/philipp01105/duplog/formatter"
)

// FileConfig holds configuration for a file sink
type FileConfig struct {
	// Directory receives the log files (default: current directory)
	Directory string
	// Basename is the file name without suffix (default: program name)
	Basename string
	// Suffix is the file extension without the dot (default: "log")
	Suffix string
	// Formatter to use (default: TextFormatter)
	Formatter formatter.Formatter
	// MinLevel is the least severe level written (default: TraceLevel)
	MinLevel core.Level
	// Truncate empties an existing file on open instead of appending
	Truncate bool
	// Async enables asynchronous writing through a bounded queue
	Async bool
	// BufferSize is the size of the async queue (default: 1000)
	BufferSize int
	// OverflowPolicy defines per-level overflow behavior (default: uses DefaultLevelPolicy)
	OverflowPolicy map[core.Level]OverflowPolicy
	// BlockTimeout is the timeout for blocking overflow policy (default: 100ms)
	BlockTimeout time.Duration
	// DrainTimeout is the timeout for draining queue on Shutdown (default: 5s)
	DrainTimeout time.Duration
	// MaxSize is the maximum size in bytes before rotation (0 = no size rotation)
	MaxSize int64
	// MaxAge is the maximum age before rotation (0 = no time rotation)
	MaxAge time.Duration
	// RotateInterval is the interval for time-based rotation (0 = no interval rotation)
	RotateInterval time.Duration
	// MaxBackups is the maximum number of rotated files to retain (0 = keep all)
	MaxBackups int
	// Compress gzips rotated files
	Compress bool
}

// ApplyFileDefaults fills in zero-value fields with defaults.
func ApplyFileDefaults(cfg *FileConfig) {
	if cfg.Directory == "" {
		cfg.Directory = "."
	}
	if cfg.Basename == "" {
		cfg.Basename = programName()
	}
	cfg.Suffix = strings.TrimPrefix(cfg.Suffix, ".")
	if cfg.Suffix == "" {
		cfg.Suffix = "log"
	}
	if cfg.Formatter == nil {
		cfg.Formatter = formatter.NewTextFormatter(formatter.Config{})
	}
	applyQueueDefaults(&cfg.BufferSize, &cfg.OverflowPolicy, &cfg.BlockTimeout, &cfg.DrainTimeout)
}

// Path is the path of the current output file.
func (c FileConfig) Path() string {
	return filepath.Join(c.Directory, c.Basename+"."+c.Suffix)
}

// Rotating reports whether any rotation trigger is configured.
func (c FileConfig) Rotating() bool {
	return c.MaxSize > 0 || c.MaxAge > 0 || c.RotateInterval > 0
}

func programName() string {
	name := filepath.Base(os.Args[0])
	name = strings.TrimSuffix(name, filepath.Ext(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "duplog"
	}
	return name
}
