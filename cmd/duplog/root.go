package main

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/philipp01105/duplog/core"
	"github.com/philipp01105/duplog/handler"
	"github.com/philipp01105/duplog/logger"
)

type options struct {
	config     string
	file       string
	dupStderr  string
	dupStdout  string
	capture    bool
	format     string
	level      string
	lineLevel  string
	tag        string
	maxSize    int64
	maxBackups int
	compress   bool
	truncate   bool
}

// newRootCmd wires the CLI. Nil stderr or stdout select the process streams.
func newRootCmd(stdin io.Reader, stderr, stdout io.Writer) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "duplog",
		Short:         "Tee stdin lines into a log file and the console",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loggerConfig(cmd)
			if err != nil {
				return err
			}
			cfg.Stderr, cfg.Stdout = streams(stderr, stdout)
			return tee(stdin, cfg, opts.lineLevel)
		},
	}

	f := root.Flags()
	f.StringVarP(&opts.config, "config", "c", "", "JSON or YAML logger configuration")
	f.StringVarP(&opts.file, "file", "f", "", "log file path")
	f.StringVar(&opts.dupStderr, "dup-stderr", "none", "copy records at or above this level to stderr")
	f.StringVar(&opts.dupStdout, "dup-stdout", "none", "copy records at or above this level to stdout")
	f.BoolVar(&opts.capture, "capture", false, "print console copies in capture-friendly mode")
	f.StringVar(&opts.format, "format", "text", "console format: text, json, zap-json or zap-console")
	f.StringVarP(&opts.level, "level", "l", "info", "least severe level logged")
	f.StringVar(&opts.lineLevel, "line-level", "info", "level given to each input line")
	f.StringVarP(&opts.tag, "tag", "t", "", "tag attached to every record")
	f.Int64Var(&opts.maxSize, "max-size", 0, "rotate the log file after this many bytes")
	f.IntVar(&opts.maxBackups, "max-backups", 0, "rotated files to keep (0 keeps all)")
	f.BoolVar(&opts.compress, "compress", false, "gzip rotated files")
	f.BoolVar(&opts.truncate, "truncate", false, "empty the log file instead of appending")

	root.AddCommand(newFilesCmd(stdout), newCheckCmd(stdout))
	return root
}

// loggerConfig merges the config file with the flags set on cmd.
func (o *options) loggerConfig(cmd *cobra.Command) (logger.Config, error) {
	var cfg logger.Config
	if o.config != "" {
		c, err := logger.LoadConfig(o.config)
		if err != nil {
			return cfg, err
		}
		cfg = c
	}

	changed := cmd.Flags().Changed
	set := func(name string, dst *string, v string) {
		if changed(name) || *dst == "" {
			*dst = v
		}
	}
	set("level", &cfg.Level, o.level)
	set("dup-stderr", &cfg.DuplicateStderr, o.dupStderr)
	set("dup-stdout", &cfg.DuplicateStdout, o.dupStdout)
	set("format", &cfg.Format, o.format)
	set("tag", &cfg.Tag, o.tag)
	if changed("capture") {
		cfg.Capture = o.capture
	}

	if o.file != "" {
		if cfg.File == nil {
			cfg.File = &logger.FileSection{}
		}
		cfg.File.Directory, cfg.File.Basename, cfg.File.Suffix = splitPath(o.file)
	}
	if cfg.File != nil {
		if changed("max-size") {
			cfg.File.MaxSize = o.maxSize
		}
		if changed("max-backups") {
			cfg.File.MaxBackups = o.maxBackups
		}
		if changed("compress") {
			cfg.File.Compress = o.compress
		}
		if changed("truncate") {
			cfg.File.Truncate = o.truncate
		}
	}
	return cfg, cfg.Validate()
}

// splitPath splits "dir/app.log" into "dir", "app" and "log".
func splitPath(path string) (dir, base, suffix string) {
	dir, name := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	ext := filepath.Ext(name)
	return filepath.Clean(dir), strings.TrimSuffix(name, ext), strings.TrimPrefix(ext, ".")
}

func streams(stderr, stdout io.Writer) (handler.Stream, handler.Stream) {
	var e, o handler.Stream
	if stderr != nil {
		e = handler.NewWriterStream(stderr)
	}
	if stdout != nil {
		o = handler.NewWriterStream(stdout)
	}
	return e, o
}

// tee logs every line of r and shuts the logger down at EOF.
func tee(r io.Reader, cfg logger.Config, lineLevel string) error {
	level, err := core.ParseLevel(lineLevel)
	if err != nil {
		return err
	}
	log, err := cfg.Build()
	if err != nil {
		return err
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		log.Log(level, sc.Text())
	}
	return multierr.Combine(sc.Err(), log.Close())
}

func newFilesCmd(stdout io.Writer) *cobra.Command {
	var config string
	cmd := &cobra.Command{
		Use:   "files",
		Short: "List the log files written by the configured file sink",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := logger.LoadConfig(config)
			if err != nil {
				return err
			}
			if cfg.File == nil {
				return handler.ErrNoFileWriter
			}
			files, err := cfg.ExistingLogFiles()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if stdout != nil {
				out = stdout
			}
			for _, f := range files {
				fmt.Fprintln(out, f)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&config, "config", "c", "", "JSON or YAML logger configuration")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func newCheckCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "check CONFIG",
		Short: "Validate a logger configuration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := logger.LoadConfig(args[0])
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if stdout != nil {
				out = stdout
			}
			fmt.Fprintf(out, "%s: ok\n", args[0])
			return nil
		},
	}
}
