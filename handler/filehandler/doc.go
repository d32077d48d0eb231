// Package filehandler provides the file sink: a handler.FileWriter that
// writes formatted records to a file with automatic rotation by size,
// age, or interval.
//
// Rotated files get a sortable timestamp suffix and may be gzipped. Old
// backups beyond MaxBackups are removed after each rotation. Reset
// switches to a new configuration without losing the current file when
// the new one cannot be opened, and Reopen follows external log rotation.
//
// With Async set, records pass through a handler.Queue with per-level
// OverflowPolicy and a dedicated background goroutine; otherwise they
// are written on the caller's goroutine into a 4 KiB buffer.
package filehandler
