// Package handler routes log records to their destinations.
//
// MultiWriter is the dispatcher. For every record it consults the
// Duplicate policy of standard error and standard output, writes the
// console copies, then hands the record to the optional file sink and
// the optional generic sink. The first failure ends the dispatch. In
// capture mode console problems are reported through the internal
// self-diagnostics logger instead, so a broken terminal never loses
// records for the persistent sinks.
//
// Sinks implement Writer; file-backed sinks additionally implement
// FileWriter, which MultiWriter exposes through ResetFileWriter,
// FileWriterConfig, ReopenOutputFile and ExistingLogFiles.
//
// The sub-packages provide sinks:
//
//   - filehandler writes files with rotation by size, age, or interval.
//   - consolehandler writes to any io.Writer.
//   - zaphandler forwards to a zapcore.Core.
//   - memhandler keeps records in memory for tests and tooling.
//   - multihandler tees to several sinks.
//   - sloghandler adapts a Writer to log/slog.
//
// Sinks that buffer asynchronously use Queue, which applies a per-level
// OverflowPolicy when full: DropNewest for Trace through Warn, Block
// with a timeout for Error and above. Dropped, blocked, processed and
// failed counts are kept in Stats.
package handler
