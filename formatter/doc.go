// Package formatter defines how log entries are serialized into bytes.
//
// The dispatcher in package handler consumes a FormatFunc, which writes
// a single record without a line terminator; the caller appends the
// newline so that one record is always one line. TextFormatter,
// JSONFormatter and ZapFormatter all provide WriteRecord for this and
// Func adapts them.
//
// The byte-oriented interfaces (Formatter, WriterFormatter,
// BufferFormatter) produce newline-terminated lines and are used by the
// file and console sinks. Handlers check for BufferFormatter at
// construction time and prefer it, eliminating the intermediate byte
// slice allocation on the write path.
//
// Formatting can fail. The JSON formatter reports values that
// encoding/json cannot marshal, and ZapFormatter reports encoder
// errors. Buffers larger than 64 KiB are not returned to the pool.
package formatter
