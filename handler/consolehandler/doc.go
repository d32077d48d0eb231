// Package consolehandler provides a generic sink that writes formatted
// records to any io.Writer (default: os.Stdout).
//
// Handlers are split into specialized sync and async variants:
//
//   - SyncConsoleHandler writes on the caller's goroutine. Uses TryLock
//     for zero-alloc formatting when uncontended.
//   - AsyncConsoleHandler hands records to a handler.Queue with
//     per-level OverflowPolicy and a dedicated background goroutine.
//
// The factory function NewConsoleHandler chooses the variant based on
// the Async field in ConsoleConfig. Writers with a Flush method, such
// as *bufio.Writer, are flushed by Flush and Shutdown.
package consolehandler
