// Package multihandler provides a tee that forwards every record to a
// list of generic sinks. Unlike handler.MultiWriter it does not stop at
// the first failing child: every child sees every record and the
// failures are combined.
package multihandler
