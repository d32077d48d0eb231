// Package sloghandler provides an adapter from handler.Writer to
// log/slog.Handler, so any sink of this module, including the
// duplicating handler.MultiWriter, can back the standard library's
// structured logging.
package sloghandler
