// Package logger is the public front end of duplog. Most users only
// need to import this package.
//
// A Logger's level, tag and fields are set once via the Builder. The
// writer it dispatches to, usually a *handler.MultiWriter, can be
// replaced at runtime with Reconfigure; children created with With or
// Named share the replacement.
//
// The package initializes a default Logger (async, InfoLevel, text
// format to stdout) in init(). The package-level functions Info,
// Error, Debugf, etc. delegate to this default instance:
//
//	logger.Info("ready", logger.Int("port", 8080))
//
// A Logger built from a Config copies records to the console streams
// and writes them to a file sink:
//
//	cfg, err := logger.LoadConfig("log.yaml")
//	if err != nil {
//	    return err
//	}
//	log, err := cfg.Build()
//
// Level checks happen before any allocation. When the writer has a
// persistent sink, its MaxLevel gates records too.
package logger
