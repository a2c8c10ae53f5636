// Package logging provides a minimal logging interface and adapters for runeval.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that evaluators and pipelines use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping an existing *slog.Logger
//   - StructuredLogger, a configurable slog-backed logger with contextual helpers
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	ev, err := evaluation.New(mapper, pipeline, parser, func(o *evaluation.Options) {
//	    o.Logger = logger.WithComponent("qa")
//	})
//
// Arguments after the message are slog key/value pairs.
package logging
