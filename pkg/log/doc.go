// Package log provides the logging abstraction shared by the receiver, its
// sessions and the sender.
//
// Status lines from many concurrent sessions go through one Logger. The
// zerolog adapter serializes writes so that lines never interleave.
//
// # Usage
//
//	logger := log.NewZerologAdapter(os.Stderr, zerolog.InfoLevel)
//	logger.Info("session started", log.String("peer", addr))
//
// Use the no-op logger in tests:
//
//	logger := log.NewNoopLogger()
//
// Scope a logger to a session with With:
//
//	sl := log.With(logger, log.String("session", id))
//
// # Version
//
// Current version: 1.1.0
// Minimum compatible version: 1.0.0
//
// See version.go for version constants that can be used programmatically.
package log
