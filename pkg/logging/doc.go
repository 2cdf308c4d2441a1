// Package logging provides structured logging utilities for pcddebug.
//
// It wraps the standard library slog package with project defaults:
// JSON output to stderr, module/version context on every record, and
// level configuration via the LOG_LEVEL environment variable or an
// explicit flag value. Debug level adds source location tracking.
//
// Typical usage:
//
//	logging.SetDefaultStructuredLoggerWithLevel("pcddebug", version, "info")
//	slog.Info("collecting resource", "kind", "network", "id", netID)
package logging
