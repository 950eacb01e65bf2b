// Package logging provides structured logging for the Alpha 2 binaries.
//
// This package wraps Go's standard log/slog package so the mock server and
// the Home Assistant bridge log the same way.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Text output for development (human-readable, the default)
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error (ALPHA2_DEBUG=true forces debug)
//	  format: "text"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "alpha2-mock", version)
//	logger.Info("listening", "addr", cfg.Addr())
//	logger.Component("store").Warn("save failed", "error", err)
//
// Never log the Supervisor token or broker passwords.
package logging
