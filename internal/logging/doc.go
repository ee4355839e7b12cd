// Package logging provides structured logging for blescribe.
//
// This package wraps zap logger with convenience functions for common logging
// patterns used throughout the application. Because blescribe is an
// interactive terminal program, logging is silent by default: zap output
// would corrupt the TUI. Set BLESCRIBE_LOG_LEVEL to enable diagnostics on
// stderr.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Detailed debugging info (every advertisement, raw payload sizes)
//   - Info: Normal operations (scan start/stop, connections, writes)
//   - Warn: Non-fatal issues (scan errors, disconnects)
//   - Error: Failures surfaced to the user
//
// # Structured Logging
//
// All log functions use structured fields for queryability:
//
//	logging.Info("Connection event",
//	    zap.String("device_id", "D4:3A:1B:00:12:9F"),
//	    zap.String("event", "connected"),
//	)
//
// # Specialized Logging
//
// The package provides domain-specific logging functions:
//
//	logging.LogDiscovery(id, name, rssi)
//	logging.LogScanEvent("started")
//	logging.LogConnection(deviceID, "connected")
//	logging.LogWrite(deviceID, serviceUUID, charUUID, length)
//
// # Configuration
//
// Initialize logging at startup:
//
//	if err := logging.InitializeFromEnv(); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap
// logger handles synchronization automatically.
package logging
