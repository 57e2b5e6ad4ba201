// Package logging provides structured logging setup for the NVIDIA driver operator.
//
// # Overview
//
// This package wraps the standard library slog package with operator defaults:
// JSON records on stderr, a level taken from --log-level or LOG_LEVEL, and
// module/version attributes on every record. Juju captures hook stderr, so
// these records show up in `juju debug-log` for the unit.
//
// # Log Levels
//
// Supported log levels (case-insensitive):
//   - DEBUG: Detailed diagnostic information with source location
//   - INFO: General informational messages (default)
//   - WARN/WARNING: Warning messages for potentially problematic situations
//   - ERROR: Error messages for failures requiring attention
//
// # Usage
//
//	func main() {
//	    logging.SetDefaultStructuredLoggerWithLevel("nvidia-driver-operator", version, "info")
//	    slog.Info("dispatching", "hook", "install")
//	}
//
// # Output Format
//
//	{
//	    "time": "2025-01-15T10:30:00.123Z",
//	    "level": "INFO",
//	    "msg": "installing driver package",
//	    "module": "nvidia-driver-operator",
//	    "version": "v1.0.0",
//	    "package": "cuda-drivers"
//	}
package logging
