// Package logging provides structured logging for the doorbell controller.
//
// This package wraps Go's standard log/slog package so that every component
// emits the same structured fields.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Text output for bench work on the device console
//   - Default fields (service, version, device) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, version).WithDevice(cfg.Device.Hostname)
//	logger.Info("sensor connected", "capacity", 200)
//
// # Security
//
// Never log the pairing code, MQTT password, JWT secret or admin password
// hash. Log a prefix when correlation is required.
package logging
