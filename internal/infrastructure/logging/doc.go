// Package logging provides structured logging for the radiobridge gateway.
//
// It wraps the standard library's log/slog with configuration-driven setup
// and default fields. Every log entry carries the service name and version,
// and components attach their own identity with With().
//
// # Usage
//
//	logger := logging.New(cfg.Logging, version)
//	radioLogger := logger.With("component", "radio")
//	radioLogger.Info("device opened", "path", cfg.Radio.Device)
//
// Before configuration is loaded, use Default() for a sane JSON logger.
package logging
