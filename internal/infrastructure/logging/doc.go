// Package logging provides structured logging for the solar collector.
//
// It wraps the standard log/slog package so every component logs with the
// same handler, level and default fields.
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
//	logger := logging.New(cfg.Logging, version)
//	logger.Info("cycle complete", "cycle_id", id, "meters", n)
//	logger.Error("site write failed", "error", err)
//
// Never log the InfluxDB token or the MQTT password.
package logging
