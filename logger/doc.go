// Package logger provides structured logging for adkit applications
// using zerolog.
//
// It supports multiple output formats (JSON, console), log level
// configuration, and component- or placement-scoped loggers with
// structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("interstitial").WithTag("home_screen")
//	log.Info("ad loaded", logger.Fields(logger.FieldState, "ready"))
package logger
