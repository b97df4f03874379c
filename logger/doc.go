// Package logger provides structured logging on top of zerolog.
//
// It supports JSON and console output, level configuration and
// component-scoped loggers with map-based structured fields.
//
// # Configuration
//
//	[logging]
//	level = "info"
//	format = "console"
//	output = "stderr"
//
// # Usage
//
//	log := logger.WithComponent("engine")
//	log.Info("request sent", logger.Fields(logger.FieldMode, "sync"))
package logger
