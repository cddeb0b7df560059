// Package logger provides structured logging over zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped loggers. Pipes and jobs log through component loggers
// obtained from Get.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("pipeline")
//	log.Debug("status changed", logger.Fields(logger.FieldPipe, "rows", logger.FieldTo, "working"))
package logger
