// Package report provides job.ErrorReporter implementations.
//
//   - Collector keeps reported errors in memory.
//   - Log writes each failure through the flowkit logger.
//   - Metrics counts failures on an OpenTelemetry meter.
//   - Table persists failures as rows through GORM.
//
// Reporters never return errors to the job; problems while reporting are
// logged.
package report
