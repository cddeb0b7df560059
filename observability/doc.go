// Package observability wires OpenTelemetry into pipes and jobs.
//
// InitMeter and InitTracer install OTLP/HTTP exporters globally. Pipes and
// jobs record into a PipeMetrics built from any metric.Meter, and jobs open
// a span per Process call through StartSpan.
package observability
