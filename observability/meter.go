package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/flowkit/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider and installs it
// globally. The returned provider should be shut down on application exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))
	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Instrument names recorded by PipeMetrics.
const (
	MetricPipeItems       = "pipe.items"
	MetricPipeTransitions = "pipe.transitions"
	MetricPipeWorkers     = "pipe.workers.active"
	MetricJobDuration     = "job.duration"
	MetricJobFailures     = "job.failures"
)

// PipeMetrics holds the instruments pipes and jobs record into. A nil
// *PipeMetrics is valid and records nothing.
type PipeMetrics struct {
	items       metric.Int64Counter
	transitions metric.Int64Counter
	workers     metric.Int64UpDownCounter
	jobDuration metric.Float64Histogram
	jobFailures metric.Int64Counter
}

// NewPipeMetrics creates the pipe and job instruments on the given meter.
func NewPipeMetrics(meter metric.Meter) (*PipeMetrics, error) {
	items, err := meter.Int64Counter(MetricPipeItems,
		metric.WithDescription("Items yielded by pipes"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricPipeItems, err)
	}

	transitions, err := meter.Int64Counter(MetricPipeTransitions,
		metric.WithDescription("Pipe status transitions"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricPipeTransitions, err)
	}

	workers, err := meter.Int64UpDownCounter(MetricPipeWorkers,
		metric.WithDescription("Background workers currently running for a pipe"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s gauge: %w", MetricPipeWorkers, err)
	}

	jobDuration, err := meter.Float64Histogram(MetricJobDuration,
		metric.WithDescription("Duration of job processing in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s histogram: %w", MetricJobDuration, err)
	}

	jobFailures, err := meter.Int64Counter(MetricJobFailures,
		metric.WithDescription("Job failures delivered to error reporters"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricJobFailures, err)
	}

	return &PipeMetrics{
		items:       items,
		transitions: transitions,
		workers:     workers,
		jobDuration: jobDuration,
		jobFailures: jobFailures,
	}, nil
}

// RecordItem counts one item yielded by a pipe.
func (m *PipeMetrics) RecordItem(ctx context.Context, pipe string) {
	if m == nil {
		return
	}
	m.items.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrPipe, pipe)))
}

// RecordTransition counts a status change of a pipe.
func (m *PipeMetrics) RecordTransition(ctx context.Context, pipe, from, to string) {
	if m == nil {
		return
	}
	m.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrPipe, pipe),
		attribute.String(AttrFrom, from),
		attribute.String(AttrTo, to),
	))
}

// WorkerStarted and WorkerDone track background workers of a pipe.
func (m *PipeMetrics) WorkerStarted(ctx context.Context, pipe string) {
	if m == nil {
		return
	}
	m.workers.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrPipe, pipe)))
}

func (m *PipeMetrics) WorkerDone(ctx context.Context, pipe string) {
	if m == nil {
		return
	}
	m.workers.Add(ctx, -1, metric.WithAttributes(attribute.String(AttrPipe, pipe)))
}

// RecordJob records one Process call of a job.
func (m *PipeMetrics) RecordJob(ctx context.Context, job, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.jobDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String(AttrJob, job),
		attribute.String(AttrOutcome, outcome),
	))
}

// RecordFailure counts a failure reported for a job.
func (m *PipeMetrics) RecordFailure(ctx context.Context, job, code string) {
	if m == nil {
		return
	}
	m.jobFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrJob, job),
		attribute.String(AttrCode, code),
	))
}
