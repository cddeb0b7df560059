package report

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/job"
	"github.com/kbukum/flowkit/observability"
)

// MetricReportedFailures counts failures delivered to a Metrics reporter.
const MetricReportedFailures = "report.failures"

var _ job.ErrorReporter = (*Metrics)(nil)

// Metrics counts reported failures by job and error code.
type Metrics struct {
	failures metric.Int64Counter
}

// NewMetrics creates the failure counter on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	failures, err := meter.Int64Counter(MetricReportedFailures,
		metric.WithDescription("Failures reported by jobs"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricReportedFailures, err)
	}
	return &Metrics{failures: failures}, nil
}

func (r *Metrics) Report(ctx context.Context, err error) {
	attrs := []attribute.KeyValue{
		attribute.String(observability.AttrCode, string(errors.CodeOf(err))),
	}
	if info, ok := job.InfoFromContext(ctx); ok {
		attrs = append(attrs, attribute.String(observability.AttrJob, info.Name))
	}
	r.failures.Add(ctx, 1, metric.WithAttributes(attrs...))
}
