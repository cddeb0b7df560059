package bootstrap

import (
	"context"
	"fmt"

	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/observability"
)

// initTelemetry installs the OTLP tracer and meter providers when telemetry
// is enabled and creates the pipe instruments. With telemetry off the
// instruments record into the global no-op meter.
func (a *App) initTelemetry(ctx context.Context) error {
	if a.Cfg.Telemetry.Enabled {
		tp, err := observability.InitTracer(ctx, a.Cfg.TracerConfig())
		if err != nil {
			return fmt.Errorf("init tracer: %w", err)
		}
		a.telemetry = append(a.telemetry, tp.Shutdown)

		meterCfg := a.Cfg.MeterConfig()
		mp, err := observability.InitMeter(ctx, &meterCfg)
		if err != nil {
			return fmt.Errorf("init meter: %w", err)
		}
		a.telemetry = append(a.telemetry, mp.Shutdown)

		a.Logger.Info("telemetry enabled", logger.Fields(
			"endpoint", a.Cfg.Telemetry.Endpoint,
			"sample_rate", a.Cfg.Telemetry.SampleRate,
		))
	}

	metrics, err := observability.NewPipeMetrics(observability.Meter(a.Name))
	if err != nil {
		return fmt.Errorf("pipe metrics: %w", err)
	}
	a.Metrics = metrics
	return nil
}
