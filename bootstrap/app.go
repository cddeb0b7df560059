package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/kbukum/flowkit/component"
	"github.com/kbukum/flowkit/config"
	"github.com/kbukum/flowkit/job"
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/observability"
	"github.com/kbukum/flowkit/pipeline"
)

// App runs a set of jobs with shared configuration and telemetry.
type App struct {
	Name       string
	Version    string
	Cfg        *config.FlowConfig
	Components *component.Registry
	Logger     *logger.Logger
	Metrics    *observability.PipeMetrics
	Summary    *Summary

	gracefulTimeout time.Duration
	reporters       []job.ErrorReporter
	summaryOut      io.Writer
	handleSignals   bool
	telemetry       []func(context.Context) error

	onStart []Hook
	onStop  []Hook
}

// NewApp applies defaults to cfg, validates it, initializes the logger and
// telemetry, and returns an App with no jobs.
func NewApp(ctx context.Context, cfg *config.FlowConfig, opts ...Option) (*App, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	base := cfg.GetServiceConfig()

	o := resolveOptions(opts)
	app := &App{
		Name:            base.Name,
		Version:         base.Version,
		Cfg:             cfg,
		Components:      component.NewRegistry(),
		gracefulTimeout: 15 * time.Second,
		reporters:       o.reporters,
		summaryOut:      o.summaryOut,
		handleSignals:   o.handleSignals,
	}
	if o.registry != nil {
		app.Components = o.registry
	}
	if o.gracefulTimeout != nil {
		app.gracefulTimeout = *o.gracefulTimeout
	}
	if o.logger != nil {
		app.Logger = o.logger
	} else {
		logger.Init(&base.Logging)
		app.Logger = logger.GetGlobalLogger()
	}

	if err := app.initTelemetry(ctx); err != nil {
		return nil, err
	}
	app.Summary = NewSummary(base.Name, base.Version)
	return app, nil
}

// NewJob creates a job that reports to the App's reporters and metrics and
// registers it. Jobs run in the order they are created.
func (a *App) NewJob(name string, build job.Builder, opts ...job.Option) (*job.Job, error) {
	base := []job.Option{
		job.WithLogger(a.Logger.WithComponent("job")),
		job.WithMetrics(a.Metrics),
		job.WithReporters(a.reporters...),
	}
	j := job.New(name, build, append(base, opts...)...)
	if err := a.AddJob(j); err != nil {
		return nil, err
	}
	return j, nil
}

// AddJob registers an existing job.
func (a *App) AddJob(j *job.Job) error {
	return a.Components.Register(j)
}

// PipeOptions returns the options a stage named name should be built with:
// the App's metrics and logger plus the configured queue capacity and read
// retry.
func (a *App) PipeOptions(name string) []pipeline.Option {
	return []pipeline.Option{
		pipeline.WithName(name),
		pipeline.WithLogger(a.Logger.WithComponent("pipeline")),
		pipeline.WithMetrics(a.Metrics),
		pipeline.WithQueueCapacity(a.Cfg.Pipeline.EffectiveQueueCapacity()),
		pipeline.WithReadRetry(a.Cfg.Pipeline.ReadRetry),
	}
}

// Run executes every registered job in order and then shuts down. The first
// job failure stops the run; later jobs are not started. Shutdown closes
// all jobs and flushes telemetry either way.
func (a *App) Run(ctx context.Context) error {
	start := time.Now()
	a.Logger.Info("starting jobs", logger.Fields(
		"name", a.Name,
		"version", a.Version,
		"jobs", len(a.Components.All()),
	))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if a.handleSignals {
		stop := a.cancelOnSignal(runCtx, cancel)
		defer stop()
	}

	runErr := runHooks(runCtx, a.onStart)
	if runErr != nil {
		runErr = fmt.Errorf("onStart hook failed: %w", runErr)
	} else {
		runErr = a.Components.StartAll(runCtx)
	}
	a.Summary.SetRunDuration(time.Since(start))
	a.Summary.Record(a.Components.HealthAll(ctx))

	if stopErr := a.Shutdown(); stopErr != nil && runErr == nil {
		runErr = stopErr
	}
	if a.summaryOut != nil {
		a.Summary.Write(a.summaryOut)
	}

	if runErr != nil {
		a.Logger.Error("run failed", logger.Fields(logger.FieldError, runErr.Error()))
		return runErr
	}
	a.Logger.Info("run complete", logger.MergeWithDuration(nil, time.Since(start)))
	return nil
}

func (a *App) cancelOnSignal(ctx context.Context, cancel context.CancelFunc) func() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			a.Logger.Info("received signal, cancelling jobs", logger.Fields("signal", sig.String()))
			cancel()
		case <-ctx.Done():
		}
	}()
	return func() { signal.Stop(sigCh) }
}

// Shutdown runs the stop hooks, closes every job and flushes telemetry
// within the graceful timeout.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()

	var result *multierror.Error
	if err := runHooks(ctx, a.onStop); err != nil {
		a.Logger.Error("onStop hook error", logger.Fields(logger.FieldError, err.Error()))
		result = multierror.Append(result, err)
	}
	if err := a.Components.StopAll(ctx); err != nil {
		a.Logger.Error("jobs closed with errors", logger.Fields(logger.FieldError, err.Error()))
		result = multierror.Append(result, err)
	}
	for i := len(a.telemetry) - 1; i >= 0; i-- {
		if err := a.telemetry[i](ctx); err != nil {
			a.Logger.Warn("telemetry shutdown failed", logger.Fields(logger.FieldError, err.Error()))
			result = multierror.Append(result, err)
		}
	}
	a.telemetry = nil
	return result.ErrorOrNil()
}
