// Package bootstrap runs pipeline jobs with the flowkit ambient stack.
//
// An App validates a config.FlowConfig, initializes the logger and, when
// enabled, OTLP tracing and metrics. Jobs created through the App share its
// metrics, logger and error reporters and are registered as components, so
// Run executes them in registration order and closes them in reverse.
//
//	cfg, err := config.LoadFlowConfig("importer")
//	app, err := bootstrap.NewApp(ctx, cfg, bootstrap.WithReporters(report.NewLog(nil)))
//	app.NewJob("users", func(ctx context.Context, j *job.Job) (pipeline.Closed, error) {
//	    src := pipeline.Read(pager, cfg.Pipeline.ReadPageSize, app.PipeOptions("users")...)
//	    return pipeline.Drain(src, store), nil
//	})
//	if err := app.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// SIGINT and SIGTERM cancel the running job; shutdown still closes every
// job and flushes telemetry.
package bootstrap
