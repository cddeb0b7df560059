// Package job runs a pipe chain end to end with centralized error reporting.
//
// A Job builds its chain lazily on the first Process call. Any failure while
// building or driving the chain, including panics, is captured once, handed
// to every registered ErrorReporter in registration order, and returned to
// the caller unchanged.
//
//	j := job.New("import-users", func(ctx context.Context, j *job.Job) (pipeline.Closed, error) {
//	    src := pipeline.NewFirst(pipeline.Slice(users))
//	    return pipeline.Drain(src.Thread(4), store), nil
//	}, job.WithReporters(report.NewLog(nil)))
//	defer j.Close()
//	err := j.Process(ctx)
//
// Jobs implement component.Component so a component.Registry can run and
// close them in order.
package job
