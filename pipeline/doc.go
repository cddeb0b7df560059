// Package pipeline provides status-tracked, pull-based pipes.
//
// A first pipe wraps a production function; a mid pipe composes an
// upstream pipe with a transform; a closed pipe drives a chain to
// completion. Every pipe walks the same lifecycle:
//
//	created -> working -> finished | stopped | errored
//
// Terminal states are final. Pulling a finished pipe yields nothing,
// pulling a stopped pipe fails with a PIPE_STOPPED error and pulling an
// errored pipe fails with the original error.
//
// # Stages
//
//   - NewFirst, NewMid: the Lambda base every stage builds on
//   - Map, FlatMap, Filter, Tap, Batch: operators as mid pipes
//   - Thread, Threaded: n workers behind one shared queue; concurrent pulls
//     collapse onto a single upstream pass
//   - Async: one background producer per pull
//   - Poll: re-invoke production on an interval
//   - Read: window-by-window reads of a Pager
//   - Drain, Parallel: closed pipes and the n-way parallel driver
//
// # Usage
//
//	rows := pipeline.NewFirst(pipeline.Values(1, 2, 3, 4))
//	doubled := pipeline.Thread(rows, 4, func(_ context.Context, n int) (int, error) {
//	    return n * 2, nil
//	})
//	sink := pipeline.Drain(doubled, store)
//	err := pipeline.Parallel(sink, 4).Start(ctx)
package pipeline
