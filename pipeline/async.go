package pipeline

import (
	"context"

	"github.com/sourcegraph/conc/panics"

	"github.com/kbukum/flowkit/errors"
)

// Async runs every pull of up on its own background goroutine feeding its
// own queue. Pulls never share work; each caller sees upstream order.
func Async[T any](up FirstPipe[T], opts ...Option) *Lambda[T] {
	var p *Lambda[T]
	p = newLambda("async", func(ctx context.Context) Iterator[T] {
		capacity := p.opts.queueCapacity
		if capacity <= 0 {
			capacity = 1
		}
		return startAsync(ctx, p.m, up, capacity)
	}, opts)
	p.m.onStopped(up.Stop)
	return p
}

func startAsync[T any](ctx context.Context, m *machine, up FirstPipe[T], capacity int) Iterator[T] {
	ctx, cancel := context.WithCancel(ctx)
	ch := make(chan result[T], capacity)

	go func() {
		defer close(ch)
		m.metrics.WorkerStarted(ctx, m.name)
		defer m.metrics.WorkerDone(ctx, m.name)

		src := up.Produces(ctx)
		defer src.Close()

		send := func(r result[T]) bool {
			select {
			case ch <- r:
				return true
			case <-ctx.Done():
				return false
			}
		}
		for {
			var (
				val T
				ok  bool
				err error
			)
			if r := panics.Try(func() { val, ok, err = src.Next(ctx) }); r != nil {
				err = errors.Panic(m.name, r.AsError())
			}
			if err != nil {
				send(result[T]{err: err})
				return
			}
			if !ok || !send(result[T]{val: val}) {
				return
			}
		}
	}()

	return &channelIter[T]{ch: ch, closer: cancel}
}
