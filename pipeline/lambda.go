package pipeline

import (
	"context"
	stderrors "errors"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc/panics"

	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/logger"
)

// Lambda is a status-tracked pipe around a production function. Every
// first and mid stage of the package is a Lambda.
type Lambda[T any] struct {
	m          *machine
	production Production[T]
	opts       options
}

// NewFirst wraps production as a first pipe.
func NewFirst[T any](production Production[T], opts ...Option) *Lambda[T] {
	return newLambda("first", production, opts)
}

// NewMid composes upstream with transform. Stopping the mid pipe also
// stops upstream.
func NewMid[I, O any](upstream FirstPipe[I], transform Transform[I, O], opts ...Option) *Lambda[O] {
	p := newLambda("mid", func(ctx context.Context) Iterator[O] {
		return transform(ctx, upstream.Produces(ctx))
	}, opts)
	p.m.onStopped(upstream.Stop)
	return p
}

func newLambda[T any](kind string, production Production[T], opts []Option) *Lambda[T] {
	o := newOptions(kind, opts)
	return &Lambda[T]{m: newMachine(o), production: production, opts: o}
}

func (p *Lambda[T]) Name() string   { return p.m.name }
func (p *Lambda[T]) Status() Status { return p.m.Status() }
func (p *Lambda[T]) Stop()          { p.m.apply(eventStop, nil) }

// Produces starts a pull. The first pull moves the pipe to Working;
// concurrent pulls while Working each invoke production. A Finished pipe
// yields nothing, a Stopped pipe fails with a stopped error and an Errored
// pipe fails with its original error.
func (p *Lambda[T]) Produces(context.Context) Iterator[T] {
	return &lambdaIter[T]{pipe: p}
}

// Thread collapses concurrent pulls of p onto one pass with n workers.
func (p *Lambda[T]) Thread(n int, opts ...Option) *Lambda[T] {
	return Threaded[T](p, n, opts...)
}

// Async gives every pull of p its own background producer.
func (p *Lambda[T]) Async(opts ...Option) *Lambda[T] {
	return Async[T](p, opts...)
}

// Poll re-invokes the production function of p every interval.
func (p *Lambda[T]) Poll(interval time.Duration, opts ...Option) *Lambda[T] {
	return Poll(p.production, interval, opts...)
}

type lambdaIter[T any] struct {
	pipe    *Lambda[T]
	started bool
	done    bool

	ctx       context.Context
	release   func()
	caller    context.Context
	unlink    func() bool
	cancelled atomic.Bool
	src       Iterator[T]
}

func (it *lambdaIter[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if it.done {
		return zero, false, nil
	}
	m := it.pipe.m

	if !it.started {
		it.started = true
		pullCtx, release, err := m.enter(ctx)
		if err != nil {
			it.done = true
			if stderrors.Is(err, errFinished) {
				return zero, false, nil
			}
			return zero, false, err
		}
		it.ctx, it.release = pullCtx, release
		it.link(ctx)
		if err := ctx.Err(); err != nil {
			m.apply(eventStop, nil)
			it.finish(nil)
			return zero, false, err
		}

		if r := panics.Try(func() { it.src = it.pipe.production(it.ctx) }); r != nil {
			return zero, false, it.finish(errors.Panic(m.name, r.AsError()))
		}
	} else {
		it.link(ctx)
	}

	if m.stopped() {
		return zero, false, it.finish(nil)
	}

	var (
		val T
		ok  bool
		err error
	)
	if r := panics.Try(func() { val, ok, err = it.src.Next(it.ctx) }); r != nil {
		err = errors.Panic(m.name, r.AsError())
	}

	switch {
	case m.stopped():
		return zero, false, it.finish(nil)
	case it.cancelled.Load() || ctx.Err() != nil:
		m.apply(eventStop, nil)
		it.finish(nil)
		if ctx.Err() != nil {
			return zero, false, ctx.Err()
		}
		return zero, false, context.Canceled
	case err != nil:
		return zero, false, it.finish(err)
	case !ok:
		m.apply(eventExhausted, nil)
		return zero, false, it.finish(nil)
	}

	m.metrics.RecordItem(it.ctx, m.name)
	return val, true, nil
}

// link ties the pull context to the caller's context, so cancelling the
// caller wakes a blocked production.
func (it *lambdaIter[T]) link(ctx context.Context) {
	if ctx == it.caller {
		return
	}
	if it.unlink != nil {
		it.unlink()
	}
	it.caller = ctx
	release := it.release
	it.unlink = context.AfterFunc(ctx, func() {
		it.cancelled.Store(true)
		release()
	})
}

// finish ends the iteration. A non-nil err moves the pipe to Errored and
// is returned in its caller-facing form.
func (it *lambdaIter[T]) finish(err error) error {
	it.done = true
	if err != nil {
		err = it.pipe.m.fail(err)
	}
	it.cleanup()
	return err
}

func (it *lambdaIter[T]) cleanup() {
	if it.unlink != nil {
		it.unlink()
		it.unlink = nil
	}
	if it.src != nil {
		if err := it.src.Close(); err != nil {
			it.pipe.m.log.Warn("failed to close production", logger.Fields(logger.FieldError, err.Error()))
		}
		it.src = nil
	}
	if it.release != nil {
		it.release()
		it.release = nil
	}
}

func (it *lambdaIter[T]) Close() error {
	it.done = true
	it.cleanup()
	return nil
}
