package pipeline

import (
	"context"
	stderrors "errors"
	"iter"

	"github.com/sourcegraph/conc/panics"

	"github.com/kbukum/flowkit/errors"
)

// Terminal drains an upstream pipe into a sink.
type Terminal[T any] struct {
	m    *machine
	up   FirstPipe[T]
	sink func(context.Context, T) error
}

// Drain returns a closed pipe whose Start pulls up to exhaustion and
// passes every value to sink. Concurrent Starts while Working each pull
// upstream, which is how a Thread upstream gets several drainers.
func Drain[T any](up FirstPipe[T], sink func(context.Context, T) error, opts ...Option) *Terminal[T] {
	o := newOptions("drain", opts)
	t := &Terminal[T]{m: newMachine(o), up: up, sink: sink}
	t.m.onStopped(up.Stop)
	return t
}

func (t *Terminal[T]) Name() string   { return t.m.name }
func (t *Terminal[T]) Status() Status { return t.m.Status() }
func (t *Terminal[T]) Stop()          { t.m.apply(eventStop, nil) }

// Start drives the chain. It returns nil once upstream is exhausted or the
// pipe is stopped, and the failure otherwise. Start on a finished terminal
// does nothing.
func (t *Terminal[T]) Start(ctx context.Context) error {
	pullCtx, release, err := t.m.enter(ctx)
	if err != nil {
		if stderrors.Is(err, errFinished) {
			return nil
		}
		return err
	}
	defer release()

	src := t.up.Produces(pullCtx)
	defer src.Close()

	for {
		val, ok, err := src.Next(pullCtx)
		switch {
		case t.m.stopped():
			return nil
		case ctx.Err() != nil:
			t.m.apply(eventStop, nil)
			return ctx.Err()
		case err != nil:
			return t.m.fail(err)
		case !ok:
			t.m.apply(eventExhausted, nil)
			return nil
		}

		if r := panics.Try(func() { err = t.sink(pullCtx, val) }); r != nil {
			err = errors.Panic(t.m.name, r.AsError())
		}
		if err != nil {
			if t.m.stopped() {
				return nil
			}
			return t.m.fail(err)
		}
	}
}

// Collect pulls every value of p.
func Collect[T any](ctx context.Context, p FirstPipe[T]) ([]T, error) {
	it := p.Produces(ctx)
	defer it.Close()
	var out []T
	for {
		val, ok, err := it.Next(ctx)
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, val)
	}
}

// ForEach pulls every value of p and calls fn for each.
func ForEach[T any](ctx context.Context, p FirstPipe[T], fn func(context.Context, T) error) error {
	it := p.Produces(ctx)
	defer it.Close()
	for {
		val, ok, err := it.Next(ctx)
		if err != nil || !ok {
			return err
		}
		if err := fn(ctx, val); err != nil {
			return err
		}
	}
}

// All adapts a pull of p to a range-over-func sequence. A failure is
// yielded once as the last pair.
func All[T any](ctx context.Context, p FirstPipe[T]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		it := p.Produces(ctx)
		defer it.Close()
		for {
			val, ok, err := it.Next(ctx)
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			if !ok || !yield(val, nil) {
				return
			}
		}
	}
}
