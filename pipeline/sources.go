package pipeline

import (
	"context"
	"iter"
)

// Slice returns a production yielding items in order.
func Slice[T any](items []T) Production[T] {
	return func(context.Context) Iterator[T] {
		return &sliceIter[T]{items: items}
	}
}

// Values is Slice for literal values.
func Values[T any](items ...T) Production[T] {
	return Slice(items)
}

// Channel returns a production that consumes ch until it is closed. The
// channel is a queue: values taken by one pass are gone for the next.
func Channel[T any](ch <-chan T) Production[T] {
	return func(context.Context) Iterator[T] {
		return &chanIter[T]{ch: ch}
	}
}

// Seq returns a production over a Go iterator. A non-nil error ends the
// pass with that error.
func Seq[T any](seq iter.Seq2[T, error]) Production[T] {
	return func(context.Context) Iterator[T] {
		next, stop := iter.Pull2(seq)
		return &seqIter[T]{next: next, stop: stop}
	}
}

// Func returns a production that calls fn until it reports no value.
func Func[T any](fn func(ctx context.Context) (T, bool, error)) Production[T] {
	return func(context.Context) Iterator[T] {
		return funcIter[T](fn)
	}
}

// Failing returns a production that yields items and then fails with err.
func Failing[T any](err error, items ...T) Production[T] {
	return func(context.Context) Iterator[T] {
		return &sliceIter[T]{items: items, err: err}
	}
}

type sliceIter[T any] struct {
	items []T
	index int
	err   error
}

func (it *sliceIter[T]) Next(_ context.Context) (T, bool, error) {
	if it.index >= len(it.items) {
		var zero T
		return zero, false, it.err
	}
	val := it.items[it.index]
	it.index++
	return val, true, nil
}

func (it *sliceIter[T]) Close() error { return nil }

type chanIter[T any] struct {
	ch <-chan T
}

func (it *chanIter[T]) Next(ctx context.Context) (T, bool, error) {
	select {
	case v, ok := <-it.ch:
		return v, ok, nil
	case <-ctx.Done():
		var zero T
		return zero, false, ctx.Err()
	}
}

func (it *chanIter[T]) Close() error { return nil }

type seqIter[T any] struct {
	next func() (T, error, bool)
	stop func()
}

func (it *seqIter[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}
	v, err, ok := it.next()
	if !ok {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}

func (it *seqIter[T]) Close() error {
	it.stop()
	return nil
}

type funcIter[T any] func(ctx context.Context) (T, bool, error)

func (f funcIter[T]) Next(ctx context.Context) (T, bool, error) { return f(ctx) }
func (f funcIter[T]) Close() error                              { return nil }
