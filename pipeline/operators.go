package pipeline

import "context"

// Map transforms each value using fn.
func Map[I, O any](up FirstPipe[I], fn func(context.Context, I) (O, error), opts ...Option) *Lambda[O] {
	return NewMid(up, func(_ context.Context, in Iterator[I]) Iterator[O] {
		return &mapIter[I, O]{source: in, fn: fn}
	}, opts...)
}

// FlatMap expands each value into a slice and yields its elements.
func FlatMap[I, O any](up FirstPipe[I], fn func(context.Context, I) ([]O, error), opts ...Option) *Lambda[O] {
	return NewMid(up, func(_ context.Context, in Iterator[I]) Iterator[O] {
		return &flatMapIter[I, O]{source: in, fn: fn}
	}, opts...)
}

// Filter keeps only values that satisfy the predicate.
func Filter[T any](up FirstPipe[T], fn func(T) bool, opts ...Option) *Lambda[T] {
	return NewMid(up, func(_ context.Context, in Iterator[T]) Iterator[T] {
		return &filterIter[T]{source: in, fn: fn}
	}, opts...)
}

// Tap calls fn for each value and passes the value through unchanged.
func Tap[T any](up FirstPipe[T], fn func(context.Context, T) error, opts ...Option) *Lambda[T] {
	return NewMid(up, func(_ context.Context, in Iterator[T]) Iterator[T] {
		return &tapIter[T]{source: in, fn: fn}
	}, opts...)
}

type mapIter[I, O any] struct {
	source Iterator[I]
	fn     func(context.Context, I) (O, error)
}

func (it *mapIter[I, O]) Next(ctx context.Context) (O, bool, error) {
	var zero O
	val, ok, err := it.source.Next(ctx)
	if err != nil || !ok {
		return zero, false, err
	}
	out, err := it.fn(ctx, val)
	if err != nil {
		return zero, false, err
	}
	return out, true, nil
}

func (it *mapIter[I, O]) Close() error { return it.source.Close() }

type flatMapIter[I, O any] struct {
	source  Iterator[I]
	fn      func(context.Context, I) ([]O, error)
	pending []O
}

func (it *flatMapIter[I, O]) Next(ctx context.Context) (O, bool, error) {
	var zero O
	for len(it.pending) == 0 {
		in, ok, err := it.source.Next(ctx)
		if err != nil || !ok {
			return zero, false, err
		}
		it.pending, err = it.fn(ctx, in)
		if err != nil {
			return zero, false, err
		}
	}
	out := it.pending[0]
	it.pending = it.pending[1:]
	return out, true, nil
}

func (it *flatMapIter[I, O]) Close() error { return it.source.Close() }

type filterIter[T any] struct {
	source Iterator[T]
	fn     func(T) bool
}

func (it *filterIter[T]) Next(ctx context.Context) (T, bool, error) {
	for {
		val, ok, err := it.source.Next(ctx)
		if err != nil || !ok {
			return val, false, err
		}
		if it.fn(val) {
			return val, true, nil
		}
	}
}

func (it *filterIter[T]) Close() error { return it.source.Close() }

type tapIter[T any] struct {
	source Iterator[T]
	fn     func(context.Context, T) error
}

func (it *tapIter[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	val, ok, err := it.source.Next(ctx)
	if err != nil || !ok {
		return zero, false, err
	}
	if err := it.fn(ctx, val); err != nil {
		return zero, false, err
	}
	return val, true, nil
}

func (it *tapIter[T]) Close() error { return it.source.Close() }
