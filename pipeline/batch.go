package pipeline

import (
	"context"
	"time"
)

// Batch groups up to size values, or whatever arrived within timeout of the
// first value of a group, into one slice.
//
// size=0 means collect until timeout. timeout=0 means collect until size.
// Both zero defaults to size=1.
func Batch[T any](up FirstPipe[T], size int, timeout time.Duration, opts ...Option) *Lambda[[]T] {
	if size <= 0 && timeout <= 0 {
		size = 1
	}
	return NewMid(up, func(_ context.Context, in Iterator[T]) Iterator[[]T] {
		return &batchIter[T]{source: in, size: size, timeout: timeout}
	}, opts...)
}

type batchIter[T any] struct {
	source  Iterator[T]
	size    int
	timeout time.Duration
	err     error
	done    bool
}

func (it *batchIter[T]) Next(ctx context.Context) ([]T, bool, error) {
	if it.err != nil {
		err := it.err
		it.err = nil
		it.done = true
		return nil, false, err
	}
	if it.done {
		return nil, false, nil
	}

	var batch []T
	var deadline time.Time
	if it.timeout > 0 {
		deadline = time.Now().Add(it.timeout)
	}

	for it.size <= 0 || len(batch) < it.size {
		val, ok, err := it.source.Next(ctx)
		if err != nil {
			if len(batch) > 0 {
				// The error surfaces on the next call.
				it.err = err
				return batch, true, nil
			}
			it.done = true
			return nil, false, err
		}
		if !ok {
			it.done = true
			break
		}
		batch = append(batch, val)
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			break
		}
	}

	if len(batch) == 0 {
		return nil, false, nil
	}
	return batch, true, nil
}

func (it *batchIter[T]) Close() error { return it.source.Close() }
