package pipeline

import (
	"context"

	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/resilience"
)

// Pager is a finite source that can be counted and read by window.
type Pager[T any] interface {
	// Size returns the number of items available.
	Size(ctx context.Context) (int, error)
	// Read returns the items in [skip, skip+take).
	Read(ctx context.Context, skip, take int) (T, error)
}

// Read yields pager one window of at most take items at a time. The source
// is sized once, on the first pull. Failed window reads are retried only
// when WithReadRetry is set.
func Read[T any](pager Pager[T], take int, opts ...Option) *Lambda[T] {
	if take <= 0 {
		take = 1
	}
	var p *Lambda[T]
	p = newLambda("read", func(context.Context) Iterator[T] {
		return &readIter[T]{pager: pager, take: take, size: -1, name: p.m.name, retry: p.opts.readRetry}
	}, opts)
	return p
}

type readIter[T any] struct {
	pager Pager[T]
	take  int
	size  int
	skip  int
	name  string
	retry resilience.RetryConfig
}

func (it *readIter[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if it.size < 0 {
		size, err := it.pager.Size(ctx)
		if err != nil {
			return zero, false, errors.SizeFailed(it.name, err)
		}
		it.size = size
	}
	if it.skip >= it.size {
		return zero, false, nil
	}

	skip, take := it.skip, min(it.take, it.size-it.skip)
	page, err := resilience.Retry(ctx, it.retry, func(ctx context.Context) (T, error) {
		return it.pager.Read(ctx, skip, take)
	})
	if err != nil {
		return zero, false, errors.ReadFailed(it.name, skip, take, err)
	}
	it.skip += take
	return page, true, nil
}

func (it *readIter[T]) Close() error { return nil }
