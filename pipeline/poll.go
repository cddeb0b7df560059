package pipeline

import (
	"context"
	"time"

	"github.com/kbukum/flowkit/logger"
)

// Poll re-invokes production every interval and yields each snapshot in
// turn. Time spent producing counts against the interval. Stop between
// polls prevents the next one and ends the sequence.
//
// An empty snapshot finishes the sequence unless KeepPollingWhenEmpty is
// set; WithMaxPolls bounds the number of polls.
func Poll[T any](production Production[T], interval time.Duration, opts ...Option) *Lambda[T] {
	var p *Lambda[T]
	p = newLambda("poll", func(context.Context) Iterator[T] {
		return &pollIter[T]{
			production: production,
			interval:   interval,
			maxPolls:   p.opts.maxPolls,
			keepEmpty:  p.opts.keepEmpty,
			log:        p.m.log,
		}
	}, opts)
	return p
}

type pollIter[T any] struct {
	production Production[T]
	interval   time.Duration
	maxPolls   int
	keepEmpty  bool
	log        *logger.Logger

	polls   int
	yielded int
	next    time.Time
	cur     Iterator[T]
}

func (it *pollIter[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	for {
		if it.cur == nil {
			if it.maxPolls > 0 && it.polls >= it.maxPolls {
				return zero, false, nil
			}
			if it.polls > 0 {
				if err := sleep(ctx, time.Until(it.next)); err != nil {
					return zero, false, err
				}
			}
			it.next = time.Now().Add(it.interval)
			it.polls++
			it.yielded = 0
			it.cur = it.production(ctx)
			it.log.Debug("poll started", logger.Fields("poll", it.polls))
		}

		val, ok, err := it.cur.Next(ctx)
		if err != nil {
			return zero, false, err
		}
		if ok {
			it.yielded++
			return val, true, nil
		}

		_ = it.cur.Close()
		it.cur = nil
		if it.yielded == 0 && !it.keepEmpty {
			return zero, false, nil
		}
	}
}

func (it *pollIter[T]) Close() error {
	if it.cur != nil {
		err := it.cur.Close()
		it.cur = nil
		return err
	}
	return nil
}
