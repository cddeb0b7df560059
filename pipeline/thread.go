package pipeline

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-multierror"
	"github.com/sourcegraph/conc/panics"
	"golang.org/x/sync/errgroup"

	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/logger"
)

// Thread applies fn to upstream values with up to n workers and collapses
// concurrent pulls: while a pass is active every pull drains the same
// queue, so upstream is read once no matter how many callers there are.
// Output follows arrival order. With n=1 the pass is sequential.
//
// A worker or upstream failure ends the pass; every drainer observes the
// first failure once the queue is empty.
func Thread[I, O any](up FirstPipe[I], n int, fn func(context.Context, I) (O, error), opts ...Option) *Lambda[O] {
	if n <= 0 {
		n = 1
	}
	t := &thread[I, O]{up: up, n: n, fn: fn}
	p := newLambda("thread", t.join, opts)
	t.name, t.m = p.m.name, p.m
	t.capacity = p.opts.queueCapacity
	if t.capacity <= 0 {
		t.capacity = n
	}
	p.m.onStopped(t.stop)
	p.m.onStopped(up.Stop)
	return p
}

// Threaded is Thread with the identity transform.
func Threaded[T any](up FirstPipe[T], n int, opts ...Option) *Lambda[T] {
	return Thread(up, n, func(_ context.Context, v T) (T, error) { return v, nil }, opts...)
}

type thread[I, O any] struct {
	up       FirstPipe[I]
	n        int
	fn       func(context.Context, I) (O, error)
	name     string
	m        *machine
	capacity int

	active atomic.Pointer[workerPool[O]]
}

// join attaches a drainer to the active pool, installing a new one when
// there is none.
func (t *thread[I, O]) join(ctx context.Context) Iterator[O] {
	for {
		cur := t.active.Load()
		if cur != nil && cur.acquire() {
			return &poolIter[O]{pool: cur}
		}
		next := newWorkerPool[O](t.capacity, func(p *workerPool[O]) {
			t.active.CompareAndSwap(p, nil)
		})
		if t.active.CompareAndSwap(cur, next) {
			next.acquire()
			go t.feed(context.WithoutCancel(ctx), next)
			return &poolIter[O]{pool: next}
		}
	}
}

func (t *thread[I, O]) stop() {
	if p := t.active.Load(); p != nil {
		p.cancel()
	}
}

// feed pulls upstream and hands each value to a worker. The queue closes
// after the upstream pass and every worker are done.
func (t *thread[I, O]) feed(ctx context.Context, p *workerPool[O]) {
	ctx, cancel := context.WithCancel(ctx)
	p.setCancel(cancel)
	defer cancel()

	t.m.metrics.WorkerStarted(ctx, t.name)
	defer t.m.metrics.WorkerDone(ctx, t.name)
	t.m.log.Debug("worker pool started", logger.Fields(logger.FieldWorkers, t.n))

	// A failing worker cancels gctx, which stops the upstream pass the same
	// way an abandoned pool does.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.n)

	src := t.up.Produces(gctx)
	var upErr error
	for {
		val, ok, err := src.Next(gctx)
		if err != nil {
			upErr = err
			break
		}
		if !ok {
			break
		}
		g.Go(func() error {
			var out O
			var err error
			if r := panics.Try(func() { out, err = t.fn(gctx, val) }); r != nil {
				return errors.Panic(t.name, r.AsError())
			}
			if err != nil {
				return err
			}
			select {
			case p.queue <- out:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}
	werr := g.Wait()
	_ = src.Close()

	p.complete(errors.Representative(multierror.Append(werr, upErr).ErrorOrNil()))
	t.m.log.Debug("worker pool completed")
}

// workerPool is one pass of a Thread pipe: a queue with a group of
// writers and any number of drainers.
type workerPool[O any] struct {
	queue    chan O
	done     chan struct{}
	err      error
	onIdle   func(*workerPool[O])
	mu       sync.Mutex
	refs     int
	released bool
	stopFn   context.CancelFunc
	stopped  bool
}

func newWorkerPool[O any](capacity int, onIdle func(*workerPool[O])) *workerPool[O] {
	return &workerPool[O]{
		queue:  make(chan O, capacity),
		done:   make(chan struct{}),
		onIdle: onIdle,
	}
}

func (p *workerPool[O]) acquire() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return false
	}
	p.refs++
	return true
}

// leave detaches a drainer. The last drainer leaving an unfinished pass
// cancels it.
func (p *workerPool[O]) leave() {
	p.mu.Lock()
	p.refs--
	abandon := p.refs == 0 && !p.completed()
	if abandon {
		p.released = true
	}
	p.mu.Unlock()

	if abandon {
		p.cancel()
		p.onIdle(p)
	}
}

func (p *workerPool[O]) setCancel(fn context.CancelFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopFn = fn
	if p.stopped {
		fn()
	}
}

func (p *workerPool[O]) cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopped = true
	if p.stopFn != nil {
		p.stopFn()
	}
}

func (p *workerPool[O]) complete(err error) {
	p.err = err
	close(p.queue)
	close(p.done)
}

func (p *workerPool[O]) completed() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

type poolIter[O any] struct {
	pool *workerPool[O]
	left bool
}

func (it *poolIter[O]) Next(ctx context.Context) (O, bool, error) {
	var zero O
	select {
	case v, open := <-it.pool.queue:
		if !open {
			<-it.pool.done
			return zero, false, it.pool.err
		}
		return v, true, nil
	case <-ctx.Done():
		return zero, false, ctx.Err()
	}
}

func (it *poolIter[O]) Close() error {
	if !it.left {
		it.left = true
		it.pool.leave()
	}
	return nil
}
