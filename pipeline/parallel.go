package pipeline

import (
	"context"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/kbukum/flowkit/logger"
)

// ParallelPipe drives a closed pipe from n concurrent Starts.
type ParallelPipe struct {
	inner Closed
	n     int
	log   *logger.Logger
	mu    sync.Mutex
}

// Parallel wraps closed so that Start runs n concurrent Starts of it, at
// most once per wrapped instance.
func Parallel(closed Closed, n int) *ParallelPipe {
	if n <= 0 {
		n = 1
	}
	return &ParallelPipe{
		inner: closed,
		n:     n,
		log:   logger.Get("pipeline").WithFields(logger.Fields(logger.FieldPipe, closed.Name())),
	}
}

func (p *ParallelPipe) Name() string   { return p.inner.Name() }
func (p *ParallelPipe) Status() Status { return p.inner.Status() }

// Stop forwards to the wrapped pipe; its workers observe it cooperatively.
func (p *ParallelPipe) Stop() { p.inner.Stop() }

// Start is a no-op while the wrapped pipe is Working. Otherwise it runs n
// Starts and waits for them, returning the first failure.
func (p *ParallelPipe) Start(ctx context.Context) error {
	if p.inner.Status() == StatusWorking {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inner.Status() == StatusWorking {
		return nil
	}

	p.log.Debug("starting parallel drivers", logger.Fields(logger.FieldWorkers, p.n))
	workers := pool.New().WithMaxGoroutines(p.n).WithErrors().WithFirstError()
	for range p.n {
		workers.Go(func() error {
			return p.inner.Start(ctx)
		})
	}
	return workers.Wait()
}
