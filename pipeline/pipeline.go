package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/observability"
	"github.com/kbukum/flowkit/resilience"
)

// Iterator provides pull-based sequential access to a stream of values.
type Iterator[T any] interface {
	// Next returns the next value. Returns (zero, false, nil) when exhausted.
	Next(ctx context.Context) (T, bool, error)
	// Close releases any resources held by the iterator.
	Close() error
}

// Production starts one pass over a lazy sequence. It may fail at any
// point of the enumeration by returning an error from Next.
type Production[T any] func(ctx context.Context) Iterator[T]

// Transform turns an upstream iterator into a downstream one.
type Transform[I, O any] func(ctx context.Context, in Iterator[I]) Iterator[O]

// Pipe is the surface shared by every stage.
type Pipe interface {
	Name() string
	Status() Status
	// Stop ends the pipe cooperatively. In-flight pulls observe it at
	// their next yield boundary; later pulls fail with a stopped error.
	Stop()
}

// FirstPipe is a stage that yields values.
type FirstPipe[T any] interface {
	Pipe
	// Produces starts a pull. The caller must Close the iterator.
	Produces(ctx context.Context) Iterator[T]
}

// Closed is a terminal stage driven by Start.
type Closed interface {
	Pipe
	Start(ctx context.Context) error
}

// Option configures a pipe.
type Option func(*options)

type options struct {
	name          string
	log           *logger.Logger
	metrics       *observability.PipeMetrics
	queueCapacity int
	maxPolls      int
	keepEmpty     bool
	readRetry     resilience.RetryConfig
}

func newOptions(kind string, opts []Option) options {
	o := options{readRetry: resilience.NoRetry()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.name == "" {
		o.name = kind + "-" + uuid.NewString()[:8]
	}
	if o.log == nil {
		o.log = logger.Get("pipeline")
	}
	o.log = o.log.WithFields(logger.Fields(logger.FieldPipe, o.name))
	return o
}

// WithName names the pipe in logs, metrics and errors.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithLogger sets the logger status transitions are written to.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithMetrics records yielded items and transitions into m.
func WithMetrics(m *observability.PipeMetrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithQueueCapacity bounds the channel between background workers and
// their consumers. Defaults to the worker count for Thread and 1 for Async.
func WithQueueCapacity(n int) Option {
	return func(o *options) { o.queueCapacity = n }
}

// WithMaxPolls finishes a polling pipe after n polls.
func WithMaxPolls(n int) Option {
	return func(o *options) { o.maxPolls = n }
}

// KeepPollingWhenEmpty keeps a polling pipe alive across empty snapshots.
// By default an empty snapshot finishes the sequence.
func KeepPollingWhenEmpty() Option {
	return func(o *options) { o.keepEmpty = true }
}

// WithReadRetry retries failed window reads of a Read pipe.
func WithReadRetry(cfg resilience.RetryConfig) Option {
	return func(o *options) { o.readRetry = cfg }
}

// result carries a value or error through a channel.
type result[T any] struct {
	val T
	err error
}

// channelIter reads values from a channel fed by a background goroutine.
type channelIter[T any] struct {
	ch     <-chan result[T]
	closer func()
}

func (it *channelIter[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	select {
	case r, open := <-it.ch:
		if !open {
			return zero, false, nil
		}
		if r.err != nil {
			return zero, false, r.err
		}
		return r.val, true, nil
	case <-ctx.Done():
		return zero, false, ctx.Err()
	}
}

func (it *channelIter[T]) Close() error {
	if it.closer != nil {
		it.closer()
		it.closer = nil
	}
	return nil
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
