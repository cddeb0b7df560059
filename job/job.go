package job

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/sourcegraph/conc/panics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/observability"
	"github.com/kbukum/flowkit/pipeline"
)

// Builder assembles the chain a job drives. It runs once, on the first
// Process call, and may register closers on j.
type Builder func(ctx context.Context, j *Job) (pipeline.Closed, error)

// State is the lifecycle position of a job.
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateFinished State = "finished"
	StateFailed   State = "failed"
	StateClosed   State = "closed"
)

// Job owns one pipe chain and the reporters notified when it fails.
type Job struct {
	id      uuid.UUID
	name    string
	build   Builder
	tracker *Tracker
	log     *logger.Logger
	metrics *observability.PipeMetrics

	mu       sync.Mutex
	state    State
	chain    pipeline.Closed
	err      error
	done     chan struct{}
	closers  []func() error
	closed   bool
	closeErr error
}

// Option configures a Job.
type Option func(*Job)

// WithReporters registers reporters on the job's tracker.
func WithReporters(reporters ...ErrorReporter) Option {
	return func(j *Job) { j.tracker.Register(reporters...) }
}

// WithTracker replaces the job's tracker.
func WithTracker(t *Tracker) Option {
	return func(j *Job) {
		if t != nil {
			j.tracker = t
		}
	}
}

// WithLogger sets the job logger.
func WithLogger(l *logger.Logger) Option {
	return func(j *Job) { j.log = l }
}

// WithMetrics records Process durations and reported failures into m.
func WithMetrics(m *observability.PipeMetrics) Option {
	return func(j *Job) { j.metrics = m }
}

// New creates a job that builds its chain with build.
func New(name string, build Builder, opts ...Option) *Job {
	j := &Job{
		id:      uuid.New(),
		name:    name,
		build:   build,
		tracker: NewTracker(),
		state:   StateIdle,
	}
	for _, opt := range opts {
		opt(j)
	}
	if j.log == nil {
		j.log = logger.Get("job")
	}
	j.log = j.log.WithFields(logger.Fields(logger.FieldJob, name, logger.FieldJobID, j.id.String()))
	return j
}

// ID returns the unique id of this job instance.
func (j *Job) ID() uuid.UUID { return j.id }

// Name returns the job name.
func (j *Job) Name() string { return j.name }

// Tracker returns the job's reporter set.
func (j *Job) Tracker() *Tracker { return j.tracker }

// Logger returns the job logger, tagged with the job name and id.
func (j *Job) Logger() *logger.Logger { return j.log }

// State returns the current lifecycle state.
func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// Chain returns the built chain, or nil before the first Process.
func (j *Job) Chain() pipeline.Closed {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.chain
}

// Err returns the failure of a failed job.
func (j *Job) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

// AddCloser registers fn to run on Close. Closers run in reverse order of
// registration. On a closed job fn runs immediately.
func (j *Job) AddCloser(fn func() error) {
	j.mu.Lock()
	if !j.closed {
		j.closers = append(j.closers, fn)
		j.mu.Unlock()
		return
	}
	j.mu.Unlock()
	if err := fn(); err != nil {
		j.log.Warn("closer failed after job close", logger.Fields(logger.FieldError, err.Error()))
	}
}

// Process builds the chain if needed and drives it to completion.
//
// A failure during build or processing, panics included, is reported to
// every reporter once and returned. Later calls return the same error
// without reporting again; on a finished job they return nil. Concurrent
// calls wait for the running one and share its outcome.
func (j *Job) Process(ctx context.Context) error {
	j.mu.Lock()
	switch j.state {
	case StateFinished:
		j.mu.Unlock()
		return nil
	case StateFailed:
		err := j.err
		j.mu.Unlock()
		return err
	case StateClosed:
		j.mu.Unlock()
		return errors.New(errors.ErrCodeStopped, j.name, fmt.Sprintf("job %q is closed", j.name))
	case StateRunning:
		done := j.done
		j.mu.Unlock()
		select {
		case <-done:
			return j.outcome()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	j.state = StateRunning
	j.done = make(chan struct{})
	j.mu.Unlock()

	ctx = WithInfo(ctx, Info{ID: j.id, Name: j.name})
	ctx, span := observability.StartSpan(ctx, observability.SpanJobProcess, trace.WithAttributes(
		attribute.String(observability.AttrJob, j.name),
		attribute.String(observability.AttrJobID, j.id.String()),
	))
	start := time.Now()
	j.log.WithContext(ctx).Debug("job started")

	err := j.run(ctx)
	if err != nil {
		j.report(ctx, err)
	}

	outcome := "finished"
	if err != nil {
		outcome = "failed"
	}
	j.metrics.RecordJob(ctx, j.name, outcome, time.Since(start))
	span.SetAttributes(attribute.String(observability.AttrOutcome, outcome))
	observability.EndSpan(span, err)

	j.mu.Lock()
	switch {
	case err != nil:
		j.err = err
		j.state = StateFailed
	case j.state == StateRunning:
		j.state = StateFinished
	}
	close(j.done)
	j.mu.Unlock()

	if err == nil {
		j.log.WithContext(ctx).Info("job finished", logger.MergeWithDuration(nil, time.Since(start)))
	}
	return err
}

func (j *Job) outcome() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

// run builds the chain and starts it.
func (j *Job) run(ctx context.Context) error {
	chain, err := j.init(ctx)
	if err != nil {
		return err
	}

	j.mu.Lock()
	closed := j.closed
	if !closed {
		j.chain = chain
	}
	j.mu.Unlock()
	if closed {
		chain.Stop()
		return nil
	}

	if r := panics.Try(func() { err = chain.Start(ctx) }); r != nil {
		return errors.Panic(j.name, r.AsError())
	}
	return errors.Flatten(err)
}

// init runs the builder. Every failure comes back as a JOB_INIT_FAILED
// error wrapping the cause.
func (j *Job) init(ctx context.Context) (chain pipeline.Closed, err error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanJobInit)
	defer func() { observability.EndSpan(span, err) }()

	if r := panics.Try(func() { chain, err = j.build(ctx, j) }); r != nil {
		err = errors.Panic(j.name, r.AsError())
	}
	if err == nil && chain == nil {
		err = stderrors.New("builder returned no chain")
	}
	if err != nil {
		return nil, errors.JobInit(j.name, err)
	}
	return chain, nil
}

func (j *Job) report(ctx context.Context, err error) {
	code := errors.CodeOf(err)
	j.log.WithContext(ctx).Error("job failed", logger.Fields(
		logger.FieldError, err.Error(),
		logger.FieldCode, string(code),
	))
	j.metrics.RecordFailure(ctx, j.name, string(code))
	j.tracker.Report(ctx, err)
}

// Close stops the chain and runs the registered closers. It is safe to call
// whether Process succeeded, failed or never ran; calls after the first
// return the first result.
func (j *Job) Close() error {
	j.mu.Lock()
	if j.closed {
		err := j.closeErr
		j.mu.Unlock()
		return err
	}
	j.closed = true
	if j.state == StateIdle || j.state == StateRunning {
		j.state = StateClosed
	}
	chain := j.chain
	closers := j.closers
	j.closers = nil
	j.mu.Unlock()

	if chain != nil {
		chain.Stop()
	}

	var result *multierror.Error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			result = multierror.Append(result, err)
		}
	}
	err := result.ErrorOrNil()
	if err != nil {
		j.log.Warn("job closed with errors", logger.Fields(logger.FieldError, err.Error()))
	}

	j.mu.Lock()
	j.closeErr = err
	j.mu.Unlock()
	return err
}
