package pipeline

import (
	"context"
	stderrors "errors"
	"sync"

	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/observability"
)

type event int

const (
	eventPull event = iota
	eventStop
	eventExhausted
	eventFail
)

// errFinished is returned by enter for a pipe that already finished. It
// never reaches callers: a finished pipe yields an empty sequence.
var errFinished = stderrors.New("pipe finished")

// machine owns the status of one pipe. Every transition goes through apply.
type machine struct {
	name    string
	log     *logger.Logger
	metrics *observability.PipeMetrics

	mu      sync.Mutex
	status  Status
	cause   error
	nextID  uint64
	cancels map[uint64]context.CancelFunc
	onStop  []func()
}

func newMachine(o options) *machine {
	return &machine{
		name:    o.name,
		log:     o.log,
		metrics: o.metrics,
		cancels: make(map[uint64]context.CancelFunc),
	}
}

// Status returns the current status.
func (m *machine) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// stopped reports whether Stop has been observed.
func (m *machine) stopped() bool {
	return m.Status() == StatusStopped
}

// onStopped registers fn to run once when the pipe stops.
func (m *machine) onStopped(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onStop = append(m.onStop, fn)
}

// apply performs the transition for ev and reports whether the status
// changed. cause is recorded for eventFail.
func (m *machine) apply(ev event, cause error) bool {
	m.mu.Lock()
	from, to, changed := m.transitionLocked(ev, cause)
	var cancels []context.CancelFunc
	var hooks []func()
	if changed && to == StatusStopped {
		for _, c := range m.cancels {
			cancels = append(cancels, c)
		}
		hooks = m.onStop
		m.onStop = nil
	}
	m.mu.Unlock()

	if !changed {
		return false
	}
	m.notify(from, to, cause)
	for _, c := range cancels {
		c()
	}
	for _, h := range hooks {
		h()
	}
	return true
}

func (m *machine) transitionLocked(ev event, cause error) (from, to Status, changed bool) {
	from = m.status
	to = from
	switch ev {
	case eventPull:
		if from == StatusCreated {
			to = StatusWorking
		}
	case eventStop:
		if from == StatusCreated || from == StatusWorking {
			to = StatusStopped
		}
	case eventExhausted:
		if from == StatusWorking {
			to = StatusFinished
		}
	case eventFail:
		if from == StatusWorking {
			to = StatusErrored
			m.cause = cause
		}
	}
	m.status = to
	return from, to, from != to
}

func (m *machine) notify(from, to Status, cause error) {
	fields := logger.Fields(logger.FieldFrom, from.String(), logger.FieldTo, to.String())
	if cause != nil && to == StatusErrored {
		fields[logger.FieldError] = cause.Error()
		fields[logger.FieldCode] = string(errors.CodeOf(cause))
	}
	m.log.Debug("pipe status changed", fields)
	m.metrics.RecordTransition(context.Background(), m.name, from.String(), to.String())
}

// enter starts one pull. A Created pipe moves to Working; a Working pipe is
// joined. The returned context is cancelled by Stop and by release.
// Finished pipes return errFinished, Stopped pipes a stopped error and
// Errored pipes their recorded cause.
func (m *machine) enter(ctx context.Context) (context.Context, func(), error) {
	m.mu.Lock()
	switch m.status {
	case StatusFinished:
		m.mu.Unlock()
		return nil, nil, errFinished
	case StatusStopped:
		m.mu.Unlock()
		return nil, nil, errors.Stopped(m.name)
	case StatusErrored:
		cause := m.cause
		m.mu.Unlock()
		return nil, nil, cause
	}

	from, to, changed := m.transitionLocked(eventPull, nil)
	pullCtx, cancel := context.WithCancel(ctx)
	id := m.nextID
	m.nextID++
	m.cancels[id] = cancel
	m.mu.Unlock()

	if changed {
		m.notify(from, to, nil)
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.cancels, id)
			m.mu.Unlock()
			cancel()
		})
	}
	return pullCtx, release, nil
}

// fail records err as the pipe's failure and returns the error callers see.
// A pipe that was stopped meanwhile keeps its Stopped status.
func (m *machine) fail(err error) error {
	err = m.normalize(err)
	m.apply(eventFail, err)
	return err
}

// normalize flattens single-cause aggregates and wraps foreign errors so
// they carry the pipe name. Errors from upstream pipes pass through.
func (m *machine) normalize(err error) error {
	err = errors.Flatten(err)
	if err == nil {
		return nil
	}
	if _, ok := errors.AsPipeError(err); ok {
		return err
	}
	return errors.Production(m.name, err)
}
