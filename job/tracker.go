package job

import (
	"context"
	"fmt"
	"sync"

	"github.com/sourcegraph/conc/panics"

	"github.com/kbukum/flowkit/logger"
)

// ErrorReporter accepts one failure per call.
type ErrorReporter interface {
	Report(ctx context.Context, err error)
}

// ReporterFunc adapts a function to ErrorReporter.
type ReporterFunc func(ctx context.Context, err error)

// Report calls f(ctx, err).
func (f ReporterFunc) Report(ctx context.Context, err error) { f(ctx, err) }

// Tracker holds the error reporters of a job in registration order.
type Tracker struct {
	mu        sync.RWMutex
	reporters []ErrorReporter
	log       *logger.Logger
}

// NewTracker creates a tracker with the given reporters.
func NewTracker(reporters ...ErrorReporter) *Tracker {
	t := &Tracker{log: logger.Get("job")}
	t.Register(reporters...)
	return t
}

// Register appends reporters. Nil reporters are ignored.
func (t *Tracker) Register(reporters ...ErrorReporter) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, r := range reporters {
		if r != nil {
			t.reporters = append(t.reporters, r)
		}
	}
}

// Reporters returns a snapshot of the registered reporters.
func (t *Tracker) Reporters() []ErrorReporter {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]ErrorReporter, len(t.reporters))
	copy(out, t.reporters)
	return out
}

// Len returns the number of registered reporters.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.reporters)
}

// Report hands err to every reporter in order. A reporter that panics is
// logged and skipped; the remaining reporters still run.
func (t *Tracker) Report(ctx context.Context, err error) {
	for i, r := range t.Reporters() {
		if rec := panics.Try(func() { r.Report(ctx, err) }); rec != nil {
			t.log.WithContext(ctx).Error("error reporter panicked", logger.Fields(
				"reporter", fmt.Sprintf("%d:%T", i, r),
				logger.FieldError, rec.AsError().Error(),
			))
		}
	}
}
