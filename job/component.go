package job

import (
	"context"

	"github.com/kbukum/flowkit/component"
)

var _ component.Component = (*Job)(nil)

// Start runs Process, so a component.Registry drives jobs in order.
func (j *Job) Start(ctx context.Context) error {
	return j.Process(ctx)
}

// Stop closes the job.
func (j *Job) Stop(_ context.Context) error {
	return j.Close()
}

// Health reports a failed job as unhealthy and a closed one as degraded.
func (j *Job) Health(_ context.Context) component.Health {
	j.mu.Lock()
	defer j.mu.Unlock()

	h := component.Health{Name: j.name, Status: component.StatusHealthy, Message: string(j.state)}
	switch j.state {
	case StateFailed:
		h.Status = component.StatusUnhealthy
		h.Message = j.err.Error()
	case StateClosed:
		h.Status = component.StatusDegraded
	}
	return h
}
