package report

import (
	"context"

	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/job"
	"github.com/kbukum/flowkit/logger"
)

var _ job.ErrorReporter = (*Log)(nil)

// Log writes each reported failure at error level.
type Log struct {
	log *logger.Logger
}

// NewLog creates a reporter writing to l, or to the "report" component
// logger when l is nil.
func NewLog(l *logger.Logger) *Log {
	if l == nil {
		l = logger.Get("report")
	}
	return &Log{log: l}
}

func (r *Log) Report(ctx context.Context, err error) {
	r.log.WithContext(ctx).Error("failure reported", failureFields(ctx, err))
}

// failureFields describes err and the job it came from.
func failureFields(ctx context.Context, err error) map[string]interface{} {
	fields := logger.Fields(
		logger.FieldError, err.Error(),
		logger.FieldCode, string(errors.CodeOf(err)),
	)
	if info, ok := job.InfoFromContext(ctx); ok {
		fields[logger.FieldJob] = info.Name
		fields[logger.FieldJobID] = info.ID.String()
	}
	if pe, ok := errors.AsPipeError(err); ok && pe.Pipe != "" {
		fields[logger.FieldPipe] = pe.Pipe
	}
	return fields
}
