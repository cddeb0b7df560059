package job

import (
	"context"

	"github.com/google/uuid"
)

// Info identifies the job a context belongs to.
type Info struct {
	ID   uuid.UUID
	Name string
}

type infoKey struct{}

// WithInfo returns a copy of ctx carrying info.
func WithInfo(ctx context.Context, info Info) context.Context {
	return context.WithValue(ctx, infoKey{}, info)
}

// InfoFromContext returns the job info set by Process, if any. Reporters
// use it to attribute a failure to its job.
func InfoFromContext(ctx context.Context) (Info, bool) {
	info, ok := ctx.Value(infoKey{}).(Info)
	return info, ok
}
