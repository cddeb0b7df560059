package bootstrap

import (
	"io"
	"time"

	"github.com/kbukum/flowkit/component"
	"github.com/kbukum/flowkit/job"
	"github.com/kbukum/flowkit/logger"
)

// Option configures the App during creation.
type Option func(*appOptions)

type appOptions struct {
	logger          *logger.Logger
	registry        *component.Registry
	reporters       []job.ErrorReporter
	gracefulTimeout *time.Duration
	summaryOut      io.Writer
	handleSignals   bool
}

func resolveOptions(opts []Option) *appOptions {
	o := &appOptions{handleSignals: true}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets a custom logger. If not set, the logger is initialized
// from the config's logging section.
func WithLogger(l *logger.Logger) Option {
	return func(o *appOptions) {
		o.logger = l
	}
}

// WithRegistry sets the component registry jobs are registered in.
func WithRegistry(r *component.Registry) Option {
	return func(o *appOptions) {
		o.registry = r
	}
}

// WithReporters adds error reporters to every job created by the App.
func WithReporters(reporters ...job.ErrorReporter) Option {
	return func(o *appOptions) {
		o.reporters = append(o.reporters, reporters...)
	}
}

// WithGracefulTimeout sets the maximum duration for shutdown.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *appOptions) {
		o.gracefulTimeout = &d
	}
}

// WithSummaryOutput sets where the run summary is written. Nil disables it.
func WithSummaryOutput(w io.Writer) Option {
	return func(o *appOptions) {
		o.summaryOut = w
	}
}

// WithoutSignals leaves SIGINT and SIGTERM to the caller.
func WithoutSignals() Option {
	return func(o *appOptions) {
		o.handleSignals = false
	}
}
