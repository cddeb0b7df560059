package errors

import (
	stderrors "errors"
	"fmt"
)

// PipeError is the unified error type of the framework.
type PipeError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Pipe names the pipe or job the error originated from, if any.
	Pipe string `json:"pipe,omitempty"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the message followed by the cause, so the cause's own
// message is always part of the text.
func (e *PipeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause of the error.
func (e *PipeError) Unwrap() error { return e.Cause }

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *PipeError) WithDetail(key string, value any) *PipeError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a PipeError with the given code and message.
func New(code ErrorCode, pipe, message string) *PipeError {
	return &PipeError{Code: code, Pipe: pipe, Message: message}
}

// Stopped creates the error returned when pulling a stopped pipe.
func Stopped(pipe string) *PipeError {
	return &PipeError{
		Code:    ErrCodeStopped,
		Pipe:    pipe,
		Message: fmt.Sprintf("pipe %q has been stopped", pipe),
	}
}

// Production wraps a failure raised by a pipe's production function.
func Production(pipe string, cause error) *PipeError {
	return &PipeError{
		Code:    ErrCodeProduction,
		Pipe:    pipe,
		Message: fmt.Sprintf("pipe %q production failed", pipe),
		Cause:   cause,
	}
}

// Panic wraps a recovered panic from production or a transform.
func Panic(pipe string, cause error) *PipeError {
	return &PipeError{
		Code:    ErrCodePanic,
		Pipe:    pipe,
		Message: fmt.Sprintf("pipe %q panicked", pipe),
		Cause:   cause,
	}
}

// JobInit wraps a failure raised while a job builds its chain.
func JobInit(job string, cause error) *PipeError {
	return &PipeError{
		Code:    ErrCodeJobInit,
		Pipe:    job,
		Message: fmt.Sprintf("job %q failed to initialize", job),
		Cause:   cause,
	}
}

// SizeFailed wraps a failure to count the items of a paged source.
func SizeFailed(pipe string, cause error) *PipeError {
	return &PipeError{
		Code:    ErrCodeRead,
		Pipe:    pipe,
		Message: fmt.Sprintf("pipe %q failed to size its source", pipe),
		Cause:   cause,
	}
}

// ReadFailed wraps a failure from a paged source.
func ReadFailed(pipe string, skip, take int, cause error) *PipeError {
	return (&PipeError{
		Code:    ErrCodeRead,
		Pipe:    pipe,
		Message: fmt.Sprintf("pipe %q failed to read window [%d,%d)", pipe, skip, skip+take),
		Cause:   cause,
	}).WithDetail("skip", skip).WithDetail("take", take)
}

// Validation creates an error for configuration that failed validation.
func Validation(message string) *PipeError {
	return &PipeError{Code: ErrCodeInvalidConfig, Message: message}
}

// AsPipeError returns the first PipeError in err's chain.
func AsPipeError(err error) (*PipeError, bool) {
	var pe *PipeError
	if stderrors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// CodeOf returns the code of the first PipeError in err's chain, or "".
func CodeOf(err error) ErrorCode {
	if pe, ok := AsPipeError(err); ok {
		return pe.Code
	}
	return ""
}

// IsStopped reports whether err was caused by pulling a stopped pipe.
func IsStopped(err error) bool {
	return CodeOf(err) == ErrCodeStopped
}
