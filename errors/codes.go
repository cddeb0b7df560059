package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Pipe lifecycle errors
const (
	// ErrCodeStopped indicates a pull on a pipe that has been stopped.
	ErrCodeStopped ErrorCode = "PIPE_STOPPED"
	// ErrCodeProduction indicates the production function of a pipe failed.
	ErrCodeProduction ErrorCode = "PRODUCTION_FAILED"
	// ErrCodePanic indicates a production function or transform panicked.
	ErrCodePanic ErrorCode = "WORKER_PANIC"
)

// Job and source errors
const (
	// ErrCodeJobInit indicates a job failed while building its pipe chain.
	ErrCodeJobInit ErrorCode = "JOB_INIT_FAILED"
	// ErrCodeRead indicates a paged source failed to size or read a window.
	ErrCodeRead ErrorCode = "READ_FAILED"
)

// Configuration errors
const (
	// ErrCodeInvalidConfig indicates configuration failed validation.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
)

var terminalCodes = map[ErrorCode]bool{
	ErrCodeStopped:    true,
	ErrCodeProduction: true,
	ErrCodePanic:      true,
}

// IsPipeTerminal reports whether a pipe that returned an error with this
// code has reached a terminal status.
func IsPipeTerminal(code ErrorCode) bool {
	return terminalCodes[code]
}
