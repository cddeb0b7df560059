// Package errors provides the error type shared by pipes, jobs and sources.
// Every error carries a machine-readable code and keeps its original cause
// reachable through errors.Is and errors.As.
package errors
