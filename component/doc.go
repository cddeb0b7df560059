// Package component defines the Start/Stop/Health lifecycle shared by jobs
// and the Registry that runs them in registration order and stops them in
// reverse.
package component
