package pipeline

// Status is the lifecycle state of one pipe instance. It only moves
// forward: Created, then Working, then one of the terminal states.
type Status int32

const (
	StatusCreated Status = iota
	StatusWorking
	StatusFinished
	StatusStopped
	StatusErrored
)

var statusNames = [...]string{
	StatusCreated:  "created",
	StatusWorking:  "working",
	StatusFinished: "finished",
	StatusStopped:  "stopped",
	StatusErrored:  "errored",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "unknown"
	}
	return statusNames[s]
}

// IsTerminal reports whether no further transition can leave s.
func (s Status) IsTerminal() bool {
	return s == StatusFinished || s == StatusStopped || s == StatusErrored
}
