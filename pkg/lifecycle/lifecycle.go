package lifecycle

import "errors"

// State represents the lifecycle state of a sync controller.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
	StateFailed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StateStarting:
		return "Starting"
	case StateRunning:
		return "Running"
	case StateStopping:
		return "Stopping"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Active reports whether the state holds resources (capture, stream).
func (s State) Active() bool {
	return s == StateStarting || s == StateRunning || s == StateStopping
}

// Common lifecycle errors.
var (
	ErrNotRunning      = errors.New("lumux: not running")
	ErrAlreadyRunning  = errors.New("lumux: already running")
	ErrShutdownTimeout = errors.New("lumux: shutdown timeout")
)

// EventEmitter is called when lifecycle state changes.
type EventEmitter interface {
	OnStateChange(previous, current State, reason string)
}

// CanTransition reports whether moving from one state to another is allowed.
//
//   - Stopped -> Starting
//   - Starting -> Running, Stopping, Failed
//   - Running -> Stopping, Failed
//   - Stopping -> Stopped, Failed
//   - Failed -> Starting, Stopped
func CanTransition(from, to State) bool {
	switch from {
	case StateStopped:
		return to == StateStarting
	case StateStarting:
		return to == StateRunning || to == StateStopping || to == StateFailed
	case StateRunning:
		return to == StateStopping || to == StateFailed
	case StateStopping:
		return to == StateStopped || to == StateFailed
	case StateFailed:
		return to == StateStarting || to == StateStopped
	}
	return false
}
