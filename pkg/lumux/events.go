package lumux

import (
	"github.com/bft-labs/lumux/internal/app"
	"github.com/bft-labs/lumux/pkg/lifecycle"
)

// State is the lifecycle state of the sync loop.
type State = lifecycle.State

// Lifecycle states.
const (
	StateStopped  = lifecycle.StateStopped
	StateStarting = lifecycle.StateStarting
	StateRunning  = lifecycle.StateRunning
	StateStopping = lifecycle.StateStopping
	StateFailed   = lifecycle.StateFailed
)

// ReasonStreamLost is the reason of the transition to StateStopping when
// the loop stops itself after the stream dropped.
const ReasonStreamLost = app.ReasonStreamLost

// StateChangeEvent is emitted on every lifecycle transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// EventHandler receives lifecycle and status events.
type EventHandler interface {
	OnStateChange(StateChangeEvent)
	OnStatus(Status)
}

// BaseEventHandler implements EventHandler with no-ops; embed it to handle
// only some events.
type BaseEventHandler struct{}

func (BaseEventHandler) OnStateChange(StateChangeEvent) {}
func (BaseEventHandler) OnStatus(Status)                {}

// eventFanout adapts the registered handlers to the internal emitters.
type eventFanout struct {
	handlers []EventHandler
}

func (e *eventFanout) OnStateChange(previous, current lifecycle.State, reason string) {
	ev := StateChangeEvent{Previous: previous, Current: current, Reason: reason}
	for _, h := range e.handlers {
		h.OnStateChange(ev)
	}
}

func (e *eventFanout) OnStatus(s Status) {
	for _, h := range e.handlers {
		h.OnStatus(s)
	}
}
