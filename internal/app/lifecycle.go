package app

import (
	"context"
	"sync"
	"time"

	"github.com/bft-labs/lumux/internal/ports"
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

// Lifecycle guards the loop state machine and owns the single loop
// goroutine. At most one loop runs per Lifecycle.
type Lifecycle struct {
	mu      sync.RWMutex
	state   State
	cancel  context.CancelFunc
	done    chan struct{}
	logger  ports.Logger
	emitter lifecycle.EventEmitter
}

// NewLifecycle returns a Lifecycle in StateStopped. emitter may be nil.
func NewLifecycle(logger ports.Logger, emitter lifecycle.EventEmitter) *Lifecycle {
	return &Lifecycle{
		state:   StateStopped,
		logger:  logger,
		emitter: emitter,
	}
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// TransitionTo moves to next. A transition CanTransition rejects leaves the
// state untouched and returns ErrAlreadyRunning while a loop holds
// resources, ErrNotRunning otherwise.
func (l *Lifecycle) TransitionTo(next State, reason string) error {
	l.mu.Lock()
	prev := l.state
	if !lifecycle.CanTransition(prev, next) {
		l.mu.Unlock()
		if prev.Active() {
			return lifecycle.ErrAlreadyRunning
		}
		return lifecycle.ErrNotRunning
	}
	l.state = next
	l.mu.Unlock()

	if l.emitter != nil {
		l.emitter.OnStateChange(prev, next, reason)
	}
	l.logger.Info("state transition",
		ports.String("from", prev.String()),
		ports.String("to", next.String()),
		ports.String("reason", reason),
	)
	return nil
}

// CanStart reports whether a new run may begin.
func (l *Lifecycle) CanStart() bool {
	return !l.State().Active()
}

// CanStop reports whether a run is in progress that Stop can end.
func (l *Lifecycle) CanStop() bool {
	s := l.State()
	return s == StateStarting || s == StateRunning
}

// Go runs loop on its own goroutine with a context that Halt cancels.
func (l *Lifecycle) Go(loop func(ctx context.Context)) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	l.mu.Lock()
	l.cancel = cancel
	l.done = done
	l.mu.Unlock()

	go func() {
		defer close(done)
		loop(ctx)
	}()
}

// Halt cancels the loop and waits for it to return. It gives up after
// timeout with ErrShutdownTimeout; the loop then exits on its own once its
// current tick completes.
func (l *Lifecycle) Halt(timeout time.Duration) error {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.cancel, l.done = nil, nil
	l.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-done:
		return nil
	case <-t.C:
		l.logger.Warn("sync loop did not exit in time", ports.Duration("timeout", timeout))
		return lifecycle.ErrShutdownTimeout
	}
}
