package app

import (
	"context"
	"sync"
	"time"

	"github.com/bft-labs/lumux/internal/adapters/log"
	"github.com/bft-labs/lumux/internal/domain"
	"github.com/bft-labs/lumux/internal/ports"
)

// ReadingState is the state of the reading light controller.
type ReadingState int

const (
	ReadingIdle ReadingState = iota
	ReadingPending
	ReadingActive
)

func (s ReadingState) String() string {
	switch s {
	case ReadingIdle:
		return "Idle"
	case ReadingPending:
		return "Pending"
	case ReadingActive:
		return "Active"
	default:
		return "Unknown"
	}
}

// ReadingConfig configures the static light applied after sync stops.
type ReadingConfig struct {
	Enabled bool

	// Delay lets the bridge finish releasing the zone before REST calls.
	Delay time.Duration

	Color      domain.DeviceColor
	Transition time.Duration

	// LightIDs overrides the lights taken from the topology.
	LightIDs []string

	// RequestTimeout bounds each light update.
	RequestTimeout time.Duration
}

// DefaultReadingConfig returns a warm reading light, disabled.
func DefaultReadingConfig() ReadingConfig {
	return ReadingConfig{
		Delay:          time.Second,
		Color:          domain.DeviceColor{XY: domain.XY{X: 0.5, Y: 0.4}, Brightness: 150},
		Transition:     100 * time.Millisecond,
		RequestTimeout: 5 * time.Second,
	}
}

// ReadingMode applies the reading light once after a delay. A pending
// activation is a state, not a flag: Schedule while Pending is a no-op and
// Cancel stops the timer.
type ReadingMode struct {
	cfg    ReadingConfig
	lights ports.LightController
	logger ports.Logger

	mu    sync.Mutex
	state ReadingState
	timer *time.Timer
	gen   uint64

	// afterFunc is time.AfterFunc; replaced in tests.
	afterFunc func(time.Duration, func()) *time.Timer
}

// NewReadingMode creates an idle controller.
func NewReadingMode(cfg ReadingConfig, lights ports.LightController, logger ports.Logger) *ReadingMode {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 5 * time.Second
	}
	return &ReadingMode{
		cfg:       cfg,
		lights:    lights,
		logger:    log.Named(logger, "reading"),
		afterFunc: time.AfterFunc,
	}
}

// State returns the controller state.
func (r *ReadingMode) State() ReadingState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Schedule arms the single-shot activation for the given lights unless the
// controller is disabled, already pending or active.
func (r *ReadingMode) Schedule(lightIDs []string) {
	if !r.cfg.Enabled {
		return
	}
	if len(r.cfg.LightIDs) > 0 {
		lightIDs = r.cfg.LightIDs
	}
	if len(lightIDs) == 0 {
		r.logger.Warn("reading light has no target lights")
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != ReadingIdle {
		return
	}
	r.state = ReadingPending
	r.gen++
	gen := r.gen
	ids := append([]string(nil), lightIDs...)
	r.timer = r.afterFunc(r.cfg.Delay, func() { r.activate(gen, ids) })
	r.logger.Debug("reading light scheduled", ports.Duration("delay", r.cfg.Delay))
}

// Cancel stops a pending activation and forgets an active one. Lights are
// left as they are.
func (r *ReadingMode) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	if r.state != ReadingIdle {
		r.logger.Debug("reading light cancelled", ports.String("from", r.state.String()))
	}
	r.gen++
	r.state = ReadingIdle
}

func (r *ReadingMode) activate(gen uint64, lightIDs []string) {
	r.mu.Lock()
	if r.gen != gen || r.state != ReadingPending {
		r.mu.Unlock()
		return
	}
	r.timer = nil
	r.mu.Unlock()

	applied := 0
	for _, id := range lightIDs {
		ctx, cancel := context.WithTimeout(context.Background(), r.cfg.RequestTimeout)
		err := r.lights.SetLightColor(ctx, id, r.cfg.Color, r.cfg.Transition)
		cancel()
		if err != nil {
			r.logger.Warn("set reading light failed", ports.String("light", id), ports.Err(err))
			continue
		}
		applied++
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gen != gen {
		return
	}
	if applied == 0 {
		r.state = ReadingIdle
		return
	}
	r.state = ReadingActive
	r.logger.Info("reading light active", ports.Int("lights", applied))
}
