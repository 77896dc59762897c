package lumux

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bft-labs/lumux/internal/adapters/bridge"
	"github.com/bft-labs/lumux/internal/adapters/capture"
	logAdapter "github.com/bft-labs/lumux/internal/adapters/log"
	"github.com/bft-labs/lumux/internal/app"
	"github.com/bft-labs/lumux/internal/domain"
	"github.com/bft-labs/lumux/internal/huestream"
	"github.com/bft-labs/lumux/internal/ports"
	"github.com/bft-labs/lumux/pkg/lifecycle"
)

// Lumux syncs a display with a Hue entertainment zone. Use New to create an
// instance, then Start to begin streaming.
type Lumux struct {
	config  Config
	logger  ports.Logger
	session *huestream.Session
	syncer  *app.Syncer
	reading *app.ReadingMode
	plugins []Plugin

	mu            sync.Mutex
	pluginsActive bool
	pluginCancel  context.CancelFunc
}

// New creates a stopped instance. No network or capture resources are
// acquired until Start.
func New(cfg Config, opts ...Option) (*Lumux, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	logger := logAdapter.OrNoop(o.logger)

	if o.httpClient == nil {
		c := bridge.DefaultHTTPClient()
		c.Timeout = cfg.HTTPTimeout
		o.httpClient = c
	}
	client := bridge.NewClient(cfg.BridgeAddress, cfg.AppKey, logger, bridge.WithHTTPClient(o.httpClient))

	source := o.frameSource
	if source == nil {
		grabber, err := capture.NewDisplayGrabber(cfg.Display)
		if err != nil {
			return nil, err
		}
		copts := capture.DefaultOptions()
		copts.Rotation = cfg.Rotation
		copts.Scale = cfg.Scale
		copts.Interval = cfg.CaptureInterval
		source = capture.New(grabber, copts, logger)
	}

	dialer := o.dialer
	if dialer == nil {
		dialer = newDialer(cfg.Transport)
	}

	scfg := huestream.DefaultConfig()
	scfg.Address = cfg.BridgeAddress
	scfg.ZoneID = cfg.ZoneID
	scfg.AppKey = cfg.AppKey
	scfg.ClientKey = cfg.ClientKey
	scfg.ActivationDelay = cfg.ActivationDelay
	session, err := huestream.NewSession(scfg, domain.Topology{}, client, dialer, logAdapter.Named(logger, "stream"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	session.OnStateChange(func(from, to huestream.State) {
		logger.Debug("stream state changed",
			ports.String("from", from.String()),
			ports.String("to", to.String()),
		)
	})

	handlers := make([]EventHandler, 0, len(o.plugins)+1)
	if o.eventHandler != nil {
		handlers = append(handlers, o.eventHandler)
	}
	for _, p := range o.plugins {
		if h, ok := p.(EventHandler); ok {
			handlers = append(handlers, h)
		}
	}
	fanout := &eventFanout{handlers: handlers}

	retry := lifecycle.DefaultRetryPolicy()
	retry.Attempts = cfg.ConnectAttempts
	if o.retry != nil {
		retry = *o.retry
	}

	syncer := app.NewSyncer(app.Config{
		Settings:     cfg.Settings,
		Retry:        retry,
		StopTimeout:  cfg.StopTimeout,
		ErrorBackoff: time.Second,
	}, source, session, logger, fanout, fanout)

	reading := app.NewReadingMode(app.ReadingConfig{
		Enabled:        cfg.Reading.Enabled,
		Delay:          cfg.Reading.Delay,
		Color:          cfg.Reading.Color,
		Transition:     time.Duration(cfg.Settings.Clamp().TransitionMS) * time.Millisecond,
		LightIDs:       cfg.Reading.LightIDs,
		RequestTimeout: cfg.HTTPTimeout,
	}, client, logger)
	syncer.SetReadingMode(reading)

	return &Lumux{
		config:  cfg,
		logger:  logger,
		session: session,
		syncer:  syncer,
		reading: reading,
		plugins: o.plugins,
	}, nil
}

func newDialer(t Transport) StreamDialer {
	if t == TransportOpenSSL {
		return huestream.DefaultOpenSSLDialer()
	}
	return huestream.DTLSDialer{}
}

// Start initializes plugins, connects to the bridge and starts the sync
// loop. It returns once streaming has begun or connecting failed; on
// failure the zone is left released. Plugins stay up across a loop that
// stopped itself, so Start may be called again to resume.
func (l *Lumux) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.syncer.State().Active() {
		return ErrAlreadyRunning
	}

	startedPlugins := false
	if !l.pluginsActive {
		if err := l.initPlugins(ctx); err != nil {
			return err
		}
		startedPlugins = true
	}

	if err := l.syncer.Start(ctx); err != nil {
		if startedPlugins {
			l.shutdownPlugins()
		}
		return err
	}
	return nil
}

func (l *Lumux) initPlugins(ctx context.Context) error {
	pctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	pcfg := PluginConfig{
		Config:     l.config,
		Logger:     l.logger,
		Controller: l,
	}
	for i, p := range l.plugins {
		if err := p.Initialize(pctx, pcfg); err != nil {
			l.logger.Error("plugin initialization failed",
				ports.String("plugin", p.Name()),
				ports.Err(err))
			for j := i - 1; j >= 0; j-- {
				_ = l.plugins[j].Shutdown(context.Background())
			}
			cancel()
			return fmt.Errorf("plugin %s: %w", p.Name(), err)
		}
		l.logger.Info("plugin initialized", ports.String("plugin", p.Name()))
	}
	l.pluginCancel = cancel
	l.pluginsActive = true
	return nil
}

func (l *Lumux) shutdownPlugins() {
	ctx := context.Background()
	for i := len(l.plugins) - 1; i >= 0; i-- {
		p := l.plugins[i]
		if err := p.Shutdown(ctx); err != nil {
			l.logger.Error("plugin shutdown failed",
				ports.String("plugin", p.Name()),
				ports.Err(err))
		} else {
			l.logger.Info("plugin shutdown complete", ports.String("plugin", p.Name()))
		}
	}
	if l.pluginCancel != nil {
		l.pluginCancel()
		l.pluginCancel = nil
	}
	l.pluginsActive = false
}

// Stop stops the sync loop, releases capture and the entertainment zone and
// shuts plugins down. It returns ErrNotRunning if neither the loop nor the
// plugins are active.
func (l *Lumux) Stop(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	err := l.syncer.Stop(ctx)
	if errors.Is(err, ErrNotRunning) {
		if !l.pluginsActive {
			return ErrNotRunning
		}
		err = nil
	}
	if l.pluginsActive {
		l.shutdownPlugins()
	}
	return err
}

// Status returns the current lifecycle state. Safe for concurrent use.
func (l *Lumux) Status() State {
	return l.syncer.State()
}

// Stats returns a snapshot of the loop counters.
func (l *Lumux) Stats() Stats {
	return l.syncer.Stats()
}

// ResetStats clears the loop counters.
func (l *Lumux) ResetStats() {
	l.syncer.ResetStats()
}

// Settings returns the settings in effect.
func (l *Lumux) Settings() Settings {
	return l.syncer.Settings()
}

// UpdateSettings clamps s, applies it and returns the clamped value.
func (l *Lumux) UpdateSettings(s Settings) Settings {
	return l.syncer.UpdateSettings(s)
}

// Mapping returns the zone to channel assignment of the last Start.
func (l *Lumux) Mapping() map[string]uint8 {
	return l.syncer.Mapping()
}

// Topology returns the entertainment zone as last fetched from the bridge.
func (l *Lumux) Topology() Topology {
	return l.session.Topology()
}

// ReadingState returns the state of the reading light.
func (l *Lumux) ReadingState() ReadingState {
	return l.reading.State()
}

var _ Controller = (*Lumux)(nil)
