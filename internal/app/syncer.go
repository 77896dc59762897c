// Package app runs the lighting sync pipeline: a single loop goroutine that
// captures a frame, crops black bars, reduces the frame to zone colors,
// converts and smooths them, folds them into channels and streams one frame
// per tick.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bft-labs/lumux/internal/adapters/log"
	"github.com/bft-labs/lumux/internal/blackbar"
	"github.com/bft-labs/lumux/internal/colors"
	"github.com/bft-labs/lumux/internal/domain"
	"github.com/bft-labs/lumux/internal/mapping"
	"github.com/bft-labs/lumux/internal/ports"
	"github.com/bft-labs/lumux/internal/zones"
	"github.com/bft-labs/lumux/pkg/lifecycle"
)

// Logging cadence of the loop, in frames.
const (
	infoEvery   = 100
	timingEvery = 30
)

// errSessionLost ends the loop after the stream dropped.
var errSessionLost = errors.New("stream session lost")

// Config configures a Syncer.
type Config struct {
	Settings domain.Settings

	// Retry governs session establishment in Start.
	Retry lifecycle.RetryPolicy

	// StopTimeout bounds how long Stop waits for the loop to exit.
	StopTimeout time.Duration

	// ErrorBackoff is the pause after a failed tick.
	ErrorBackoff time.Duration
}

// DefaultConfig returns the loop defaults.
func DefaultConfig() Config {
	return Config{
		Settings:     domain.DefaultSettings(),
		Retry:        lifecycle.DefaultRetryPolicy(),
		StopTimeout:  3 * time.Second,
		ErrorBackoff: time.Second,
	}
}

// sequencer is implemented by sessions that expose their frame counter.
type sequencer interface {
	Sequence() uint8
}

// Syncer owns the sync loop. Start and Stop may be called from any
// goroutine; the pipeline state is touched only by the loop.
type Syncer struct {
	cfg     Config
	source  ports.FrameSource
	session ports.StreamSession
	logger  ports.Logger
	status  StatusEmitter
	reading *ReadingMode

	lc    *Lifecycle
	stats statsCollector

	// opMu serializes Start and Stop.
	opMu sync.Mutex

	settingsMu sync.Mutex
	settings   domain.Settings
	version    uint64

	// mapping survives restarts and is rebuilt only when stale.
	mapping *mapping.Mapping
	zoneIDs []string
}

// NewSyncer creates a stopped syncer. emitter and status may be nil.
func NewSyncer(
	cfg Config,
	source ports.FrameSource,
	session ports.StreamSession,
	logger ports.Logger,
	emitter lifecycle.EventEmitter,
	status StatusEmitter,
) *Syncer {
	logger = log.Named(logger, "sync")
	if status == nil {
		status = noopStatus{}
	}
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = 3 * time.Second
	}
	if cfg.ErrorBackoff <= 0 {
		cfg.ErrorBackoff = time.Second
	}
	return &Syncer{
		cfg:      cfg,
		source:   source,
		session:  session,
		logger:   logger,
		status:   status,
		lc:       NewLifecycle(logger, emitter),
		settings: cfg.Settings.Clamp(),
	}
}

// SetReadingMode attaches a reading light controller. It is scheduled when
// the loop stops and cancelled when it starts. Must be called before Start.
func (s *Syncer) SetReadingMode(r *ReadingMode) {
	s.reading = r
}

// State returns the lifecycle state.
func (s *Syncer) State() State {
	return s.lc.State()
}

// Stats returns a snapshot of the loop counters.
func (s *Syncer) Stats() Stats {
	return s.stats.snapshot()
}

// ResetStats clears the counters.
func (s *Syncer) ResetStats() {
	s.stats.reset()
}

// Settings returns the settings in effect.
func (s *Syncer) Settings() domain.Settings {
	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()
	return s.settings
}

// UpdateSettings clamps and stores new settings. The running loop picks them
// up on its next tick; zone layout changes apply at the next Start.
func (s *Syncer) UpdateSettings(settings domain.Settings) domain.Settings {
	settings = settings.Clamp()
	s.settingsMu.Lock()
	s.settings = settings
	s.version++
	s.settingsMu.Unlock()

	s.stats.setTarget(settings.FPS)
	s.logger.Info("settings updated",
		ports.Int("fps", settings.FPS),
		ports.Float64("gamma", settings.Gamma),
		ports.Float64("smoothing", settings.SmoothingFactor),
		ports.Bool("black_bar", settings.BlackBar.Enabled),
	)
	return settings
}

func (s *Syncer) loadSettings() (domain.Settings, uint64) {
	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()
	return s.settings, s.version
}

// Mapping returns the zone to channel assignment of the last Start.
func (s *Syncer) Mapping() map[string]uint8 {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	if s.mapping == nil {
		return nil
	}
	return s.mapping.Zones()
}

// Start connects the session, refreshes the zone mapping if it is stale
// and spawns the loop. Connection failures are retried per the retry policy
// and returned; nothing is left claimed on failure.
func (s *Syncer) Start(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if !s.lc.CanStart() {
		return lifecycle.ErrAlreadyRunning
	}
	if err := s.lc.TransitionTo(StateStarting, "start requested"); err != nil {
		return err
	}
	if s.reading != nil {
		s.reading.Cancel()
	}

	err := s.cfg.Retry.Retry(ctx, func(ctx context.Context, attempt int) error {
		err := s.session.Connect(ctx)
		if err != nil {
			s.logger.Warn("stream connect failed",
				ports.Int("attempt", attempt),
				ports.Err(err),
			)
		}
		return err
	})
	if err != nil {
		_ = s.lc.TransitionTo(StateFailed, err.Error())
		return fmt.Errorf("connect stream: %w", err)
	}

	settings, version := s.loadSettings()
	p := newPipeline(settings, version)

	topo := s.session.Topology()
	zoneIDs := p.zones.ZoneIDs()
	if !s.mapping.Current(zoneIDs, topo.Channels) {
		s.mapping = mapping.Build(zoneIDs, topo.Channels)
		s.logger.Info("zone mapping built",
			ports.Int("zones", len(zoneIDs)),
			ports.Int("channels", len(topo.Channels)),
		)
	}
	s.zoneIDs = zoneIDs
	p.mapping = s.mapping

	s.stats.started(settings.FPS, time.Now())
	s.lc.Go(func(ctx context.Context) { s.run(ctx, p) })

	return s.lc.TransitionTo(StateRunning, "stream connected")
}

// Stop signals the loop to exit and waits up to the stop timeout. Capture
// and stream are released whether or not the loop exited in time.
func (s *Syncer) Stop(ctx context.Context) error {
	return s.stop(ctx, "stop requested")
}

func (s *Syncer) stop(ctx context.Context, reason string) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if !s.lc.CanStop() {
		return lifecycle.ErrNotRunning
	}
	if err := s.lc.TransitionTo(StateStopping, reason); err != nil {
		return err
	}

	if err := s.lc.Halt(s.cfg.StopTimeout); err != nil {
		s.logger.Warn("releasing resources with loop still running", ports.Err(err))
	}

	if err := s.source.Close(); err != nil {
		s.logger.Warn("close capture", ports.Err(err))
	}
	if err := s.session.Disconnect(ctx); err != nil {
		s.logger.Warn("disconnect stream", ports.Err(err))
	}

	_ = s.lc.TransitionTo(StateStopped, reason)
	s.status.OnStatus(Status{Kind: StatusStopped, Time: time.Now()})

	if s.reading != nil {
		s.reading.Schedule(s.session.Topology().LightIDs())
	}
	return nil
}

// pipeline is the per-run state owned by the loop goroutine.
type pipeline struct {
	version  uint64
	settings domain.Settings
	zones    *zones.Processor
	detector *blackbar.Detector
	analyzer *colors.Analyzer
	smoother *colors.Smoother
	mapping  *mapping.Mapping
}

func newPipeline(settings domain.Settings, version uint64) *pipeline {
	return &pipeline{
		version:  version,
		settings: settings,
		zones:    zones.New(settings),
		detector: blackbar.NewDetector(settings.BlackBar),
		analyzer: colors.NewAnalyzerFromSettings(settings),
		smoother: colors.NewSmoother(),
	}
}

// refresh applies settings stored since the last tick. The zone layout is
// kept because the mapping was built for it.
func (p *pipeline) refresh(settings domain.Settings, version uint64) bool {
	if version == p.version {
		return false
	}
	p.version = version
	p.settings = settings
	p.detector.Configure(settings.BlackBar)
	p.analyzer = colors.NewAnalyzerFromSettings(settings)
	return true
}

func (s *Syncer) run(ctx context.Context, p *pipeline) {
	s.logger.Info("sync loop started",
		ports.Int("fps", p.settings.FPS),
		ports.Int("zones", len(s.zoneIDs)),
	)
	defer s.logger.Info("sync loop exited")

	for ctx.Err() == nil {
		if settings, version := s.loadSettings(); p.refresh(settings, version) {
			if !p.zones.Matches(settings) {
				s.logger.Info("zone layout change takes effect on next start")
			}
		}

		start := time.Now()
		err := s.safeTick(ctx, p)
		switch {
		case err == nil:
		case ctx.Err() != nil:
			return
		case errors.Is(err, domain.ErrNoFrame):
			s.stats.skipped()
			s.logger.Debug("no frame available")
		case errors.Is(err, errSessionLost):
			s.stats.failed(err)
			s.logger.Error("stream lost, stopping sync", ports.Err(err))
			s.status.OnStatus(Status{Kind: StatusError, Error: err.Error(), Time: time.Now()})
			go func() { _ = s.stop(context.Background(), ReasonStreamLost) }()
			return
		default:
			n := s.stats.failed(err)
			s.logger.Error("sync tick failed", ports.Err(err), ports.Uint64("errors", n))
			s.status.OnStatus(Status{Kind: StatusError, Error: err.Error(), Time: time.Now()})
			if !sleepCtx(ctx, s.cfg.ErrorBackoff) {
				return
			}
		}

		if wait := p.settings.FrameInterval() - time.Since(start); wait > 0 {
			if !sleepCtx(ctx, wait) {
				return
			}
		}
		s.stats.cycle(time.Since(start))
	}
}

// safeTick runs one tick and turns a panic into an error.
func (s *Syncer) safeTick(ctx context.Context, p *pipeline) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tick panic: %v", r)
		}
	}()
	return s.tick(ctx, p)
}

func (s *Syncer) tick(ctx context.Context, p *pipeline) error {
	var st StageTimes
	t0 := time.Now()

	frame, err := s.source.Capture(ctx)
	if err != nil {
		return fmt.Errorf("capture: %w", err)
	}
	t1 := time.Now()
	st.Capture = t1.Sub(t0)

	frame = p.detector.Apply(frame)
	zoneColors := p.zones.Process(frame)
	t2 := time.Now()
	st.Zones = t2.Sub(t1)

	device := p.analyzer.AnalyzeAll(zoneColors)
	t3 := time.Now()
	st.Analyze = t3.Sub(t2)

	device = p.smoother.Smooth(device, p.settings.SmoothingFactor)
	t4 := time.Now()
	st.Smooth = t4.Sub(t3)

	if err := s.session.Send(p.mapping.Aggregate(device)); err != nil {
		if !s.session.IsConnected() {
			return fmt.Errorf("%w: %w", errSessionLost, err)
		}
		return fmt.Errorf("send: %w", err)
	}
	t5 := time.Now()
	st.Update = t5.Sub(t4)
	st.Total = t5.Sub(t0)

	var seq uint8
	if sq, ok := s.session.(sequencer); ok {
		seq = sq.Sequence()
	}
	var drops uint64
	if dc, ok := s.source.(ports.DropCounter); ok {
		drops = dc.Dropped()
	}
	n := s.stats.frame(st, p.detector.Current(), seq, drops)

	s.status.OnStatus(Status{Kind: StatusSyncing, ZoneColors: zoneColors, Time: t5})

	if n%infoEvery == 0 {
		snap := s.stats.snapshot()
		s.logger.Info("sync progress",
			ports.Uint64("frames", n),
			ports.Float64("fps", snap.FPS),
			ports.Uint64("errors", snap.Errors),
			ports.Uint64("drops", snap.Drops),
		)
	}
	if n%timingEvery == 0 {
		s.logger.Debug("stage timings",
			ports.Duration("capture", st.Capture),
			ports.Duration("zones", st.Zones),
			ports.Duration("analyze", st.Analyze),
			ports.Duration("smooth", st.Smooth),
			ports.Duration("update", st.Update),
			ports.Duration("total", st.Total),
		)
	}
	return nil
}

// sleepCtx sleeps for d and reports false when ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
