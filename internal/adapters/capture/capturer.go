package capture

import (
	"context"
	"sync"
	"time"

	"github.com/bft-labs/lumux/internal/adapters/log"
	"github.com/bft-labs/lumux/internal/domain"
	"github.com/bft-labs/lumux/internal/ports"
)

// Options configure a Capturer.
type Options struct {
	// Rotation in degrees counter-clockwise: 0, 90, 180 or 270.
	Rotation int

	// Scale is the downscale factor in (0, 1].
	Scale float64

	// Interval is the pause between grabs of the producer.
	Interval time.Duration

	// PollInterval and FirstFrameTimeout bound how long Capture waits for
	// the first frame after the producer starts.
	PollInterval      time.Duration
	FirstFrameTimeout time.Duration
}

// DefaultOptions returns the capture defaults.
func DefaultOptions() Options {
	return Options{
		Scale:             0.125,
		Interval:          16 * time.Millisecond,
		PollInterval:      10 * time.Millisecond,
		FirstFrameTimeout: 2 * time.Second,
	}
}

func (o Options) normalized() Options {
	def := DefaultOptions()
	o.Rotation = NormalizeRotation(o.Rotation)
	if o.Scale <= 0 || o.Scale > 1 {
		o.Scale = def.Scale
	}
	if o.Interval <= 0 {
		o.Interval = def.Interval
	}
	if o.PollInterval <= 0 {
		o.PollInterval = def.PollInterval
	}
	if o.FirstFrameTimeout <= 0 {
		o.FirstFrameTimeout = def.FirstFrameTimeout
	}
	return o
}

// Stats are the producer counters.
type Stats struct {
	Captured uint64
	Dropped  uint64
	Errors   uint64
}

// Capturer implements ports.FrameSource on top of a Grabber.
type Capturer struct {
	grabber Grabber
	opts    Options
	logger  ports.Logger

	mu      sync.Mutex
	latest  *domain.Frame
	unread  bool
	seq     uint64
	stats   Stats
	lastErr error

	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New creates a capturer. The producer starts on the first Capture.
func New(grabber Grabber, opts Options, logger ports.Logger) *Capturer {
	return &Capturer{
		grabber: grabber,
		opts:    opts.normalized(),
		logger:  log.Named(logger, "capture"),
	}
}

// Capture returns the newest frame. The first call starts the producer and
// waits up to FirstFrameTimeout for a frame; afterwards it never blocks.
// domain.ErrNoFrame is returned when nothing has been captured yet.
func (c *Capturer) Capture(ctx context.Context) (*domain.Frame, error) {
	c.ensureRunning()

	deadline := time.Now().Add(c.opts.FirstFrameTimeout)
	for {
		if f := c.take(); f != nil {
			return f, nil
		}
		if time.Now().After(deadline) {
			return nil, domain.ErrNoFrame
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.opts.PollInterval):
		}
	}
}

func (c *Capturer) take() *domain.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unread = false
	return c.latest
}

func (c *Capturer) ensureRunning() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.running = true
	c.cancel = cancel
	c.done = make(chan struct{})
	go c.produce(ctx, c.done)
	c.logger.Info("capture started",
		ports.String("source", c.grabber.Source()),
		ports.Float64("scale", c.opts.Scale),
		ports.Int("rotation", c.opts.Rotation),
	)
}

func (c *Capturer) produce(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(c.opts.Interval)
	defer ticker.Stop()

	for {
		c.grabOnce()
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (c *Capturer) grabOnce() {
	img, err := c.grabber.Grab()
	if err != nil {
		c.mu.Lock()
		c.stats.Errors++
		first := c.lastErr == nil
		c.lastErr = err
		c.mu.Unlock()
		if first {
			c.logger.Warn("screen grab failed", ports.Err(err))
		}
		return
	}
	if img == nil || img.Rect.Empty() {
		return
	}

	img = Rotate(img, c.opts.Rotation)
	img = Scale(img, c.opts.Scale)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastErr != nil {
		c.logger.Info("screen grab recovered")
		c.lastErr = nil
	}
	if c.unread {
		c.stats.Dropped++
	}
	c.seq++
	f := domain.NewFrame(img, time.Now(), c.seq)
	f.Source = c.grabber.Source()
	c.latest = f
	c.unread = true
	c.stats.Captured++
}

// Stats returns a snapshot of the producer counters.
func (c *Capturer) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Dropped returns the number of frames replaced before they were read.
func (c *Capturer) Dropped() uint64 {
	return c.Stats().Dropped
}

// Close stops the producer and drops the buffered frame. A later Capture
// starts a new producer.
func (c *Capturer) Close() error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return nil
	}
	cancel, done := c.cancel, c.done
	c.running = false
	c.mu.Unlock()

	cancel()
	<-done

	c.mu.Lock()
	c.latest = nil
	c.unread = false
	c.mu.Unlock()
	c.logger.Info("capture stopped")
	return nil
}

var (
	_ ports.FrameSource = (*Capturer)(nil)
	_ ports.DropCounter = (*Capturer)(nil)
)
