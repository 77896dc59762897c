package app

import (
	"sync"
	"time"

	"github.com/bft-labs/lumux/internal/domain"
)

// fpsWindow is the number of ticks the measured frame rate is averaged over.
const fpsWindow = 30

// StageTimes are the durations of the pipeline stages of one tick.
type StageTimes struct {
	Capture time.Duration
	Zones   time.Duration
	Analyze time.Duration
	Smooth  time.Duration
	Update  time.Duration
	Total   time.Duration
}

// Stats is a snapshot of the sync loop counters.
type Stats struct {
	// FPS is the measured rate over the last ticks, sleep included.
	FPS float64

	// TargetFPS is the clamped configured rate.
	TargetFPS int

	FrameCount uint64
	Errors     uint64

	// Skipped counts ticks without a fresh frame.
	Skipped uint64

	// Drops counts frames the capturer replaced before they were read.
	Drops uint64

	// Sequence is the sequence number the next frame will carry.
	Sequence uint8

	Stages StageTimes
	Crop   domain.CropRegion

	LastError string
	StartedAt time.Time
}

// statsCollector is written by the loop goroutine and read by observers.
// Readers get copies.
type statsCollector struct {
	mu     sync.Mutex
	stats  Stats
	window [fpsWindow]time.Duration
	n      int
	next   int
}

func (c *statsCollector) snapshot() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *statsCollector) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	target, started := c.stats.TargetFPS, c.stats.StartedAt
	c.stats = Stats{TargetFPS: target, StartedAt: started}
	c.n, c.next = 0, 0
}

func (c *statsCollector) started(targetFPS int, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.TargetFPS = targetFPS
	c.stats.StartedAt = at
	c.stats.FPS = 0
	c.n, c.next = 0, 0
}

func (c *statsCollector) setTarget(fps int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.TargetFPS = fps
}

// frame records a tick that sent a frame.
func (c *statsCollector) frame(stages StageTimes, crop domain.CropRegion, seq uint8, drops uint64) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.FrameCount++
	c.stats.Stages = stages
	c.stats.Crop = crop
	c.stats.Sequence = seq
	c.stats.Drops = drops
	return c.stats.FrameCount
}

func (c *statsCollector) skipped() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.Skipped++
}

func (c *statsCollector) failed(err error) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.Errors++
	c.stats.LastError = err.Error()
	return c.stats.Errors
}

// cycle records the full duration of one tick including its pacing sleep
// and updates the measured rate.
func (c *statsCollector) cycle(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.window[c.next] = d
	c.next = (c.next + 1) % fpsWindow
	if c.n < fpsWindow {
		c.n++
	}
	var sum time.Duration
	for i := 0; i < c.n; i++ {
		sum += c.window[i]
	}
	if sum > 0 {
		c.stats.FPS = float64(c.n) / sum.Seconds()
	}
}
