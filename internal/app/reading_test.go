package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/bft-labs/lumux/internal/domain"
)

type lightCall struct {
	id         string
	color      domain.DeviceColor
	transition time.Duration
}

type fakeLights struct {
	mu    sync.Mutex
	calls []lightCall
	err   error
}

func (f *fakeLights) SetLightColor(ctx context.Context, id string, c domain.DeviceColor, transition time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, lightCall{id, c, transition})
	return f.err
}

func (f *fakeLights) list() []lightCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]lightCall(nil), f.calls...)
}

// manualTimer captures the scheduled activation instead of arming a timer.
type manualTimer struct {
	mu    sync.Mutex
	fires []func()
	delay time.Duration
}

func (m *manualTimer) afterFunc(d time.Duration, f func()) *time.Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
	m.fires = append(m.fires, f)
	return time.NewTimer(time.Hour)
}

func (m *manualTimer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.fires)
}

func (m *manualTimer) fire(i int) {
	m.mu.Lock()
	f := m.fires[i]
	m.mu.Unlock()
	f()
}

func newTestReading(cfg ReadingConfig) (*ReadingMode, *fakeLights, *manualTimer) {
	lights := &fakeLights{}
	timer := &manualTimer{}
	r := NewReadingMode(cfg, lights, &mockLogger{})
	r.afterFunc = timer.afterFunc
	return r, lights, timer
}

func enabledReading() ReadingConfig {
	cfg := DefaultReadingConfig()
	cfg.Enabled = true
	return cfg
}

func TestReadingModeActivates(t *testing.T) {
	r, lights, timer := newTestReading(enabledReading())

	r.Schedule([]string{"a", "b"})
	if r.State() != ReadingPending {
		t.Fatalf("state = %v, want Pending", r.State())
	}
	if timer.delay != time.Second {
		t.Errorf("delay = %v, want 1s", timer.delay)
	}

	timer.fire(0)
	if r.State() != ReadingActive {
		t.Fatalf("state = %v, want Active", r.State())
	}

	color := domain.DeviceColor{XY: domain.XY{X: 0.5, Y: 0.4}, Brightness: 150}
	want := []lightCall{
		{"a", color, 100 * time.Millisecond},
		{"b", color, 100 * time.Millisecond},
	}
	if diff := cmp.Diff(want, lights.list(), cmp.AllowUnexported(lightCall{})); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestReadingModeIgnoresDuplicateSchedule(t *testing.T) {
	r, _, timer := newTestReading(enabledReading())

	r.Schedule([]string{"a"})
	r.Schedule([]string{"a"})
	if timer.count() != 1 {
		t.Errorf("timers armed = %d, want 1", timer.count())
	}

	timer.fire(0)
	r.Schedule([]string{"a"})
	if timer.count() != 1 {
		t.Errorf("schedule while active armed a timer")
	}
}

func TestReadingModeCancelPending(t *testing.T) {
	r, lights, timer := newTestReading(enabledReading())

	r.Schedule([]string{"a"})
	r.Cancel()
	if r.State() != ReadingIdle {
		t.Fatalf("state = %v, want Idle", r.State())
	}

	// A timer that fires after cancellation does nothing.
	timer.fire(0)
	if r.State() != ReadingIdle || len(lights.list()) != 0 {
		t.Errorf("cancelled activation ran: state=%v calls=%d", r.State(), len(lights.list()))
	}
}

func TestReadingModeFailureReturnsToIdle(t *testing.T) {
	r, lights, timer := newTestReading(enabledReading())
	lights.err = errors.New("bridge unavailable")

	r.Schedule([]string{"a"})
	timer.fire(0)
	if r.State() != ReadingIdle {
		t.Errorf("state = %v, want Idle", r.State())
	}
}

func TestReadingModeDisabledAndOverrides(t *testing.T) {
	r, _, timer := newTestReading(DefaultReadingConfig())
	r.Schedule([]string{"a"})
	if timer.count() != 0 || r.State() != ReadingIdle {
		t.Error("disabled controller scheduled")
	}

	cfg := enabledReading()
	cfg.LightIDs = []string{"desk"}
	r, lights, timer := newTestReading(cfg)
	r.Schedule(nil)
	timer.fire(0)
	if got := lights.list(); len(got) != 1 || got[0].id != "desk" {
		t.Errorf("calls = %+v, want desk only", got)
	}

	r, _, timer = newTestReading(enabledReading())
	r.Schedule(nil)
	if timer.count() != 0 {
		t.Error("scheduled without lights")
	}
}

func TestSyncerDrivesReadingMode(t *testing.T) {
	s, _, _, _, _ := newTestSyncer(testConfig())
	r, lights, timer := newTestReading(enabledReading())
	s.SetReadingMode(r)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if r.State() != ReadingPending {
		t.Fatalf("state after stop = %v, want Pending", r.State())
	}

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("restart: %v", err)
	}
	defer s.Stop(context.Background())
	if r.State() != ReadingIdle {
		t.Errorf("state after start = %v, want Idle", r.State())
	}
	timer.fire(0)
	if len(lights.list()) != 0 {
		t.Error("reading light applied while syncing")
	}
}
