package lumux_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/bft-labs/lumux/pkg/lumux"
)

// trackingPlugin records initialization and shutdown order.
type trackingPlugin struct {
	name          string
	initOrder     *[]string
	shutdownOrder *[]string
	initError     error

	mu         sync.Mutex
	controller lumux.Controller
}

func newTrackingPlugin(name string, initOrder, shutdownOrder *[]string) *trackingPlugin {
	return &trackingPlugin{name: name, initOrder: initOrder, shutdownOrder: shutdownOrder}
}

func (p *trackingPlugin) Name() string { return p.name }

func (p *trackingPlugin) Initialize(ctx context.Context, cfg lumux.PluginConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.initError != nil {
		return p.initError
	}
	*p.initOrder = append(*p.initOrder, p.name)
	p.controller = cfg.Controller
	return nil
}

func (p *trackingPlugin) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	*p.shutdownOrder = append(*p.shutdownOrder, p.name)
	return nil
}

// listeningPlugin is a plugin that also handles events.
type listeningPlugin struct {
	lumux.BasePlugin
	stateRecorder
}

func TestPlugins_InitAndShutdownOrder(t *testing.T) {
	b := newFakeBridge(t)

	var initOrder, shutdownOrder []string
	l := newTestLumux(t, b, &fakeDialer{},
		lumux.WithPlugin(newTrackingPlugin("first", &initOrder, &shutdownOrder)),
		lumux.WithPlugin(newTrackingPlugin("second", &initOrder, &shutdownOrder)),
		lumux.WithPlugin(newTrackingPlugin("third", &initOrder, &shutdownOrder)),
	)

	if err := l.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := l.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	if diff := cmp.Diff([]string{"first", "second", "third"}, initOrder); diff != "" {
		t.Errorf("init order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"third", "second", "first"}, shutdownOrder); diff != "" {
		t.Errorf("shutdown order mismatch (-want +got):\n%s", diff)
	}
}

func TestPlugins_InitFailureAbortsStart(t *testing.T) {
	b := newFakeBridge(t)

	var initOrder, shutdownOrder []string
	failing := newTrackingPlugin("failing", &initOrder, &shutdownOrder)
	failing.initError = errors.New("boom")

	l := newTestLumux(t, b, &fakeDialer{},
		lumux.WithPlugin(newTrackingPlugin("ok", &initOrder, &shutdownOrder)),
		lumux.WithPlugin(failing),
	)

	err := l.Start(context.Background())
	if err == nil || !errors.Is(err, failing.initError) {
		t.Fatalf("Start error = %v, want plugin error", err)
	}
	if diff := cmp.Diff([]string{"ok"}, shutdownOrder); diff != "" {
		t.Errorf("initialized plugins not shut down (-want +got):\n%s", diff)
	}
	if calls := b.Calls(); len(calls) != 0 {
		t.Errorf("bridge contacted: %v", calls)
	}
	if l.Status() != lumux.StateStopped {
		t.Errorf("status = %v", l.Status())
	}
}

func TestPlugins_ReceiveEventsAndController(t *testing.T) {
	b := newFakeBridge(t)
	listener := &listeningPlugin{}

	var initOrder, shutdownOrder []string
	tracker := newTrackingPlugin("tracker", &initOrder, &shutdownOrder)

	l := newTestLumux(t, b, &fakeDialer{}, lumux.WithPlugin(listener), lumux.WithPlugin(tracker))
	if err := l.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, "status events", func() bool { return listener.Statuses() > 0 })

	tracker.mu.Lock()
	ctrl := tracker.controller
	tracker.mu.Unlock()
	if ctrl == nil || ctrl.Status() != lumux.StateRunning {
		t.Errorf("controller not usable from plugin")
	}

	if err := l.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	states := listener.States()
	if len(states) == 0 || states[len(states)-1] != lumux.StateStopped {
		t.Errorf("plugin states = %v", states)
	}
}
