package configwatcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bft-labs/lumux/pkg/lumux"
)

// fakeController records UpdateSettings calls.
type fakeController struct {
	mu       sync.Mutex
	settings lumux.Settings
	updates  []lumux.Settings
}

func newFakeController() *fakeController {
	return &fakeController{settings: lumux.DefaultSettings()}
}

func (c *fakeController) Status() lumux.State       { return lumux.StateRunning }
func (c *fakeController) Stats() lumux.Stats        { return lumux.Stats{} }
func (c *fakeController) Mapping() map[string]uint8 { return nil }

func (c *fakeController) Settings() lumux.Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

func (c *fakeController) UpdateSettings(s lumux.Settings) lumux.Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	s = s.Clamp()
	c.settings = s
	c.updates = append(c.updates, s)
	return s
}

func (c *fakeController) Updates() []lumux.Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]lumux.Settings(nil), c.updates...)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func startPlugin(t *testing.T, cfg Config, ctrl lumux.Controller) *Plugin {
	t.Helper()
	p := New(cfg)
	if err := p.Initialize(context.Background(), lumux.PluginConfig{Controller: ctrl}); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })
	return p
}

func TestPlugin_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, "[sync]\nfps = 30\n")

	ctrl := newFakeController()
	p := startPlugin(t, Config{Path: path, DebounceDelay: 10 * time.Millisecond}, ctrl)

	writeFile(t, path, "[sync]\nfps = 45\ngamma = 1.5\n")
	waitFor(t, "reload", func() bool { return len(ctrl.Updates()) > 0 })

	got := ctrl.Settings()
	if got.FPS != 45 || got.Gamma != 1.5 {
		t.Errorf("settings after reload: fps=%d gamma=%v", got.FPS, got.Gamma)
	}
	if p.Reloads() != 1 {
		t.Errorf("Reloads() = %d, want 1", p.Reloads())
	}
}

func TestPlugin_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeFile(t, path, "")

	ctrl := newFakeController()
	startPlugin(t, Config{Path: path, DebounceDelay: 10 * time.Millisecond}, ctrl)

	writeFile(t, filepath.Join(dir, "other.toml"), "[sync]\nfps = 10\n")
	time.Sleep(200 * time.Millisecond)

	if n := len(ctrl.Updates()); n != 0 {
		t.Errorf("got %d updates for unrelated file", n)
	}
}

func TestPlugin_InvalidFileKeepsSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, "")

	var mu sync.Mutex
	loads := 0
	loader := func(p string) (lumux.Settings, error) {
		mu.Lock()
		loads++
		mu.Unlock()
		return DefaultLoader(p)
	}

	ctrl := newFakeController()
	startPlugin(t, Config{Path: path, DebounceDelay: 10 * time.Millisecond, Loader: loader}, ctrl)

	writeFile(t, path, "[sync\nfps = ")
	waitFor(t, "load attempt", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return loads > 0
	})
	time.Sleep(50 * time.Millisecond)

	if n := len(ctrl.Updates()); n != 0 {
		t.Errorf("invalid file applied %d updates", n)
	}
}

func TestPlugin_UnchangedSettingsNotApplied(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, "")

	done := make(chan struct{}, 1)
	loader := func(string) (lumux.Settings, error) {
		select {
		case done <- struct{}{}:
		default:
		}
		return lumux.DefaultSettings(), nil
	}

	ctrl := newFakeController()
	p := New(Config{Path: path, Loader: loader})
	p.controller = ctrl
	p.reload()

	<-done
	if n := len(ctrl.Updates()); n != 0 {
		t.Errorf("unchanged settings applied %d times", n)
	}
}

func TestPlugin_DisabledWithoutPath(t *testing.T) {
	p := New(Config{})
	if err := p.Initialize(context.Background(), lumux.PluginConfig{Controller: newFakeController()}); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
}

func TestPlugin_MissingDirectory(t *testing.T) {
	p := New(Config{Path: filepath.Join(t.TempDir(), "missing", "config.toml")})
	err := p.Initialize(context.Background(), lumux.PluginConfig{Controller: newFakeController()})
	if err == nil {
		t.Fatal("Initialize succeeded for a missing directory")
	}
}

func TestDefaultLoader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, "[zones]\nlayout = \"grid\"\n\n[black_bar]\nenabled = false\n")

	s, err := DefaultLoader(path)
	if err != nil {
		t.Fatalf("DefaultLoader: %v", err)
	}
	if s.Layout != lumux.LayoutGrid || s.BlackBar.Enabled {
		t.Errorf("settings = %+v", s)
	}

	if _, err := DefaultLoader(filepath.Join(t.TempDir(), "none.toml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v", err)
	}
}
