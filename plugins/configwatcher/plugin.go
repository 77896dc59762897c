// Package configwatcher reloads lumux settings when the config file changes.
// It watches the file's directory, debounces bursts of writes and hands the
// re-read settings to the running instance, which applies them on its next
// frame.
package configwatcher

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/lumux/internal/cliconfig"
	"github.com/bft-labs/lumux/pkg/log"
	"github.com/bft-labs/lumux/pkg/lumux"
)

// Loader turns the config file at path into settings.
type Loader func(path string) (lumux.Settings, error)

// Plugin implements config watching functionality.
type Plugin struct {
	mu sync.Mutex

	// Configuration
	path          string
	debounceDelay time.Duration
	load          Loader

	// Runtime state
	logger     lumux.Logger
	controller lumux.Controller
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	debounce   *time.Timer
	reloads    atomic.Uint64
}

// Config holds configuration options for the config watcher plugin.
type Config struct {
	// Path is the TOML file to watch. Empty disables the plugin.
	Path string

	// DebounceDelay is the delay to wait after a file change before reloading.
	// Default: 100 milliseconds
	DebounceDelay time.Duration

	// Loader reads the settings. Default: DefaultLoader.
	Loader Loader
}

// DefaultConfig returns a Config watching the default config path.
func DefaultConfig() Config {
	return Config{
		Path:          cliconfig.DefaultConfigPath(),
		DebounceDelay: 100 * time.Millisecond,
	}
}

// DefaultLoader applies the file and LUMUX_* environment variables on top
// of the defaults.
func DefaultLoader(path string) (lumux.Settings, error) {
	fc, err := cliconfig.LoadFileConfig(path)
	if err != nil {
		return lumux.Settings{}, err
	}
	cfg := cliconfig.DefaultConfig()
	if err := cliconfig.ApplyFileConfig(&cfg, fc, nil); err != nil {
		return lumux.Settings{}, err
	}
	if err := cliconfig.ApplyEnvConfig(&cfg, nil); err != nil {
		return lumux.Settings{}, err
	}
	return cfg.Settings(), nil
}

// New creates a new config watcher plugin with the given configuration.
func New(cfg Config) *Plugin {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = 100 * time.Millisecond
	}
	if cfg.Loader == nil {
		cfg.Loader = DefaultLoader
	}
	return &Plugin{
		path:          cfg.Path,
		debounceDelay: cfg.DebounceDelay,
		load:          cfg.Loader,
		logger:        log.NewNoopLogger(),
	}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "configwatcher"
}

// Reloads returns how many times settings were applied.
func (p *Plugin) Reloads() uint64 {
	return p.reloads.Load()
}

// Initialize starts watching the config file.
func (p *Plugin) Initialize(ctx context.Context, cfg lumux.PluginConfig) error {
	p.mu.Lock()
	if cfg.Logger != nil {
		p.logger = cfg.Logger
	}
	p.controller = cfg.Controller
	p.mu.Unlock()

	if p.path == "" || p.controller == nil {
		p.logger.Warn("config watcher disabled: no config file")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// Editors replace files by rename, so the directory is watched.
	if err := watcher.Add(filepath.Dir(p.path)); err != nil {
		watcher.Close()
		return err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.logger.Info("config watcher started", log.String("path", p.path))

	p.wg.Add(1)
	go p.watchLoop(watchCtx, watcher)
	return nil
}

// Shutdown stops the config watcher.
func (p *Plugin) Shutdown(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()

	p.mu.Lock()
	if p.debounce != nil {
		p.debounce.Stop()
	}
	p.mu.Unlock()
	return nil
}

func (p *Plugin) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer p.wg.Done()
	defer watcher.Close()

	name := filepath.Base(p.path)
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			p.debounceReload(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			p.logger.Error("config watcher error", log.Err(err))
		}
	}
}

func (p *Plugin) debounceReload(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.debounce != nil {
		p.debounce.Stop()
	}
	p.debounce = time.AfterFunc(p.debounceDelay, func() {
		if ctx.Err() == nil {
			p.reload()
		}
	})
}

// reload applies the file's settings. A file that fails to load leaves the
// running settings untouched.
func (p *Plugin) reload() {
	settings, err := p.load(p.path)
	if err != nil {
		p.logger.Warn("config reload failed, keeping current settings",
			log.String("path", p.path),
			log.Err(err))
		return
	}

	current := p.controller.Settings()
	if settings.Clamp() == current {
		return
	}
	applied := p.controller.UpdateSettings(settings)
	p.reloads.Add(1)

	if applied.Layout != current.Layout ||
		applied.EdgeRows != current.EdgeRows || applied.EdgeCols != current.EdgeCols ||
		applied.GridRows != current.GridRows || applied.GridCols != current.GridCols {
		p.logger.Info("zone layout changed; restart sync to apply")
	}
	p.logger.Info("config reloaded", log.String("path", p.path))
}

// Ensure Plugin implements lumux.Plugin.
var _ lumux.Plugin = (*Plugin)(nil)
