package configwatcher

import "github.com/bft-labs/lumux/pkg/lumux"

// WithConfigWatcher returns a lumux Option that reloads settings when the
// config file changes.
//
// Usage:
//
//	l, err := lumux.New(cfg,
//	    configwatcher.WithConfigWatcher(configwatcher.Config{
//	        Path:          "/home/me/.lumux/config.toml",
//	        DebounceDelay: 100 * time.Millisecond,
//	    }),
//	)
func WithConfigWatcher(cfg Config) lumux.Option {
	return lumux.WithPlugin(New(cfg))
}

// WithDefaultConfigWatcher watches the default config path.
func WithDefaultConfigWatcher() lumux.Option {
	return WithConfigWatcher(DefaultConfig())
}
