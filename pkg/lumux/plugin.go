package lumux

import "context"

// Plugin extends a Lumux instance with optional behavior.
type Plugin interface {
	// Name identifies the plugin in logs.
	Name() string

	// Initialize is called by Start before the sync loop runs. An error
	// aborts Start.
	Initialize(ctx context.Context, cfg PluginConfig) error

	// Shutdown is called by Stop after the sync loop has been released.
	Shutdown(ctx context.Context) error
}

// PluginConfig is handed to plugins on Initialize.
type PluginConfig struct {
	Config Config
	Logger Logger

	// Controller gives plugins access to the running instance.
	Controller Controller
}

// Controller is the subset of Lumux exposed to plugins.
type Controller interface {
	Status() State
	Stats() Stats
	Settings() Settings
	UpdateSettings(Settings) Settings
	Mapping() map[string]uint8
}

// BasePlugin implements Plugin with no-ops.
type BasePlugin struct{}

func (BasePlugin) Name() string                                   { return "base" }
func (BasePlugin) Initialize(context.Context, PluginConfig) error { return nil }
func (BasePlugin) Shutdown(context.Context) error                 { return nil }
