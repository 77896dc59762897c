package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig is the TOML layout of the config file. Durations are strings
// and optional scalars are pointers so that unset keys keep their defaults.
type FileConfig struct {
	Bridge   BridgeSection   `toml:"bridge"`
	Capture  CaptureSection  `toml:"capture"`
	Sync     SyncSection     `toml:"sync"`
	Zones    ZonesSection    `toml:"zones"`
	BlackBar BlackBarSection `toml:"black_bar"`
	Reading  ReadingSection  `toml:"reading"`
	Status   StatusSection   `toml:"status"`
	LogLevel string          `toml:"log_level"`
}

// BridgeSection is the [bridge] table.
type BridgeSection struct {
	Address     string `toml:"address"`
	AppKey      string `toml:"app_key"`
	ClientKey   string `toml:"client_key"`
	ZoneID      string `toml:"zone_id"`
	Transport   string `toml:"transport"`
	HTTPTimeout string `toml:"http_timeout"`
}

// CaptureSection is the [capture] table.
type CaptureSection struct {
	Display  *int     `toml:"display"`
	Rotation *int     `toml:"rotation"`
	Scale    *float64 `toml:"scale"`
	Interval string   `toml:"interval"`
}

// SyncSection is the [sync] table.
type SyncSection struct {
	FPS             *int     `toml:"fps"`
	TransitionMS    *int     `toml:"transition_ms"`
	BrightnessScale *float64 `toml:"brightness_scale"`
	Gamma           *float64 `toml:"gamma"`
	SmoothingFactor *float64 `toml:"smoothing_factor"`
	Gamut           string   `toml:"gamut"`
	ConnectAttempts *int     `toml:"connect_attempts"`
}

// ZonesSection is the [zones] table.
type ZonesSection struct {
	Layout   string `toml:"layout"`
	EdgeRows *int   `toml:"edge_rows"`
	EdgeCols *int   `toml:"edge_cols"`
	GridRows *int   `toml:"grid_rows"`
	GridCols *int   `toml:"grid_cols"`
}

// BlackBarSection is the [black_bar] table.
type BlackBarSection struct {
	Enabled        *bool    `toml:"enabled"`
	Threshold      *int     `toml:"threshold"`
	DetectionRate  *int     `toml:"detection_rate"`
	SmoothFactor   *float64 `toml:"smooth_factor"`
	MinSizePercent *float64 `toml:"min_size_percent"`
}

// ReadingSection is the [reading] table.
type ReadingSection struct {
	Enabled    *bool    `toml:"enabled"`
	Delay      string   `toml:"delay"`
	X          *float64 `toml:"x"`
	Y          *float64 `toml:"y"`
	Brightness *int     `toml:"brightness"`
	Lights     []string `toml:"lights"`
}

// StatusSection is the [status] table.
type StatusSection struct {
	Addr string `toml:"addr"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.lumux/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".lumux", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	b := fc.Bridge
	s.setString("bridge", b.Address, &cfg.BridgeAddress)
	s.setString("app-key", b.AppKey, &cfg.AppKey)
	s.setString("client-key", b.ClientKey, &cfg.ClientKey)
	s.setString("zone", b.ZoneID, &cfg.ZoneID)
	s.setString("transport", b.Transport, &cfg.Transport)
	if err := s.setDuration("http-timeout", b.HTTPTimeout, &cfg.HTTPTimeout); err != nil {
		return err
	}

	c := fc.Capture
	s.setInt("display", c.Display, &cfg.Display)
	s.setInt("rotation", c.Rotation, &cfg.Rotation)
	s.setFloat("scale", c.Scale, &cfg.Scale)
	if err := s.setDuration("capture-interval", c.Interval, &cfg.CaptureInterval); err != nil {
		return err
	}

	y := fc.Sync
	s.setInt("fps", y.FPS, &cfg.FPS)
	s.setInt("transition-ms", y.TransitionMS, &cfg.TransitionMS)
	s.setFloat("brightness", y.BrightnessScale, &cfg.BrightnessScale)
	s.setFloat("gamma", y.Gamma, &cfg.Gamma)
	s.setFloat("smoothing", y.SmoothingFactor, &cfg.SmoothingFactor)
	s.setString("gamut", y.Gamut, &cfg.Gamut)
	s.setInt("connect-attempts", y.ConnectAttempts, &cfg.ConnectAttempts)

	z := fc.Zones
	s.setString("layout", z.Layout, &cfg.Layout)
	s.setInt("edge-rows", z.EdgeRows, &cfg.EdgeRows)
	s.setInt("edge-cols", z.EdgeCols, &cfg.EdgeCols)
	s.setInt("grid-rows", z.GridRows, &cfg.GridRows)
	s.setInt("grid-cols", z.GridCols, &cfg.GridCols)

	bb := fc.BlackBar
	s.setBool("black-bar", bb.Enabled, &cfg.BlackBarEnabled)
	s.setInt("black-bar-threshold", bb.Threshold, &cfg.BlackBarThreshold)
	s.setInt("black-bar-rate", bb.DetectionRate, &cfg.BlackBarDetectionRate)
	s.setFloat("black-bar-smooth", bb.SmoothFactor, &cfg.BlackBarSmoothFactor)
	s.setFloat("black-bar-min-size", bb.MinSizePercent, &cfg.BlackBarMinSizePercent)

	r := fc.Reading
	s.setBool("reading", r.Enabled, &cfg.ReadingEnabled)
	if err := s.setDuration("reading-delay", r.Delay, &cfg.ReadingDelay); err != nil {
		return err
	}
	s.setFloat("reading-x", r.X, &cfg.ReadingX)
	s.setFloat("reading-y", r.Y, &cfg.ReadingY)
	s.setInt("reading-brightness", r.Brightness, &cfg.ReadingBrightness)
	s.setStrings("reading-lights", r.Lights, &cfg.ReadingLights)

	s.setString("status-addr", fc.Status.Addr, &cfg.StatusAddr)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
