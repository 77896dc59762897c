package cliconfig

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bft-labs/lumux/internal/domain"
)

// Transports selectable with --transport.
const (
	TransportDTLS    = "dtls"
	TransportOpenSSL = "openssl"
)

// Config holds CLI configuration for lumux.
type Config struct {
	BridgeAddress string
	AppKey        string
	ClientKey     string
	ZoneID        string
	Transport     string
	HTTPTimeout   time.Duration

	Display         int
	Rotation        int
	Scale           float64
	CaptureInterval time.Duration

	FPS             int
	TransitionMS    int
	BrightnessScale float64
	Gamma           float64
	SmoothingFactor float64
	Gamut           string
	ConnectAttempts int

	Layout   string
	EdgeRows int
	EdgeCols int
	GridRows int
	GridCols int

	BlackBarEnabled        bool
	BlackBarThreshold      int
	BlackBarDetectionRate  int
	BlackBarSmoothFactor   float64
	BlackBarMinSizePercent float64

	ReadingEnabled    bool
	ReadingDelay      time.Duration
	ReadingX          float64
	ReadingY          float64
	ReadingBrightness int
	ReadingLights     []string

	// StatusAddr is the listen address of the status server; empty disables it.
	StatusAddr string

	LogLevel string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	s := domain.DefaultSettings()
	return Config{
		Transport:   TransportDTLS,
		HTTPTimeout: 5 * time.Second,

		Scale:           0.125,
		CaptureInterval: 16 * time.Millisecond,

		FPS:             s.FPS,
		TransitionMS:    s.TransitionMS,
		BrightnessScale: s.BrightnessScale,
		Gamma:           s.Gamma,
		SmoothingFactor: s.SmoothingFactor,
		Gamut:           s.Gamut,
		ConnectAttempts: 3,

		Layout:   string(s.Layout),
		EdgeRows: s.EdgeRows,
		EdgeCols: s.EdgeCols,
		GridRows: s.GridRows,
		GridCols: s.GridCols,

		BlackBarEnabled:        s.BlackBar.Enabled,
		BlackBarThreshold:      s.BlackBar.Threshold,
		BlackBarDetectionRate:  s.BlackBar.DetectionRate,
		BlackBarSmoothFactor:   s.BlackBar.SmoothFactor,
		BlackBarMinSizePercent: s.BlackBar.MinSizePercent,

		ReadingDelay:      time.Second,
		ReadingX:          0.5,
		ReadingY:          0.4,
		ReadingBrightness: 150,

		LogLevel: "info",
	}
}

// ValidateBridge checks the values needed to talk to the bridge REST API.
func (c *Config) ValidateBridge() error {
	c.BridgeAddress = strings.TrimSpace(c.BridgeAddress)
	if c.BridgeAddress == "" {
		return fmt.Errorf("bridge address is required")
	}
	if c.AppKey == "" {
		return fmt.Errorf("app-key is required")
	}
	if err := domain.ValidateZoneID(c.ZoneID); err != nil {
		return fmt.Errorf("zone %q: %w", c.ZoneID, err)
	}
	return nil
}

// Validate checks the configuration for streaming. Tuning values are not
// rejected here; they are clamped when applied.
func (c *Config) Validate() error {
	if err := c.ValidateBridge(); err != nil {
		return err
	}
	if c.ClientKey == "" {
		return fmt.Errorf("client-key is required")
	}
	if _, err := hex.DecodeString(c.ClientKey); err != nil {
		return fmt.Errorf("client-key must be hex: %w", err)
	}

	switch c.Transport {
	case TransportDTLS, TransportOpenSSL:
	case "":
		c.Transport = TransportDTLS
	default:
		return fmt.Errorf("unknown transport %q (want %s or %s)", c.Transport, TransportDTLS, TransportOpenSSL)
	}

	switch domain.Layout(c.Layout) {
	case domain.LayoutRing, domain.LayoutGrid:
	case "":
		c.Layout = string(domain.LayoutRing)
	default:
		return fmt.Errorf("unknown layout %q", c.Layout)
	}

	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be positive")
	}
	if c.ConnectAttempts <= 0 {
		c.ConnectAttempts = 1
	}
	return nil
}

// Settings returns the sync settings carried by the configuration.
func (c Config) Settings() domain.Settings {
	return domain.Settings{
		FPS:             c.FPS,
		TransitionMS:    c.TransitionMS,
		BrightnessScale: c.BrightnessScale,
		Gamma:           c.Gamma,
		SmoothingFactor: c.SmoothingFactor,
		Layout:          domain.Layout(c.Layout),
		EdgeRows:        c.EdgeRows,
		EdgeCols:        c.EdgeCols,
		GridRows:        c.GridRows,
		GridCols:        c.GridCols,
		Gamut:           c.Gamut,
		BlackBar: domain.BlackBarSettings{
			Enabled:        c.BlackBarEnabled,
			Threshold:      c.BlackBarThreshold,
			DetectionRate:  c.BlackBarDetectionRate,
			SmoothFactor:   c.BlackBarSmoothFactor,
			MinSizePercent: c.BlackBarMinSizePercent,
		},
	}
}

// Redacted returns a copy safe to log.
func (c Config) Redacted() Config {
	if c.AppKey != "" {
		c.AppKey = "*****"
	}
	if c.ClientKey != "" {
		c.ClientKey = "*****"
	}
	return c
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setStrings sets a list if not empty and flag not changed.
func (s *configSetter) setStrings(flag string, value []string, dst *[]string) {
	if len(value) == 0 || s.changed[flag] {
		return
	}
	*dst = append([]string(nil), value...)
}

// setInt sets an int value from a pointer if not nil and flag not changed.
func (s *configSetter) setInt(flag string, value *int, dst *int) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setFloat sets a float64 value from a pointer if not nil and flag not changed.
func (s *configSetter) setFloat(flag string, value *float64, dst *float64) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = i
	return nil
}

// setFloatFromString parses a string to float64 and sets the destination.
// Used for environment variables that come as strings.
func (s *configSetter) setFloatFromString(flag, value string, dst *float64) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = f
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}

// splitList splits a comma separated list, dropping empty items.
func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
