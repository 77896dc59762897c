package cliconfig

import (
	"os"
	"time"
)

// ApplyEnvConfig applies configuration from environment variables (LUMUX_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("bridge", os.Getenv("LUMUX_BRIDGE_ADDRESS"), &cfg.BridgeAddress)
	s.setString("app-key", os.Getenv("LUMUX_APP_KEY"), &cfg.AppKey)
	s.setString("client-key", os.Getenv("LUMUX_CLIENT_KEY"), &cfg.ClientKey)
	s.setString("zone", os.Getenv("LUMUX_ZONE_ID"), &cfg.ZoneID)
	s.setString("transport", os.Getenv("LUMUX_TRANSPORT"), &cfg.Transport)
	s.setString("gamut", os.Getenv("LUMUX_GAMUT"), &cfg.Gamut)
	s.setString("layout", os.Getenv("LUMUX_LAYOUT"), &cfg.Layout)
	s.setString("status-addr", os.Getenv("LUMUX_STATUS_ADDR"), &cfg.StatusAddr)
	s.setString("log-level", os.Getenv("LUMUX_LOG_LEVEL"), &cfg.LogLevel)
	s.setStrings("reading-lights", splitList(os.Getenv("LUMUX_READING_LIGHTS")), &cfg.ReadingLights)

	durations := []struct {
		flag, env string
		dst       *time.Duration
	}{
		{"http-timeout", "LUMUX_HTTP_TIMEOUT", &cfg.HTTPTimeout},
		{"capture-interval", "LUMUX_CAPTURE_INTERVAL", &cfg.CaptureInterval},
		{"reading-delay", "LUMUX_READING_DELAY", &cfg.ReadingDelay},
	}
	for _, d := range durations {
		if err := s.setDuration(d.flag, os.Getenv(d.env), d.dst); err != nil {
			return err
		}
	}

	ints := []struct {
		flag, env string
		dst       *int
	}{
		{"display", "LUMUX_DISPLAY", &cfg.Display},
		{"rotation", "LUMUX_ROTATION", &cfg.Rotation},
		{"fps", "LUMUX_FPS", &cfg.FPS},
		{"transition-ms", "LUMUX_TRANSITION_MS", &cfg.TransitionMS},
		{"connect-attempts", "LUMUX_CONNECT_ATTEMPTS", &cfg.ConnectAttempts},
		{"edge-rows", "LUMUX_EDGE_ROWS", &cfg.EdgeRows},
		{"edge-cols", "LUMUX_EDGE_COLS", &cfg.EdgeCols},
		{"grid-rows", "LUMUX_GRID_ROWS", &cfg.GridRows},
		{"grid-cols", "LUMUX_GRID_COLS", &cfg.GridCols},
		{"black-bar-threshold", "LUMUX_BLACK_BAR_THRESHOLD", &cfg.BlackBarThreshold},
		{"black-bar-rate", "LUMUX_BLACK_BAR_DETECTION_RATE", &cfg.BlackBarDetectionRate},
		{"reading-brightness", "LUMUX_READING_BRIGHTNESS", &cfg.ReadingBrightness},
	}
	for _, i := range ints {
		if err := s.setIntFromString(i.flag, os.Getenv(i.env), i.dst); err != nil {
			return err
		}
	}

	floats := []struct {
		flag, env string
		dst       *float64
	}{
		{"scale", "LUMUX_SCALE", &cfg.Scale},
		{"brightness", "LUMUX_BRIGHTNESS_SCALE", &cfg.BrightnessScale},
		{"gamma", "LUMUX_GAMMA", &cfg.Gamma},
		{"smoothing", "LUMUX_SMOOTHING_FACTOR", &cfg.SmoothingFactor},
		{"black-bar-smooth", "LUMUX_BLACK_BAR_SMOOTH_FACTOR", &cfg.BlackBarSmoothFactor},
		{"black-bar-min-size", "LUMUX_BLACK_BAR_MIN_SIZE_PERCENT", &cfg.BlackBarMinSizePercent},
		{"reading-x", "LUMUX_READING_X", &cfg.ReadingX},
		{"reading-y", "LUMUX_READING_Y", &cfg.ReadingY},
	}
	for _, f := range floats {
		if err := s.setFloatFromString(f.flag, os.Getenv(f.env), f.dst); err != nil {
			return err
		}
	}

	s.setBoolFromString("black-bar", os.Getenv("LUMUX_BLACK_BAR_ENABLED"), &cfg.BlackBarEnabled)
	s.setBoolFromString("reading", os.Getenv("LUMUX_READING_ENABLED"), &cfg.ReadingEnabled)

	return nil
}
