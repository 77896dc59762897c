package lumux

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/bft-labs/lumux/internal/app"
	"github.com/bft-labs/lumux/internal/domain"
)

// Transport selects how frames reach the bridge.
type Transport string

const (
	// TransportDTLS uses the native DTLS 1.2 PSK client.
	TransportDTLS Transport = "dtls"

	// TransportOpenSSL tunnels frames through an openssl s_client process.
	TransportOpenSSL Transport = "openssl"
)

// Re-exported pipeline types.
type (
	Settings         = domain.Settings
	BlackBarSettings = domain.BlackBarSettings
	Layout           = domain.Layout
	CropRegion       = domain.CropRegion
	RGB              = domain.RGB
	XY               = domain.XY
	DeviceColor      = domain.DeviceColor
	Topology         = domain.Topology
	ChannelInfo      = domain.ChannelInfo
	Position         = domain.Position
	Stats            = app.Stats
	StageTimes       = app.StageTimes
	Status           = app.Status
	StatusKind       = app.StatusKind
	ReadingState     = app.ReadingState
)

// Zone layouts.
const (
	LayoutRing = domain.LayoutRing
	LayoutGrid = domain.LayoutGrid
)

// Status kinds.
const (
	StatusSyncing = app.StatusSyncing
	StatusStopped = app.StatusStopped
	StatusError   = app.StatusError
)

// Reading light states.
const (
	ReadingIdle    = app.ReadingIdle
	ReadingPending = app.ReadingPending
	ReadingActive  = app.ReadingActive
)

// DefaultSettings returns the default pipeline settings.
func DefaultSettings() Settings {
	return domain.DefaultSettings()
}

// Config holds the parameters of a Lumux instance.
type Config struct {
	// BridgeAddress is the bridge host name or IP. Required.
	BridgeAddress string

	// AppKey is the application key issued at pairing. Required.
	AppKey string

	// ClientKey is the hex encoded streaming PSK issued at pairing. Required.
	ClientKey string

	// ZoneID is the entertainment configuration UUID. Required.
	ZoneID string

	// Transport defaults to TransportDTLS.
	Transport Transport

	// HTTPTimeout bounds bridge REST calls. Default: 5s.
	HTTPTimeout time.Duration

	// Display is the index of the captured display.
	Display int

	// Rotation of the captured image in degrees, counter-clockwise.
	Rotation int

	// Scale is the capture downscale factor in (0, 1]. Default: 0.125.
	Scale float64

	// CaptureInterval is the capture producer period. Default: 16ms.
	CaptureInterval time.Duration

	// ConnectAttempts bounds session establishment in Start. Default: 3.
	ConnectAttempts int

	// StopTimeout bounds how long Stop waits for the loop. Default: 3s.
	StopTimeout time.Duration

	// ActivationDelay is the pause between claiming the zone and the
	// handshake. Default: 500ms.
	ActivationDelay time.Duration

	Settings Settings

	Reading ReadingConfig
}

// ReadingConfig configures the static light applied after sync stops.
type ReadingConfig struct {
	Enabled bool

	// Delay before the light is applied. Default: 1s.
	Delay time.Duration

	Color DeviceColor

	// LightIDs overrides the zone member lights.
	LightIDs []string
}

// DefaultConfig returns a Config with every optional value set. The bridge
// parameters are left empty.
func DefaultConfig() Config {
	var cfg Config
	cfg.Settings = domain.DefaultSettings()
	cfg.SetDefaults()
	return cfg
}

// SetDefaults fills unset optional values.
func (c *Config) SetDefaults() {
	if c.Transport == "" {
		c.Transport = TransportDTLS
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = 5 * time.Second
	}
	if c.Scale <= 0 {
		c.Scale = 0.125
	}
	if c.CaptureInterval <= 0 {
		c.CaptureInterval = 16 * time.Millisecond
	}
	if c.ConnectAttempts <= 0 {
		c.ConnectAttempts = 3
	}
	if c.StopTimeout <= 0 {
		c.StopTimeout = 3 * time.Second
	}
	if c.ActivationDelay <= 0 {
		c.ActivationDelay = 500 * time.Millisecond
	}
	if c.Settings == (Settings{}) {
		c.Settings = domain.DefaultSettings()
	}
	if c.Reading.Delay <= 0 {
		c.Reading.Delay = time.Second
	}
	if c.Reading.Color == (DeviceColor{}) {
		c.Reading.Color = app.DefaultReadingConfig().Color
	}
}

// Validate checks the bridge parameters. Settings are clamped, not validated.
func (c Config) Validate() error {
	if strings.TrimSpace(c.BridgeAddress) == "" {
		return fmt.Errorf("%w: bridge address is required", ErrInvalidConfig)
	}
	if c.AppKey == "" {
		return fmt.Errorf("%w: app key is required", ErrInvalidConfig)
	}
	if c.ClientKey == "" {
		return fmt.Errorf("%w: client key is required", ErrInvalidConfig)
	}
	if _, err := hex.DecodeString(c.ClientKey); err != nil {
		return fmt.Errorf("%w: client key must be hex", ErrInvalidConfig)
	}
	if err := domain.ValidateZoneID(c.ZoneID); err != nil {
		return fmt.Errorf("%w: zone %q: %v", ErrInvalidConfig, c.ZoneID, err)
	}
	switch c.Transport {
	case TransportDTLS, TransportOpenSSL:
	default:
		return fmt.Errorf("%w: unknown transport %q", ErrInvalidConfig, c.Transport)
	}
	return nil
}
