package ports

import (
	"context"
	"time"

	"github.com/bft-labs/lumux/internal/domain"
)

// BridgeAPI is the REST surface of the bridge needed to stream.
type BridgeAPI interface {
	// ApplicationID returns the application id used as PSK identity.
	ApplicationID(ctx context.Context) (string, error)

	// EntertainmentConfiguration fetches the channel topology of a zone.
	EntertainmentConfiguration(ctx context.Context, zoneID string) (domain.Topology, error)

	// StartStreaming claims the zone for streaming.
	StartStreaming(ctx context.Context, zoneID string) error

	// StopStreaming releases the zone.
	StopStreaming(ctx context.Context, zoneID string) error
}

// LightController sets the state of individual lights outside streaming.
type LightController interface {
	SetLightColor(ctx context.Context, lightID string, color domain.DeviceColor, transition time.Duration) error
}
