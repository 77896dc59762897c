package ports

import (
	"context"
	"io"

	"github.com/bft-labs/lumux/internal/domain"
)

// StreamSession is an authenticated low-latency session to the bridge.
// Only one goroutine may call Send at a time.
type StreamSession interface {
	// Connect claims the entertainment zone and establishes the encrypted
	// transport. On failure nothing is left claimed.
	Connect(ctx context.Context) error

	// Send transmits one frame with the given channel colors. Channels of the
	// topology without a color are sent as zero. A send failure disconnects
	// the session.
	Send(colors map[uint8]domain.DeviceColor) error

	// Disconnect closes the transport and releases the zone, in that order.
	Disconnect(ctx context.Context) error

	// IsConnected reports whether frames can be sent.
	IsConnected() bool

	// Topology returns the entertainment zone the session streams to.
	Topology() domain.Topology
}

// StreamCredentials identify the client during the encrypted handshake.
type StreamCredentials struct {
	// Address is the bridge host, without port.
	Address string

	// Identity is the PSK identity (the application id).
	Identity string

	// PSK is the raw pre-shared key.
	PSK []byte
}

// StreamDialer opens the encrypted datagram channel of a session.
// Each Write on the returned connection sends exactly one frame.
type StreamDialer interface {
	Dial(ctx context.Context, creds StreamCredentials) (io.WriteCloser, error)
}
