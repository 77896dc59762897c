package huestream

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/bft-labs/lumux/internal/domain"
	"github.com/bft-labs/lumux/internal/ports"
)

// State is the connection state of a Session.
type State int

const (
	StateDisconnected State = iota
	StateActivating
	StateHandshaking
	StateConnected
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "Disconnected"
	case StateActivating:
		return "Activating"
	case StateHandshaking:
		return "Handshaking"
	case StateConnected:
		return "Connected"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Config holds the parameters of a streaming session.
type Config struct {
	// Address is the bridge host name or IP.
	Address string

	// ZoneID is the entertainment configuration UUID.
	ZoneID string

	// AppKey is the bridge application key (hue-application-key). It is the
	// PSK identity fallback when the application id cannot be fetched.
	AppKey string

	// ClientKey is the hex encoded PSK issued at pairing.
	ClientKey string

	// ActivationDelay is the pause between claiming the zone and starting
	// the handshake, giving the bridge time to open its streaming port.
	ActivationDelay time.Duration

	// HandshakeTimeout bounds the encrypted handshake.
	HandshakeTimeout time.Duration

	// ReleaseTimeout bounds the REST call that releases the zone.
	ReleaseTimeout time.Duration

	// RefreshTopology re-fetches the zone's channels on every Connect.
	RefreshTopology bool
}

// DefaultConfig returns timeouts matching the bridge's behavior.
func DefaultConfig() Config {
	return Config{
		ActivationDelay:  500 * time.Millisecond,
		HandshakeTimeout: 5 * time.Second,
		ReleaseTimeout:   3 * time.Second,
		RefreshTopology:  true,
	}
}

// Session streams XY+brightness frames to one entertainment zone. It
// implements ports.StreamSession. Send must only be called from one
// goroutine.
type Session struct {
	cfg    Config
	bridge ports.BridgeAPI
	dialer ports.StreamDialer
	logger ports.Logger

	mu       sync.Mutex
	state    State
	conn     io.WriteCloser
	claimed  bool
	topology domain.Topology
	channels []uint8
	seq      uint8
	sent     uint64
	buf      []byte

	onState func(from, to State)
}

// NewSession creates a disconnected session. topology seeds the channel list
// and is replaced on Connect when RefreshTopology is set.
func NewSession(cfg Config, topology domain.Topology, bridge ports.BridgeAPI, dialer ports.StreamDialer, logger ports.Logger) (*Session, error) {
	if err := domain.ValidateZoneID(cfg.ZoneID); err != nil {
		return nil, fmt.Errorf("zone %q: %w", cfg.ZoneID, err)
	}
	if _, err := hex.DecodeString(cfg.ClientKey); err != nil || cfg.ClientKey == "" {
		return nil, fmt.Errorf("client key must be a non-empty hex string")
	}
	if bridge == nil || dialer == nil {
		return nil, errors.New("bridge and dialer are required")
	}
	topology.ZoneID = cfg.ZoneID
	return &Session{
		cfg:      cfg,
		bridge:   bridge,
		dialer:   dialer,
		logger:   logger,
		topology: topology,
		channels: topology.ChannelIDs(),
	}, nil
}

// OnStateChange registers a callback invoked after every state change.
// It must be set before the session is used.
func (s *Session) OnStateChange(fn func(from, to State)) {
	s.onState = fn
}

// State returns the connection state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsConnected reports whether frames can be sent.
func (s *Session) IsConnected() bool {
	return s.State() == StateConnected
}

// Topology returns the entertainment zone the session streams to.
func (s *Session) Topology() domain.Topology {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.topology
}

// Sequence returns the sequence number the next frame will carry.
func (s *Session) Sequence() uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// FramesSent returns the number of frames written since creation.
func (s *Session) FramesSent() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent
}

// Connect claims the zone and performs the encrypted handshake. If the
// handshake fails the claim is released before returning.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateConnected:
		return nil
	case StateActivating, StateHandshaking:
		return errors.New("connect already in progress")
	}

	if s.cfg.RefreshTopology {
		topo, err := s.bridge.EntertainmentConfiguration(ctx, s.cfg.ZoneID)
		if err != nil {
			s.setState(StateFailed)
			return fmt.Errorf("fetch entertainment configuration: %w", err)
		}
		topo.ZoneID = s.cfg.ZoneID
		s.topology = topo
		s.channels = topo.ChannelIDs()
	}
	if len(s.channels) == 0 {
		s.setState(StateFailed)
		return domain.ErrNoChannels
	}

	identity, err := s.bridge.ApplicationID(ctx)
	if err != nil || identity == "" {
		s.logger.Warn("application id unavailable, using application key as PSK identity", ports.Err(err))
		identity = s.cfg.AppKey
	}
	psk, _ := hex.DecodeString(s.cfg.ClientKey)

	s.setState(StateActivating)
	if err := s.bridge.StartStreaming(ctx, s.cfg.ZoneID); err != nil {
		s.setState(StateFailed)
		return fmt.Errorf("%w: %w", domain.ErrActivation, err)
	}
	s.claimed = true

	if err := sleep(ctx, s.cfg.ActivationDelay); err != nil {
		s.release()
		s.setState(StateFailed)
		return err
	}

	s.setState(StateHandshaking)
	dialCtx := ctx
	if s.cfg.HandshakeTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, s.cfg.HandshakeTimeout)
		defer cancel()
	}
	conn, err := s.dialer.Dial(dialCtx, ports.StreamCredentials{
		Address:  s.cfg.Address,
		Identity: identity,
		PSK:      psk,
	})
	if err != nil {
		s.release()
		s.setState(StateFailed)
		return fmt.Errorf("%w: %w", domain.ErrHandshake, err)
	}

	s.conn = conn
	s.seq = 0
	s.setState(StateConnected)
	s.logger.Info("streaming session connected",
		ports.String("zone", s.cfg.ZoneID),
		ports.Int("channels", len(s.channels)),
	)
	return nil
}

// Send writes one frame. Topology channels absent from colors are sent as
// zero. A write failure closes the transport and leaves the session
// Disconnected; the zone stays claimed until Disconnect.
func (s *Session) Send(colors map[uint8]domain.DeviceColor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateConnected {
		return domain.ErrNotConnected
	}

	s.buf = AppendXY(s.buf[:0], s.seq, s.cfg.ZoneID, s.channels, colors)
	if _, err := s.conn.Write(s.buf); err != nil {
		_ = s.conn.Close()
		s.conn = nil
		s.setState(StateDisconnected)
		return fmt.Errorf("send frame: %w", err)
	}
	s.seq++
	s.sent++
	return nil
}

// Disconnect closes the transport, then releases the zone. The release is
// attempted even when the transport is already gone.
func (s *Session) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			s.logger.Debug("close stream transport", ports.Err(err))
		}
		s.conn = nil
	}

	var err error
	if s.claimed {
		err = s.bridge.StopStreaming(ctx, s.cfg.ZoneID)
		if err != nil {
			s.logger.Warn("release entertainment zone failed", ports.Err(err))
		}
		s.claimed = false
	}
	if s.state != StateDisconnected {
		s.setState(StateDisconnected)
	}
	return err
}

// release undoes a claim after a failed connect. Called with s.mu held.
func (s *Session) release() {
	timeout := s.cfg.ReleaseTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := s.bridge.StopStreaming(ctx, s.cfg.ZoneID); err != nil {
		s.logger.Warn("rollback of zone claim failed", ports.Err(err))
	}
	s.claimed = false
}

// setState records a transition. Called with s.mu held.
func (s *Session) setState(to State) {
	from := s.state
	s.state = to
	if from == to {
		return
	}
	s.logger.Debug("stream state",
		ports.String("from", from.String()),
		ports.String("to", to.String()),
	)
	if s.onState != nil {
		s.onState(from, to)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

var _ ports.StreamSession = (*Session)(nil)
