package huestream

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"

	"github.com/pion/dtls/v2"

	"github.com/bft-labs/lumux/internal/ports"
)

// DTLSDialer opens a native DTLS 1.2 PSK connection to the bridge.
type DTLSDialer struct {
	// Port defaults to the HueStream port.
	Port int
}

// Dial performs the handshake and returns the encrypted connection. Each
// Write sends one datagram.
func (d DTLSDialer) Dial(ctx context.Context, creds ports.StreamCredentials) (io.WriteCloser, error) {
	port := d.Port
	if port == 0 {
		port = Port
	}
	raddr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(creds.Address, strconv.Itoa(port)))
	if err != nil {
		return nil, fmt.Errorf("resolve bridge address: %w", err)
	}

	psk := creds.PSK
	cfg := &dtls.Config{
		PSK: func([]byte) ([]byte, error) {
			return psk, nil
		},
		PSKIdentityHint: []byte(creds.Identity),
		CipherSuites:    []dtls.CipherSuiteID{dtls.TLS_PSK_WITH_AES_128_GCM_SHA256},
	}

	conn, err := dtls.DialWithContext(ctx, "udp", raddr, cfg)
	if err != nil {
		return nil, fmt.Errorf("dtls handshake with %s: %w", raddr, err)
	}
	return conn, nil
}

var _ ports.StreamDialer = DTLSDialer{}
