package huestream

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"net"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bft-labs/lumux/internal/ports"
)

// pskCiphers are the suites offered by the subprocess tunnel.
const pskCiphers = "PSK-AES128-GCM-SHA256:PSK-CHACHA20-POLY1305"

// OpenSSLDialer tunnels frames through an `openssl s_client -dtls1_2`
// subprocess. Frames written to the tunnel go to the process's stdin.
type OpenSSLDialer struct {
	// Binary is the openssl executable, "openssl" when empty.
	Binary string

	// Port defaults to the HueStream port.
	Port int

	// ConnectTimeout is how long the process must stay alive before the
	// tunnel is considered up.
	ConnectTimeout time.Duration

	// HandshakeDelay is an additional settle time after ConnectTimeout.
	HandshakeDelay time.Duration
}

// DefaultOpenSSLDialer returns a dialer with the tunnel's usual timings.
func DefaultOpenSSLDialer() OpenSSLDialer {
	return OpenSSLDialer{
		Binary:         "openssl",
		ConnectTimeout: 500 * time.Millisecond,
		HandshakeDelay: 300 * time.Millisecond,
	}
}

// Args returns the s_client arguments for creds.
func (d OpenSSLDialer) Args(creds ports.StreamCredentials) []string {
	port := d.Port
	if port == 0 {
		port = Port
	}
	return []string{
		"s_client",
		"-dtls1_2",
		"-connect", net.JoinHostPort(creds.Address, strconv.Itoa(port)),
		"-psk_identity", creds.Identity,
		"-psk", hex.EncodeToString(creds.PSK),
		"-cipher", pskCiphers,
		"-quiet",
	}
}

// Dial starts the subprocess and waits for it to survive the handshake
// window.
func (d OpenSSLDialer) Dial(ctx context.Context, creds ports.StreamCredentials) (io.WriteCloser, error) {
	bin := d.Binary
	if bin == "" {
		bin = "openssl"
	}
	cmd := exec.Command(bin, d.Args(creds)...)
	stderr := &lockedBuffer{}
	cmd.Stderr = stderr
	cmd.Stdout = io.Discard

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", bin, err)
	}

	t := &tunnel{cmd: cmd, stdin: stdin, exited: make(chan struct{})}
	go func() {
		t.waitErr = cmd.Wait()
		close(t.exited)
	}()

	select {
	case <-ctx.Done():
		_ = t.Close()
		return nil, ctx.Err()
	case <-t.exited:
		return nil, fmt.Errorf("openssl exited during handshake: %v: %s", t.waitErr, stderr.Summary())
	case <-time.After(d.ConnectTimeout + d.HandshakeDelay):
	}
	return t, nil
}

// tunnel is a running s_client process.
type tunnel struct {
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	exited  chan struct{}
	waitErr error
	once    sync.Once
}

func (t *tunnel) Write(p []byte) (int, error) {
	select {
	case <-t.exited:
		return 0, fmt.Errorf("openssl tunnel exited: %v", t.waitErr)
	default:
	}
	return t.stdin.Write(p)
}

func (t *tunnel) Close() error {
	t.once.Do(func() {
		_ = t.stdin.Close()
		_ = t.cmd.Process.Kill()
		select {
		case <-t.exited:
		case <-time.After(2 * time.Second):
		}
	})
	return nil
}

// lockedBuffer collects stderr written by the process goroutine.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// Summary returns the last line written, trimmed.
func (b *lockedBuffer) Summary() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	lines := strings.Split(strings.TrimSpace(b.buf.String()), "\n")
	return lines[len(lines)-1]
}

var _ ports.StreamDialer = OpenSSLDialer{}
