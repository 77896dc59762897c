// Package statusserver exposes a running lumux instance over HTTP: a
// WebSocket stream of status and state events on /ws, a stats snapshot on
// /stats, the zone mapping on /mapping and a liveness probe on /healthz.
package statusserver

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bft-labs/lumux/pkg/log"
	"github.com/bft-labs/lumux/pkg/lumux"
)

const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second
	pingEvery = (pongWait * 9) / 10
)

// Config holds configuration options for the status server.
type Config struct {
	// Addr is the listen address, e.g. "127.0.0.1:8089". Empty disables
	// the plugin.
	Addr string

	// QueueSize bounds the events waiting for broadcast. Events arriving at
	// a full queue are dropped. Default: 100
	QueueSize int
}

// DefaultConfig returns a Config listening on localhost.
func DefaultConfig() Config {
	return Config{Addr: "127.0.0.1:8089", QueueSize: 100}
}

// Plugin serves status over HTTP and WebSocket. It implements
// lumux.EventHandler to receive events from the sync loop without blocking
// it.
type Plugin struct {
	addr     string
	upgrader websocket.Upgrader
	queue    chan any
	dropped  atomic.Uint64

	logger     lumux.Logger
	controller lumux.Controller

	mu       sync.Mutex
	clients  map[*websocket.Conn]*sync.Mutex
	listener net.Listener
	server   *http.Server
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// New creates a status server plugin.
func New(cfg Config) *Plugin {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}
	return &Plugin{
		addr: cfg.Addr,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		queue:   make(chan any, cfg.QueueSize),
		clients: make(map[*websocket.Conn]*sync.Mutex),
		logger:  log.NewNoopLogger(),
	}
}

// WithStatusServer returns a lumux Option that serves status on cfg.Addr.
func WithStatusServer(cfg Config) lumux.Option {
	return lumux.WithPlugin(New(cfg))
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "statusserver"
}

// Addr returns the bound listen address, or "" before Initialize.
func (p *Plugin) Addr() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.listener == nil {
		return ""
	}
	return p.listener.Addr().String()
}

// Dropped returns how many events were dropped on a full queue.
func (p *Plugin) Dropped() uint64 {
	return p.dropped.Load()
}

// Initialize binds the listener and starts serving.
func (p *Plugin) Initialize(ctx context.Context, cfg lumux.PluginConfig) error {
	if cfg.Logger != nil {
		p.logger = cfg.Logger
	}
	p.controller = cfg.Controller
	if p.addr == "" || p.controller == nil {
		p.logger.Warn("status server disabled: no listen address")
		return nil
	}

	ln, err := net.Listen("tcp", p.addr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           p.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	runCtx, cancel := context.WithCancel(ctx)

	p.mu.Lock()
	p.listener = ln
	p.server = srv
	p.cancel = cancel
	p.mu.Unlock()

	p.wg.Add(2)
	go func() {
		defer p.wg.Done()
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			p.logger.Error("status server stopped", log.Err(err))
		}
	}()
	go func() {
		defer p.wg.Done()
		p.broadcast(runCtx)
	}()

	p.logger.Info("status server listening", log.String("addr", ln.Addr().String()))
	return nil
}

// Shutdown stops the server and disconnects all clients.
func (p *Plugin) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	srv, cancel := p.server, p.cancel
	p.server, p.cancel = nil, nil
	p.mu.Unlock()
	if srv == nil {
		return nil
	}

	cancel()
	shutdownCtx, done := context.WithTimeout(ctx, 5*time.Second)
	defer done()
	err := srv.Shutdown(shutdownCtx)

	p.mu.Lock()
	for conn := range p.clients {
		conn.Close()
		delete(p.clients, conn)
	}
	p.mu.Unlock()

	p.wg.Wait()
	return err
}

// Handler returns the HTTP routes of the server.
func (p *Plugin) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", p.handleWS)
	mux.HandleFunc("/healthz", p.handleHealth)
	mux.HandleFunc("/stats", p.handleStats)
	mux.HandleFunc("/mapping", p.handleMapping)
	return mux
}

// OnStatus queues a status event for broadcast.
func (p *Plugin) OnStatus(s lumux.Status) {
	p.enqueue(newStatusMessage(s))
}

// OnStateChange queues a state event for broadcast.
func (p *Plugin) OnStateChange(ev lumux.StateChangeEvent) {
	p.enqueue(stateMessage{
		Type:     "state",
		Previous: ev.Previous.String(),
		Current:  ev.Current.String(),
		Reason:   ev.Reason,
	})
}

func (p *Plugin) enqueue(msg any) {
	select {
	case p.queue <- msg:
	default:
		p.dropped.Add(1)
	}
}

func (p *Plugin) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := p.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	conn.SetReadLimit(1 << 16)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	writeMu := &sync.Mutex{}
	p.mu.Lock()
	p.clients[conn] = writeMu
	p.mu.Unlock()

	_ = p.writeJSON(conn, writeMu, stateMessage{Type: "state", Current: p.controller.Status().String()})

	go func() {
		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(pingEvery)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					if err := p.writeMessage(conn, writeMu, websocket.PingMessage, nil); err != nil {
						_ = conn.Close()
						return
					}
				}
			}
		}()
		defer close(done)
		defer p.removeClient(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (p *Plugin) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (p *Plugin) handleStats(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	payload := newStatsMessage(p.controller.Status(), p.controller.Stats())
	payload.Clients = p.clientCount()
	payload.EventsDropped = p.Dropped()
	_ = json.NewEncoder(w).Encode(payload)
}

func (p *Plugin) handleMapping(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	m := p.controller.Mapping()
	if m == nil {
		m = map[string]uint8{}
	}
	_ = json.NewEncoder(w).Encode(m)
}

func (p *Plugin) broadcast(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case message := <-p.queue:
			payload, err := json.Marshal(message)
			if err != nil {
				continue
			}
			var stale []*websocket.Conn
			p.mu.Lock()
			for conn, writeMu := range p.clients {
				if err := p.writeMessage(conn, writeMu, websocket.TextMessage, payload); err != nil {
					stale = append(stale, conn)
				}
			}
			p.mu.Unlock()
			for _, conn := range stale {
				p.removeClient(conn)
			}
		}
	}
}

func (p *Plugin) removeClient(conn *websocket.Conn) {
	p.mu.Lock()
	delete(p.clients, conn)
	p.mu.Unlock()
	conn.Close()
}

func (p *Plugin) clientCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.clients)
}

func (p *Plugin) writeJSON(conn *websocket.Conn, writeMu *sync.Mutex, payload any) error {
	writeMu.Lock()
	defer writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(payload)
}

func (p *Plugin) writeMessage(conn *websocket.Conn, writeMu *sync.Mutex, messageType int, payload []byte) error {
	writeMu.Lock()
	defer writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(messageType, payload)
}

var (
	_ lumux.Plugin       = (*Plugin)(nil)
	_ lumux.EventHandler = (*Plugin)(nil)
)
