package broadcast

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/pollpulse/internal/adapter/metrics"
)

const (
	shutdownReason = "Server shutting down"

	outcomeJoined  = "joined"
	outcomeIgnored = "ignored"
)

var ErrShuttingDown = errors.New("connection manager is shutting down")

// ConnectionManager upgrades HTTP requests to WebSocket connections, owns the
// resulting connections and keeps the Registry consistent with their lifetime.
type ConnectionManager struct {
	registry       *Registry
	upgrader       websocket.Upgrader
	clock          clockwork.Clock
	metrics        *metrics.WebSocketMetrics
	maxConnections int

	nextID atomic.Uint64
	slots  atomic.Int64

	mu       sync.Mutex
	conns    map[ConnID]*Conn
	shutdown bool
	wg       sync.WaitGroup
}

// NewConnectionManager creates a manager. A nil checkOrigin applies the
// gorilla same-origin default.
func NewConnectionManager(registry *Registry, checkOrigin func(*http.Request) bool, m *metrics.WebSocketMetrics, clock clockwork.Clock, maxConnections int) *ConnectionManager {
	return &ConnectionManager{
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		clock:          clock,
		metrics:        m,
		maxConnections: maxConnections,
		conns:          make(map[ConnID]*Conn),
	}
}

// ServeHTTP upgrades the request and serves the connection until it closes.
func (m *ConnectionManager) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !m.acquireSlot() {
		m.metrics.Rejected.Inc()
		http.Error(w, "too many connections", http.StatusServiceUnavailable)
		return
	}

	ws, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.releaseSlot()
		slog.Debug("WebSocket upgrade failed", "error", err, "remote_addr", r.RemoteAddr)
		return
	}

	c, err := m.register(ws)
	if err != nil {
		m.releaseSlot()
		closeMsg := websocket.FormatCloseMessage(websocket.CloseGoingAway, shutdownReason)
		_ = ws.WriteMessage(websocket.CloseMessage, closeMsg)
		_ = ws.Close()
		return
	}
	defer m.wg.Done()

	slog.Debug("WebSocket connected", "conn_id", c.id, "remote_addr", r.RemoteAddr)
	m.readLoop(c)
}

// acquireSlot reserves room for one connection before the upgrade. Every
// successful call is paired with exactly one releaseSlot.
func (m *ConnectionManager) acquireSlot() bool {
	for {
		current := m.slots.Load()
		if m.maxConnections > 0 && current >= int64(m.maxConnections) {
			return false
		}
		if m.slots.CompareAndSwap(current, current+1) {
			return true
		}
	}
}

func (m *ConnectionManager) releaseSlot() {
	m.slots.Add(-1)
}

func (m *ConnectionManager) register(ws *websocket.Conn) (*Conn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shutdown {
		return nil, ErrShuttingDown
	}

	ws.SetReadLimit(maxMessageSize)
	c := &Conn{
		id:     ConnID(m.nextID.Add(1)),
		ws:     ws,
		writer: newClientWriter(ws, m.clock),
	}
	m.conns[c.id] = c
	m.wg.Add(1)
	m.metrics.ActiveConnections.Inc()
	return c, nil
}

func (m *ConnectionManager) readLoop(c *Conn) {
	defer m.closeConn(c)

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Debug("WebSocket read failed", "conn_id", c.id, "error", err)
			}
			return
		}
		c.writer.extendReadDeadline()
		m.handleMessage(c, data)
	}
}

func (m *ConnectionManager) handleMessage(c *Conn, data []byte) {
	pollID, ok := parseJoin(data)
	if !ok {
		slog.Debug("Ignoring WebSocket message", "conn_id", c.id, "size", len(data))
		m.metrics.ControlMessages.WithLabelValues(outcomeIgnored).Inc()
		return
	}

	if current, ok := m.registry.RoomOf(c.id); !ok || current != pollID {
		m.registry.Subscribe(pollID, c)
		slog.Debug("Connection joined poll", "conn_id", c.id, "poll_id", pollID, "previous", current)
	}
	m.metrics.ControlMessages.WithLabelValues(outcomeJoined).Inc()
}

// closeConn runs exactly once per connection, whichever side failed first.
func (m *ConnectionManager) closeConn(c *Conn) {
	c.closeOnce.Do(func() {
		c.setState(stateClosing)
		m.registry.Unsubscribe(c)
		c.writer.stop()
		c.setState(stateClosed)

		m.mu.Lock()
		delete(m.conns, c.id)
		m.mu.Unlock()

		m.releaseSlot()
		m.metrics.ActiveConnections.Dec()
		slog.Debug("WebSocket disconnected", "conn_id", c.id)
	})
}

func (m *ConnectionManager) ConnectionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.conns)
}

// Shutdown refuses new connections, sends a close frame to every open
// connection and waits for their read loops to finish or ctx to expire.
func (m *ConnectionManager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.shutdown = true
	conns := make([]*Conn, 0, len(m.conns))
	for _, c := range m.conns {
		conns = append(conns, c)
	}
	m.mu.Unlock()

	for _, c := range conns {
		c.setState(stateClosing)
		c.writer.stopGraceful(shutdownReason)
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("WebSocket connections closed", "count", len(conns))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
