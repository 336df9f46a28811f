package ws

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/ChamsBouzaiene/relay/internal/engine"
)

// connection is one live WebSocket client. Frames queue on send and are
// written by a single writer goroutine, which preserves per-session ordering.
type connection struct {
	sessionID string

	mu     sync.Mutex
	closed bool
	send   chan []byte
}

// enqueue queues a frame for the writer. Reports false when the connection
// is closed or the buffer is full.
func (c *connection) enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *connection) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Hub tracks the one live connection per session and implements engine.Sink.
// Notifications for sessions without a live connection are dropped.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*connection
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[string]*connection)}
}

func (h *Hub) bind(sessionID string) *connection {
	conn := &connection{
		sessionID: sessionID,
		send:      make(chan []byte, 64),
	}
	h.mu.Lock()
	h.conns[sessionID] = conn
	h.mu.Unlock()
	return conn
}

// unbind detaches the session's connection. Further notifications for the
// session are suppressed.
func (h *Hub) unbind(conn *connection) {
	h.mu.Lock()
	if cur, ok := h.conns[conn.sessionID]; ok && cur == conn {
		delete(h.conns, conn.sessionID)
	}
	h.mu.Unlock()
	conn.shutdown()
}

// Notify implements engine.Sink. Delivery is best-effort: a missing
// connection or a full send buffer never fails the caller.
func (h *Hub) Notify(sessionID string, n engine.Notification) {
	h.mu.RLock()
	conn, ok := h.conns[sessionID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	data, err := json.Marshal(frameFor(sessionID, n))
	if err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("notification marshal failed")
		return
	}

	if !conn.enqueue(data) {
		log.Warn().Str("session_id", sessionID).Msg("dropping notification for closed or saturated connection")
	}
}
